// Package monitor renders diagnostic artefacts for indexing runs.
//
// Responsibilities: a PNG of a Hough accumulator with the selected peaks
// overlaid, and an HTML report of a batch (matches and confidence per
// pattern).
// Key functions: PlotAccumulator, WriteReport, SaveReport.
//
// Dependency rule: monitor reads pipeline results and hough grids; nothing
// under internal/ebsd imports monitor.
package monitor
