// Package peaks turns a thresholded Hough accumulator into a list of
// band peaks and trims that list to a configured size.
//
// Responsibilities: region labeling via a hough.Labeler, reduction of
// each region to one HoughPeak by a positioning strategy, and selection
// of the strongest peaks.
// Key types: HoughPeak, Positioning, Extractor.
//
// Dependency rule: peaks depends on hough and config only.
package peaks
