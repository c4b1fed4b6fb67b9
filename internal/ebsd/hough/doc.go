// Package hough holds the Hough-space data the peak extractor consumes.
//
// Responsibilities: the real-valued accumulator grid with its theta/rho
// axes, same-shaped binary masks, and the connected-component labeling
// contract with a default scan-order implementation.
// Key types: Accumulator, Mask, Labels, Labeler.
//
// The accumulator is indexed by column (theta bin) and row (rho bin),
// stored row-major. Producing an accumulator from a diffraction image is
// the job of an upstream transform and is not done here.
package hough
