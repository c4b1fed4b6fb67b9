// Package index matches observed band normals against a crystal's
// interplanar angle table and returns ranked orientation Solutions.
//
// Responsibilities: observed-pair generation, lookup of theoretical pairs
// within tolerance, orientation hypotheses, scoring by mutually
// consistent pairs, merging of symmetry-equivalent hypotheses and the
// final least-squares orientation fit.
// Key types: Config, Indexer, Solution, Correspondence.
//
// Dependency rule: index depends on crystal, config and units; it never reads
// peaks or detector types, it is handed unit normals.
package index
