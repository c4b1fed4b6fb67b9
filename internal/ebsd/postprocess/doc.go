// Package postprocess reduces or re-ranks the Solutions of one pattern.
//
// Every Processor is a pure function over a ranked slice: it never
// modifies the Solutions it receives, accepts an empty slice, and keeps
// input order unless its purpose is re-ranking (ByFit).
// Key types: Processor, Best, Top, MinimumMatches, ByFit, Chain, Summary.
//
// Dependency rule: postprocess depends on index only.
package postprocess
