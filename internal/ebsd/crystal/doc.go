// Package crystal owns the crystallographic model used for indexing.
//
// Responsibilities: unit-cell metric and reciprocal basis, Miller-index
// planes, the 11 Laue groups and their symmetry operators, space-group
// to Laue mapping, structure factors, reflector generation and the
// interplanar angle-pair table.
// Key types: UnitCell, Plane, Crystal, Reflector, InterplanarAnglePair,
// Tables.
//
// Everything here is built once per crystal and then only read. A Tables
// value may be shared by any number of goroutines indexing patterns
// concurrently; nothing in this package mutates it after BuildTables
// returns.
//
// Dependency rule: crystal depends on no other ebsd package.
package crystal
