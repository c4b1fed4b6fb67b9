// Package sqlite is the crystal library: a SQLite store of phases that
// the indexing pipeline loads by name or space-group number.
//
// The schema is managed by golang-migrate from migrations embedded in the
// binary. Records are validated on the way out, so a row with an
// unrecognised space group surfaces crystal.ErrUnknownSpaceGroup instead
// of a substituted default.
package sqlite
