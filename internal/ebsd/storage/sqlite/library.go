package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/banshee-data/kikuchi/internal/ebsd/crystal"
	"github.com/banshee-data/kikuchi/internal/monitoring"
	"github.com/banshee-data/kikuchi/internal/units"
	_ "modernc.org/sqlite"
)

// ErrCrystalNotFound is returned when no crystal has the requested name.
var ErrCrystalNotFound = errors.New("crystal not found")

// Library stores crystal definitions.
type Library struct {
	db *sql.DB
}

// Open opens (creating if needed) the library at path and migrates it to
// the latest schema.
func Open(path string) (*Library, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	l := &Library{db: db}
	if err := l.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// Close closes the underlying database.
func (l *Library) Close() error { return l.db.Close() }

// Put inserts or replaces c and its atom sites.
func (l *Library) Put(c *crystal.Crystal) error {
	a, b, cc := c.Cell().Lengths()
	alpha, beta, gamma := c.Cell().Angles()
	now := time.Now().UnixNano()

	return retryOnBusy(func() error {
		tx, err := l.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO crystals (
				name, a, b, c, alpha_deg, beta_deg, gamma_deg,
				space_group, laue_group, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				a = excluded.a, b = excluded.b, c = excluded.c,
				alpha_deg = excluded.alpha_deg, beta_deg = excluded.beta_deg, gamma_deg = excluded.gamma_deg,
				space_group = excluded.space_group, laue_group = excluded.laue_group,
				updated_at = excluded.updated_at`,
			c.Name(), a, b, cc, units.ToDegrees(alpha), units.ToDegrees(beta), units.ToDegrees(gamma),
			c.SpaceGroup(), c.Laue().Index(), now, now,
		)
		if err != nil {
			return fmt.Errorf("upsert crystal %q: %w", c.Name(), err)
		}

		if _, err := tx.Exec(`DELETE FROM crystal_atom_sites WHERE crystal_name = ?`, c.Name()); err != nil {
			return fmt.Errorf("clear atom sites of %q: %w", c.Name(), err)
		}
		for i, s := range c.Atoms() {
			_, err := tx.Exec(`
				INSERT INTO crystal_atom_sites (crystal_name, site_index, x, y, z, atomic_number, occupancy)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				c.Name(), i, s.X, s.Y, s.Z, s.AtomicNumber, s.Occupancy,
			)
			if err != nil {
				return fmt.Errorf("insert atom site %d of %q: %w", i, c.Name(), err)
			}
		}
		return tx.Commit()
	})
}

// Get loads the crystal called name.
func (l *Library) Get(name string) (*crystal.Crystal, error) {
	row := l.db.QueryRow(`
		SELECT name, a, b, c, alpha_deg, beta_deg, gamma_deg, space_group, laue_group
		FROM crystals
		WHERE name = ?`, name)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrCrystalNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("query crystal %q: %w", name, err)
	}
	return l.build(rec)
}

// BySpaceGroup returns every crystal recorded with space group sg, by
// name. An sg outside 1–230 fails with crystal.ErrUnknownSpaceGroup.
func (l *Library) BySpaceGroup(sg int) ([]*crystal.Crystal, error) {
	if _, err := crystal.LaueFromSpaceGroup(sg); err != nil {
		return nil, err
	}
	rows, err := l.db.Query(`
		SELECT name, a, b, c, alpha_deg, beta_deg, gamma_deg, space_group, laue_group
		FROM crystals
		WHERE space_group = ?
		ORDER BY name`, sg)
	if err != nil {
		return nil, fmt.Errorf("query crystals in space group %d: %w", sg, err)
	}
	var recs []record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]*crystal.Crystal, 0, len(recs))
	for _, rec := range recs {
		c, err := l.build(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// List returns the names of all stored crystals in ascending order.
func (l *Library) List() ([]string, error) {
	rows, err := l.db.Query(`SELECT name FROM crystals ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list crystals: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Delete removes the crystal called name and its atom sites.
func (l *Library) Delete(name string) error {
	return retryOnBusy(func() error {
		tx, err := l.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM crystal_atom_sites WHERE crystal_name = ?`, name); err != nil {
			return err
		}
		res, err := tx.Exec(`DELETE FROM crystals WHERE name = ?`, name)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %q", ErrCrystalNotFound, name)
		}
		return tx.Commit()
	})
}

// SeedPresets stores every built-in preset and returns how many were
// written.
func (l *Library) SeedPresets() (int, error) {
	presets := crystal.Presets()
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := l.Put(presets[n]); err != nil {
			return 0, err
		}
	}
	monitoring.Logf("[library] seeded %d preset crystals", len(names))
	return len(names), nil
}

// record is one crystals row.
type record struct {
	name                  string
	a, b, c               float64
	alpha, beta, gamma    float64 // degrees
	spaceGroup, laueGroup int
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (record, error) {
	var r record
	err := s.Scan(&r.name, &r.a, &r.b, &r.c, &r.alpha, &r.beta, &r.gamma, &r.spaceGroup, &r.laueGroup)
	return r, err
}

// build validates a row and its atom sites into a Crystal. A recorded
// space group wins over the recorded Laue group; the two must agree.
func (l *Library) build(r record) (*crystal.Crystal, error) {
	atoms, err := l.atoms(r.name)
	if err != nil {
		return nil, err
	}
	cell, err := crystal.NewUnitCellDegrees(r.a, r.b, r.c, r.alpha, r.beta, r.gamma)
	if err != nil {
		return nil, fmt.Errorf("crystal %q: %w", r.name, err)
	}
	if r.spaceGroup == 0 {
		laue, err := crystal.LaueFromIndex(r.laueGroup)
		if err != nil {
			return nil, fmt.Errorf("crystal %q: %w", r.name, err)
		}
		return crystal.NewCrystal(r.name, cell, atoms, laue)
	}
	c, err := crystal.NewCrystalFromSpaceGroup(r.name, cell, atoms, r.spaceGroup)
	if err != nil {
		return nil, err
	}
	if c.Laue().Index() != r.laueGroup {
		return nil, fmt.Errorf("crystal %q: space group %d is %v but laue group %d was recorded",
			r.name, r.spaceGroup, c.Laue(), r.laueGroup)
	}
	return c, nil
}

func (l *Library) atoms(name string) ([]crystal.AtomSite, error) {
	rows, err := l.db.Query(`
		SELECT x, y, z, atomic_number, occupancy
		FROM crystal_atom_sites
		WHERE crystal_name = ?
		ORDER BY site_index`, name)
	if err != nil {
		return nil, fmt.Errorf("query atom sites of %q: %w", name, err)
	}
	defer rows.Close()

	var atoms []crystal.AtomSite
	for rows.Next() {
		var s crystal.AtomSite
		if err := rows.Scan(&s.X, &s.Y, &s.Z, &s.AtomicNumber, &s.Occupancy); err != nil {
			return nil, err
		}
		atoms = append(atoms, s)
	}
	return atoms, rows.Err()
}
