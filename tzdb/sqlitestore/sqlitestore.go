// Package sqlitestore keeps TZif data for many zones in a SQLite database,
// for deployments that manage zone data next to their other records.
//
// Schema:
//
//	zones(id TEXT PRIMARY KEY, data BLOB NOT NULL)
//	meta(key TEXT PRIMARY KEY, value TEXT NOT NULL)
//
// The meta table holds the tzdata version under the key "version".
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ngrash/tzoffset/tzdb"
	"github.com/ngrash/tzoffset/tzrules"
)

// Store serves zones from a SQLite database. It is safe for concurrent
// use.
type Store struct {
	db    *sql.DB
	cache tzdb.Cache
}

// Open opens or creates the database at path and migrates its schema. Use
// ":memory:" for a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS zones (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`)
	return err
}

// Put validates data as the TZif file of id and stores it, replacing an
// existing entry.
func (s *Store) Put(ctx context.Context, id string, data []byte) error {
	return s.Import(ctx, map[string][]byte{id: data})
}

// Import validates and stores all zones in one transaction. Nothing is
// stored if any zone is invalid.
func (s *Store) Import(ctx context.Context, zones map[string][]byte) error {
	for id, data := range zones {
		if id == "" {
			return errors.New("empty zone id")
		}
		if _, err := tzdb.ParseTZif(id, data); err != nil {
			return err
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO zones (id, data) VALUES (?, ?)
	ON CONFLICT (id) DO UPDATE SET data = excluded.data`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for id, data := range zones {
		if _, err := stmt.ExecContext(ctx, id, data); err != nil {
			return fmt.Errorf("store zone %q: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	for id := range zones {
		s.cache.Forget(id)
	}
	return nil
}

// Delete removes id. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM zones WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete zone %q: %w", id, err)
	}
	s.cache.Forget(id)
	return nil
}

// SetVersion records the tzdata version the zones were taken from.
func (s *Store) SetVersion(ctx context.Context, version string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO meta (key, value) VALUES ('version', ?)
	ON CONFLICT (key) DO UPDATE SET value = excluded.value`, version)
	if err != nil {
		return fmt.Errorf("set version: %w", err)
	}
	return nil
}

// Version returns the recorded tzdata version, or "" if none is set.
func (s *Store) Version(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'version'").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read version: %w", err)
	}
	return v, nil
}

// ZoneData returns the stored TZif data of id.
func (s *Store) ZoneData(id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(context.Background(), "SELECT data FROM zones WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &tzdb.UnknownZoneError{ID: id}
	}
	if err != nil {
		return nil, &tzdb.ZoneError{ID: id, Err: err}
	}
	return data, nil
}

// RulesForID reads and parses id on first access. Put and Delete drop the
// cached result. Unknown ids are not cached.
func (s *Store) RulesForID(id string) (*tzrules.Rules, error) {
	r, err := s.cache.Load(id, func() (*tzrules.Rules, error) {
		data, err := s.ZoneData(id)
		if err != nil {
			return nil, err
		}
		return tzdb.ParseTZif(id, data)
	})
	if errors.Is(err, tzdb.ErrUnknownZone) {
		s.cache.Forget(id)
	}
	return r, err
}

// AvailableIDs returns the stored ids in order.
func (s *Store) AvailableIDs() ([]string, error) {
	rows, err := s.db.QueryContext(context.Background(), "SELECT id FROM zones ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list zones: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
