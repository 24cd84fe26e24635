// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/cosnicolaou/dstchange/transitions"
	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

var identifierRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrNotFound is returned by Get for a zone that has no record.
var ErrNotFound = errors.New("no record found")

// SQLite is a Store backed by a single SQLite table with one row per zone.
type SQLite struct {
	db    *sql.DB
	table string
}

// NewSQLite returns a Store that uses the supplied database and table,
// the table must already exist. An empty table name selects DefaultTable.
func NewSQLite(db *sql.DB, table string) (*SQLite, error) {
	if len(table) == 0 {
		table = DefaultTable
	}
	if !identifierRE.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	return &SQLite{db: db, table: table}, nil
}

// OpenSQLite opens, or creates, the SQLite database at path and ensures
// that the table exists.
func OpenSQLite(ctx context.Context, path, table string) (*SQLite, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	st, err := NewSQLite(db, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%v: %w", pragma, err)
		}
	}
	if err := st.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return st, nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    timezone_name TEXT PRIMARY KEY,
    next_dst_change TEXT NOT NULL,
    second_dst_change TEXT NOT NULL
);`, s.table)); err != nil {
		return fmt.Errorf("create table %v: %w", s.table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

// Table returns the name of the table used by the store.
func (s *SQLite) Table() string {
	return s.table
}

// Put inserts rec, replacing any existing record for the same zone.
func (s *SQLite) Put(ctx context.Context, rec transitions.Record) error {
	if len(rec.ZoneName) == 0 {
		return fmt.Errorf("missing zone name")
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (timezone_name, next_dst_change, second_dst_change)
VALUES (?, ?, ?)
ON CONFLICT(timezone_name) DO UPDATE SET
    next_dst_change=excluded.next_dst_change,
    second_dst_change=excluded.second_dst_change`, s.table),
		rec.ZoneName, rec.NextDSTChange, rec.SecondDSTChange)
	return err
}

// Get returns the record for zone, or ErrNotFound.
func (s *SQLite) Get(ctx context.Context, zone string) (transitions.Record, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT timezone_name, next_dst_change, second_dst_change FROM %s WHERE timezone_name=?`, s.table),
		zone)
	var rec transitions.Record
	if err := row.Scan(&rec.ZoneName, &rec.NextDSTChange, &rec.SecondDSTChange); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transitions.Record{}, fmt.Errorf("%q: %w", zone, ErrNotFound)
		}
		return transitions.Record{}, err
	}
	return rec, nil
}

// List returns all records ordered by zone name.
func (s *SQLite) List(ctx context.Context) ([]transitions.Record, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT timezone_name, next_dst_change, second_dst_change FROM %s ORDER BY timezone_name`, s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []transitions.Record
	for rows.Next() {
		var rec transitions.Record
		if err := rows.Scan(&rec.ZoneName, &rec.NextDSTChange, &rec.SecondDSTChange); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
