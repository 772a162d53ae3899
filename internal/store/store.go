// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps converted records in a SQLite index so they can be
// looked up by formula or by property.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/WardLT/pif-dft/pkg/pif"
	"github.com/WardLT/pif-dft/pkg/types"
)

const (
	dbFile            = "records.db"
	defaultMaxResults = 50
)

// ErrNotFound is returned when no record has the requested uid.
var ErrNotFound = errors.New("record not found")

// Store manages the record index database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// Open opens or creates the record database at cfg.Dir/records.db and
// creates the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("store directory not configured")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			uid TEXT PRIMARY KEY,
			formula TEXT NOT NULL,
			source TEXT,
			body TEXT NOT NULL,
			ingested_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS properties (
			uid TEXT NOT NULL REFERENCES records(uid) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			value REAL,
			units TEXT,
			PRIMARY KEY (uid, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_formula ON records(formula)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_name ON properties(name, value)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Put indexes rec under its uid, replacing any earlier copy. A record
// without a uid gets one derived from its content. It reports whether a
// record with that uid was already stored.
func (s *Store) Put(ctx context.Context, rec *pif.Record, source string) (bool, error) {
	if rec == nil {
		return false, fmt.Errorf("storing nil record")
	}
	if rec.ChemicalFormula == "" {
		return false, fmt.Errorf("record has no chemical formula")
	}
	if rec.UID == "" {
		rec = rec.Clone()
		if err := rec.AssignUID(); err != nil {
			return false, err
		}
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("encoding record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM records WHERE uid = ?`, rec.UID).Scan(&existing); err != nil {
		return false, fmt.Errorf("checking record %s: %w", rec.UID, err)
	}
	if existing > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM properties WHERE uid = ?`, rec.UID); err != nil {
			return false, fmt.Errorf("deleting old properties: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (uid, formula, source, body, ingested_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET
			formula=excluded.formula, source=excluded.source,
			body=excluded.body, ingested_at=excluded.ingested_at`,
		rec.UID, rec.ChemicalFormula, source, string(body), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("upserting record: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO properties (uid, position, name, value, units) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return false, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range rec.Properties {
		var value sql.NullFloat64
		if len(p.Scalars) == 1 {
			if v, ok := p.Scalars[0].Float(); ok {
				value = sql.NullFloat64{Float64: v, Valid: true}
			}
		}
		if _, err := stmt.ExecContext(ctx, rec.UID, i, p.Name, value, p.Units); err != nil {
			return false, fmt.Errorf("inserting property %s: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing record %s: %w", rec.UID, err)
	}
	return existing > 0, nil
}

// Get returns the stored record with the given uid.
func (s *Store) Get(ctx context.Context, uid string) (*pif.Record, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM records WHERE uid = ?`, uid).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, uid)
		}
		return nil, fmt.Errorf("looking up record: %w", err)
	}
	return pif.Decode([]byte(body))
}

// IngestSummary holds counts from an ingest run.
type IngestSummary struct {
	Indexed int
	Updated int
	Failed  int
}

// Total returns the number of files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Failed
}

// IngestFiles reads record files (JSON or YAML) and indexes each one,
// writing a status line per file to w. A file that cannot be read or parsed
// is counted as failed and does not stop the run.
func (s *Store) IngestFiles(ctx context.Context, paths []string, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}
		rec, err := pif.Decode(data)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}

		updated, err := s.Put(ctx, rec, path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}
		if updated {
			fmt.Fprintf(w, "updated %s (%s)\n", path, rec.ChemicalFormula)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s (%s)\n", path, rec.ChemicalFormula)
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Failed)
	return summary, nil
}
