// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/WardLT/pif-dft/pkg/pif"
)

// exportLimit bounds the records written by Export.
const exportLimit = 100000

// QueryOptions holds the filters of a record query. Filters combine with
// AND semantics.
type QueryOptions struct {
	// Formula matches the chemical formula exactly.
	Formula string

	// Property requires a property with this name.
	Property string

	// Min and Max bound the numeric value of Property. They are ignored
	// when Property is empty.
	Min, Max *float64

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Formula == "" && q.Property == ""
}

// QueryResult is one matching record. Property holds the filtered
// property when the query named one.
type QueryResult struct {
	UID             string        `json:"uid" yaml:"uid"`
	ChemicalFormula string        `json:"chemicalFormula" yaml:"chemicalFormula"`
	Source          string        `json:"source,omitempty" yaml:"source,omitempty"`
	Property        *pif.Property `json:"property,omitempty" yaml:"property,omitempty"`
	Record          *pif.Record   `json:"-" yaml:"-"`
}

// Query returns the records matching opts, sorted by formula and uid.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT r.uid, r.formula, r.source, r.body FROM records r WHERE 1=1`)

	if opts.Formula != "" {
		qb.WriteString(` AND r.formula = ?`)
		args = append(args, opts.Formula)
	}

	if opts.Property != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM properties p WHERE p.uid = r.uid AND p.name = ?`)
		args = append(args, opts.Property)
		if opts.Min != nil {
			qb.WriteString(` AND p.value >= ?`)
			args = append(args, *opts.Min)
		}
		if opts.Max != nil {
			qb.WriteString(` AND p.value <= ?`)
			args = append(args, *opts.Max)
		}
		qb.WriteString(`)`)
	}

	qb.WriteString(` ORDER BY r.formula, r.uid LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr     QueryResult
			source *string
			body   string
		)
		if err := rows.Scan(&qr.UID, &qr.ChemicalFormula, &source, &body); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if source != nil {
			qr.Source = *source
		}
		rec, err := pif.Decode([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("decoding record %s: %w", qr.UID, err)
		}
		qr.Record = rec
		if opts.Property != "" {
			if p, ok := pif.GetPropertyByName(rec, opts.Property); ok {
				qr.Property = p
			}
		}
		results = append(results, qr)
	}

	return results, rows.Err()
}

// Export writes every record matching opts to w as a single JSON array or
// YAML sequence.
func (s *Store) Export(ctx context.Context, w io.Writer, opts QueryOptions, format pif.Format) error {
	opts.MaxResults = exportLimit
	results, err := s.Query(ctx, opts)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	records := make([]*pif.Record, len(results))
	for i, r := range results {
		records[i] = r.Record
	}

	switch format {
	case pif.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	}
}
