// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/WardLT/pif-dft/pkg/pif"
)

// Storer indexes converted records.
type Storer interface {
	Put(ctx context.Context, rec *pif.Record, source string) (bool, error)
}

// BatchOptions control a tree conversion.
type BatchOptions struct {
	Options

	// OutDir receives one record file per calculation. Empty writes none.
	OutDir string

	// Format selects the record file format.
	Format pif.Format

	// QualityDelay is the pause between consecutive quality calls.
	QualityDelay time.Duration

	// Store, when set, also indexes every record.
	Store Storer
}

// BatchResult holds the outcome of a tree conversion.
type BatchResult struct {
	Converted int
	Partial   int
	Failed    int
}

// Total returns the number of calculations processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Partial + r.Failed
}

// HasFailures reports whether any calculation failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// CalculationDirs returns the immediate subdirectories of root, sorted.
// Hidden directories are ignored.
func CalculationDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			dirs = append(dirs, filepath.Join(root, entry.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ConvertTree converts each calculation directory under root, printing a
// status line per directory to w and returning a summary. Failures do not
// stop the run; cancelling ctx does.
//
// The quality service is rate-limited, so consecutive quality calls are
// spaced by opts.QualityDelay.
func (e *Engine) ConvertTree(ctx context.Context, root string, opts BatchOptions, w io.Writer) (BatchResult, error) {
	var result BatchResult

	dirs, err := CalculationDirs(root)
	if err != nil {
		return result, err
	}
	if opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
			return result, fmt.Errorf("creating output directory: %w", err)
		}
	}

	for i, dir := range dirs {
		if opts.Quality && i > 0 && opts.QualityDelay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(opts.QualityDelay):
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		name := filepath.Base(dir)
		res, err := e.ConvertDirectory(ctx, dir, opts.Options)
		if err == nil {
			err = e.save(ctx, res.Record, name, dir, opts)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			fmt.Fprintf(w, "failed:    %s (%v)\n", name, err)
			result.Failed++
			continue
		}

		if res.Partial() {
			fmt.Fprintf(w, "partial:   %s (%s, %d warning(s), %d skipped)\n",
				name, res.Record.ChemicalFormula, len(res.Warnings), len(res.Skipped))
			for _, warn := range res.Warnings {
				fmt.Fprintf(w, "  warning: %s\n", warn)
			}
			result.Partial++
			continue
		}
		fmt.Fprintf(w, "converted: %s (%s)\n", name, res.Record.ChemicalFormula)
		result.Converted++
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d partial, %d failed (total: %d)\n",
		result.Converted, result.Partial, result.Failed, result.Total())
	return result, nil
}

// save writes rec to the output directory and the store, as configured.
func (e *Engine) save(ctx context.Context, rec *pif.Record, name, source string, opts BatchOptions) error {
	if opts.OutDir != "" {
		path := filepath.Join(opts.OutDir, name+opts.Format.Ext())
		data, err := pif.Marshal(rec, opts.Format)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	if opts.Store != nil {
		if _, err := opts.Store.Put(ctx, rec, source); err != nil {
			return fmt.Errorf("storing record: %w", err)
		}
	}
	return nil
}
