// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/WardLT/pif-dft/internal/store"
	"github.com/WardLT/pif-dft/pkg/pif"
	"github.com/WardLT/pif-dft/pkg/types"
)

// recordPattern selects record files when a directory is passed to ingest.
const recordPattern = "**/*.{json,yaml,yml}"

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the record store (ingest, query, export)",
	Long: `Store manages a local SQLite index of PIF records. Use subcommands to
index record files, query them by formula and property value, or export.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest <records...>",
	Short: "Index record files in the record store",
	Long: `Ingest reads PIF records (JSON or YAML) and indexes them by UID.
A directory argument is searched recursively for .json, .yaml, and .yml
files. Re-ingesting a record with the same UID updates it in place.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	paths, err := expandRecordPaths(args)
	if err != nil {
		return err
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.IngestFiles(context.Background(), paths, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d record file(s) failed indexing", summary.Failed)
	}
	return nil
}

// expandRecordPaths replaces each directory argument by the record files
// beneath it. Plain files are kept as given.
func expandRecordPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(arg), recordPattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("searching %s: %w", arg, err)
		}
		for _, m := range matches {
			paths = append(paths, filepath.Join(arg, filepath.FromSlash(m)))
		}
	}
	return paths, nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the record store by formula and property",
	Long: `Query lists stored records matching a chemical formula, a property
name, or both. With --property, --min and --max bound the property's
numeric value.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	opts, err := queryOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	if opts.IsEmpty() {
		return fmt.Errorf("filter required: provide --formula or --property")
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Query(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(os.Stdout, results, jsonOutput)
}

func formatQueryOutput(w io.Writer, results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-16s  %-24s  %s\n", "UID", "Formula", "Property", "Value")
	fmt.Fprintln(w, strings.Repeat("-", 96))

	for _, r := range results {
		formula := r.ChemicalFormula
		if len(formula) > 16 {
			formula = formula[:13] + "..."
		}
		name, value := "", ""
		if r.Property != nil {
			name = r.Property.Name
			if len(name) > 24 {
				name = name[:21] + "..."
			}
			value = propertyValue(r.Property)
		}
		fmt.Fprintf(w, "%-36s  %-16s  %-24s  %s\n", r.UID, formula, name, value)
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// propertyValue renders the scalars of p with its units.
func propertyValue(p *pif.Property) string {
	parts := make([]string, len(p.Scalars))
	for i, s := range p.Scalars {
		parts[i] = fmt.Sprint(s.Value)
	}
	v := strings.Join(parts, ", ")
	if p.Units != "" {
		v += " " + p.Units
	}
	return v
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records as JSON or YAML",
	Long: `Export writes every stored record (or the subset matching the filter
flags) to stdout or --out as one JSON array or YAML sequence.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := pif.ParseFormat(formatName)
	if err != nil {
		return err
	}
	opts, err := queryOptsFromFlags(cmd)
	if err != nil {
		return err
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return s.Export(context.Background(), os.Stdout, opts, format)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := s.Export(context.Background(), f, opts, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported to %s\n", out)
	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return store.Open(types.StoreConfig{
		Dir:        flagOrConfig(cmd, "store-dir", cfg.Store.Dir),
		MaxResults: cfg.Store.MaxResults,
	})
}

func queryOptsFromFlags(cmd *cobra.Command) (store.QueryOptions, error) {
	formula, _ := cmd.Flags().GetString("formula")
	property, _ := cmd.Flags().GetString("property")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := store.QueryOptions{
		Formula:    formula,
		Property:   property,
		MaxResults: limit,
	}
	if cmd.Flags().Changed("min") || cmd.Flags().Changed("max") {
		if property == "" {
			return opts, fmt.Errorf("--min and --max require --property")
		}
	}
	if cmd.Flags().Changed("min") {
		v, _ := cmd.Flags().GetFloat64("min")
		opts.Min = &v
	}
	if cmd.Flags().Changed("max") {
		v, _ := cmd.Flags().GetFloat64("max")
		opts.Max = &v
	}
	return opts, nil
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("store-dir", "store", "directory holding records.db")

	// Query and export filters.
	for _, c := range []*cobra.Command{storeQueryCmd, storeExportCmd} {
		c.Flags().String("formula", "", "filter by chemical formula")
		c.Flags().String("property", "", "filter by property name")
		c.Flags().Float64("min", 0, "minimum property value (requires --property)")
		c.Flags().Float64("max", 0, "maximum property value (requires --property)")
	}
	storeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")

	storeExportCmd.Flags().String("format", "json", "export format: json or yaml")
	storeExportCmd.Flags().String("out", "", "write the export to this file instead of stdout")

	// Wire subcommands.
	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
