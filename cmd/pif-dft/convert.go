// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/WardLT/pif-dft/internal/engine"
	"github.com/WardLT/pif-dft/pkg/pif"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert one calculation into a PIF record",
	Long: `Convert reads the output files of a single DFT calculation, detects
which code produced them, and writes one PIF record. Pass the files
explicitly or name the calculation directory with --dir.

Properties that could not be extracted are reported on stderr; the
record is still written. With --quality the record is sent to the
configured quality service and its report is appended as a property.`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	out, _ := cmd.Flags().GetString("out")
	if dir == "" && len(args) == 0 {
		return fmt.Errorf("no input: pass calculation files or --dir")
	}
	if dir != "" && len(args) > 0 {
		return fmt.Errorf("pass either files or --dir, not both")
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	format, err := pif.ParseFormat(flagOrConfig(cmd, "format", cfg.Output.Format))
	if err != nil {
		return err
	}
	wantQuality := qualityRequested(cmd, cfg.Quality.Enabled)

	eng, err := newEngine(cfg, wantQuality)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := engine.Options{Quality: wantQuality}
	var res *engine.Result
	if dir != "" {
		res, err = eng.ConvertDirectory(ctx, dir, opts)
	} else {
		res, err = eng.Convert(ctx, args, opts)
	}
	if err != nil {
		return err
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	for _, key := range res.Skipped {
		fmt.Fprintf(os.Stderr, "skipped: %s (inputs not found)\n", key)
	}

	if out == "" {
		return pif.Encode(os.Stdout, res.Record, format)
	}
	data, err := pif.Marshal(res.Record, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s record for %s to %s\n", res.Family, res.Record.ChemicalFormula, out)
	return nil
}

// flagOrConfig returns the flag value when set on the command line and the
// configured value otherwise.
func flagOrConfig(cmd *cobra.Command, name, configured string) string {
	if cmd.Flags().Changed(name) || configured == "" {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return configured
}

// qualityRequested reports whether annotation is on, either from --quality
// or from quality.enabled in the configuration.
func qualityRequested(cmd *cobra.Command, enabled bool) bool {
	if cmd.Flags().Changed("quality") {
		v, _ := cmd.Flags().GetBool("quality")
		return v
	}
	return enabled
}

func init() {
	convertCmd.Flags().String("dir", "", "calculation directory (every regular file in it is an input)")
	convertCmd.Flags().String("out", "", "write the record to this file instead of stdout")
	convertCmd.Flags().String("format", "json", "record format: json or yaml")
	convertCmd.Flags().Bool("quality", false, "annotate the record using the quality service")

	rootCmd.AddCommand(convertCmd)
}
