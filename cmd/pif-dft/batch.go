// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/WardLT/pif-dft/internal/engine"
	"github.com/WardLT/pif-dft/internal/store"
	"github.com/WardLT/pif-dft/pkg/pif"
)

var batchCmd = &cobra.Command{
	Use:   "batch <root>",
	Short: "Convert every calculation directory under root",
	Long: `Batch treats each immediate subdirectory of root as one calculation,
converts it, and writes <out-dir>/<name>.json (or .yaml). A status line is
printed per calculation followed by a summary. A failed calculation does not
stop the run, but the command exits non-zero when any failed.

With --quality, consecutive annotation requests are spaced by --delay
(quality.delay) to respect the service's rate limit. With --store, each
record is also indexed in the local record store.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	format, err := pif.ParseFormat(flagOrConfig(cmd, "format", cfg.Output.Format))
	if err != nil {
		return err
	}
	wantQuality := qualityRequested(cmd, cfg.Quality.Enabled)

	delay := cfg.Quality.Delay
	if cmd.Flags().Changed("delay") {
		delay, _ = cmd.Flags().GetDuration("delay")
	}

	eng, err := newEngine(cfg, wantQuality)
	if err != nil {
		return err
	}

	opts := engine.BatchOptions{
		Options:      engine.Options{Quality: wantQuality},
		OutDir:       flagOrConfig(cmd, "out-dir", cfg.Output.Dir),
		Format:       format,
		QualityDelay: delay,
	}

	if useStore, _ := cmd.Flags().GetBool("store"); useStore {
		cfg.Store.Dir = flagOrConfig(cmd, "store-dir", cfg.Store.Dir)
		s, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()
		opts.Store = s
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := eng.ConvertTree(ctx, args[0], opts, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d calculation(s) failed", result.Failed)
	}
	return nil
}

func init() {
	batchCmd.Flags().String("out-dir", "records", "directory for the converted records")
	batchCmd.Flags().String("format", "json", "record format: json or yaml")
	batchCmd.Flags().Bool("quality", false, "annotate each record using the quality service")
	batchCmd.Flags().Duration("delay", 5*time.Second, "pause between quality requests")
	batchCmd.Flags().Bool("store", false, "also index each record in the record store")
	batchCmd.Flags().String("store-dir", "store", "directory holding the record store")

	rootCmd.AddCommand(batchCmd)
}
