// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pif-dft CLI, which converts DFT
// calculation outputs into PIF records.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/WardLT/pif-dft/internal/engine"
	"github.com/WardLT/pif-dft/internal/extract"
	"github.com/WardLT/pif-dft/internal/metrics"
	"github.com/WardLT/pif-dft/internal/quality"
	"github.com/WardLT/pif-dft/internal/secrets"
	"github.com/WardLT/pif-dft/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state set up by the root command before any subcommand runs.
var (
	logger        = slog.New(slog.NewTextHandler(io.Discard, nil))
	loadedSecrets secrets.Secrets
	collector     *metrics.Collector
)

var rootCmd = &cobra.Command{
	Use:   "pif-dft",
	Short: "Convert DFT calculation outputs into PIF records",
	Long: `pif-dft reads the output of density-functional-theory codes (VASP and
Quantum ESPRESSO pw.x) and writes one standardized PIF record per
calculation: the chemical formula plus every computed property, each tagged
with the calculation settings and the software that produced it.

Use convert for one calculation, batch for a directory of calculations, and
store to index records in a local SQLite database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		l, err := newLogger(os.Stderr, level, format)
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(l)

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Info("loaded secrets", "keys", s.Keys())
		}

		if path, _ := cmd.Flags().GetString("metrics-file"); path != "" {
			collector = metrics.New()
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("metrics-file")
		if path == "" {
			return nil
		}
		return collector.WriteTextfile(path)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pif-dft.yaml or ~/.config/pif-dft/pif-dft.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().String("metrics-file", "", "write Prometheus counters to this file on exit")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pif-dft")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pif-dft"))
		}
	}

	setDefaults(viper.GetViper())
	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key, which also lets AutomaticEnv
// resolve them during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("quality.url", "")
	v.SetDefault("quality.enabled", false)
	v.SetDefault("quality.timeout", quality.DefaultTimeout)
	v.SetDefault("quality.delay", 5*time.Second)
	v.SetDefault("quality.user_agent", "pif-dft/"+version)
	v.SetDefault("output.format", "json")
	v.SetDefault("output.dir", "records")
	v.SetDefault("store.dir", "store")
	v.SetDefault("store.max_results", 50)
}

// bindEnv maps PIF_DFT_QUALITY_URL to quality.url and so on.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("PIF_DFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// loadConfig decodes the merged configuration.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the slog logger selected by the --log-* flags.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: use debug, info, warn, or error", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q: use text or json", format)
}

// newEngine builds the conversion engine. The quality client is attached
// only when annotation is wanted, since it requires a service URL.
func newEngine(cfg types.Config, wantQuality bool) (*engine.Engine, error) {
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMetrics(collector),
	}
	if wantQuality {
		client, err := quality.NewClient(cfg.Quality, loadedSecrets.Get(secrets.QualityAPIKey, viper.GetString("quality.api_key")))
		if err != nil {
			return nil, err
		}
		opts = append(opts,
			engine.WithAnnotator(client),
			engine.WithQualityTimeout(cfg.Quality.Timeout),
		)
	}
	return engine.New(extract.Default(), opts...), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
