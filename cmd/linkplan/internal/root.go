package internal

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goplus/linkplan/internal/build"
	"github.com/goplus/linkplan/internal/config"
	"github.com/goplus/linkplan/internal/env"
	"github.com/goplus/linkplan/internal/link"
)

var (
	configFile   string
	featureList  string
	sourceDir    string
	outDir       string
	targetDir    string
	targetTriple string
	format       string
	debug        bool
	metricsFile  string
)

var rootCmd = &cobra.Command{
	Use:   "linkplan",
	Short: "linkplan plans how llama.cpp links against ggml",
	Long: `linkplan decides whether ggml is compiled together with llama.cpp or taken
from a shared provider installation, drives the native build accordingly and
prints the link directives and include paths for the consuming build.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains(link.Formats(), format) {
			return fmt.Errorf("unknown directive format %q (supported: %s)", format, strings.Join(link.Formats(), ", "))
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Configuration file (.yaml, .json or .toml)")
	pf.StringVar(&featureList, "features", "", "Comma separated features to enable")
	pf.StringVar(&sourceDir, "source-dir", "", "llama.cpp source directory")
	pf.StringVar(&outDir, "out-dir", "", "Native build output directory (default $OUT_DIR)")
	pf.StringVar(&targetDir, "target-dir", "", "Directory receiving runtime shared libraries")
	pf.StringVar(&targetTriple, "target", "", "Target triple (default $TARGET or the host)")
	pf.StringVar(&format, "format", "cargo", "Directive format: cargo, cgo or json")
	pf.BoolVar(&debug, "debug", false, "Enable debug logging")
	pf.StringVar(&metricsFile, "metrics-file", "", "Write pipeline metrics to this file")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError logs err at fatal level, leaving the exit to the caller.
func reportError(w io.Writer, err error) {
	log := logger(w, false)
	log.WithLevel(zerolog.FatalLevel).Msg(err.Error())
}

// loadSettings layers the configuration file, the environment and the
// command line flags, in that order.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	var cfg config.Config
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg.ApplyEnv(env.OS())

	flags := cmd.Flags()
	if flags.Changed("features") {
		cfg.Features = append(cfg.Features, featureList)
	}
	if flags.Changed("source-dir") {
		cfg.SourceDir = sourceDir
	}
	if flags.Changed("out-dir") {
		cfg.OutDir = outDir
	}
	if flags.Changed("target-dir") {
		cfg.TargetDir = targetDir
	}
	if flags.Changed("target") {
		cfg.Target = targetTriple
	}
	if debug {
		cfg.Debug = true
	}
	return cfg.Settings()
}

func logger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

// newBuilder returns the pipeline for the current command line.
func newBuilder(cmd *cobra.Command, s config.Settings, opts ...build.Option) *build.Builder {
	opts = append([]build.Option{
		build.WithLogger(logger(cmd.ErrOrStderr(), s.Debug)),
	}, opts...)
	return build.New(s, opts...)
}

// writeMetrics writes m when --metrics-file is set.
func writeMetrics(m *build.Metrics) error {
	if metricsFile == "" {
		return nil
	}
	if err := m.WriteFile(metricsFile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
