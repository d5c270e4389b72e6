package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Another0Noob/title-dedupe/internal/config"
)

var (
	cfgFile string
	verbose bool

	cfg    config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "title-dedupe",
	Short: "Find records whose titles are duplicates of each other",
	Long: `title-dedupe reads a list of records (.csv, .xml or .json) and groups
the ones whose titles are the same work: exact matches after normalization,
near-identical spellings, and qualified editions such as
"Dune" and "Dune (Deluxe Edition)". Numbered volumes of one series are
kept apart unless --no-variation is given.

Without a subcommand it behaves like "dedupe".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	RunE: runDedupe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&cfgFile,
		"config",
		"c",
		"",
		"path to config file (default $"+config.EnvConfigPath+")",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"log debug output",
	)

	addMatchFlags(rootCmd)
}

// setup loads .env, the config file and environment overrides, in that
// order, and builds the logger.
func setup(cmd *cobra.Command) error {
	logger = newLogger(cmd.ErrOrStderr(), verbose)

	if err := config.LoadEnv(".env"); err != nil {
		return err
	}

	path := cfgFile
	if path == "" {
		path = os.Getenv(config.EnvConfigPath)
	}

	cfg = config.Default()
	if path != "" {
		c, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		logger.Debug().Str("path", path).Msg("loaded config")
	}
	cfg.ApplyEnv()
	return nil
}

func newLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
