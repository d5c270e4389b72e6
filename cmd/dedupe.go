package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Another0Noob/title-dedupe/internal/config"
	"github.com/Another0Noob/title-dedupe/internal/match"
	"github.com/Another0Noob/title-dedupe/internal/recordparser"
	"github.com/Another0Noob/title-dedupe/internal/report"
)

// matchFlags are shared by the commands that run the matcher.
type matchFlags struct {
	input       string
	format      string
	high        float64
	containment float64
	strategy    string
	noVariation bool
}

var flags matchFlags

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Print the duplicate groups of a record file",
	Long: `Parse a record file, group duplicate titles and write the report to
stdout. A summary is logged to stderr.

  title-dedupe dedupe -i books.csv --format json`,
	RunE: runDedupe,
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
	addMatchFlags(dedupeCmd)
}

func addMatchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&flags.input, "input", "i", "", "path to input file (.csv, .xml or .json)")
	f.StringVar(&flags.format, "format", "", "report format: text, csv or json")
	f.Float64Var(&flags.high, "high", 0, "high similarity threshold")
	f.Float64Var(&flags.containment, "containment", 0, "containment threshold")
	f.StringVar(&flags.strategy, "strategy", "", "grouping strategy: greedy or components")
	f.BoolVar(&flags.noVariation, "no-variation", false, "do not keep numbered series entries apart")
	cmd.MarkFlagRequired("input")
}

// apply copies the flags the user set over the config values.
func (f matchFlags) apply(cmd *cobra.Command, c *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("format") {
		c.Report.Format = f.format
	}
	if fs.Changed("high") {
		c.Matcher.HighSimilarityThreshold = f.high
	}
	if fs.Changed("containment") {
		c.Matcher.ContainmentThreshold = f.containment
	}
	if fs.Changed("strategy") {
		c.Matcher.Strategy = f.strategy
	}
	if f.noVariation {
		c.Variation.Enabled = false
	}
}

func runDedupe(cmd *cobra.Command, args []string) error {
	flags.apply(cmd, &cfg)

	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}
	groups, err := findDuplicates(logger, cfg, flags.input)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), format, groups)
}

// findDuplicates parses input and groups its records.
func findDuplicates(log zerolog.Logger, c config.Config, input string) ([]match.Group, error) {
	opts, err := c.MatchOptions()
	if err != nil {
		return nil, err
	}

	log.Info().Str("input", input).Msg("reading records")
	records, err := recordparser.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}
	log.Info().Int("records", len(records)).Msg("parsed records")

	log.Debug().
		Str("strategy", string(opts.Strategy)).
		Float64("high", opts.HighSimilarityThreshold).
		Float64("containment", opts.ContainmentThreshold).
		Bool("variation", opts.Exclude != nil).
		Msg("matching")

	groups, err := match.FindDuplicateGroups(records, opts)
	if err != nil {
		return nil, fmt.Errorf("match records: %w", err)
	}

	s := report.Summarize(len(records), groups)
	log.Info().Int("groups", s.Groups).Int("duplicates", s.Duplicates).Msg("matching complete")
	return groups, nil
}
