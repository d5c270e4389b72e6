package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Another0Noob/title-dedupe/internal/match"
	"github.com/Another0Noob/title-dedupe/internal/report"
)

var exportDir string

// exportCmd writes the report to a dated file
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the duplicate groups of a record file to a dated report",
	Long: `Same as dedupe, but the report goes to a file named after today's date,
e.g. 2025-3-7-duplicates.csv, in the report directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags.apply(cmd, &cfg)
		if cmd.Flags().Changed("dir") {
			cfg.Report.Dir = exportDir
		}
		return runExport()
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addMatchFlags(exportCmd)

	exportCmd.Flags().StringVar(&exportDir, "dir", "", "directory for the report file")
}

func runExport() error {
	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}
	groups, err := findDuplicates(logger, cfg, flags.input)
	if err != nil {
		return err
	}

	path, err := writeReportFile(cfg.Report.Dir, time.Now(), format, groups)
	if err != nil {
		return err
	}
	logger.Info().Str("path", path).Msg("report written")
	return nil
}

func writeReportFile(dir string, t time.Time, format report.Format, groups []match.Group) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, report.Filename(t, format))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}

	if err := report.Write(file, format, groups); err != nil {
		file.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}
