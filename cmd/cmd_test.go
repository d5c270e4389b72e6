package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Another0Noob/title-dedupe/internal/config"
	"github.com/Another0Noob/title-dedupe/internal/match"
	"github.com/Another0Noob/title-dedupe/internal/report"
)

const booksCSV = "id,title,order_key\n" +
	"1,Dune,1965\n" +
	"2,Dune (Deluxe Edition),2019\n" +
	"3,The Hobbit,1937\n" +
	"4,Chronicles of Narnia Vol 1,1950\n" +
	"5,Chronicles of Narnia Vol 2,1951\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFindDuplicates(t *testing.T) {
	input := writeFile(t, "books.csv", booksCSV)

	groups, err := findDuplicates(zerolog.Nop(), config.Default(), input)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "1", groups[0].Canonical.ID)
	assert.Equal(t, "2", groups[0].Duplicates[0].ID)

	c := config.Default()
	c.Variation.Enabled = false
	groups, err = findDuplicates(zerolog.Nop(), c, input)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestFindDuplicatesErrors(t *testing.T) {
	_, err := findDuplicates(zerolog.Nop(), config.Default(), filepath.Join(t.TempDir(), "books.txt"))
	assert.Error(t, err)

	c := config.Default()
	c.Matcher.ContainmentThreshold = 0.99
	_, err = findDuplicates(zerolog.Nop(), c, writeFile(t, "books.csv", booksCSV))
	assert.ErrorIs(t, err, match.ErrConfiguration)

	input := writeFile(t, "dup.csv", "id,title\n1,Dune\n1,Emma\n")
	_, err = findDuplicates(zerolog.Nop(), config.Default(), input)
	assert.ErrorIs(t, err, match.ErrInvalidArgument)
}

func TestMatchFlagsApply(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addMatchFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"-i", "x.csv", "--high", "0.9", "--strategy", "components", "--no-variation"}))
	t.Cleanup(func() { flags = matchFlags{} })

	c := config.Default()
	flags.apply(cmd, &c)
	assert.Equal(t, 0.9, c.Matcher.HighSimilarityThreshold)
	assert.Equal(t, config.Default().Matcher.ContainmentThreshold, c.Matcher.ContainmentThreshold)
	assert.Equal(t, "components", c.Matcher.Strategy)
	assert.Equal(t, "text", c.Report.Format)
	assert.False(t, c.Variation.Enabled)
}

func TestWriteReportFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	groups := []match.Group{{
		Canonical:  match.Record{ID: "1", Title: "Dune"},
		Duplicates: []match.Record{{ID: "2", Title: "DUNE"}},
		Links:      []match.Link{{From: "1", To: "2", Type: match.MatchExact, Similarity: 1}},
	}}

	path, err := writeReportFile(dir, time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC), report.FormatCSV, groups)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2025-3-7-duplicates.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "group_id,role,id,title,order_key,match_type,similarity")
	assert.Contains(t, string(data), "duplicate,2,DUNE,,exact,1.0000")
}

func TestRunServeRejectsBadSettings(t *testing.T) {
	c := config.Default()
	c.Server.QueueSize = 0
	err := runServe(context.Background(), c, zerolog.Nop())
	assert.ErrorIs(t, err, match.ErrConfiguration)
}

func TestExecuteDedupe(t *testing.T) {
	input := writeFile(t, "books.csv", booksCSV)
	cfgPath := writeFile(t, "dedupe.ini", "[report]\nformat = json\n")
	t.Cleanup(func() { flags = matchFlags{} })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"dedupe", "-c", cfgPath, "-i", input})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	var result struct {
		Groups []report.GroupView `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	require.Len(t, result.Groups, 1)
	assert.Equal(t, "Dune", result.Groups[0].Canonical.Title)
	assert.Equal(t, match.MatchContainment, result.Groups[0].Duplicates[0].MatchType)
}
