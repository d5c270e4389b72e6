package csvparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Another0Noob/title-dedupe/internal/match"
	"github.com/Another0Noob/title-dedupe/internal/recordparser/recordid"
)

var ErrMissingTitleColumn = errors.New("csv header has no title column")

// header aliases, compared after normalizeHeader
var columnAliases = map[string][]string{
	"id":        {"id", "uuid", "record_id"},
	"title":     {"title", "name"},
	"order_key": {"order_key", "created_at", "inserted_at", "date"},
}

// ParseFile reads the CSV at path. The parser is header-aware: columns are
// mapped by header name (case-insensitive), e.g.
//
//	id,title,order_key
//
// Rows without a title are skipped. Rows without an id get one derived from
// the file name and row number.
func ParseFile(path string) ([]match.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file, path)
}

// ParseReader parses CSV data from any io.Reader. source names the input
// when ids have to be derived.
func ParseReader(reader io.Reader, source string) ([]match.Record, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1

	// Read header row (required for mapping). If EOF, return empty slice.
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		n := normalizeHeader(h)
		if _, dup := headerMap[n]; !dup {
			headerMap[n] = i
		}
	}

	getIndex := func(name string) int {
		for _, alias := range columnAliases[name] {
			if i, ok := headerMap[alias]; ok {
				return i
			}
		}
		return -1
	}

	idIdx := getIndex("id")
	titleIdx := getIndex("title")
	orderIdx := getIndex("order_key")
	if titleIdx < 0 {
		return nil, fmt.Errorf("%w (header: %s)", ErrMissingTitleColumn, strings.Join(header, ","))
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	get := func(rec []string, idx int) string {
		if idx < 0 || idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}

	out := make([]match.Record, 0, len(records))
	for row, rec := range records {
		title := get(rec, titleIdx)
		if title == "" {
			continue
		}

		id := get(rec, idIdx)
		if id == "" {
			id = recordid.Derive(source, row+1)
		}

		out = append(out, match.Record{
			ID:       id,
			Title:    title,
			OrderKey: get(rec, orderIdx),
		})
	}

	return out, nil
}

// normalizeHeader converts header string to a normalized canonical form used
// for comparison: lowercased, trimmed, spaces -> underscore, and common
// punctuation removed. This helps match headers like "Created At" and "created_at".
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	h = strings.ReplaceAll(h, ".", "")
	h = strings.ReplaceAll(h, "\"", "")
	h = strings.ReplaceAll(h, "`", "")
	// collapse multiple underscores
	for strings.Contains(h, "__") {
		h = strings.ReplaceAll(h, "__", "_")
	}
	return h
}
