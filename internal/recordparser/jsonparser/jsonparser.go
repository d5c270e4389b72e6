package jsonparser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Another0Noob/title-dedupe/internal/match"
	"github.com/Another0Noob/title-dedupe/internal/recordparser/recordid"
)

var ErrMissingTitle = errors.New("record has no title")

type entry struct {
	ID       json.RawMessage `json:"id"`
	Title    *string         `json:"title"`
	OrderKey *string         `json:"order_key"`
}

func ParseFile(path string) ([]match.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file, path)
}

// ParseReader accepts either a bare array of records or an object wrapping
// the array in "records" or "data".
func ParseReader(reader io.Reader, source string) ([]match.Record, error) {
	b, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}

	entries, err := decodeEntries(b)
	if err != nil {
		return nil, err
	}

	out := make([]match.Record, 0, len(entries))
	for i, e := range entries {
		if e.Title == nil {
			return nil, fmt.Errorf("%w: record %d", ErrMissingTitle, i+1)
		}
		title := strings.TrimSpace(*e.Title)
		if title == "" {
			continue
		}

		id, err := decodeID(e.ID)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		if id == "" {
			id = recordid.Derive(source, i+1)
		}

		var orderKey string
		if e.OrderKey != nil {
			orderKey = strings.TrimSpace(*e.OrderKey)
		}

		out = append(out, match.Record{ID: id, Title: title, OrderKey: orderKey})
	}
	return out, nil
}

func decodeEntries(raw []byte) ([]entry, error) {
	var entries []entry
	if err := json.Unmarshal(raw, &entries); err == nil {
		return entries, nil
	}

	var wrapper struct {
		Records json.RawMessage `json:"records"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	for _, inner := range []json.RawMessage{wrapper.Records, wrapper.Data} {
		if len(inner) == 0 {
			continue
		}
		if err := json.Unmarshal(inner, &entries); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return entries, nil
	}
	return nil, fmt.Errorf("unhandled data shape: %.64s", string(raw))
}

// decodeID accepts string and numeric ids; null or absent yields "".
func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode id: %w", err)
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id must be a string or number: %s", raw)
	}
	return n.String(), nil
}
