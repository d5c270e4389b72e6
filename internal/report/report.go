package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Another0Noob/title-dedupe/internal/match"
)

type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatCSV, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown report format %q (must be text, csv or json)", s)
	}
}

// Ext is the file extension used for the format.
func (f Format) Ext() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// Filename names a dated report file, e.g. 2025-3-9-duplicates.csv.
func Filename(t time.Time, f Format) string {
	return fmt.Sprintf("%d-%d-%d-duplicates.%s", t.Year(), t.Month(), t.Day(), f.Ext())
}

type Summary struct {
	Records    int `json:"records"`
	Groups     int `json:"groups"`
	Duplicates int `json:"duplicates"`
}

func Summarize(records int, groups []match.Group) Summary {
	s := Summary{Records: records, Groups: len(groups)}
	for _, g := range groups {
		s.Duplicates += len(g.Duplicates)
	}
	return s
}

// GroupID is stable across runs as long as the canonical record is.
func GroupID(g match.Group) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(g.Canonical.ID)).String()
}

type DuplicateView struct {
	match.Record
	MatchType  match.MatchType `json:"match_type,omitempty"`
	Similarity float64         `json:"similarity"`
}

type GroupView struct {
	GroupID    string          `json:"group_id"`
	Canonical  match.Record    `json:"canonical"`
	Duplicates []DuplicateView `json:"duplicates"`
}

// Views flattens groups into their serializable form.
func Views(groups []match.Group) []GroupView {
	out := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		v := GroupView{
			GroupID:    GroupID(g),
			Canonical:  g.Canonical,
			Duplicates: make([]DuplicateView, 0, len(g.Duplicates)),
		}
		for _, d := range g.Duplicates {
			dv := DuplicateView{Record: d}
			if l, ok := linkTo(g, d.ID); ok {
				dv.MatchType = l.Type
				dv.Similarity = l.Similarity
			}
			v.Duplicates = append(v.Duplicates, dv)
		}
		out = append(out, v)
	}
	return out
}

// linkTo finds how a duplicate joined. When the canonical record was not the
// anchor, the anchor is reported through its link to the canonical record.
func linkTo(g match.Group, id string) (match.Link, bool) {
	if l, ok := g.LinkFor(id); ok {
		return l, true
	}
	var fallback *match.Link
	for i, l := range g.Links {
		if l.From != id {
			continue
		}
		if l.To == g.Canonical.ID {
			return l, true
		}
		if fallback == nil {
			fallback = &g.Links[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return match.Link{}, false
}

func Write(w io.Writer, f Format, groups []match.Group) error {
	switch f {
	case FormatText:
		return writeText(w, groups)
	case FormatCSV:
		return writeCSV(w, groups)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"groups": Views(groups)})
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

func writeText(w io.Writer, groups []match.Group) error {
	for i, v := range Views(groups) {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s canonical %s %q\n", v.GroupID, v.Canonical.ID, v.Canonical.Title); err != nil {
			return err
		}
		for _, d := range v.Duplicates {
			if _, err := fmt.Fprintf(w, "  duplicate %s %q (%s %.2f)\n", d.ID, d.Title, d.MatchType, d.Similarity); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeCSV(w io.Writer, groups []match.Group) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"group_id", "role", "id", "title", "order_key", "match_type", "similarity"}); err != nil {
		return err
	}
	for _, v := range Views(groups) {
		if err := cw.Write([]string{v.GroupID, "canonical", v.Canonical.ID, v.Canonical.Title, v.Canonical.OrderKey, "", ""}); err != nil {
			return err
		}
		for _, d := range v.Duplicates {
			row := []string{
				v.GroupID, "duplicate", d.ID, d.Title, d.OrderKey,
				string(d.MatchType), strconv.FormatFloat(d.Similarity, 'f', 4, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
