package xmlparser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Another0Noob/title-dedupe/internal/match"
	"github.com/Another0Noob/title-dedupe/internal/recordparser/recordid"
)

var ErrMissingTitle = errors.New("record has no title element")

type Data struct {
	// root element name is not checked: <records>, <catalog>, <library> all work
	Entries []Entry `xml:"record"`
}

type Entry struct {
	IDAttr   string  `xml:"id,attr"`
	ID       string  `xml:"id"`
	Title    *string `xml:"title"`
	OrderKey string  `xml:"order_key"`
}

func ParseFile(path string) ([]match.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file, path)
}

// ParseReader parses XML record data from any io.Reader
func ParseReader(reader io.Reader, source string) ([]match.Record, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	var d Data
	if err := xml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}

	return d.Records(source)
}

// Records converts decoded entries. A missing <title> is an error, a blank
// one is skipped.
func (d *Data) Records(source string) ([]match.Record, error) {
	out := make([]match.Record, 0, len(d.Entries))
	for i, e := range d.Entries {
		if e.Title == nil {
			return nil, fmt.Errorf("%w: record %d", ErrMissingTitle, i+1)
		}
		title := strings.TrimSpace(*e.Title)
		if title == "" {
			continue
		}

		id := strings.TrimSpace(e.ID)
		if id == "" {
			id = strings.TrimSpace(e.IDAttr)
		}
		if id == "" {
			id = recordid.Derive(source, i+1)
		}

		out = append(out, match.Record{
			ID:       id,
			Title:    title,
			OrderKey: strings.TrimSpace(e.OrderKey),
		})
	}
	return out, nil
}
