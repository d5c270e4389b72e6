package recordparser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Another0Noob/title-dedupe/internal/match"
	"github.com/Another0Noob/title-dedupe/internal/recordparser/csvparser"
	"github.com/Another0Noob/title-dedupe/internal/recordparser/jsonparser"
	"github.com/Another0Noob/title-dedupe/internal/recordparser/xmlparser"
)

func Parse(path string) ([]match.Record, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".csv":
		return csvparser.ParseFile(path)
	case ".xml":
		return xmlparser.ParseFile(path)
	case ".json":
		return jsonparser.ParseFile(path)
	default:
		return nil, fmt.Errorf("unknown file format: %s (must be .csv, .xml or .json)", ext)
	}
}

// ParseFromBytes parses file content directly from memory
func ParseFromBytes(data []byte, filename string) ([]match.Record, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	reader := bytes.NewReader(data)

	switch ext {
	case ".csv":
		return csvparser.ParseReader(reader, filename)
	case ".xml":
		return xmlparser.ParseReader(reader, filename)
	case ".json":
		return jsonparser.ParseReader(reader, filename)
	default:
		return nil, fmt.Errorf("unknown file format: %s (must be .csv, .xml or .json)", ext)
	}
}
