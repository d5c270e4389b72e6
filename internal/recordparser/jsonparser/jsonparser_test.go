package jsonparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Another0Noob/title-dedupe/internal/recordparser/recordid"
)

func TestParseReader_Array(t *testing.T) {
	data := `[
		{"id": "1", "title": "A Christmas Carol", "order_key": "2020-01-01"},
		{"id": 2, "title": "A CHRISTMAS CAROL"},
		{"title": "  "},
		{"id": null, "title": "A Tale of Two Cities"}
	]`
	records, err := ParseReader(strings.NewReader(data), "books.json")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "2020-01-01", records[0].OrderKey)
	assert.Equal(t, "2", records[1].ID)
	assert.Equal(t, recordid.Derive("books.json", 4), records[2].ID)
}

func TestParseReader_Wrapped(t *testing.T) {
	for _, data := range []string{
		`{"records": [{"id": "a", "title": "Dune"}]}`,
		`{"data": [{"id": "a", "title": "Dune"}]}`,
	} {
		records, err := ParseReader(strings.NewReader(data), "x.json")
		require.NoError(t, err, data)
		require.Len(t, records, 1)
		assert.Equal(t, "Dune", records[0].Title)
	}

	_, err := ParseReader(strings.NewReader(`{"items": []}`), "x.json")
	assert.Error(t, err)
}

func TestParseReader_NullTitle(t *testing.T) {
	for _, data := range []string{
		`[{"id": "1", "title": null}]`,
		`[{"id": "1"}]`,
	} {
		_, err := ParseReader(strings.NewReader(data), "x.json")
		assert.ErrorIs(t, err, ErrMissingTitle, data)
	}
}

func TestParseReader_BadID(t *testing.T) {
	_, err := ParseReader(strings.NewReader(`[{"id": {"x": 1}, "title": "Dune"}]`), "x.json")
	assert.Error(t, err)
}

func TestParseReader_Empty(t *testing.T) {
	records, err := ParseReader(strings.NewReader("  \n"), "x.json")
	require.NoError(t, err)
	assert.Empty(t, records)
}
