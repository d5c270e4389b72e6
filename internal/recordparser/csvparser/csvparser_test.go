package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Another0Noob/title-dedupe/internal/recordparser/recordid"
)

func TestParseReader(t *testing.T) {
	data := "\ufeffID,Title,Created At\n" +
		"1,A Christmas Carol,2020-01-01\n" +
		"2,\"A CHRISTMAS CAROL\",2021-01-01\n" +
		"3,,2020-06-01\n" +
		",Untitled Draft\n"

	records, err := ParseReader(strings.NewReader(data), "books.csv")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "A Christmas Carol", records[0].Title)
	assert.Equal(t, "2020-01-01", records[0].OrderKey)
	assert.Equal(t, "A CHRISTMAS CAROL", records[1].Title)

	// ragged row without an id gets a derived one
	assert.Equal(t, recordid.Derive("books.csv", 4), records[2].ID)
	assert.Equal(t, "Untitled Draft", records[2].Title)
	assert.Empty(t, records[2].OrderKey)
}

func TestParseReader_NameAlias(t *testing.T) {
	records, err := ParseReader(strings.NewReader("name\nDune\n"), "x.csv")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Dune", records[0].Title)
}

func TestParseReader_MissingTitleColumn(t *testing.T) {
	_, err := ParseReader(strings.NewReader("id,label\n1,Dune\n"), "x.csv")
	assert.ErrorIs(t, err, ErrMissingTitleColumn)
}

func TestParseReader_Empty(t *testing.T) {
	records, err := ParseReader(strings.NewReader(""), "x.csv")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.csv")
	require.NoError(t, os.WriteFile(path, []byte("title\nIntro to Go\n"), 0o644))

	records, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, recordid.Derive(path, 1), records[0].ID)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "created_at", normalizeHeader(" Created At "))
	assert.Equal(t, "order_key", normalizeHeader("order-key"))
	assert.Equal(t, "record_id", normalizeHeader("Record__ID"))
}
