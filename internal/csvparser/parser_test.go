package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stela2502/metafactors/internal/types"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestParse_TSV(t *testing.T) {
	path := writeFile(t, "meta.tsv", []byte("id\tcluster\tscore\n1\tA\t0.5\n2\tB\t1.5\n3\tA\t2.5\n"))

	table, err := Parse(path, Options{Delimiter: '\t'})
	require.NoError(t, err)

	assert.Equal(t, path, table.Source)
	assert.Equal(t, []string{"id", "cluster", "score"}, table.Headers)
	assert.Equal(t, 3, table.RowCount())

	cluster, ok := table.Column("cluster")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "A"}, cluster)
}

func TestParseReader_CommaAndQuotes(t *testing.T) {
	input := "sample,condition\ns1,\"treated, high\"\ns2,ctrl\n"

	table, err := ParseReader(strings.NewReader(input), "meta.csv", ',')
	require.NoError(t, err)

	cells, _ := table.Column("condition")
	assert.Equal(t, []string{"treated, high", "ctrl"}, cells)
}

func TestParseReader_EmptyCellsAndBlankLines(t *testing.T) {
	input := "a\tb\tc\n\t\tx\n\n 1 \t\t\n"

	table, err := ParseReader(strings.NewReader(input), "meta.tsv", '\t')
	require.NoError(t, err)

	assert.Equal(t, 2, table.RowCount())
	assert.Equal(t, []string{"", "1"}, table.Columns[0])
	assert.Equal(t, []string{"", ""}, table.Columns[1])
	assert.Equal(t, []string{"x", ""}, table.Columns[2])
}

func TestParseReader_EmptyHeaderNames(t *testing.T) {
	table, err := ParseReader(strings.NewReader("\tnCount\nAAAC\t12\n"), "meta.tsv", '\t')
	require.NoError(t, err)
	assert.Equal(t, []string{"Column_1", "nCount"}, table.Headers)
}

func TestParseReader_HeaderOnly(t *testing.T) {
	table, err := ParseReader(strings.NewReader("id\tcluster\n"), "meta.tsv", '\t')
	require.NoError(t, err)
	assert.Equal(t, 0, table.RowCount())
	assert.Equal(t, 2, table.ColumnCount())
}

func TestParseReader_Empty(t *testing.T) {
	_, err := ParseReader(strings.NewReader(""), "meta.tsv", '\t')

	var mte *types.MalformedTableError
	require.ErrorAs(t, err, &mte)
	assert.Contains(t, mte.Reason, "empty")
}

func TestParseReader_RaggedRow(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantRow int
		wantLn  int
	}{
		{"short row", "id\tcluster\tscore\n1\tA\t0.5\n2\tB\n3\tA\t2.5\n", 2, 3},
		{"long row", "id\tcluster\n1\tA\n2\tB\n3\tC\textra\n", 3, 4},
		{"after blank line", "id\tcluster\n1\tA\n\n2\n", 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReader(strings.NewReader(tt.input), "meta.tsv", '\t')

			var mte *types.MalformedTableError
			require.ErrorAs(t, err, &mte)
			assert.Equal(t, tt.wantRow, mte.Row)
			assert.Equal(t, tt.wantLn, mte.Line)
			assert.Equal(t, "meta.tsv", mte.Path)
		})
	}
}

func TestParseReader_DuplicateHeader(t *testing.T) {
	_, err := ParseReader(strings.NewReader("id\tid\n1\t2\n"), "meta.tsv", '\t')

	var mte *types.MalformedTableError
	require.ErrorAs(t, err, &mte)
	assert.Equal(t, "id", mte.Column)
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.tsv"), Options{})

	var ioErr *types.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
}

func TestParse_UTF8BOM(t *testing.T) {
	path := writeFile(t, "meta.tsv", []byte("\xef\xbb\xbfid\tcluster\n1\tA\n"))

	table, err := Parse(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "id", table.Headers[0])
}

func TestParse_Latin1(t *testing.T) {
	// "Zürich" in ISO-8859-1.
	path := writeFile(t, "meta.tsv", []byte("site\nZ\xfcrich\n"))

	table, err := Parse(path, Options{Encoding: "ISO-8859-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zürich"}, table.Columns[0])
}

func TestDecoder_Unknown(t *testing.T) {
	_, err := Decoder("klingon-8")
	assert.Error(t, err)
}
