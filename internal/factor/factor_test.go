package factor

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stela2502/metafactors/internal/types"
)

var missing = types.NewMissingSet("NA")

func TestBuild_FirstOccurrenceOrder(t *testing.T) {
	ft := Build("condition", []string{"ctrl", "treated", "", "ctrl", "NA", "late", "treated"}, missing)

	assert.Equal(t, "condition", ft.Column)
	assert.Equal(t, []string{"ctrl", "treated", "late"}, ft.Levels())
	code, ok := ft.Code("late")
	require.True(t, ok)
	assert.Equal(t, 2, code)
}

func TestBuild_LevelsAreDistinctValues(t *testing.T) {
	cells := []string{"b", "a", "c", "a", "", "b", "d", "NA"}
	ft := Build("x", cells, missing)

	distinct := map[string]bool{}
	for _, c := range cells {
		if !missing.IsMissing(c) {
			distinct[c] = true
		}
	}
	require.Equal(t, len(distinct), ft.Len())
	for code, level := range ft.Levels() {
		assert.True(t, distinct[level])
		got, ok := ft.Code(level)
		require.True(t, ok)
		assert.Equal(t, code, got)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	cells := []string{"z", "y", "x", "y", "w"}
	first := Build("c", cells, missing)
	for i := 0; i < 10; i++ {
		assert.True(t, first.Equal(Build("c", cells, missing)))
	}
}

func TestBuild_AllMissing(t *testing.T) {
	ft := Build("empty", []string{"", "NA"}, missing)
	assert.Equal(t, 0, ft.Len())

	codes, err := Encode(ft, []string{"", "NA"}, missing)
	require.NoError(t, err)
	assert.Equal(t, []int{types.MissingCode, types.MissingCode}, codes)
}

func TestEncode(t *testing.T) {
	cells := []string{"A", "B", "", "A"}
	ft := Build("cluster", cells, missing)

	codes, err := Encode(ft, cells, missing)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, types.MissingCode, 0}, codes)

	_, err = Encode(ft, []string{"A", "C"}, missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"C"`)
	assert.Contains(t, err.Error(), "row 2")
}

func TestExtend(t *testing.T) {
	base, err := types.NewFactorTable("cluster", []string{"B", "A"})
	require.NoError(t, err)

	ft, added := Extend(base, []string{"A", "C", "B", "", "D", "C"}, missing)
	assert.Equal(t, []string{"B", "A", "C", "D"}, ft.Levels())
	assert.Equal(t, []string{"C", "D"}, added)
	assert.Equal(t, []string{"B", "A"}, base.Levels(), "base must not change")

	_, added = Extend(base, []string{"A", "B"}, missing)
	assert.Empty(t, added)
}

func sampleFactors(t *testing.T) []*types.FactorTable {
	t.Helper()
	cluster, err := types.NewFactorTable("cluster", []string{"A", "B"})
	require.NoError(t, err)
	label, err := types.NewFactorTable("label", []string{"T cell", "with\ttab", `5" ring`})
	require.NoError(t, err)
	return []*types.FactorTable{cluster, label}
}

func TestWrite_Format(t *testing.T) {
	cluster, err := types.NewFactorTable("cluster", []string{"A", "B"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []*types.FactorTable{cluster}))
	assert.Equal(t, "column\tlevel\tcode\ncluster\tA\t0\ncluster\tB\t1\n", buf.String())
}

func TestWriteRead_RoundTrip(t *testing.T) {
	factors := sampleFactors(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, factors))

	got, err := Read(&buf, "factors.tsv")
	require.NoError(t, err)
	require.Len(t, got, len(factors))
	for i := range factors {
		assert.True(t, factors[i].Equal(got[i]), "column %s", factors[i].Column)
	}
}

func TestRead_HandEdited(t *testing.T) {
	// Reordered codes, interleaved columns, no header.
	input := "cluster\tB\t0\nsex\tm\t1\ncluster\tA\t1\nsex\tf\t0\n"

	got, err := Read(strings.NewReader(input), "factors.tsv")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "cluster", got[0].Column)
	assert.Equal(t, []string{"B", "A"}, got[0].Levels())
	assert.Equal(t, "sex", got[1].Column)
	assert.Equal(t, []string{"f", "m"}, got[1].Levels())
}

func TestRead_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
		wantCol  string
		want     string
	}{
		{"duplicate code", "column\tlevel\tcode\nc\tA\t0\nc\tB\t0\n", 3, "c", "code 0 already used on line 2"},
		{"duplicate level", "column\tlevel\tcode\nc\tA\t0\nc\tA\t1\n", 3, "c", "level \"A\" already listed"},
		{"gap", "column\tlevel\tcode\nc\tA\t0\nc\tB\t2\n", 0, "c", "not contiguous"},
		{"not starting at zero", "c\tA\t1\n", 0, "c", "not contiguous"},
		{"negative code", "column\tlevel\tcode\nc\tA\t-1\n", 2, "c", "non-negative"},
		{"text code", "column\tlevel\tcode\nc\tA\tzero\n", 2, "c", "non-negative"},
		{"field count", "column\tlevel\tcode\nc\tA\n", 2, "", "expected 3 fields"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), "factors.tsv")

			var mfe *types.MalformedFactorFileError
			require.ErrorAs(t, err, &mfe)
			assert.Equal(t, "factors.tsv", mfe.Path)
			assert.Equal(t, tt.wantLine, mfe.Line)
			assert.Equal(t, tt.wantCol, mfe.Column)
			assert.Contains(t, mfe.Reason, tt.want)
		})
	}
}

func TestRead_Empty(t *testing.T) {
	got, err := Read(strings.NewReader(""), "factors.tsv")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteFile_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factors.tsv")
	factors := sampleFactors(t)

	require.NoError(t, WriteFile(path, factors))

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, factors[1].Equal(got[1]))
}

func TestWriteFile_NeverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factors.tsv")
	require.NoError(t, os.WriteFile(path, []byte("curated\n"), 0o644))

	err := WriteFile(path, sampleFactors(t))

	var ioErr *types.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "create", ioErr.Op)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "curated\n", string(data))
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "factors.tsv"))

	var ioErr *types.IOError
	require.ErrorAs(t, err, &ioErr)
}
