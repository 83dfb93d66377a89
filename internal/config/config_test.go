package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, `\t`, cfg.Delimiter)
	assert.Equal(t, "UTF-8", cfg.Encoding)
	assert.Equal(t, []string{"NA"}, cfg.MissingValues)
	assert.Equal(t, DefaultFactorsFile, cfg.FactorsFile)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metafactors.yaml")
	data := `
delimiter: ","
encoding: ISO-8859-1
missing_values: ["NA", "nan"]
categorical: [cluster, sex]
factors_file: out/factors.tsv
output: out/meta.json
reuse_factors: true
workers: 4
log_level: debug
log_format: json
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ",", cfg.Delimiter)
	assert.Equal(t, "ISO-8859-1", cfg.Encoding)
	assert.Equal(t, []string{"NA", "nan"}, cfg.MissingValues)
	assert.Equal(t, []string{"cluster", "sex"}, cfg.Categorical)
	assert.Equal(t, "out/factors.tsv", cfg.FactorsFile)
	assert.Equal(t, "out/meta.json", cfg.Output)
	assert.True(t, cfg.ReuseFactors)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestParse_EmptyDocumentUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_ExplicitEmptyMissingList(t *testing.T) {
	cfg, err := Parse([]byte("missing_values: []\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.MissingValues)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown key", "delimeter: ','\n", "delimeter"},
		{"bad delimiter", "delimiter: ab\n", "delimiter"},
		{"bad workers", "workers: -2\n", "workers"},
		{"bad log level", "log_level: loud\n", "log_level"},
		{"bad log format", "log_format: xml\n", "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    byte
		wantErr bool
	}{
		{`\t`, '\t', false},
		{"\t", '\t', false},
		{"TAB", '\t', false},
		{",", ',', false},
		{"comma", ',', false},
		{";", ';', false},
		{"pipe", '|', false},
		{":", ':', false},
		{"", 0, true},
		{"ab", 0, true},
		{`"`, 0, true},
		{"\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDelimiter(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"cluster", "sex", "condition"}, SplitList(" cluster, sex,,condition "))
	assert.Nil(t, SplitList(""))
}
