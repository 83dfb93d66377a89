// =============================================================================
// metafactors - Configuration Module
// =============================================================================
//
// This module loads the optional YAML configuration file and holds the
// defaults for every conversion setting. Command-line flags and
// METAFACTORS_* environment variables are layered on top by the cmd package.
//
// EXAMPLE (metafactors.yaml):
//   delimiter: "\t"
//   encoding: UTF-8
//   missing_values: ["NA", "nan"]
//   categorical: [cluster, sex]
//   factors_file: factors.tsv
//   workers: 4
//   log_level: info
//
// =============================================================================

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds every setting of a conversion run.
type Config struct {
	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// Delimiter separates fields of the input file.
	// Accepts "\t", "tab", ",", "comma", ";", "semicolon", "|", "pipe" or
	// any single printable ASCII character.
	// Default: "\t"
	Delimiter string `yaml:"delimiter"`

	// Encoding is the IANA name of the input character set.
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// Sheet selects the worksheet when the input is an .xlsx workbook.
	// Default: first sheet
	Sheet string `yaml:"sheet"`

	// MissingValues lists cell values treated as missing, in addition to
	// the empty string which is always missing.
	// Default: ["NA"]
	MissingValues []string `yaml:"missing_values"`

	// Categorical lists columns forced to be factors even if numeric.
	Categorical []string `yaml:"categorical"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// FactorsFile is the path of the editable factor side file. Its
	// existence makes a run skip.
	// Default: "factors.tsv"
	FactorsFile string `yaml:"factors_file"`

	// Output is the path of the JSON document.
	// Default: input path with a .json extension
	Output string `yaml:"output"`

	// ReuseFactors loads an existing side file instead of skipping the run.
	ReuseFactors bool `yaml:"reuse_factors"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// Workers bounds the number of columns classified concurrently.
	// Set to 1 for sequential processing.
	// Default: 1
	Workers int `yaml:"workers"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`
}

// DefaultFactorsFile is the side file name used when none is configured.
const DefaultFactorsFile = "factors.tsv"

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// Load reads a YAML configuration file.
//
// PARAMETERS:
//   - path: The path to the configuration file.
//
// RETURNS:
//   - The loaded configuration with defaults applied.
//   - An error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration data. Unknown keys are rejected so a
// misspelled setting does not silently fall back to its default.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for any unset option.
func applyDefaults(cfg *Config) {
	if cfg.Delimiter == "" {
		cfg.Delimiter = `\t`
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "UTF-8"
	}
	if cfg.MissingValues == nil {
		cfg.MissingValues = []string{"NA"}
	}
	if cfg.FactorsFile == "" {
		cfg.FactorsFile = DefaultFactorsFile
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
}

// Validate checks option values that can be checked without touching files.
func (c *Config) Validate() error {
	if _, err := ParseDelimiter(c.Delimiter); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (want text or json)", c.LogFormat)
	}
	return nil
}

// =============================================================================
// VALUE PARSERS
// =============================================================================

// ParseDelimiter turns a delimiter setting into a field separator byte.
func ParseDelimiter(s string) (byte, error) {
	switch strings.ToLower(s) {
	case `\t`, "\t", "tab":
		return '\t', nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	}

	if len(s) != 1 {
		return 0, fmt.Errorf("invalid delimiter %q: must be a single character", s)
	}
	b := s[0]
	if b < 0x20 || b > 0x7e || b == '"' {
		return 0, fmt.Errorf("invalid delimiter %q: must be printable ASCII other than '\"'", s)
	}
	return b, nil
}

// SplitList splits a comma-separated flag value, trimming blanks and
// dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
