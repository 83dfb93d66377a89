// =============================================================================
// metafactors - Delimited Table Reader
// =============================================================================
//
// This module parses delimited metadata files (TSV, CSV, ...) into a
// column-oriented types.Table. It is purely structural: it checks that the
// file is non-empty and rectangular and does not look at cell contents.
//
// FEATURES:
//   - Any single-byte delimiter (tab by default)
//   - Input character sets other than UTF-8 (decoded via golang.org/x/text)
//   - UTF-8 byte order marks are stripped from the header
//   - Ragged rows are reported with their data row and file line
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/stela2502/metafactors/internal/types"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls how a delimited file is read.
type Options struct {
	// Delimiter separates fields. Zero means tab.
	Delimiter byte

	// Encoding is the IANA name of the file's character set.
	// Empty means UTF-8.
	Encoding string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a delimited file and returns its table.
//
// PARAMETERS:
//   - filePath: The path to the input file.
//   - opts: Delimiter and encoding settings.
//
// RETURNS:
//   - The parsed table.
//   - An *types.IOError if the file cannot be opened or read.
//   - A *types.MalformedTableError if the file is empty or ragged.
func Parse(filePath string, opts Options) (*types.Table, error) {
	decoder, err := Decoder(opts.Encoding)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, &types.IOError{Op: "open", Path: filePath, Err: err}
	}
	defer file.Close()

	return ParseReader(decoder.Reader(bufio.NewReader(file)), filePath, opts.Delimiter)
}

// ParseReader reads an already decoded UTF-8 stream. source is only used
// in error messages.
func ParseReader(r io.Reader, source string, delimiter byte) (*types.Table, error) {
	if delimiter == 0 {
		delimiter = '\t'
	}

	reader := csv.NewReader(r)
	configureReader(reader, delimiter)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &types.MalformedTableError{Path: source, Reason: "file is empty"}
	}
	if err != nil {
		return nil, readError(source, 0, err)
	}

	table, err := types.NewTable(source, cleanHeaders(header))
	if err != nil {
		return nil, err
	}

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(source, row, err)
		}

		if len(record) != len(table.Headers) {
			line, _ := reader.FieldPos(0)
			return nil, &types.MalformedTableError{
				Path:   source,
				Row:    row,
				Line:   line,
				Reason: fmt.Sprintf("row has %d fields, header has %d", len(record), len(table.Headers)),
			}
		}

		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if err := table.AppendRow(record); err != nil {
			return nil, err
		}
	}

	return table, nil
}

// configureReader sets up the csv reader for metadata files.
func configureReader(reader *csv.Reader, delimiter byte) {
	reader.Comma = rune(delimiter)

	// Field counts are checked by ParseReader so the error can name the row.
	reader.FieldsPerRecord = -1

	// Metadata exports often carry stray quotes inside labels.
	reader.LazyQuotes = true

	// TrimLeadingSpace is left off: with a tab delimiter it would swallow
	// empty fields. Cells are trimmed after splitting instead.
}

// cleanHeaders trims header names and names empty ones by position.
// R writes an empty first header for the row-name column.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// readError classifies a csv read failure. Syntax problems are table
// errors; anything else came from the underlying reader.
func readError(source string, row int, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &types.MalformedTableError{
			Path:   source,
			Row:    row,
			Line:   parseErr.Line,
			Reason: parseErr.Err.Error(),
		}
	}
	return &types.IOError{Op: "read", Path: source, Err: err}
}
