// =============================================================================
// metafactors - Factor Side File
// =============================================================================
//
// The side file stores factor definitions so they can be inspected and
// edited by hand between runs. It is a tab-separated file:
//
//   column	level	code
//   cluster	A	0
//   cluster	B	1
//   sex	female	0
//   sex	male	1
//
// EDITING RULES (checked when the file is read back):
//   - Lines may be reordered and columns interleaved
//   - Codes of a column must be 0..n-1 with no gaps and no repeats
//   - A level may appear once per column
//
// An existing side file is never overwritten.
//
// =============================================================================

package factor

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/stela2502/metafactors/internal/types"
	"github.com/stela2502/metafactors/pkg/utils"
)

// header is the first line of every side file.
var header = []string{"column", "level", "code"}

// =============================================================================
// WRITE PATH
// =============================================================================

// WriteFile creates the side file at path. It fails if the file already
// exists, and removes a partially written file on error.
func WriteFile(path string, factors []*types.FactorTable) (err error) {
	if err := utils.EnsureParentDir(path); err != nil {
		return &types.IOError{Op: "create", Path: path, Err: err}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &types.IOError{Op: "create", Path: path, Err: err}
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &types.IOError{Op: "close", Path: path, Err: cerr}
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if werr := Write(f, factors); werr != nil {
		return &types.IOError{Op: "write", Path: path, Err: werr}
	}
	return nil
}

// Write serializes factors to w in the given column order, levels in code
// order.
func Write(w io.Writer, factors []*types.FactorTable) error {
	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)
	cw.Comma = '\t'

	if err := cw.Write(header); err != nil {
		return err
	}
	for _, ft := range factors {
		for code, level := range ft.Levels() {
			if err := cw.Write([]string{ft.Column, level, strconv.Itoa(code)}); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// =============================================================================
// READ PATH
// =============================================================================

// ReadFile parses the side file at path. Tables are returned in order of
// the first line mentioning each column.
func ReadFile(path string) ([]*types.FactorTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &types.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	return Read(bufio.NewReader(f), path)
}

// entry is one parsed line of a side file.
type entry struct {
	level string
	code  int
	line  int
}

// Read parses a side file from r. source is used in error messages.
func Read(r io.Reader, source string) ([]*types.FactorTable, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		order   []string
		entries = make(map[string][]entry)
	)

	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &types.MalformedFactorFileError{Path: source, Line: parseErr.Line, Reason: parseErr.Err.Error()}
			}
			return nil, &types.IOError{Op: "read", Path: source, Err: err}
		}
		line, _ := reader.FieldPos(0)

		if first && isHeader(record) {
			continue
		}
		if len(record) != len(header) {
			return nil, &types.MalformedFactorFileError{
				Path:   source,
				Line:   line,
				Reason: fmt.Sprintf("expected %d fields (column, level, code), got %d", len(header), len(record)),
			}
		}

		column, level := record[0], record[1]
		code, err := strconv.Atoi(record[2])
		if err != nil || code < 0 {
			return nil, &types.MalformedFactorFileError{
				Path:   source,
				Line:   line,
				Column: column,
				Reason: fmt.Sprintf("code %q is not a non-negative integer", record[2]),
			}
		}

		if _, seen := entries[column]; !seen {
			order = append(order, column)
		}
		entries[column] = append(entries[column], entry{level: level, code: code, line: line})
	}

	factors := make([]*types.FactorTable, 0, len(order))
	for _, column := range order {
		ft, err := assemble(source, column, entries[column])
		if err != nil {
			return nil, err
		}
		factors = append(factors, ft)
	}
	return factors, nil
}

// assemble checks one column's entries and builds its FactorTable.
func assemble(source, column string, list []entry) (*types.FactorTable, error) {
	levels := make(map[string]int, len(list))
	codes := make(map[int]int, len(list))

	for _, e := range list {
		if prev, dup := levels[e.level]; dup {
			return nil, &types.MalformedFactorFileError{
				Path:   source,
				Line:   e.line,
				Column: column,
				Reason: fmt.Sprintf("level %q already listed on line %d", e.level, prev),
			}
		}
		if prev, dup := codes[e.code]; dup {
			return nil, &types.MalformedFactorFileError{
				Path:   source,
				Line:   e.line,
				Column: column,
				Reason: fmt.Sprintf("code %d already used on line %d", e.code, prev),
			}
		}
		levels[e.level] = e.line
		codes[e.code] = e.line
	}

	sorted := make([]entry, len(list))
	copy(sorted, list)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].code < sorted[j].code })

	ordered := make([]string, len(sorted))
	for i, e := range sorted {
		if e.code != i {
			return nil, &types.MalformedFactorFileError{
				Path:   source,
				Column: column,
				Reason: fmt.Sprintf("codes are not contiguous: expected code %d, found %d", i, e.code),
			}
		}
		ordered[i] = e.level
	}

	return types.NewFactorTable(column, ordered)
}

func isHeader(record []string) bool {
	if len(record) != len(header) {
		return false
	}
	for i := range header {
		if record[i] != header[i] {
			return false
		}
	}
	return true
}
