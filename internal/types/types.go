// =============================================================================
// metafactors - Shared Types
// =============================================================================
//
// This package contains the data model shared by every stage of the
// conversion pipeline, kept here to avoid import cycles. Types defined here
// are used by:
//   - csvparser / xlsxparser  (build a Table)
//   - inference               (produce ColumnKinds)
//   - factor                  (build and persist FactorTables)
//   - document                (assemble and emit the final Document)
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// TABLE
// =============================================================================

// Table is a column-oriented view of a delimited metadata file.
// Every column holds exactly RowCount() raw string cells.
type Table struct {
	// Source is the path the table was read from. Used in error messages.
	Source string

	// Headers contains the column names in file order. Names are unique.
	Headers []string

	// Columns holds the raw cells, Columns[i] belonging to Headers[i].
	Columns [][]string

	index map[string]int
	rows  int
}

// NewTable creates an empty table with the given header.
//
// RETURNS:
//   - A MalformedTableError if the header is empty or names a column twice.
func NewTable(source string, headers []string) (*Table, error) {
	if len(headers) == 0 {
		return nil, &MalformedTableError{Path: source, Reason: "header has no columns"}
	}

	t := &Table{
		Source:  source,
		Headers: make([]string, len(headers)),
		Columns: make([][]string, len(headers)),
		index:   make(map[string]int, len(headers)),
	}
	copy(t.Headers, headers)

	for i, name := range headers {
		if prev, exists := t.index[name]; exists {
			return nil, &MalformedTableError{
				Path:   source,
				Column: name,
				Reason: fmt.Sprintf("duplicate column name (columns %d and %d)", prev+1, i+1),
			}
		}
		t.index[name] = i
	}

	return t, nil
}

// AppendRow adds one observation. The row must have one cell per column.
func (t *Table) AppendRow(cells []string) error {
	if len(cells) != len(t.Headers) {
		return &MalformedTableError{
			Path:   t.Source,
			Row:    t.rows + 1,
			Reason: fmt.Sprintf("row has %d fields, header has %d", len(cells), len(t.Headers)),
		}
	}

	for i, cell := range cells {
		t.Columns[i] = append(t.Columns[i], cell)
	}
	t.rows++

	return nil
}

// RowCount returns the number of observations.
func (t *Table) RowCount() int { return t.rows }

// ColumnCount returns the number of variables.
func (t *Table) ColumnCount() int { return len(t.Headers) }

// Column returns the cells of the named column.
func (t *Table) Column(name string) ([]string, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.Columns[i], true
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// =============================================================================
// COLUMN KIND
// =============================================================================

// ColumnKind classifies a column as numeric or categorical.
type ColumnKind int

const (
	// KindNumeric means every non-missing cell is a finite float.
	KindNumeric ColumnKind = iota

	// KindCategorical means the column is a finite set of discrete labels.
	KindCategorical
)

// String returns the name used in the JSON document.
func (k ColumnKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	default:
		return fmt.Sprintf("ColumnKind(%d)", int(k))
	}
}

// ParseColumnKind is the inverse of String.
func ParseColumnKind(s string) (ColumnKind, error) {
	switch strings.ToLower(s) {
	case "numeric":
		return KindNumeric, nil
	case "categorical":
		return KindCategorical, nil
	default:
		return 0, fmt.Errorf("unknown column kind %q", s)
	}
}

// =============================================================================
// NAME SETS
// =============================================================================

// StringSet is a set of exact, case-sensitive names.
type StringSet map[string]struct{}

// NewStringSet builds a set from values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is in the set. A nil set contains nothing.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// MissingSet holds the cell values that denote a missing observation.
// The empty string is always missing.
type MissingSet StringSet

// NewMissingSet builds a MissingSet from the configured sentinels.
func NewMissingSet(sentinels ...string) MissingSet {
	m := MissingSet{"": {}}
	for _, s := range sentinels {
		m[s] = struct{}{}
	}
	return m
}

// IsMissing reports whether cell is a missing observation.
func (m MissingSet) IsMissing(cell string) bool {
	if cell == "" {
		return true
	}
	_, ok := m[cell]
	return ok
}
