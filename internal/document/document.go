// =============================================================================
// metafactors - Document Assembly
// =============================================================================
//
// This module combines the parsed table, the inferred column kinds and the
// factor tables into the Document that is emitted as JSON.
//
// COLUMN PAYLOADS:
//   - numeric:     parsed float64 values, NaN for missing cells
//   - categorical: integer codes (types.MissingCode for missing cells)
//                  plus the column's FactorTable
//
// =============================================================================

package document

import (
	"fmt"
	"math"

	"github.com/stela2502/metafactors/internal/factor"
	"github.com/stela2502/metafactors/internal/inference"
	"github.com/stela2502/metafactors/internal/types"
)

// Generator identifies the program run that produced a document.
type Generator struct {
	Name    string
	Version string
	RunID   string
}

// Column is one variable of the document.
type Column struct {
	Name string
	Kind types.ColumnKind

	// Values is set for numeric columns.
	Values []float64

	// Codes and Factor are set for categorical columns.
	Codes  []int
	Factor *types.FactorTable
}

// Document is the structured description of a metadata table.
type Document struct {
	Generator Generator
	Source    string
	Rows      int
	Columns   []Column
}

// Assemble builds the document for t.
//
// PARAMETERS:
//   - t: The parsed table.
//   - kinds: One kind per column of t, in header order.
//   - factors: The factor of every categorical column, keyed by name.
//   - missing: The missing-value set used during inference.
//
// RETURNS:
//   - The validated document.
//   - An error if the inputs disagree with each other.
func Assemble(t *types.Table, kinds []types.ColumnKind, factors map[string]*types.FactorTable, missing types.MissingSet) (*Document, error) {
	if len(kinds) != t.ColumnCount() {
		return nil, fmt.Errorf("got %d column kinds for %d columns", len(kinds), t.ColumnCount())
	}

	doc := &Document{
		Source:  t.Source,
		Rows:    t.RowCount(),
		Columns: make([]Column, 0, t.ColumnCount()),
	}

	for i, name := range t.Headers {
		cells := t.Columns[i]
		col := Column{Name: name, Kind: kinds[i]}

		switch kinds[i] {
		case types.KindNumeric:
			col.Values = make([]float64, len(cells))
			for r, cell := range cells {
				if missing.IsMissing(cell) {
					col.Values[r] = math.NaN()
					continue
				}
				v, ok := inference.ParseNumber(cell)
				if !ok {
					return nil, fmt.Errorf("column %q row %d: %q is not numeric", name, r+1, cell)
				}
				col.Values[r] = v
			}

		case types.KindCategorical:
			ft, ok := factors[name]
			if !ok {
				return nil, fmt.Errorf("column %q: no factor table", name)
			}
			codes, err := factor.Encode(ft, cells, missing)
			if err != nil {
				return nil, err
			}
			col.Codes = codes
			col.Factor = ft

		default:
			return nil, fmt.Errorf("column %q: unsupported kind %v", name, kinds[i])
		}

		doc.Columns = append(doc.Columns, col)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks that every column carries Rows values of its kind and
// that codes stay inside their factor.
func (d *Document) Validate() error {
	if d.Rows < 0 {
		return fmt.Errorf("negative row count %d", d.Rows)
	}

	seen := make(map[string]bool, len(d.Columns))
	for _, col := range d.Columns {
		if seen[col.Name] {
			return fmt.Errorf("duplicate column %q", col.Name)
		}
		seen[col.Name] = true

		switch col.Kind {
		case types.KindNumeric:
			if len(col.Values) != d.Rows {
				return fmt.Errorf("column %q has %d values, document has %d rows", col.Name, len(col.Values), d.Rows)
			}
			for r, v := range col.Values {
				if math.IsInf(v, 0) {
					return fmt.Errorf("column %q row %d: infinite value", col.Name, r+1)
				}
			}

		case types.KindCategorical:
			if col.Factor == nil {
				return fmt.Errorf("column %q has no factor table", col.Name)
			}
			if len(col.Codes) != d.Rows {
				return fmt.Errorf("column %q has %d codes, document has %d rows", col.Name, len(col.Codes), d.Rows)
			}
			for r, code := range col.Codes {
				if code != types.MissingCode && (code < 0 || code >= col.Factor.Len()) {
					return fmt.Errorf("column %q row %d: code %d outside 0..%d", col.Name, r+1, code, col.Factor.Len()-1)
				}
			}

		default:
			return fmt.Errorf("column %q: unsupported kind %v", col.Name, col.Kind)
		}
	}
	return nil
}

// Column returns the named column.
func (d *Document) Column(name string) (*Column, bool) {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i], true
		}
	}
	return nil, false
}

// Equal reports whether two documents carry the same data. Numeric values
// are compared bit for bit, so NaN equals NaN. Generator is ignored.
func (d *Document) Equal(o *Document) bool {
	if d.Source != o.Source || d.Rows != o.Rows || len(d.Columns) != len(o.Columns) {
		return false
	}
	for i := range d.Columns {
		a, b := d.Columns[i], o.Columns[i]
		if a.Name != b.Name || a.Kind != b.Kind {
			return false
		}
		if len(a.Values) != len(b.Values) || len(a.Codes) != len(b.Codes) {
			return false
		}
		for r := range a.Values {
			if math.Float64bits(a.Values[r]) != math.Float64bits(b.Values[r]) {
				return false
			}
		}
		for r := range a.Codes {
			if a.Codes[r] != b.Codes[r] {
				return false
			}
		}
		if a.Kind == types.KindCategorical && !a.Factor.Equal(b.Factor) {
			return false
		}
	}
	return true
}
