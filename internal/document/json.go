package document

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/stela2502/metafactors/internal/types"
	"github.com/stela2502/metafactors/pkg/utils"
)

// SchemaVersion is the version of the JSON layout written by Encode.
const SchemaVersion = 1

// =============================================================================
// WIRE FORMAT
// =============================================================================
// {
//   "schema_version": 1,
//   "generator": {"name": "metafactors", "version": "1.0.0", "run_id": "…"},
//   "source": "meta.tsv",
//   "rows": 3,
//   "missing_code": -1,
//   "column_order": ["id", "cluster"],
//   "columns": {
//     "cluster": {"kind": "categorical", "codes": [0, 1, 0], "levels": ["A", "B"]},
//     "id":      {"kind": "numeric", "values": [1, 2, null]}
//   }
// }
// A level's code is its index in "levels".

type wireDocument struct {
	SchemaVersion int                   `json:"schema_version"`
	Generator     *wireGenerator        `json:"generator,omitempty"`
	Source        string                `json:"source,omitempty"`
	Rows          int                   `json:"rows"`
	MissingCode   int                   `json:"missing_code"`
	ColumnOrder   []string              `json:"column_order"`
	Columns       map[string]wireColumn `json:"columns"`
}

type wireGenerator struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	RunID   string `json:"run_id,omitempty"`
}

type wireColumn struct {
	Kind   string        `json:"kind"`
	Values numericValues `json:"values,omitempty"`
	Codes  []int         `json:"codes,omitempty"`
	Levels []string      `json:"levels,omitempty"`
}

// numericValues encodes NaN as null and every other value in the shortest
// form that parses back to the same bits.
type numericValues []float64

func (v numericValues) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 2+len(v)*8)
	buf = append(buf, '[')
	for i, x := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		switch {
		case math.IsNaN(x):
			buf = append(buf, "null"...)
		case math.IsInf(x, 0):
			return nil, fmt.Errorf("cannot encode %v", x)
		default:
			buf = strconv.AppendFloat(buf, x, 'g', -1, 64)
		}
	}
	return append(buf, ']'), nil
}

func (v *numericValues) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(numericValues, len(raw))
	for i, p := range raw {
		if p == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *p
	}
	*v = out
	return nil
}

// =============================================================================
// ENCODING
// =============================================================================

// Encode writes doc to w as indented JSON.
func Encode(w io.Writer, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}

	wire := wireDocument{
		SchemaVersion: SchemaVersion,
		Source:        doc.Source,
		Rows:          doc.Rows,
		MissingCode:   types.MissingCode,
		ColumnOrder:   make([]string, 0, len(doc.Columns)),
		Columns:       make(map[string]wireColumn, len(doc.Columns)),
	}
	if doc.Generator != (Generator{}) {
		wire.Generator = &wireGenerator{
			Name:    doc.Generator.Name,
			Version: doc.Generator.Version,
			RunID:   doc.Generator.RunID,
		}
	}

	for _, col := range doc.Columns {
		wc := wireColumn{Kind: col.Kind.String()}
		switch col.Kind {
		case types.KindNumeric:
			wc.Values = numericValues(col.Values)
		case types.KindCategorical:
			wc.Codes = col.Codes
			wc.Levels = col.Factor.Levels()
		}
		wire.ColumnOrder = append(wire.ColumnOrder, col.Name)
		wire.Columns[col.Name] = wc
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(wire)
}

// WriteFile writes doc to path, replacing any previous document only once
// the new one is complete.
func WriteFile(path string, doc *Document) error {
	err := utils.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		return Encode(w, doc)
	})
	if err != nil {
		return &types.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// =============================================================================
// DECODING
// =============================================================================

// Decode reads a document written by Encode and validates it.
func Decode(r io.Reader) (*Document, error) {
	var wire wireDocument
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	if wire.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported schema_version %d (want %d)", wire.SchemaVersion, SchemaVersion)
	}
	if wire.MissingCode != types.MissingCode {
		return nil, fmt.Errorf("unsupported missing_code %d (want %d)", wire.MissingCode, types.MissingCode)
	}
	if len(wire.ColumnOrder) != len(wire.Columns) {
		return nil, fmt.Errorf("column_order lists %d columns, columns has %d", len(wire.ColumnOrder), len(wire.Columns))
	}

	doc := &Document{
		Source:  wire.Source,
		Rows:    wire.Rows,
		Columns: make([]Column, 0, len(wire.ColumnOrder)),
	}
	if wire.Generator != nil {
		doc.Generator = Generator{Name: wire.Generator.Name, Version: wire.Generator.Version, RunID: wire.Generator.RunID}
	}

	for _, name := range wire.ColumnOrder {
		wc, ok := wire.Columns[name]
		if !ok {
			return nil, fmt.Errorf("column %q is listed in column_order but missing from columns", name)
		}
		kind, err := types.ParseColumnKind(wc.Kind)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}

		col := Column{Name: name, Kind: kind}
		switch kind {
		case types.KindNumeric:
			col.Values = make([]float64, len(wc.Values))
			copy(col.Values, wc.Values)
		case types.KindCategorical:
			ft, err := types.NewFactorTable(name, wc.Levels)
			if err != nil {
				return nil, err
			}
			col.Factor = ft
			col.Codes = make([]int, len(wc.Codes))
			copy(col.Codes, wc.Codes)
		}
		doc.Columns = append(doc.Columns, col)
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return doc, nil
}

// ReadFile decodes the document stored at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &types.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	return Decode(bufio.NewReader(f))
}
