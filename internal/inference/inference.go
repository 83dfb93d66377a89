// =============================================================================
// metafactors - Column Type Inference
// =============================================================================
//
// This module decides, per column, whether a variable is numeric or a
// categorical factor.
//
// RULES (in order):
//   1. A column named in the forced set is categorical.
//   2. A column with no non-missing cell is categorical (no numeric evidence).
//   3. A column is numeric if every non-missing cell parses as a finite
//      float64; otherwise it is categorical.
//
// Columns are independent, so large tables can be classified by several
// workers. Results are stored by column index and never depend on
// scheduling order.
//
// =============================================================================

package inference

import (
	"math"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/stela2502/metafactors/internal/types"
)

// Inferencer classifies table columns.
type Inferencer struct {
	missing types.MissingSet
	workers int
}

// New creates an Inferencer. workers < 2 classifies sequentially.
func New(missing types.MissingSet, workers int) *Inferencer {
	if missing == nil {
		missing = types.NewMissingSet()
	}
	return &Inferencer{missing: missing, workers: workers}
}

// Infer returns one ColumnKind per column of t, in header order.
func (in *Inferencer) Infer(t *types.Table, forced types.StringSet) []types.ColumnKind {
	kinds := make([]types.ColumnKind, t.ColumnCount())

	if in.workers < 2 {
		for i, name := range t.Headers {
			kinds[i] = in.classify(name, t.Columns[i], forced)
		}
		return kinds
	}

	var g errgroup.Group
	g.SetLimit(in.workers)
	for i, name := range t.Headers {
		g.Go(func() error {
			kinds[i] = in.classify(name, t.Columns[i], forced)
			return nil
		})
	}
	_ = g.Wait() // classify never fails

	return kinds
}

func (in *Inferencer) classify(name string, cells []string, forced types.StringSet) types.ColumnKind {
	if forced.Has(name) {
		return types.KindCategorical
	}
	return in.Classify(cells)
}

// Classify applies the numeric test to one column's cells.
func (in *Inferencer) Classify(cells []string) types.ColumnKind {
	seen := false
	for _, cell := range cells {
		if in.missing.IsMissing(cell) {
			continue
		}
		if _, ok := ParseNumber(cell); !ok {
			return types.KindCategorical
		}
		seen = true
	}

	if !seen {
		return types.KindCategorical
	}
	return types.KindNumeric
}

// ParseNumber parses a cell as a finite float64. "NaN" and "Inf" are
// rejected: they cannot be represented in the JSON document.
func ParseNumber(cell string) (float64, bool) {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
