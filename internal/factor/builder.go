// =============================================================================
// metafactors - Factor Builder
// =============================================================================
//
// This module turns categorical columns into factors: an ordered list of
// distinct levels plus one integer code per observation.
//
// ORDERING:
//   Levels are kept in order of first occurrence, not sorted. Source files
//   usually list groups in a meaningful order (control before treatment),
//   and downstream tools keep it.
//
// MISSING VALUES:
//   Missing cells never become levels. They are encoded as
//   types.MissingCode (-1).
//
// =============================================================================

package factor

import (
	"fmt"

	"github.com/stela2502/metafactors/internal/types"
)

// Build computes the factor of a column from its cells.
func Build(column string, cells []string, missing types.MissingSet) *types.FactorTable {
	ft, _ := types.NewFactorTable(column, nil)
	for _, cell := range cells {
		if missing.IsMissing(cell) {
			continue
		}
		ft.Add(cell)
	}
	return ft
}

// Extend returns a copy of base with the unseen levels of cells appended
// after the existing codes. Existing codes are unchanged. The new levels
// are returned in the order they were added.
func Extend(base *types.FactorTable, cells []string, missing types.MissingSet) (*types.FactorTable, []string) {
	ft := base.Clone()
	var added []string
	for _, cell := range cells {
		if missing.IsMissing(cell) {
			continue
		}
		if _, ok := ft.Code(cell); ok {
			continue
		}
		ft.Add(cell)
		added = append(added, cell)
	}
	return ft, added
}

// Encode maps cells to their codes in ft.
//
// RETURNS:
//   - One code per cell; missing cells get types.MissingCode.
//   - An error naming the first non-missing cell that is not a level of ft.
func Encode(ft *types.FactorTable, cells []string, missing types.MissingSet) ([]int, error) {
	codes := make([]int, len(cells))
	for i, cell := range cells {
		if missing.IsMissing(cell) {
			codes[i] = types.MissingCode
			continue
		}
		code, ok := ft.Code(cell)
		if !ok {
			return nil, fmt.Errorf("column %q row %d: value %q is not a level of the factor", ft.Column, i+1, cell)
		}
		codes[i] = code
	}
	return codes, nil
}
