package types

import (
	"errors"
	"fmt"
)

// MissingCode is the code given to missing cells of a categorical column.
const MissingCode = -1

// ErrDuplicateLevel is returned when a level is added to a FactorTable twice.
var ErrDuplicateLevel = errors.New("duplicate level")

// FactorTable is the level domain of one categorical column. Codes are the
// positions in the level list, so they are dense and start at zero.
type FactorTable struct {
	Column string

	levels []string
	codes  map[string]int
}

// NewFactorTable creates a factor whose codes follow the order of levels.
func NewFactorTable(column string, levels []string) (*FactorTable, error) {
	f := &FactorTable{
		Column: column,
		levels: make([]string, 0, len(levels)),
		codes:  make(map[string]int, len(levels)),
	}
	for _, level := range levels {
		if _, exists := f.codes[level]; exists {
			return nil, fmt.Errorf("column %q: %w %q", column, ErrDuplicateLevel, level)
		}
		f.Add(level)
	}
	return f, nil
}

// Add returns the code of level, appending it as a new level if unseen.
// A FactorTable must not be modified once it has been persisted.
func (f *FactorTable) Add(level string) int {
	if f.codes == nil {
		f.codes = make(map[string]int)
	}
	if code, ok := f.codes[level]; ok {
		return code
	}
	code := len(f.levels)
	f.levels = append(f.levels, level)
	f.codes[level] = code
	return code
}

// Code returns the code of level.
func (f *FactorTable) Code(level string) (int, bool) {
	code, ok := f.codes[level]
	return code, ok
}

// Level returns the level with the given code.
func (f *FactorTable) Level(code int) (string, bool) {
	if code < 0 || code >= len(f.levels) {
		return "", false
	}
	return f.levels[code], true
}

// Levels returns a copy of the level list in code order.
func (f *FactorTable) Levels() []string {
	out := make([]string, len(f.levels))
	copy(out, f.levels)
	return out
}

// Len returns the number of levels.
func (f *FactorTable) Len() int { return len(f.levels) }

// Clone returns an independent copy.
func (f *FactorTable) Clone() *FactorTable {
	c, _ := NewFactorTable(f.Column, f.levels)
	return c
}

// Equal reports whether both tables describe the same column with the same
// levels in the same order.
func (f *FactorTable) Equal(o *FactorTable) bool {
	if f == nil || o == nil {
		return f == o
	}
	if f.Column != o.Column || len(f.levels) != len(o.levels) {
		return false
	}
	for i := range f.levels {
		if f.levels[i] != o.levels[i] {
			return false
		}
	}
	return true
}
