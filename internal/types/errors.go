package types

import "fmt"

// =============================================================================
// ERROR TAXONOMY
// =============================================================================
// Every error carries the file path and, where it applies, the row, line or
// column so the input can be fixed without reading the engine.

// IOError reports a failure to open, read, write or close a file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// MalformedTableError reports an input table that is empty, ragged or has
// an unusable header.
type MalformedTableError struct {
	Path string

	// Row is the 1-based data row; 0 means the header.
	Row int

	// Line is the 1-based line in the file, when known.
	Line int

	// Column names the offending column, when known.
	Column string

	Reason string
}

func (e *MalformedTableError) Error() string {
	where := "header"
	if e.Row > 0 {
		where = fmt.Sprintf("row %d", e.Row)
	}
	if e.Line > 0 {
		where += fmt.Sprintf(" (line %d)", e.Line)
	}
	if e.Column != "" {
		where += fmt.Sprintf(", column %q", e.Column)
	}
	return fmt.Sprintf("malformed table %s: %s: %s", e.Path, where, e.Reason)
}

// MalformedFactorFileError reports a side file that cannot be parsed back
// into consistent factor tables.
type MalformedFactorFileError struct {
	Path string

	// Line is the 1-based line of the problem; 0 when it concerns a whole column.
	Line int

	Column string
	Reason string
}

func (e *MalformedFactorFileError) Error() string {
	msg := "malformed factor file " + e.Path
	if e.Line > 0 {
		msg += fmt.Sprintf(": line %d", e.Line)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(": column %q", e.Column)
	}
	return msg + ": " + e.Reason
}
