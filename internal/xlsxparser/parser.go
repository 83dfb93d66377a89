// =============================================================================
// metafactors - Workbook Table Reader
// =============================================================================
//
// This module reads metadata tables stored as Excel workbooks. The first row
// of the selected sheet is the header, subsequent rows are observations,
// exactly as for delimited input.
//
// DIFFERENCES FROM DELIMITED INPUT:
//   - excelize drops trailing empty cells, so short rows are padded with
//     empty (missing) cells instead of being rejected
//   - Rows longer than the header are still malformed
//   - Raw cell values are used so number formats do not alter values
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/stela2502/metafactors/internal/types"
)

// Extensions lists the file extensions handled by this reader.
var Extensions = []string{".xlsx", ".xlsm"}

// IsWorkbook reports whether path names a workbook by its extension.
func IsWorkbook(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Parse reads one sheet of a workbook into a table.
//
// PARAMETERS:
//   - path: The path to the workbook.
//   - sheet: The sheet name; empty selects the first sheet.
//
// RETURNS:
//   - The parsed table.
//   - An *types.IOError if the workbook cannot be opened.
//   - A *types.MalformedTableError if the sheet is missing, empty or ragged.
func Parse(path, sheet string) (*types.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &types.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, &types.MalformedTableError{Path: path, Reason: "workbook has no sheets"}
		}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		var notExist excelize.ErrSheetNotExist
		if errors.As(err, &notExist) {
			return nil, &types.MalformedTableError{Path: path, Reason: fmt.Sprintf("sheet %q does not exist", sheet)}
		}
		return nil, &types.IOError{Op: "read", Path: path, Err: err}
	}

	return buildTable(path, rows)
}

// buildTable turns sheet rows into a table. Empty rows are skipped; line
// numbers in errors are the 1-based sheet row.
func buildTable(path string, rows [][]string) (*types.Table, error) {
	var table *types.Table
	dataRow := 0

	for i, row := range rows {
		if isRowEmpty(row) {
			continue
		}

		if table == nil {
			headers := make([]string, len(row))
			for j, h := range row {
				headers[j] = strings.TrimSpace(h)
				if headers[j] == "" {
					headers[j] = fmt.Sprintf("Column_%d", j+1)
				}
			}
			t, err := types.NewTable(path, headers)
			if err != nil {
				return nil, err
			}
			table = t
			continue
		}

		dataRow++
		if len(row) > len(table.Headers) {
			return nil, &types.MalformedTableError{
				Path:   path,
				Row:    dataRow,
				Line:   i + 1,
				Reason: fmt.Sprintf("row has %d fields, header has %d", len(row), len(table.Headers)),
			}
		}

		cells := make([]string, len(table.Headers))
		for j, cell := range row {
			cells[j] = strings.TrimSpace(cell)
		}
		if err := table.AppendRow(cells); err != nil {
			return nil, err
		}
	}

	if table == nil {
		return nil, &types.MalformedTableError{Path: path, Reason: "sheet is empty"}
	}
	return table, nil
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
