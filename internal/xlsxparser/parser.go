// =============================================================================
// Sport Passport Converter - Spreadsheet Loader
// =============================================================================
//
// This module reads one sheet of an XLSX workbook into a raw grid of string
// cells, the same shape the delimited loader produces.
//
// CELL VALUES:
//   Cells are read with RawCellValue, so number formats are not applied. A
//   date cell arrives as its serial day count (e.g. "37241") and the field
//   normaliser converts it. Displayed formats such as "16-Dec-01" would be
//   locale-dependent and ambiguous.
//
// SHAPE:
//   excelize drops trailing empty cells, so every row is padded to the width
//   of the widest row. Spreadsheet rows never have the split-cell problem of
//   delimited files, and are never repaired.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// SHEET DATA STRUCTURE
// =============================================================================

// SheetData is the raw grid read from one sheet.
type SheetData struct {
	// Rows are padded to MaxColumns.
	Rows [][]string

	// SourceFile is the workbook path, if read from disk.
	SourceFile string

	// SheetName is the sheet that was read.
	SheetName string

	// Sheets lists every sheet in the workbook.
	Sheets []string

	// RowCount is len(Rows).
	RowCount int

	// MaxColumns is the padded row width.
	MaxColumns int
}

// spreadsheetExts are the workbook extensions excelize can open.
var spreadsheetExts = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// IsSpreadsheet reports whether path names a workbook, by extension. Legacy
// .xls files count, so that the caller reports them instead of parsing them
// as text.
func IsSpreadsheet(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return spreadsheetExts[ext] || ext == ".xls"
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a sheet from a workbook on disk.
//
// PARAMETERS:
//   - path: The path to the workbook.
//   - sheet: The sheet name. Empty selects the first sheet.
//
// RETURNS:
//   - The sheet grid.
//   - An error if the workbook or sheet cannot be read.
func Parse(path, sheet string) (*SheetData, error) {
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		return nil, fmt.Errorf("legacy .xls workbooks are not supported; save %s as .xlsx", filepath.Base(path))
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	data, err := readSheet(f, sheet)
	if err != nil {
		return nil, err
	}
	data.SourceFile = path
	return data, nil
}

// ParseReader reads a sheet from an in-memory workbook.
func ParseReader(r io.Reader, sheet string) (*SheetData, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readSheet(f, sheet)
}

func readSheet(f *excelize.File, sheet string) (*SheetData, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	if sheet == "" {
		sheet = f.GetSheetName(0)
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found (available: %s)", sheet, strings.Join(sheets, ", "))
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}

	return &SheetData{
		Rows:       rows,
		SheetName:  sheet,
		Sheets:     sheets,
		RowCount:   len(rows),
		MaxColumns: width,
	}, nil
}
