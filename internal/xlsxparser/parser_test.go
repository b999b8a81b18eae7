package xlsxparser

import (
	"math"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	cells := map[string]interface{}{
		"A1": "Pupil List",
		"A2": "First Name*", "B2": "Surname*", "C2": "DateOfBirth*", "D2": "Email*",
		"A3": "John", "B3": "Smith", "C3": time.Date(2001, time.December, 16, 0, 0, 0, 0, time.UTC),
		"D3": "john@example.com",
	}
	for cell, v := range cells {
		if err := f.SetCellValue("Sheet1", cell, v); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.NewSheet("Staff"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue("Staff", "A1", "Name"); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "pupils.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse(t *testing.T) {
	path := writeWorkbook(t)
	got, err := Parse(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.SheetName != "Sheet1" || got.RowCount != 3 || got.MaxColumns != 4 || len(got.Sheets) != 2 {
		t.Fatalf("got sheet=%s rows=%d cols=%d sheets=%v", got.SheetName, got.RowCount, got.MaxColumns, got.Sheets)
	}
	if len(got.Rows[0]) != 4 || got.Rows[0][0] != "Pupil List" || got.Rows[0][3] != "" {
		t.Errorf("title row got=%q", got.Rows[0])
	}
	serial, err := strconv.ParseFloat(got.Rows[2][2], 64)
	if err != nil || math.Abs(serial-37241) > 0.001 {
		t.Errorf("date cell got=%q; want serial 37241", got.Rows[2][2])
	}
}

func TestParseNamedSheet(t *testing.T) {
	path := writeWorkbook(t)
	got, err := Parse(path, "Staff")
	if err != nil {
		t.Fatal(err)
	}
	if got.SheetName != "Staff" || got.Rows[0][0] != "Name" {
		t.Errorf("got=%+v", got)
	}
	if _, err := Parse(path, "Nope"); err == nil {
		t.Error("unknown sheet: expected an error")
	}
}

func TestParseLegacyXLS(t *testing.T) {
	if _, err := Parse("old.xls", ""); err == nil {
		t.Fatal("expected an error for .xls")
	}
}

func TestIsSpreadsheet(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.xlsx", true},
		{"A.XLSM", true},
		{"a.xls", true},
		{"a.csv", false},
		{"a.txt", false},
	}
	for _, tt := range tests {
		if got := IsSpreadsheet(tt.path); got != tt.want {
			t.Errorf("IsSpreadsheet(%q) got=%v; want %v", tt.path, got, tt.want)
		}
	}
}
