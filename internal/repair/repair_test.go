package repair

import (
	"testing"

	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
	"github.com/ginjaninja78/sport-passport-converter/internal/types"
)

// splitRow builds a 22-cell row whose free-text value "Asthma, hay fever,
// nut allergy" was split over three cells.
func splitRow(afterMerge string) []string {
	return []string{
		"SP1", "John", "Smith", "Male", "No",
		"Asthma", " hay fever", " nut allergy",
		afterMerge, "", "", "07700900123", "London", "", "E1 9BR", "UK",
		"", "", "", "john@x.com", "7", "101",
	}
}

func TestCheckColumnCount(t *testing.T) {
	r := ForSchema(schema.Default())
	if m := r.CheckColumnCount(0, make([]string, 20)); m != nil {
		t.Fatalf("got=%+v; want nil", m)
	}
	m := r.CheckColumnCount(4, make([]string, 22))
	if m == nil || m.RowIndex != 4 || m.Expected != 20 || m.Actual != 22 || m.ExtraColumns() != 2 {
		t.Fatalf("got=%+v", m)
	}
}

func TestAttemptRepair(t *testing.T) {
	r := ForSchema(schema.Default())

	tests := []struct {
		name   string
		next   string
		wantOK bool
	}{
		{"empty next cell", "", true},
		{"house number", "12 High Street", true},
		{"street keyword", "The Old Road", true},
		{"flat", "Flat 3", true},
		{"unit", "unit 7b", true},
		{"not an address", "Dr Jones", false},
	}
	for _, tt := range tests {
		cells := splitRow(tt.next)
		m := r.CheckColumnCount(0, cells)
		if m == nil {
			t.Fatalf("%s: expected a mismatch", tt.name)
		}
		got := r.AttemptRepair(*m)
		if (got != nil) != tt.wantOK {
			t.Errorf("%s: got=%v; want ok %v", tt.name, got, tt.wantOK)
			continue
		}
		if got == nil {
			continue
		}
		if len(got) != 20 {
			t.Errorf("%s: got=%d cells; want 20", tt.name, len(got))
		}
		if got[5] != "Asthma,  hay fever,  nut allergy" {
			t.Errorf("%s: merged got=%q", tt.name, got[5])
		}
		if got[4] != "No" || got[6] != tt.next || got[17] != "john@x.com" {
			t.Errorf("%s: neighbours got=%q,%q,%q", tt.name, got[4], got[6], got[17])
		}
	}
}

func TestAttemptRepairShortRow(t *testing.T) {
	r := ForSchema(schema.Default())
	for _, n := range []int{0, 5, 19} {
		m := types.ColumnMismatch{Cells: make([]string, n), Expected: 20, Actual: n}
		if got := r.AttemptRepair(m); got != nil {
			t.Errorf("actual=%d: got=%v; want nil", n, got)
		}
	}
}

func TestAttemptRepairDisabled(t *testing.T) {
	r := New(20, -1)
	m := r.CheckColumnCount(0, splitRow(""))
	if got := r.AttemptRepair(*m); got != nil {
		t.Fatalf("got=%v; want nil", got)
	}
	if got := r.SuggestedMerge(*m); got != "" {
		t.Fatalf("got=%q; want empty", got)
	}
}

func TestAttemptRepairSpanPastEnd(t *testing.T) {
	// Free-text column beyond the end of the row.
	r := New(3, 5)
	m := r.CheckColumnCount(0, []string{"a", "b", "c", "d"})
	if got := r.AttemptRepair(*m); got != nil {
		t.Fatalf("got=%v; want nil", got)
	}
}

func TestAttemptRepairFreeTextLast(t *testing.T) {
	r := New(3, 2)
	m := r.CheckColumnCount(0, []string{"Ann", "Lee", "Asthma", "12/03/2010"})
	if got := r.AttemptRepair(*m); got != nil {
		t.Fatalf("got=%q; want nil", got)
	}
	if got := r.SuggestedMerge(*m); got != "Asthma, 12/03/2010" {
		t.Errorf("suggested got=%q", got)
	}
	merged, ok := r.MergeAt(*m, "Asthma")
	if !ok || len(merged) != 3 || merged[2] != "Asthma" {
		t.Errorf("manual merge got=%q,%v", merged, ok)
	}
}

func TestManualMerge(t *testing.T) {
	r := ForSchema(schema.Default())
	m := r.CheckColumnCount(0, splitRow("Dr Jones"))

	if got := r.SuggestedMerge(*m); got != "Asthma,  hay fever,  nut allergy" {
		t.Errorf("suggested got=%q", got)
	}
	merged, ok := r.MergeAt(*m, "Asthma; hay fever; nut allergy")
	if !ok || len(merged) != 20 || merged[5] != "Asthma; hay fever; nut allergy" || merged[6] != "Dr Jones" {
		t.Fatalf("got=%v,%v", merged, ok)
	}

	short := types.ColumnMismatch{Cells: make([]string, 18), Expected: 20, Actual: 18}
	if _, ok := r.MergeAt(short, "x"); ok {
		t.Fatal("a short row cannot be merged")
	}
}
