package rowdetect

import (
	"strconv"
	"testing"

	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
)

func newDetector() *Detector {
	return ForSchema(schema.Default(), DefaultOptions())
}

func TestDetectHeaderRow(t *testing.T) {
	longMeta := make([][]string, 0, 12)
	for i := 0; i < 10; i++ {
		longMeta = append(longMeta, []string{"Metadata", "Row", strconv.Itoa(i)})
	}
	longMeta = append(longMeta, []string{"First Name*", "Surname*", "Gender*"}, []string{"John", "Smith", "Male"})

	tests := []struct {
		name string
		rows [][]string
		want int
	}{
		{
			name: "metadata above header",
			rows: [][]string{
				{"School Information", "", "", "", ""},
				{"Generated on 2024-01-01", "", "", "", ""},
				{"First Name*", "Surname*", "Gender*", "DateOfBirth*", "Email*"},
				{"John", "Smith", "Male", "16/12/2001", "john@example.com"},
			},
			want: 2,
		},
		{
			name: "header first",
			rows: [][]string{
				{"First Name*", "Surname*", "Gender*"},
				{"John", "Smith", "Male"},
			},
			want: 0,
		},
		{
			name: "markers optional and case ignored",
			rows: [][]string{
				{"Some", "Random", "Text"},
				{"first name", "SURNAME", "Gender"},
			},
			want: 1,
		},
		{name: "long metadata", rows: longMeta, want: 10},
	}
	d := newDetector()
	for _, tt := range tests {
		got, ok := d.DetectHeaderRow(tt.rows)
		if !ok || got != tt.want {
			t.Errorf("%s: got=%d,%v; want %d", tt.name, got, ok, tt.want)
		}
	}
}

func TestDetectHeaderRowPatternFallback(t *testing.T) {
	rows := [][]string{
		{"12", "34", "56"},
		{"Pupil", "Family", "Birth", "Mail Box"},
		{"john", "smith", "16/12/2001", "john@example.com"},
	}
	got, ok := newDetector().DetectHeaderRow(rows)
	if !ok || got != 1 {
		t.Fatalf("got=%d,%v; want 1", got, ok)
	}
}

func TestDetectHeaderRowNothing(t *testing.T) {
	rows := [][]string{{"", "", ""}, {"", "", ""}}
	if _, ok := newDetector().DetectHeaderRow(rows); ok {
		t.Fatal("empty grid must not yield a header")
	}
}

func TestDetectTrailingRows(t *testing.T) {
	tests := []struct {
		name   string
		rows   [][]string
		want   int
		wantOK bool
	}{
		{
			name: "trailing empty",
			rows: [][]string{
				{"First Name*", "Surname*", "Gender*"},
				{"John", "Smith", "Male"},
				{"Jane", "Doe", "Female"},
				{"", "", ""},
				{"", "", ""},
			},
			want: 2, wantOK: true,
		},
		{
			name: "summary rows",
			rows: [][]string{
				{"First Name*", "Surname*", "Gender*"},
				{"John", "Smith", "Male"},
				{"Jane", "Doe", "Female"},
				{"Total", "2", "students"},
				{"End of report", "", ""},
			},
			want: 2, wantOK: true,
		},
		{
			name: "mixed",
			rows: [][]string{
				{"First Name*", "Surname*"},
				{"John", "Smith"},
				{"Jane", "Doe"},
				{"", ""},
				{"Total", "2"},
				{"", ""},
			},
			want: 2, wantOK: true,
		},
		{
			name: "single total cell",
			rows: [][]string{
				{"First Name*", "Surname*", "Gender*"},
				{"John", "Smith", "Male"},
				{"Jane", "Doe", "Female"},
				{"Total 2 students"},
				{""},
			},
			want: 2, wantOK: true,
		},
		{
			name: "numeric summary",
			rows: [][]string{
				{"First Name*", "Surname*", "SchoolYear", "CourseID", "Phone", "Year"},
				{"John", "Smith", "7", "101", "07700900123", "2"},
				{"12", "1,400", "£30", "4", "5", "6"},
			},
			want: 1, wantOK: true,
		},
		{
			name: "numbers with a name survive",
			rows: [][]string{
				{"First Name*", "Surname*", "SchoolYear", "CourseID", "Phone", "Year"},
				{"1", "2", "3", "4", "5", "Smith"},
			},
			wantOK: false,
		},
		{
			name: "nothing to trim",
			rows: [][]string{
				{"First Name*", "Surname*", "Gender*"},
				{"John", "Smith", "Male"},
			},
			wantOK: false,
		},
		{
			name:   "header only",
			rows:   [][]string{{"First Name*", "Surname*", "Gender*"}},
			wantOK: false,
		},
	}
	d := newDetector()
	for _, tt := range tests {
		got, ok := d.DetectTrailingRows(tt.rows, 0)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("%s: got=%d,%v; want %d,%v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDetectRowsToRemoveAndApply(t *testing.T) {
	rows := [][]string{
		{"School Information", "", ""},
		{"Metadata", "Row", "Here"},
		{"First Name*", "Surname*", "Gender*"},
		{"John", "Smith", "Male"},
		{"Jane", "Doe", "Female"},
		{"Total", "2", "students"},
		{"", "", ""},
	}
	b := newDetector().DetectRowsToRemove(rows)
	if b.HeaderIndex != 2 || !b.HeaderDetected || b.LastValid != 4 || !b.TrailingDetected {
		t.Fatalf("got=%+v", b)
	}
	if !b.NeedsTrim() {
		t.Fatal("expected trim")
	}

	top, bottom := b.Preview(rows)
	if len(top) != 2 || len(bottom) != 2 {
		t.Fatalf("preview got top=%d bottom=%d; want 2,2", len(top), len(bottom))
	}

	kept := b.Apply(rows)
	if len(kept) != 3 || kept[0][0] != "First Name*" || kept[2][0] != "Jane" {
		t.Fatalf("apply got=%v", kept)
	}
}

func TestPreviewCapsBottom(t *testing.T) {
	rows := [][]string{{"First Name*", "Surname*", "Gender*"}, {"John", "Smith", "Male"}}
	for i := 0; i < 8; i++ {
		rows = append(rows, []string{"", "", ""})
	}
	b := newDetector().DetectRowsToRemove(rows)
	_, bottom := b.Preview(rows)
	if len(bottom) != PreviewSize {
		t.Fatalf("got=%d; want %d", len(bottom), PreviewSize)
	}
}

func TestCaseHelpers(t *testing.T) {
	tests := []struct {
		in           string
		title, upper bool
	}{
		{"First Name", true, false},
		{"DOB", false, true},
		{"e-mail", false, false},
		{"O'Brien", true, false},
		{"123", false, false},
	}
	for _, tt := range tests {
		if got := isTitle(tt.in); got != tt.title {
			t.Errorf("isTitle(%q) got=%v; want %v", tt.in, got, tt.title)
		}
		if got := isUpper(tt.in); got != tt.upper {
			t.Errorf("isUpper(%q) got=%v; want %v", tt.in, got, tt.upper)
		}
	}
}
