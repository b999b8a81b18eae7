package prompt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ginjaninja78/sport-passport-converter/internal/converter"
	"github.com/ginjaninja78/sport-passport-converter/internal/matcher"
	"github.com/ginjaninja78/sport-passport-converter/internal/rowdetect"
	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
	"github.com/ginjaninja78/sport-passport-converter/internal/types"
	"github.com/ginjaninja78/sport-passport-converter/internal/validation"
)

func console(input string) (*Console, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return New(strings.NewReader(input), out, nil), out
}

func field(t *testing.T, name string) schema.FieldSpec {
	t.Helper()
	f, ok := schema.Default().FieldByName(name)
	if !ok {
		t.Fatalf("unknown field %s", name)
	}
	return f
}

func TestConfirmRowTrim(t *testing.T) {
	c, out := console("\n")
	b := rowdetect.Boundaries{HeaderIndex: 1, HeaderDetected: true}
	ok, err := c.ConfirmRowTrim(b, [][]string{{"Pupil export", "", "2024"}}, nil)
	if err != nil || !ok {
		t.Fatalf("got=%v,%v; want true", ok, err)
	}
	if !strings.Contains(out.String(), "Pupil export | 2024") {
		t.Errorf("preview missing: %s", out.String())
	}

	c, _ = console("n\n")
	if ok, _ := c.ConfirmRowTrim(b, nil, nil); ok {
		t.Error("got=true; want false")
	}
}

func TestChooseRetriesUntilValid(t *testing.T) {
	c, out := console("0\nabc\n2\n")
	got, err := c.choose("Pick", "a", "b")
	if err != nil || got != 1 {
		t.Fatalf("got=%d,%v; want 1", got, err)
	}
	if strings.Count(out.String(), "Please enter a number") != 2 {
		t.Errorf("got=%s", out.String())
	}
}

func TestEndOfInputAborts(t *testing.T) {
	c, _ := console("")
	if _, err := c.confirm("Sure?", true); !errors.Is(err, types.ErrAborted) {
		t.Errorf("got=%v; want ErrAborted", err)
	}
}

func TestConfirmVariationMappings(t *testing.T) {
	c, out := console("1\n")
	cands := []matcher.Candidate{{Column: 3, Header: "DOB", Field: schema.FieldDateOfBirth, Confidence: 1}}
	ok, err := c.ConfirmVariationMappings(cands, matcher.NewMapping())
	if err != nil || !ok {
		t.Fatalf("got=%v,%v; want true", ok, err)
	}
	if !strings.Contains(out.String(), "DateOfBirth") || !strings.Contains(out.String(), "100%") {
		t.Errorf("got=%s", out.String())
	}
}

func TestResolveManualMapping(t *testing.T) {
	unmapped := []schema.FieldSpec{
		field(t, schema.FieldCounty),
		field(t, schema.FieldEmail),
		field(t, schema.FieldCountry),
	}
	// Menu: 1 skip, 2 Email [required], 3 Country, 4 County, 5 exit.
	tests := []struct {
		input string
		want  types.Resolution
	}{
		{"1\n", types.Skip()},
		{"2\n", types.UseValue(schema.FieldEmail)},
		{"4\n", types.UseValue(schema.FieldCounty)},
		{"5\n", types.Abort()},
	}
	for _, tt := range tests {
		c, _ := console(tt.input)
		got, err := c.ResolveManualMapping("Mail", 2, unmapped)
		if err != nil || got != tt.want {
			t.Errorf("input %q got=%+v,%v; want %+v", tt.input, got, err, tt.want)
		}
	}
}

func TestResolveMissingMandatoryField(t *testing.T) {
	f := field(t, schema.FieldClassifiedAsDisabled)

	c, _ := console("\n")
	v, ok, err := c.ResolveMissingMandatoryField(f, "No")
	if err != nil || !ok || v != "No" {
		t.Errorf("got=%q,%v,%v; want No,true", v, ok, err)
	}

	c, _ = console("n\n")
	if _, ok, _ := c.ResolveMissingMandatoryField(f, "No"); ok {
		t.Error("got=true; want declined")
	}
}

func TestReviewAutoCorrections(t *testing.T) {
	v := validation.NewValidator(schema.Default())
	fixes := []*validation.ValidationError{
		v.ValidateField(0, field(t, schema.FieldGender), "m"),
		v.ValidateField(1, field(t, schema.FieldDateOfBirth), "12/16/2001"),
	}

	c, out := console("2\n")
	ok, err := c.ReviewAutoCorrections(fixes)
	if err != nil || ok {
		t.Fatalf("got=%v,%v; want false", ok, err)
	}
	for _, want := range []string{"Gender Abbreviation (1 corrections)", "Us To Uk Date (1 corrections)", "16/12/2001"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestResolveValidationError(t *testing.T) {
	v := validation.NewValidator(schema.Default())
	gender := v.ValidateField(0, field(t, schema.FieldGender), "x")
	dob := v.ValidateField(0, field(t, schema.FieldDateOfBirth), "12/16/2001")
	row := converter.RowContext{RowIndex: 0, Name: "John Smith", Row: types.NormalizedRow{}}

	tests := []struct {
		name  string
		err   *validation.ValidationError
		input string
		want  types.Resolution
	}{
		{"value", gender, "female\n", types.UseValue("Female")},
		{"abbreviation fixed", gender, "f\n", types.UseValue("Female")},
		{"retry until valid", gender, "unknown\nOther\n", types.UseValue("Other")},
		{"skip", gender, "s\n", types.Skip()},
		{"quit", gender, "Q\n", types.Abort()},
		{"suggestion is default", dob, "\n", types.UseValue("16/12/2001")},
	}
	for _, tt := range tests {
		c, _ := console(tt.input)
		got, err := c.ResolveValidationError(tt.err, row)
		if err != nil || got != tt.want {
			t.Errorf("%s: got=%+v,%v; want %+v", tt.name, got, err, tt.want)
		}
	}
}

func TestResolveColumnMismatch(t *testing.T) {
	m := types.ColumnMismatch{RowIndex: 4, Cells: make([]string, 21), Expected: 20, Actual: 21}

	c, _ := console("\n")
	got, err := c.ResolveColumnMismatch(m, "Asthma, hay fever")
	if err != nil || got != types.UseValue("Asthma, hay fever") {
		t.Errorf("default got=%+v,%v", got, err)
	}

	c, _ = console("Asthma\n")
	if got, _ := c.ResolveColumnMismatch(m, "Asthma, hay fever"); got != types.UseValue("Asthma") {
		t.Errorf("edited got=%+v", got)
	}

	short := types.ColumnMismatch{RowIndex: 4, Cells: make([]string, 18), Expected: 20, Actual: 18}
	c, out := console("2\n")
	if got, _ := c.ResolveColumnMismatch(short, ""); got != types.Abort() {
		t.Errorf("short got=%+v; want abort", got)
	}
	if !strings.Contains(out.String(), "cannot be repaired") {
		t.Errorf("got=%s", out.String())
	}
}

func TestConfirmExport(t *testing.T) {
	summary := converter.ExportSummary{
		Rows:    3,
		Skipped: []types.SkippedRow{{RowIndex: 2, Name: "Jane Doe", Reason: "Gender: Must be one of: Male, Female, Other"}},
		Manual:  []types.ManualCorrection{{RowIndex: 0, Field: "Email", Original: "bad", Corrected: "a@b.com"}},
	}

	tests := []struct {
		input string
		want  bool
	}{
		{"1\n", true},
		{"3\n", false},
		{"2\n\n", true},
		{"2\nn\n", false},
	}
	for _, tt := range tests {
		c, out := console(tt.input)
		got, err := c.ConfirmExport(summary)
		if err != nil || got != tt.want {
			t.Errorf("input %q got=%v,%v; want %v", tt.input, got, err, tt.want)
		}
		if strings.HasPrefix(tt.input, "2") && !strings.Contains(out.String(), "a@b.com") {
			t.Errorf("review did not list manual corrections: %s", out.String())
		}
	}
}

func TestHelpers(t *testing.T) {
	if got := truncate("abcdefghij", 8); got != "abcde..." {
		t.Errorf("got=%q", got)
	}
	if got := previewRow([]string{"", "a", "b", "c", "d", "e", "f"}); got != "a | b | c | d | e" {
		t.Errorf("got=%q", got)
	}
}
