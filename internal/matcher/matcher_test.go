package matcher

import (
	"errors"
	"strings"
	"testing"

	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
	"github.com/ginjaninja78/sport-passport-converter/internal/types"
)

func TestExactTierIgnoresCaseAndMarker(t *testing.T) {
	s := schema.Default()
	for _, f := range s.Fields() {
		for _, h := range []string{f.Header, f.DisplayName(), f.DisplayName() + "*",
			strings.ToUpper(f.DisplayName()), strings.ToLower(f.Header), "  " + f.Header + " "} {
			m, err := MapHeaders(s, []string{"Unrelated", h}, Options{})
			if err != nil {
				t.Fatalf("%q: %v", h, err)
			}
			hm, ok := m.MatchForField(f.Name)
			if !ok {
				t.Fatalf("%q: field %s unmapped", h, f.Name)
			}
			if hm.Tier != types.TierExact || hm.Column != 1 {
				t.Errorf("%q: got tier=%s col=%d; want exact col=1", h, hm.Tier, hm.Column)
			}
		}
	}
}

func TestVariationScenario(t *testing.T) {
	s := schema.Default()
	m, err := MapHeaders(s, []string{"DOB", "Post Code", "E-mail"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := map[int]string{0: schema.FieldDateOfBirth, 1: schema.FieldPostcode, 2: schema.FieldEmail}
	for col, field := range want {
		got, ok := m.FieldForColumn(col)
		if !ok || got != field {
			t.Errorf("col %d: got=%q; want %q", col, got, field)
		}
		hm, _ := m.MatchForField(field)
		if hm.Tier != types.TierVariation || hm.Confidence < DefaultMinConfidence {
			t.Errorf("%s: got tier=%s conf=%.2f", field, hm.Tier, hm.Confidence)
		}
	}
}

func TestVariationBatchRejected(t *testing.T) {
	s := schema.Default()
	var seen []Candidate
	m, err := MapHeaders(s, []string{"First Name", "DOB", "Sex"}, Options{
		Confirm: func(c []Candidate, _ *Mapping) (bool, error) {
			seen = c
			return false, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 {
		t.Fatalf("got=%d candidates; want 2", len(seen))
	}
	if m.HasField(schema.FieldDateOfBirth) || m.HasField(schema.FieldGender) {
		t.Fatal("rejected batch must not be applied")
	}
	if !m.HasField(schema.FieldFirstName) {
		t.Fatal("exact match lost")
	}
}

func TestFieldNeverMappedTwice(t *testing.T) {
	s := schema.Default()
	m, err := MapHeaders(s, []string{"Email", "E-mail", "Mail"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.ColumnOf(schema.FieldEmail); got != 0 {
		t.Fatalf("email col got=%d; want 0", got)
	}
	if m.HasColumn(1) || m.HasColumn(2) {
		t.Fatal("duplicate email columns must stay unmapped")
	}
}

func TestDuplicateVariationCandidatesKeepFirst(t *testing.T) {
	s := schema.Default()
	m, err := MapHeaders(s, []string{"E-mail", "Email Address"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.ColumnOf(schema.FieldEmail); got != 0 {
		t.Fatalf("email col got=%d; want 0", got)
	}
	if m.HasColumn(1) {
		t.Fatal("second email candidate must be discarded")
	}
}

func TestManualTier(t *testing.T) {
	s := schema.Default()
	var offered []string
	m, err := MapHeaders(s, []string{"Email", "Widget", "Club Ref", ""}, Options{
		Manual: func(h string, col int, unmapped []schema.FieldSpec) (types.Resolution, error) {
			offered = append(offered, h)
			if h == "Club Ref" {
				return types.UseValue(schema.FieldSportPassportID), nil
			}
			return types.Skip(), nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(offered) != 2 {
		t.Fatalf("got=%v offered; want Widget and Club Ref", offered)
	}
	hm, ok := m.MatchForField(schema.FieldSportPassportID)
	if !ok || hm.Column != 2 || hm.Tier != types.TierManual {
		t.Fatalf("got=%+v", hm)
	}
}

func TestManualAbort(t *testing.T) {
	s := schema.Default()
	_, err := MapHeaders(s, []string{"Widget"}, Options{
		Manual: func(string, int, []schema.FieldSpec) (types.Resolution, error) {
			return types.Abort(), nil
		},
	})
	if !errors.Is(err, types.ErrAborted) {
		t.Fatalf("got=%v; want ErrAborted", err)
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		header     string
		variations []string
		want       float64
	}{
		{"DOB*", []string{"DOB"}, 1.0},
		{"date_of-birth", []string{"Date of Birth"}, 1.0},
		{"phone", []string{"Mobile Phone"}, 5.0 / 12.0 * 0.8},
		{"home tel number", []string{"Mobile Number"}, 1.0 / 4.0 * 0.6},
		{"xyz", []string{"Email"}, 0},
	}
	for _, tt := range tests {
		got := Score(tt.header, tt.variations)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Score(%q): got=%.4f; want %.4f", tt.header, got, tt.want)
		}
	}
}

func TestResolveMissing(t *testing.T) {
	s := schema.Default()
	headers := []string{"First Name", "Surname", "Gender", "DateOfBirth", "Postcode", "Email addr"}
	m, _ := MapHeaders(s, headers, Options{MinConfidence: 0.99})

	err := ResolveMissing(s, m, headers, nil, nil)
	var mfe *MissingFieldsError
	if !errors.As(err, &mfe) || !errors.Is(err, ErrMissingMandatory) {
		t.Fatalf("got=%v; want MissingFieldsError", err)
	}
	if len(mfe.Fields) != 1 || mfe.Fields[0].Field.Name != schema.FieldEmail {
		t.Fatalf("got=%+v; want email only", mfe.Fields)
	}
	if len(mfe.Fields[0].Suggestions) == 0 || mfe.Fields[0].Suggestions[0] != "Email addr" {
		t.Errorf("suggestions got=%v", mfe.Fields[0].Suggestions)
	}
}

func TestResolveMissingWithDefaults(t *testing.T) {
	s := schema.Default()
	headers := []string{"First Name", "Surname", "Gender", "DateOfBirth"}
	m, _ := MapHeaders(s, headers, Options{})

	var offered []string
	err := ResolveMissing(s, m, headers,
		map[string]string{schema.FieldPostcode: "SW1A 1AA", schema.FieldEmail: "office@school.org"},
		func(f schema.FieldSpec, proposed string) (string, bool, error) {
			offered = append(offered, f.Name+"="+proposed)
			return proposed, true, nil
		})
	if err != nil {
		t.Fatal(err)
	}
	if len(offered) != 1 || offered[0] != "classified_as_disabled=No" {
		t.Fatalf("offered got=%v", offered)
	}
	defaults := m.Defaults()
	if defaults[schema.FieldPostcode] != "SW1A 1AA" || defaults[schema.FieldEmail] != "office@school.org" ||
		defaults[schema.FieldClassifiedAsDisabled] != "No" {
		t.Fatalf("defaults got=%v", defaults)
	}
	hm, _ := m.MatchForField(schema.FieldEmail)
	if hm.Header != "__email_default__" || hm.Column != -1 {
		t.Fatalf("got=%+v", hm)
	}
	row := m.FieldValues([]string{"Ann", "Lee", "Female", "01/02/2010"})
	if row[schema.FieldEmail] != "office@school.org" || row[schema.FieldFirstName] != "Ann" {
		t.Fatalf("row got=%v", row)
	}
}

func TestResolveMissingDeclined(t *testing.T) {
	s := schema.Default()
	headers := []string{"First Name", "Surname", "Gender", "DateOfBirth", "Postcode", "Email"}
	m, _ := MapHeaders(s, headers, Options{})
	err := ResolveMissing(s, m, headers, nil, func(schema.FieldSpec, string) (string, bool, error) {
		return "", false, nil
	})
	var mfe *MissingFieldsError
	if !errors.As(err, &mfe) || !mfe.Declined {
		t.Fatalf("got=%v; want declined", err)
	}
}

func TestSuggest(t *testing.T) {
	got := Suggest("Email*", []string{"Name", "E-mail", "", "email"}, MaxSuggestions)
	if len(got) != 2 || got[0] != "email" || got[1] != "E-mail" {
		t.Fatalf("got=%v; want [email E-mail]", got)
	}
}
