// =============================================================================
// Sport Passport Converter - Header Variations
// =============================================================================
//
// This module holds the curated synonym table used by the variation tier of
// header matching, plus the scoring function that compares an input header
// against one field's variation list.
//
// SCORING (per field, best of its variations):
//   1.0                          exact match after normalisation
//   shorter/longer * 0.8         one normalised string contains the other
//   jaccard(words) * 0.6         otherwise, best word overlap
//
// CUSTOMIZATION:
//   - Add synonyms to DefaultVariations. The canonical header is always
//     considered in addition to the list, so it never needs repeating.
//   - Adjust the ceilings through ScoreWeights.
//
// =============================================================================

package matcher

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
)

// Variations maps a canonical field name to its known header synonyms.
type Variations map[string][]string

// DefaultVariations returns the built-in synonym table. The map is freshly
// allocated on each call so callers may extend it.
func DefaultVariations() Variations {
	return Variations{
		schema.FieldSportPassportID: {
			"Sport Passport ID", "SportPassportID", "SPID", "ID", "Passport ID",
			"Sport Passport", "Passport Number",
		},
		schema.FieldFirstName: {
			"First Name", "First Name*", "Firstname", "First", "FName",
			"Given Name", "Forename", "Christian Name",
		},
		schema.FieldSurname: {
			"Surname", "Surname*", "Last Name", "Last Name*", "LastName",
			"Family Name", "LName", "Second Name",
		},
		schema.FieldGender: {
			"Gender", "Gender*", "Sex", "Sex*",
		},
		schema.FieldClassifiedAsDisabled: {
			"ClassifiedAsDisabled", "ClassifiedAsDisabled*", "Classified As Disabled",
			"Disabled", "Disability Status", "Has Disability",
		},
		schema.FieldMedicalConditions: {
			"MedicalConditions", "Medical Conditions", "Medical Info",
			"Medical History", "Health Conditions", "Conditions",
		},
		schema.FieldDateOfBirth: {
			"DateOfBirth", "DateOfBirth*", "Date of Birth", "Date of Birth*",
			"DOB", "DOB*", "Birth Date", "BirthDate", "Date Born",
		},
		schema.FieldAddress1: {
			"Address1", "Address 1", "Address Line 1", "Address", "Street Address",
			"Address Line One",
		},
		schema.FieldAddress2: {
			"Address2", "Address 2", "Address Line 2", "Address Line Two",
		},
		schema.FieldPhoneNumber: {
			"PhoneNumber", "Phone Number", "Phone", "Telephone", "Tel",
			"Mobile", "Mobile Number", "Contact Number",
		},
		schema.FieldTownCity: {
			"TownCity", "Town City", "Town", "City", "City/Town",
		},
		schema.FieldCounty: {
			"County", "State", "Region", "Province",
		},
		schema.FieldPostcode: {
			"Postcode", "Postcode*", "Post Code", "Post Code*", "Postal Code",
			"Postal Code*", "Zip Code", "ZIP", "ZIP Code", "School Postcode",
			"School Postcode*", "School Post Code", "School Post Code*", "School Postal Code",
		},
		schema.FieldCountry: {
			"Country", "Nation",
		},
		schema.FieldEmergencyContactName: {
			"EmergencyContactName", "Emergency Contact Name", "Emergency Contact",
			"EC Name", "Emergency Name", "Contact Name",
		},
		schema.FieldEmergencyContactPhone: {
			"EmergencyContactPhone", "Emergency Contact Phone", "EC Phone",
			"Emergency Phone", "Contact Phone", "Emergency Tel",
		},
		schema.FieldEmergencyContactPhone2: {
			"EmergencyContactPhone2", "Emergency Contact Phone 2", "EC Phone 2",
			"Emergency Phone 2", "Contact Phone 2", "Alternative Emergency Phone",
		},
		schema.FieldEmail: {
			"Email", "Email*", "E-mail", "E-Mail", "Email Address",
			"Email Address*", "E-mail Address", "Mail", "Contact Email",
		},
		schema.FieldSchoolYear: {
			"SchoolYear", "School Year", "Year", "Year Group", "Grade", "Form",
		},
		schema.FieldCourseID: {
			"CourseID", "Course ID", "Course", "Course Number", "Course Code",
		},
	}
}

// ForField returns the variation list for a field with its canonical header
// placed first.
func (v Variations) ForField(f schema.FieldSpec) []string {
	out := make([]string, 0, len(v[f.Name])+1)
	out = append(out, f.Header)
	return append(out, v[f.Name]...)
}

// =============================================================================
// SCORING
// =============================================================================

// ScoreWeights holds the heuristic ceilings of the variation score.
type ScoreWeights struct {
	// Exact is returned for an exact normalised match.
	Exact float64

	// Containment scales the length ratio when one string contains the other.
	Containment float64

	// WordOverlap scales the Jaccard index of the word sets.
	WordOverlap float64
}

// DefaultWeights are the tuned ceilings.
var DefaultWeights = ScoreWeights{Exact: 1.0, Containment: 0.8, WordOverlap: 0.6}

var separatorRun = regexp.MustCompile(`[_\-\s]+`)

// NormalizeHeader prepares a header for variation comparison: trim, drop the
// required marker, NFKC-fold, lowercase, collapse separator runs to a single
// space.
func NormalizeHeader(h string) string {
	s := strings.TrimSpace(h)
	s = strings.TrimRight(s, schema.RequiredMarker)
	s = strings.ToLower(norm.NFKC.String(s))
	s = separatorRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Score compares one input header against a list of variations and returns
// a confidence in [0,1].
func (w ScoreWeights) Score(header string, variations []string) float64 {
	in := NormalizeHeader(header)

	normalized := make([]string, len(variations))
	for i, v := range variations {
		normalized[i] = NormalizeHeader(v)
		if in == normalized[i] {
			return w.Exact
		}
	}

	// The first variation related by containment decides the score.
	for _, v := range normalized {
		if strings.Contains(v, in) || strings.Contains(in, v) {
			a, b := utf8.RuneCountInString(in), utf8.RuneCountInString(v)
			lo, hi := a, b
			if lo > hi {
				lo, hi = hi, lo
			}
			if hi > 0 {
				return float64(lo) / float64(hi) * w.Containment
			}
		}
	}

	best := 0.0
	inWords := wordSet(in)
	for _, v := range normalized {
		if s := jaccard(inWords, wordSet(v)) * w.WordOverlap; s > best {
			best = s
		}
	}
	return best
}

// Score uses DefaultWeights.
func Score(header string, variations []string) float64 {
	return DefaultWeights.Score(header, variations)
}

func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}

// jaccard returns |a∩b| / |a∪b|, or 0 when either set is empty.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
