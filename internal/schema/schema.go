// =============================================================================
// Sport Passport Converter - Schema Registry
// =============================================================================
//
// This module holds the fixed Sport Passport import schema: 20 canonical
// fields in output column order, with their types, required flags, allowed
// value sets, patterns, and numeric bounds.
//
// The schema is data, not behaviour. Normalisation and validation dispatch on
// FieldType, so adding a field of an existing type needs no new code.
//
// INVARIANTS:
//   - Field order defines output column order and is never changed.
//   - Exactly 20 fields.
//   - The free-text field used by the column-count repairer
//     (MedicalConditions) sits at index 5.
//
// =============================================================================

package schema

import (
	"regexp"
	"strings"
)

// =============================================================================
// FIELD TYPES
// =============================================================================

// FieldType selects the normalisation and validation rules for a field.
type FieldType int

const (
	Text FieldType = iota
	Date
	Integer
	Email
	Postcode
	Phone
)

// String returns the lowercase type name.
func (t FieldType) String() string {
	switch t {
	case Text:
		return "text"
	case Date:
		return "date"
	case Integer:
		return "integer"
	case Email:
		return "email"
	case Postcode:
		return "postcode"
	case Phone:
		return "phone"
	default:
		return "unknown"
	}
}

// RequiredMarker is the suffix that flags mandatory columns in the canonical
// headers ("First Name*").
const RequiredMarker = "*"

// =============================================================================
// FIELD NAMES
// =============================================================================

// Canonical field names.
const (
	FieldSportPassportID        = "sport_passport_id"
	FieldFirstName              = "first_name"
	FieldSurname                = "surname"
	FieldGender                 = "gender"
	FieldClassifiedAsDisabled   = "classified_as_disabled"
	FieldMedicalConditions      = "medical_conditions"
	FieldDateOfBirth            = "date_of_birth"
	FieldAddress1               = "address1"
	FieldAddress2               = "address2"
	FieldPhoneNumber            = "phone_number"
	FieldTownCity               = "town_city"
	FieldCounty                 = "county"
	FieldPostcode               = "postcode"
	FieldCountry                = "country"
	FieldEmergencyContactName   = "emergency_contact_name"
	FieldEmergencyContactPhone  = "emergency_contact_phone"
	FieldEmergencyContactPhone2 = "emergency_contact_phone2"
	FieldEmail                  = "email"
	FieldSchoolYear             = "school_year"
	FieldCourseID               = "course_id"
)

// =============================================================================
// PATTERNS
// =============================================================================

// All patterns are matched case-insensitively.
var (
	// UKPostcodePattern accepts outward code, optional whitespace, inward code.
	UKPostcodePattern = regexp.MustCompile(`(?i)^[A-Z]{1,2}[0-9][0-9A-Z]?\s*[0-9][A-Z]{2}$`)

	// EmailPattern is deliberately simple; the receiving system does its own
	// deliverability checks.
	EmailPattern = regexp.MustCompile(`(?i)^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	// UKPhonePattern is a loose shape check. The validator applies its own
	// digit-count rules.
	UKPhonePattern = regexp.MustCompile(`(?i)^[\d\s\-\+\(\)]{10,}$`)
)

// =============================================================================
// FIELD SPECIFICATION
// =============================================================================

// FieldSpec is the immutable description of one canonical field.
type FieldSpec struct {
	// Name is the internal key, e.g. "date_of_birth".
	Name string

	// Header is the canonical column title, e.g. "DateOfBirth*".
	Header string

	// Type selects normalisation and validation rules.
	Type FieldType

	// Required fields must be non-empty in every output row.
	Required bool

	// AllowedValues, when set, is the finite set of canonical values.
	// Matching is case-insensitive.
	AllowedValues []string

	// Pattern, when set, must match the value.
	Pattern *regexp.Regexp

	// MinValue and MaxValue bound Integer fields when non-nil.
	MinValue *int
	MaxValue *int
}

// DisplayName returns the canonical header with the required marker removed.
func (f FieldSpec) DisplayName() string {
	return strings.TrimRight(f.Header, RequiredMarker)
}

// MatchesPattern reports whether value satisfies the field pattern.
// Fields without a pattern accept everything.
func (f FieldSpec) MatchesPattern(value string) bool {
	if f.Pattern == nil {
		return true
	}
	return f.Pattern.MatchString(value)
}

// HasAllowedValues reports whether the field is restricted to a finite set.
func (f FieldSpec) HasAllowedValues() bool {
	return len(f.AllowedValues) > 0
}

// IsZero reports whether f is the empty result of a failed lookup.
func (f FieldSpec) IsZero() bool {
	return f.Name == ""
}

func intPtr(v int) *int { return &v }

// =============================================================================
// SCHEMA
// =============================================================================

// Schema is the ordered list of field specifications plus derived lookups.
type Schema struct {
	fields   []FieldSpec
	byName   map[string]int
	required []FieldSpec
}

// New builds a schema from an ordered field list. Lookups are computed once.
func New(fields []FieldSpec) *Schema {
	s := &Schema{
		fields: make([]FieldSpec, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	copy(s.fields, fields)
	for i, f := range s.fields {
		s.byName[f.Name] = i
		if f.Required {
			s.required = append(s.required, f)
		}
	}
	return s
}

var sportPassport = New([]FieldSpec{
	{Name: FieldSportPassportID, Header: "Sport Passport ID", Type: Text},
	{Name: FieldFirstName, Header: "First Name*", Type: Text, Required: true},
	{Name: FieldSurname, Header: "Surname*", Type: Text, Required: true},
	{Name: FieldGender, Header: "Gender*", Type: Text, Required: true,
		AllowedValues: []string{"Male", "Female", "Other"}},
	{Name: FieldClassifiedAsDisabled, Header: "ClassifiedAsDisabled*", Type: Text, Required: true,
		AllowedValues: []string{"Yes", "No"}},
	{Name: FieldMedicalConditions, Header: "MedicalConditions", Type: Text},
	{Name: FieldDateOfBirth, Header: "DateOfBirth*", Type: Date, Required: true},
	{Name: FieldAddress1, Header: "Address1", Type: Text},
	{Name: FieldAddress2, Header: "Address2", Type: Text},
	{Name: FieldPhoneNumber, Header: "PhoneNumber", Type: Phone, Pattern: UKPhonePattern},
	{Name: FieldTownCity, Header: "TownCity", Type: Text},
	{Name: FieldCounty, Header: "County", Type: Text},
	{Name: FieldPostcode, Header: "Postcode*", Type: Postcode, Required: true, Pattern: UKPostcodePattern},
	{Name: FieldCountry, Header: "Country", Type: Text},
	{Name: FieldEmergencyContactName, Header: "EmergencyContactName", Type: Text},
	{Name: FieldEmergencyContactPhone, Header: "EmergencyContactPhone", Type: Phone, Pattern: UKPhonePattern},
	{Name: FieldEmergencyContactPhone2, Header: "EmergencyContactPhone2", Type: Phone, Pattern: UKPhonePattern},
	{Name: FieldEmail, Header: "Email*", Type: Email, Required: true, Pattern: EmailPattern},
	{Name: FieldSchoolYear, Header: "SchoolYear", Type: Integer, MinValue: intPtr(1), MaxValue: intPtr(13)},
	{Name: FieldCourseID, Header: "CourseID", Type: Integer},
})

// Default returns the Sport Passport schema.
func Default() *Schema {
	return sportPassport
}

// Len returns the number of fields, which is also the output column count.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Fields returns the fields in output order. The slice is a copy.
func (s *Schema) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

// FieldByName looks up a field by internal name.
func (s *Schema) FieldByName(name string) (FieldSpec, bool) {
	i, ok := s.byName[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// FieldByIndex looks up a field by output position.
func (s *Schema) FieldByIndex(i int) (FieldSpec, bool) {
	if i < 0 || i >= len(s.fields) {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// IndexOf returns the output position of a field, or -1.
func (s *Schema) IndexOf(name string) int {
	i, ok := s.byName[name]
	if !ok {
		return -1
	}
	return i
}

// RequiredFields returns the mandatory fields in output order.
func (s *Schema) RequiredFields() []FieldSpec {
	out := make([]FieldSpec, len(s.required))
	copy(out, s.required)
	return out
}

// DisplayName returns the field's header without the required marker.
func (s *Schema) DisplayName(f FieldSpec) string {
	return f.DisplayName()
}

// DisplayNameOf returns the display name for a field name, or the name
// itself when the field is unknown.
func (s *Schema) DisplayNameOf(name string) string {
	if f, ok := s.FieldByName(name); ok {
		return f.DisplayName()
	}
	return name
}

// Headers returns the canonical headers (with markers) in output order.
func (s *Schema) Headers() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Header
	}
	return out
}

// FreeTextIndex is the output position of the free-text field that most
// often carries unescaped delimiters.
func (s *Schema) FreeTextIndex() int {
	return s.IndexOf(FieldMedicalConditions)
}
