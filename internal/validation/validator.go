// =============================================================================
// Sport Passport Converter - Validation Engine
// =============================================================================
//
// This module validates normalised rows against the Sport Passport schema.
// Every defect is classified as either:
//   - auto-fixable: a deterministic corrected value is suggested
//   - manual: the operator has to supply a value (or skip the row)
//
// VALIDATION STATE MACHINE (per field):
//   1. required and empty      -> manual error "<field> is required"
//   2. empty and optional      -> valid
//   3. dispatch by field type  -> email / date / postcode / integer / phone /
//                                 text-with-allowed-values / plain text
//
// ERROR HANDLING:
//   - Errors are collected, not thrown. A row's errors never stop the run.
//   - Each error carries the row index, the field, the offending value, and
//     the suggested value when one exists.
//
// KNOWN AMBIGUITY:
//   A slash date valid both as DD/MM and MM/DD (e.g. 05/06/2001) is accepted
//   as the UK reading with no error. Genuinely US-formatted data with both
//   numbers <= 12 is therefore not detected.
//
// =============================================================================

package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ginjaninja78/sport-passport-converter/internal/datefmt"
	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
	"github.com/ginjaninja78/sport-passport-converter/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Messages shared between the validator and the correction classifier.
const (
	MsgInvalidEmail      = "Invalid email format"
	MsgUSDate            = "US date format detected (MM/DD/YYYY) - converting to UK format"
	MsgDateOutOfRange    = "Invalid date (day/month out of range)"
	MsgDateConversion    = "Date needs format conversion"
	MsgDateUnparseable   = "Cannot parse date format"
	MsgPostcodeFormat    = "Postcode needs formatting"
	MsgPostcodeInvalid   = "Invalid UK postcode format"
	MsgNotNumber         = "Must be a valid number"
	MsgPhoneShort        = "Phone number too short"
	MsgPhoneInvalidChars = "Phone number contains invalid characters"
	MsgGenderAbbrev      = "Gender abbreviation expanded"
	MsgCaseCorrection    = "Value needs case correction"
)

// MinPhoneDigits is the shortest accepted phone number once formatting
// characters are removed.
const MinPhoneDigits = 10

// ValidationError describes one field-level defect on one row. It is a
// report only; it never changes the row.
type ValidationError struct {
	// RowIndex is the 0-based data row index.
	RowIndex int

	// Field is the schema entry of the failing field.
	Field schema.FieldSpec

	// Value is the offending value.
	Value string

	// Message is the human-readable description.
	Message string

	// AutoFixable is true when Suggested holds a deterministic fix.
	AutoFixable bool

	// Suggested is the corrected value for auto-fixable errors.
	Suggested string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s, Field '%s': %s (value: '%s')",
		types.RowLabel(e.RowIndex), e.FieldName(), e.Message, e.Value)
	if e.AutoFixable {
		msg += fmt.Sprintf(" -> '%s'", e.Suggested)
	}
	return msg
}

// FieldName is the field's display name.
func (e *ValidationError) FieldName() string {
	return e.Field.DisplayName()
}

// CorrectionType classifies an applied auto-fix for the ledger.
func (e *ValidationError) CorrectionType() string {
	lower := strings.ToLower(e.Message)
	switch {
	case e.Field.Type == schema.Date:
		if strings.Contains(e.Message, "US date") {
			return types.CorrectionUSToUKDate
		}
		return types.CorrectionDateFormat
	case e.Field.Type == schema.Postcode:
		return types.CorrectionPostcode
	case e.Field.Name == schema.FieldGender:
		if strings.Contains(lower, "abbreviation") {
			return types.CorrectionGenderAbbrev
		}
		return types.CorrectionCase
	case strings.Contains(lower, "case"):
		return types.CorrectionCase
	default:
		return types.CorrectionFormat
	}
}

// Record converts an auto-fixable error into the ledger entry its fix
// produces.
func (e *ValidationError) Record() types.CorrectionRecord {
	return types.CorrectionRecord{
		RowIndex:  e.RowIndex,
		Field:     e.FieldName(),
		Original:  e.Value,
		Corrected: e.Suggested,
		Type:      e.CorrectionType(),
	}
}

// =============================================================================
// ROW RESULT
// =============================================================================

// RowValidationResult collects every error produced for one row.
type RowValidationResult struct {
	RowIndex int
	Row      types.NormalizedRow
	Errors   []*ValidationError
}

// IsValid reports whether the row has no errors.
func (r RowValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// HasAutoFixable reports whether any error carries a suggested fix.
func (r RowValidationResult) HasAutoFixable() bool {
	for _, e := range r.Errors {
		if e.AutoFixable {
			return true
		}
	}
	return false
}

// HasManualRequired reports whether any error needs operator input.
func (r RowValidationResult) HasManualRequired() bool {
	for _, e := range r.Errors {
		if !e.AutoFixable {
			return true
		}
	}
	return false
}

// AutoFixable returns the errors with a suggested fix.
func (r RowValidationResult) AutoFixable() []*ValidationError {
	var out []*ValidationError
	for _, e := range r.Errors {
		if e.AutoFixable {
			out = append(out, e)
		}
	}
	return out
}

// ManualRequired returns the errors that need operator input.
func (r RowValidationResult) ManualRequired() []*ValidationError {
	var out []*ValidationError
	for _, e := range r.Errors {
		if !e.AutoFixable {
			out = append(out, e)
		}
	}
	return out
}

// Without drops errors for the given fields, e.g. fields that will be
// overwritten by defaults at export.
func (r RowValidationResult) Without(fields map[string]bool) RowValidationResult {
	if len(fields) == 0 {
		return r
	}
	out := RowValidationResult{RowIndex: r.RowIndex, Row: r.Row}
	for _, e := range r.Errors {
		if !fields[e.Field.Name] {
			out.Errors = append(out.Errors, e)
		}
	}
	return out
}

// DisplayName identifies the row by first name and surname, or "Row N".
func (r RowValidationResult) DisplayName() string {
	name := strings.TrimSpace(r.Row[schema.FieldFirstName] + " " + r.Row[schema.FieldSurname])
	if name != "" {
		return name
	}
	return fmt.Sprintf("Row %d", r.RowIndex+1)
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks rows against a schema. It holds no per-run state.
type Validator struct {
	schema *schema.Schema
}

// NewValidator creates a validator for the given schema.
func NewValidator(s *schema.Schema) *Validator {
	return &Validator{schema: s}
}

// ValidateRow validates every schema field of a row.
func (v *Validator) ValidateRow(rowIndex int, row types.NormalizedRow) RowValidationResult {
	res := RowValidationResult{RowIndex: rowIndex, Row: row}
	for _, f := range v.schema.Fields() {
		if err := v.ValidateField(rowIndex, f, row[f.Name]); err != nil {
			res.Errors = append(res.Errors, err)
		}
	}
	return res
}

// ValidateField runs the per-field state machine.
//
// PARAMETERS:
//   - rowIndex: 0-based data row index, carried into the error
//   - f: the field specification
//   - raw: the current field value
//
// RETURNS:
//   - nil when the value is acceptable, otherwise the classified defect.
func (v *Validator) ValidateField(rowIndex int, f schema.FieldSpec, raw string) *ValidationError {
	value := strings.TrimSpace(raw)

	if f.Required && value == "" {
		return &ValidationError{
			RowIndex: rowIndex,
			Field:    f,
			Value:    raw,
			Message:  f.DisplayName() + " is required",
		}
	}
	if value == "" {
		return nil
	}

	switch f.Type {
	case schema.Email:
		return validateEmail(rowIndex, f, value)
	case schema.Date:
		return validateDate(rowIndex, f, value)
	case schema.Postcode:
		return validatePostcode(rowIndex, f, value)
	case schema.Integer:
		return validateInteger(rowIndex, f, value)
	case schema.Phone:
		return validatePhone(rowIndex, f, value)
	case schema.Text:
		return validateText(rowIndex, f, value)
	}
	return nil
}

// =============================================================================
// TYPE VALIDATORS
// =============================================================================

func manual(rowIndex int, f schema.FieldSpec, value, msg string) *ValidationError {
	return &ValidationError{RowIndex: rowIndex, Field: f, Value: value, Message: msg}
}

func fixable(rowIndex int, f schema.FieldSpec, value, msg, suggested string) *ValidationError {
	return &ValidationError{
		RowIndex:    rowIndex,
		Field:       f,
		Value:       value,
		Message:     msg,
		AutoFixable: true,
		Suggested:   suggested,
	}
}

func validateEmail(rowIndex int, f schema.FieldSpec, value string) *ValidationError {
	if !f.MatchesPattern(value) {
		return manual(rowIndex, f, value, MsgInvalidEmail)
	}
	return nil
}

// validateDate checks slash dates for UK/US validity and offers conversions
// for every other recognisable shape.
func validateDate(rowIndex int, f schema.FieldSpec, value string) *ValidationError {
	if first, second, year, ok := datefmt.SlashParts(value); ok {
		ukValid := datefmt.Valid(year, second, first)
		usValid := datefmt.Valid(year, first, second)
		switch {
		case ukValid:
			// UK only, or ambiguous: the UK reading is authoritative.
			return nil
		case usValid:
			return fixable(rowIndex, f, value, MsgUSDate,
				fmt.Sprintf("%02d/%02d/%04d", second, first, year))
		default:
			return manual(rowIndex, f, value, MsgDateOutOfRange)
		}
	}

	if datefmt.IsNumeric(value) {
		if t, ok := datefmt.FromSerial(value); ok {
			return fixable(rowIndex, f, value, MsgDateConversion, datefmt.Format(t))
		}
	}
	if t, ok := datefmt.FromDateTime(value); ok {
		return fixable(rowIndex, f, value, MsgDateConversion, datefmt.Format(t))
	}
	if t, ok := datefmt.ParseDayFirst(value); ok {
		return fixable(rowIndex, f, value, MsgDateConversion, datefmt.Format(t))
	}
	return manual(rowIndex, f, value, MsgDateUnparseable)
}

var whitespace = regexp.MustCompile(`\s+`)

// CanonicalPostcode upper-cases a postcode, removes all whitespace, and puts
// a single space before the 3-character inward code when the result has at
// least 5 characters.
func CanonicalPostcode(value string) string {
	pc := whitespace.ReplaceAllString(strings.ToUpper(strings.TrimSpace(value)), "")
	if len(pc) >= 5 {
		pc = pc[:len(pc)-3] + " " + pc[len(pc)-3:]
	}
	return pc
}

func validatePostcode(rowIndex int, f schema.FieldSpec, value string) *ValidationError {
	formatted := CanonicalPostcode(value)
	if len(formatted) >= 6 && f.MatchesPattern(formatted) {
		if formatted != value {
			return fixable(rowIndex, f, value, MsgPostcodeFormat, formatted)
		}
		return nil
	}
	if f.MatchesPattern(value) {
		return nil
	}
	return manual(rowIndex, f, value, MsgPostcodeInvalid)
}

func validateInteger(rowIndex int, f schema.FieldSpec, value string) *ValidationError {
	n, ok := parseTruncatedInt(value)
	if !ok {
		return manual(rowIndex, f, value, MsgNotNumber)
	}
	if f.MinValue != nil && n < *f.MinValue {
		return manual(rowIndex, f, value, fmt.Sprintf("Value must be at least %d", *f.MinValue))
	}
	if f.MaxValue != nil && n > *f.MaxValue {
		return manual(rowIndex, f, value, fmt.Sprintf("Value must be at most %d", *f.MaxValue))
	}
	return nil
}

// ParseTruncatedInt parses value as a float and truncates it toward zero.
func ParseTruncatedInt(value string) (int, bool) {
	return parseTruncatedInt(value)
}

func parseTruncatedInt(value string) (int, bool) {
	fv, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(fv) || math.IsInf(fv, 0) || math.Abs(fv) >= 1e18 {
		return 0, false
	}
	return int(fv), true
}

var phoneFormatting = regexp.MustCompile(`[\s\-\(\)\+]`)

func validatePhone(rowIndex int, f schema.FieldSpec, value string) *ValidationError {
	digits := phoneFormatting.ReplaceAllString(value, "")
	if len([]rune(digits)) < MinPhoneDigits {
		return manual(rowIndex, f, value, MsgPhoneShort)
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return manual(rowIndex, f, value, MsgPhoneInvalidChars)
		}
	}
	return nil
}

// genderAbbreviations maps lower-case shorthand to canonical gender values.
var genderAbbreviations = map[string]string{
	"m":      "Male",
	"f":      "Female",
	"o":      "Other",
	"male":   "Male",
	"female": "Female",
	"other":  "Other",
}

func validateText(rowIndex int, f schema.FieldSpec, value string) *ValidationError {
	if !f.HasAllowedValues() {
		return nil
	}

	if f.Name == schema.FieldGender {
		if mapped, ok := genderAbbreviations[strings.ToLower(value)]; ok {
			if mapped != value {
				return fixable(rowIndex, f, value, MsgGenderAbbrev, mapped)
			}
			return nil
		}
	}

	for _, allowed := range f.AllowedValues {
		if strings.EqualFold(value, allowed) {
			if value != allowed {
				return fixable(rowIndex, f, value, MsgCaseCorrection, allowed)
			}
			return nil
		}
	}

	return manual(rowIndex, f, value, "Must be one of: "+strings.Join(f.AllowedValues, ", "))
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
//
// PARAMETERS:
//   - errs: The validation errors to format.
//
// RETURNS:
//   - A formatted string containing all errors.
func FormatErrors(errs []*ValidationError) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errs)))
	for i, err := range errs {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}
