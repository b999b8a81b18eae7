// =============================================================================
// Sport Passport Converter - Field Normaliser
// =============================================================================
//
// This module cleans every field of a row before validation. Normalisation
// is type-driven and never fails: a value that cannot be cleaned is left as
// it is for the validator to report.
//
// NORMALISATION BY FIELD TYPE:
//   - Text:     trim; snap to an allowed value ignoring case; title-case the
//               name fields when they are entirely upper or lower case
//   - Email:    trim and lower-case
//   - Postcode: upper-case, remove whitespace, one space before the last 3
//   - Phone:    trim only
//   - Date:     DD/MM/YYYY from slash, ISO, serial, or free-form dates
//   - Integer:  truncated integer string when the value is numeric
//
// Every changed non-empty value is recorded in the correction ledger with
// type "normalization".
//
// =============================================================================

package converter

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/ginjaninja78/sport-passport-converter/internal/datefmt"
	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
	"github.com/ginjaninja78/sport-passport-converter/internal/types"
	"github.com/ginjaninja78/sport-passport-converter/internal/validation"
)

// =============================================================================
// NORMALISER
// =============================================================================

// Normalizer applies type-driven clean-up to rows. It holds no per-run state.
type Normalizer struct {
	schema *schema.Schema
}

// NewNormalizer creates a normaliser for the given schema.
func NewNormalizer(s *schema.Schema) *Normalizer {
	return &Normalizer{schema: s}
}

// NormalizeRow cleans every schema field of raw.
//
// PARAMETERS:
//   - rowIndex: 0-based data row index, carried into the ledger entries
//   - raw: canonical field name -> raw cell value; missing keys are empty
//
// RETURNS:
//   - A row holding every schema field.
//   - One ledger entry per changed non-empty value.
func (n *Normalizer) NormalizeRow(rowIndex int, raw map[string]string) (types.NormalizedRow, []types.CorrectionRecord) {
	row := make(types.NormalizedRow, n.schema.Len())
	var records []types.CorrectionRecord

	for _, f := range n.schema.Fields() {
		original := raw[f.Name]
		value := NormalizeValue(f, original)
		row[f.Name] = value

		if value != original && original != "" {
			records = append(records, types.CorrectionRecord{
				RowIndex:  rowIndex,
				Field:     f.DisplayName(),
				Original:  original,
				Corrected: value,
				Type:      types.CorrectionNormalization,
			})
		}
	}
	return row, records
}

// NormalizeValue cleans a single value. Applying it twice gives the same
// result as applying it once.
func NormalizeValue(f schema.FieldSpec, raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}

	switch f.Type {
	case schema.Email:
		return strings.ToLower(value)
	case schema.Postcode:
		return validation.CanonicalPostcode(value)
	case schema.Phone:
		return value
	case schema.Date:
		return normalizeDate(value)
	case schema.Integer:
		if n, ok := validation.ParseTruncatedInt(value); ok {
			return strconv.Itoa(n)
		}
		return value
	default:
		return normalizeText(f, value)
	}
}

func normalizeDate(value string) string {
	if datefmt.IsCanonical(value) {
		return value
	}
	if padded, ok := datefmt.PadSlash(value); ok {
		return padded
	}
	if t, ok := datefmt.FromDateTime(value); ok {
		return datefmt.Format(t)
	}
	if datefmt.IsNumeric(value) {
		if t, ok := datefmt.FromSerial(value); ok {
			return datefmt.Format(t)
		}
		return value
	}
	if t, ok := datefmt.ParseDayFirst(value); ok {
		return datefmt.Format(t)
	}
	return value
}

func normalizeText(f schema.FieldSpec, value string) string {
	if f.Name == schema.FieldFirstName || f.Name == schema.FieldSurname {
		if isUniformCase(value) {
			value = titleCase(value)
		}
	}
	for _, allowed := range f.AllowedValues {
		if strings.EqualFold(value, allowed) {
			return allowed
		}
	}
	return value
}

// =============================================================================
// CASE HELPERS
// =============================================================================

// isUniformCase reports whether value has letters and they are all upper
// case or all lower case.
func isUniformCase(value string) bool {
	upper, lower := false, false
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
	}
	return upper != lower
}

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest, so "o'brien" becomes "O'Brien" and "MARY-JANE"
// becomes "Mary-Jane".
func titleCase(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	inWord := false
	for _, r := range value {
		if unicode.IsLetter(r) {
			if inWord {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			inWord = true
			continue
		}
		b.WriteRune(r)
		inWord = false
	}
	return b.String()
}
