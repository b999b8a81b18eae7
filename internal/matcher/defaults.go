package matcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
	"github.com/ginjaninja78/sport-passport-converter/internal/types"
)

// ErrMissingMandatory is wrapped by MissingFieldsError.
var ErrMissingMandatory = errors.New("missing mandatory field")

// FixedDefaults are the defaults offered for mandatory fields whose absence
// has an obvious safe answer.
var FixedDefaults = map[string]string{
	schema.FieldClassifiedAsDisabled: "No",
}

// DefaultHeader is the sentinel header recorded for a default-backed field.
func DefaultHeader(field string) string {
	return "__" + field + "_default__"
}

// MissingField is one mandatory field with no column, plus headers from the
// input that look similar.
type MissingField struct {
	Field       schema.FieldSpec
	Suggestions []string
}

// MissingFieldsError reports mandatory fields that could not be satisfied.
type MissingFieldsError struct {
	Fields []MissingField

	// Declined is set when a default was offered and refused.
	Declined bool
}

func (e *MissingFieldsError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, mf := range e.Fields {
		parts[i] = mf.Field.DisplayName()
		if len(mf.Suggestions) > 0 {
			parts[i] += " (similar: " + strings.Join(mf.Suggestions, ", ") + ")"
		}
	}
	verb := "no default value"
	if e.Declined {
		verb = "default declined"
	}
	return fmt.Sprintf("missing mandatory field(s) with %s: %s", verb, strings.Join(parts, "; "))
}

func (e *MissingFieldsError) Unwrap() error { return ErrMissingMandatory }

// MissingFunc is offered each defaultable missing field. It returns the value
// to use and whether the default was accepted.
type MissingFunc func(f schema.FieldSpec, proposed string) (string, bool, error)

// ResolveMissing fills mandatory gaps after header matching.
//
// Operator overrides (e.g. a school-wide postcode) are registered without
// asking, because the operator supplied them. Fixed defaults are offered to
// resolve; a nil resolve accepts them. Any mandatory field with neither fails
// the run with a MissingFieldsError listing every such field along with
// similar-looking input headers.
func ResolveMissing(s *schema.Schema, m *Mapping, headers []string, overrides map[string]string, resolve MissingFunc) error {
	for _, f := range s.Fields() {
		v := strings.TrimSpace(overrides[f.Name])
		if v == "" || m.HasField(f.Name) {
			continue
		}
		m.Add(types.HeaderMatch{
			Column:  -1,
			Header:  DefaultHeader(f.Name),
			Field:   f.Name,
			Tier:    types.TierDefault,
			Default: v,
		})
	}

	var fatal []MissingField
	var defaultable []schema.FieldSpec
	for _, f := range s.RequiredFields() {
		if m.HasField(f.Name) {
			continue
		}
		if _, ok := FixedDefaults[f.Name]; ok {
			defaultable = append(defaultable, f)
			continue
		}
		fatal = append(fatal, MissingField{Field: f, Suggestions: Suggest(f.Header, headers, MaxSuggestions)})
	}
	if len(fatal) > 0 {
		return &MissingFieldsError{Fields: fatal}
	}

	for _, f := range defaultable {
		value, accepted := FixedDefaults[f.Name], true
		if resolve != nil {
			var err error
			value, accepted, err = resolve(f, value)
			if err != nil {
				return err
			}
		}
		if !accepted {
			return &MissingFieldsError{
				Fields:   []MissingField{{Field: f, Suggestions: Suggest(f.Header, headers, MaxSuggestions)}},
				Declined: true,
			}
		}
		m.Add(types.HeaderMatch{
			Column:  -1,
			Header:  DefaultHeader(f.Name),
			Field:   f.Name,
			Tier:    types.TierDefault,
			Default: value,
		})
	}
	return nil
}
