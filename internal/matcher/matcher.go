// =============================================================================
// Sport Passport Converter - Header Matcher
// =============================================================================
//
// This module maps arbitrary input header strings onto canonical schema
// fields. Matching runs in three tiers, each tier only looking at columns the
// previous tiers left unmapped:
//
//   1. EXACT      canonical header, ignoring case and the required marker
//   2. VARIATION  scored against the synonym table, confirmed as a batch
//   3. MANUAL     offered one at a time to the operator
//
// After the tiers, mandatory fields with no column may be satisfied by a
// default value (see ResolveMissing in defaults.go).
//
// INVARIANTS:
//   - A field never receives two input columns.
//   - Matching is case-insensitive and ignores the required marker.
//   - Decisions are injected as callbacks; nil callbacks give the
//     non-interactive behaviour (accept every variation, skip every manual).
//
// =============================================================================

package matcher

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
	"github.com/ginjaninja78/sport-passport-converter/internal/types"
)

// DefaultMinConfidence is the lowest variation score that counts as a match.
const DefaultMinConfidence = 0.5

// =============================================================================
// MAPPING
// =============================================================================

// Mapping is the result of header matching: an ordered list of column to
// field links, indexed both ways.
type Mapping struct {
	matches  []types.HeaderMatch
	byField  map[string]int
	byColumn map[int]int
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{
		byField:  make(map[string]int),
		byColumn: make(map[int]int),
	}
}

// Add records a match. It returns false, leaving the mapping unchanged, when
// the field or the input column is already taken.
func (m *Mapping) Add(hm types.HeaderMatch) bool {
	if _, taken := m.byField[hm.Field]; taken {
		return false
	}
	if hm.Column >= 0 {
		if _, taken := m.byColumn[hm.Column]; taken {
			return false
		}
		m.byColumn[hm.Column] = len(m.matches)
	}
	m.byField[hm.Field] = len(m.matches)
	m.matches = append(m.matches, hm)
	return true
}

// Len returns the number of mapped fields, defaults included.
func (m *Mapping) Len() int { return len(m.matches) }

// Matches returns the matches in the order they were made.
func (m *Mapping) Matches() []types.HeaderMatch {
	out := make([]types.HeaderMatch, len(m.matches))
	copy(out, m.matches)
	return out
}

// HasField reports whether a field has a column or a default.
func (m *Mapping) HasField(field string) bool {
	_, ok := m.byField[field]
	return ok
}

// HasColumn reports whether an input column is mapped.
func (m *Mapping) HasColumn(col int) bool {
	_, ok := m.byColumn[col]
	return ok
}

// MatchForField returns the match for a field.
func (m *Mapping) MatchForField(field string) (types.HeaderMatch, bool) {
	i, ok := m.byField[field]
	if !ok {
		return types.HeaderMatch{}, false
	}
	return m.matches[i], true
}

// FieldForColumn returns the field an input column maps to.
func (m *Mapping) FieldForColumn(col int) (string, bool) {
	i, ok := m.byColumn[col]
	if !ok {
		return "", false
	}
	return m.matches[i].Field, true
}

// ColumnOf returns the input column of a field, or -1 when the field is
// unmapped or backed by a default.
func (m *Mapping) ColumnOf(field string) int {
	hm, ok := m.MatchForField(field)
	if !ok {
		return -1
	}
	return hm.Column
}

// Defaults returns field -> default value for every default-backed field.
func (m *Mapping) Defaults() map[string]string {
	out := make(map[string]string)
	for _, hm := range m.matches {
		if hm.Tier == types.TierDefault {
			out[hm.Field] = hm.Default
		}
	}
	return out
}

// FieldValues projects one raw row onto canonical fields. Default-backed
// fields take their default. Cells beyond the row's length are absent.
func (m *Mapping) FieldValues(cells []string) map[string]string {
	out := make(map[string]string, len(m.matches))
	for _, hm := range m.matches {
		switch {
		case hm.Tier == types.TierDefault:
			out[hm.Field] = hm.Default
		case hm.Column >= 0 && hm.Column < len(cells):
			out[hm.Field] = cells[hm.Column]
		}
	}
	return out
}

// Unmapped returns the schema fields without a column or default.
func (m *Mapping) Unmapped(s *schema.Schema) []schema.FieldSpec {
	var out []schema.FieldSpec
	for _, f := range s.Fields() {
		if !m.HasField(f.Name) {
			out = append(out, f)
		}
	}
	return out
}

// OptionalMissing returns the optional fields that will be empty in every
// output row.
func (m *Mapping) OptionalMissing(s *schema.Schema) []schema.FieldSpec {
	var out []schema.FieldSpec
	for _, f := range m.Unmapped(s) {
		if !f.Required {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// CALLBACKS AND OPTIONS
// =============================================================================

// Candidate is a tentative variation-tier match.
type Candidate struct {
	Column     int
	Header     string
	Field      string
	Confidence float64
}

// ConfirmFunc accepts or rejects the whole batch of variation candidates.
type ConfirmFunc func(candidates []Candidate, current *Mapping) (bool, error)

// ManualFunc resolves one unmatched header. An OutcomeValue resolution
// carries the chosen field name.
type ManualFunc func(header string, column int, unmapped []schema.FieldSpec) (types.Resolution, error)

// Options configures MapHeaders.
type Options struct {
	// Variations is the synonym table. Nil means DefaultVariations().
	Variations Variations

	// Weights are the score ceilings. Zero means DefaultWeights.
	Weights ScoreWeights

	// MinConfidence is the lowest accepted variation score. Zero means
	// DefaultMinConfidence.
	MinConfidence float64

	// Confirm decides the variation batch. Nil accepts it.
	Confirm ConfirmFunc

	// Manual resolves leftover headers. Nil skips them.
	Manual ManualFunc
}

func (o Options) withDefaults() Options {
	if o.Variations == nil {
		o.Variations = DefaultVariations()
	}
	if o.Weights == (ScoreWeights{}) {
		o.Weights = DefaultWeights
	}
	if o.MinConfidence == 0 {
		o.MinConfidence = DefaultMinConfidence
	}
	return o
}

// =============================================================================
// MAP HEADERS
// =============================================================================

// MapHeaders runs the three matching tiers over the raw header row.
//
// PARAMETERS:
//   - s: the canonical schema
//   - headers: the raw header cells, in input column order
//   - opts: variation table, thresholds, and decision callbacks
//
// RETURNS:
//   - The mapping. Mandatory fields may still be missing; see ResolveMissing.
//   - types.ErrAborted when the manual callback aborts, or any callback error.
func MapHeaders(s *schema.Schema, headers []string, opts Options) (*Mapping, error) {
	opts = opts.withDefaults()

	cleaned := make([]string, len(headers))
	for i, h := range headers {
		cleaned[i] = strings.TrimSpace(h)
	}

	m := NewMapping()
	mapExact(s, cleaned, m)

	// Variation tier
	candidates := FindCandidates(s, cleaned, m, opts)
	if len(candidates) > 0 {
		accept := true
		if opts.Confirm != nil {
			var err error
			accept, err = opts.Confirm(candidates, m)
			if err != nil {
				return nil, err
			}
		}
		if accept {
			for _, c := range candidates {
				m.Add(types.HeaderMatch{
					Column:     c.Column,
					Header:     c.Header,
					Field:      c.Field,
					Tier:       types.TierVariation,
					Confidence: c.Confidence,
				})
			}
		}
	}

	// Manual tier
	if opts.Manual != nil {
		for col, h := range cleaned {
			if h == "" || m.HasColumn(col) {
				continue
			}
			unmapped := m.Unmapped(s)
			if len(unmapped) == 0 {
				break
			}
			res, err := opts.Manual(h, col, unmapped)
			if err != nil {
				return nil, err
			}
			switch res.Outcome {
			case types.OutcomeAbort:
				return nil, types.ErrAborted
			case types.OutcomeSkip:
				continue
			}
			if _, ok := s.FieldByName(res.Value); !ok {
				return nil, fmt.Errorf("manual mapping for %q: unknown field %q", h, res.Value)
			}
			m.Add(types.HeaderMatch{
				Column:     col,
				Header:     h,
				Field:      res.Value,
				Tier:       types.TierManual,
				Confidence: 1.0,
			})
		}
	}

	return m, nil
}

// mapExact runs tier 1. For each field in schema order, the first column
// whose header is identical, identical without the marker, or equal without
// the marker ignoring case, wins.
func mapExact(s *schema.Schema, headers []string, m *Mapping) {
	for _, f := range s.Fields() {
		bare := strings.TrimRight(f.Header, schema.RequiredMarker)
		col := firstColumn(headers, m, func(h string) bool { return h == f.Header })
		if col < 0 {
			col = firstColumn(headers, m, func(h string) bool {
				return strings.TrimRight(h, schema.RequiredMarker) == bare
			})
		}
		if col < 0 {
			col = firstColumn(headers, m, func(h string) bool {
				return strings.EqualFold(strings.TrimRight(h, schema.RequiredMarker), bare)
			})
		}
		if col < 0 {
			continue
		}
		m.Add(types.HeaderMatch{
			Column:     col,
			Header:     headers[col],
			Field:      f.Name,
			Tier:       types.TierExact,
			Confidence: 1.0,
		})
	}
}

func firstColumn(headers []string, m *Mapping, match func(string) bool) int {
	for i, h := range headers {
		if h == "" || m.HasColumn(i) {
			continue
		}
		if match(h) {
			return i
		}
	}
	return -1
}

// FindCandidates runs the variation scoring over every unmapped, non-empty
// column. Each column keeps only its best field; a candidate whose field is
// already mapped, or claimed by an earlier column, is discarded.
func FindCandidates(s *schema.Schema, headers []string, m *Mapping, opts Options) []Candidate {
	opts = opts.withDefaults()
	fields := s.Fields()
	claimed := make(map[string]bool)

	var out []Candidate
	for col, h := range headers {
		if strings.TrimSpace(h) == "" || m.HasColumn(col) {
			continue
		}
		bestField, bestScore := "", 0.0
		for _, f := range fields {
			score := opts.Weights.Score(h, opts.Variations.ForField(f))
			if score > bestScore && score >= opts.MinConfidence {
				bestField, bestScore = f.Name, score
			}
		}
		if bestField == "" || m.HasField(bestField) || claimed[bestField] {
			continue
		}
		claimed[bestField] = true
		out = append(out, Candidate{Column: col, Header: h, Field: bestField, Confidence: bestScore})
	}
	return out
}
