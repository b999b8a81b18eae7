// =============================================================================
// Sport Passport Converter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - converter
//   - matcher
//   - repair
//   - prompt
//   - ledgerstore
//
// =============================================================================

package types

import (
	"errors"
	"strconv"
)

// ErrAborted is returned by any decision point when the operator chooses to
// abandon the whole run. No output is written once it has been raised.
var ErrAborted = errors.New("conversion aborted by operator")

// =============================================================================
// ROW TYPES
// =============================================================================

// RawRow is an ordered sequence of cells as read from the source file,
// positionally aligned with the input header row.
type RawRow []string

// NormalizedRow maps a canonical field name to its cleaned value.
// Missing keys are treated as the empty string.
type NormalizedRow map[string]string

// Clone returns an independent copy of the row.
func (r NormalizedRow) Clone() NormalizedRow {
	out := make(NormalizedRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// =============================================================================
// HEADER MAPPING TYPES
// =============================================================================

// MatchTier identifies which strategy produced a header mapping.
type MatchTier int

const (
	// TierExact is a canonical header match, ignoring case and the required marker.
	TierExact MatchTier = iota

	// TierVariation is a match against the curated synonym list.
	TierVariation

	// TierManual is an assignment made by the operator.
	TierManual

	// TierDefault is a synthetic mapping backed by a default value rather
	// than an input column.
	TierDefault
)

// String returns the tier name used in logs and reports.
func (t MatchTier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierVariation:
		return "variation"
	case TierManual:
		return "manual"
	case TierDefault:
		return "default"
	default:
		return "unknown"
	}
}

// HeaderMatch links one input column to one canonical field.
type HeaderMatch struct {
	// Column is the 0-based input column index, or -1 for default mappings.
	Column int

	// Header is the raw input header text, or a sentinel such as
	// "__postcode_default__" for default mappings.
	Header string

	// Field is the canonical field name.
	Field string

	// Tier is the matching strategy that produced this mapping.
	Tier MatchTier

	// Confidence is the variation score in [0,1]. Exact and manual matches
	// carry 1.0.
	Confidence float64

	// Default is the value used for every row when Tier is TierDefault.
	Default string
}

// =============================================================================
// STRUCTURAL DEFECTS
// =============================================================================

// ColumnMismatch describes a raw row whose cell count differs from the
// expected count.
type ColumnMismatch struct {
	RowIndex int
	Cells    []string
	Expected int
	Actual   int
}

// ExtraColumns is Actual - Expected; negative when the row is short.
func (m ColumnMismatch) ExtraColumns() int {
	return m.Actual - m.Expected
}

// =============================================================================
// LEDGER TYPES
// =============================================================================

// Correction type tags recorded in the ledger.
const (
	CorrectionNormalization = "normalization"
	CorrectionUSToUKDate    = "us_to_uk_date"
	CorrectionDateFormat    = "date_format"
	CorrectionPostcode      = "postcode_format"
	CorrectionGenderAbbrev  = "gender_abbreviation"
	CorrectionCase          = "case_normalization"
	CorrectionFormat        = "format"
)

// CorrectionRecord is one audit entry. It is never modified after creation.
type CorrectionRecord struct {
	// RowIndex is the 0-based data row index.
	RowIndex int

	// Field is the field display name (canonical header without the marker).
	Field string

	// Original is the value before the correction.
	Original string

	// Corrected is the value after the correction.
	Corrected string

	// Type is one of the Correction* tags.
	Type string
}

// ManualCorrection records a value typed in by the operator.
type ManualCorrection struct {
	RowIndex  int
	Field     string
	Original  string
	Corrected string
}

// SkippedRow records a row dropped from the output, with the reason.
type SkippedRow struct {
	RowIndex int
	Name     string
	Reason   string
}

// RowLabel renders a 0-based data row index the way operators see it in the
// source file: 1-based, counting the header row.
func RowLabel(rowIndex int) string {
	return "Row " + strconv.Itoa(rowIndex+2)
}

// =============================================================================
// DECISION OUTCOMES
// =============================================================================

// Outcome is the closed set of answers a decision point can give.
type Outcome int

const (
	// OutcomeValue supplies a value (a corrected field, a merged cell, a
	// chosen field name).
	OutcomeValue Outcome = iota

	// OutcomeSkip drops the current row or header.
	OutcomeSkip

	// OutcomeAbort abandons the whole run.
	OutcomeAbort
)

// Resolution is the answer to a per-row or per-header decision.
type Resolution struct {
	Outcome Outcome
	Value   string
}

// UseValue builds a value resolution.
func UseValue(v string) Resolution { return Resolution{Outcome: OutcomeValue, Value: v} }

// Skip builds a skip resolution.
func Skip() Resolution { return Resolution{Outcome: OutcomeSkip} }

// Abort builds an abort resolution.
func Abort() Resolution { return Resolution{Outcome: OutcomeAbort} }
