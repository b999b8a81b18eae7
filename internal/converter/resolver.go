package converter

import (
	"github.com/ginjaninja78/sport-passport-converter/internal/matcher"
	"github.com/ginjaninja78/sport-passport-converter/internal/rowdetect"
	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
	"github.com/ginjaninja78/sport-passport-converter/internal/types"
	"github.com/ginjaninja78/sport-passport-converter/internal/validation"
)

// =============================================================================
// DECISION POINTS
// =============================================================================

// RowContext identifies the row an operator is asked about.
type RowContext struct {
	RowIndex int
	Name     string
	Row      types.NormalizedRow
}

// ExportSummary is shown before the output is written.
type ExportSummary struct {
	Rows        int
	Skipped     []types.SkippedRow
	Corrections int
	Manual      []types.ManualCorrection
	Stats       CorrectionStats
}

// Resolver answers every decision the conversion needs from an operator.
// Returning types.ErrAborted (or an Abort resolution) abandons the run.
type Resolver interface {
	// ConfirmRowTrim is asked when rows above the header or below the data
	// were detected. top and bottom preview the rows that would go.
	ConfirmRowTrim(b rowdetect.Boundaries, top, bottom [][]string) (bool, error)

	// ConfirmVariationMappings accepts or rejects all fuzzy header matches.
	ConfirmVariationMappings(candidates []matcher.Candidate, current *matcher.Mapping) (bool, error)

	// ResolveManualMapping assigns an unmatched header to a field (value),
	// ignores it (skip), or aborts.
	ResolveManualMapping(header string, column int, unmapped []schema.FieldSpec) (types.Resolution, error)

	// ResolveMissingMandatoryField accepts, edits, or declines a default
	// for a mandatory field that has no column.
	ResolveMissingMandatoryField(f schema.FieldSpec, proposed string) (string, bool, error)

	// ReviewAutoCorrections accepts or rejects every auto-fix as a batch.
	ReviewAutoCorrections(fixes []*validation.ValidationError) (bool, error)

	// ResolveValidationError supplies a corrected value, skips the row, or
	// aborts.
	ResolveValidationError(e *validation.ValidationError, row RowContext) (types.Resolution, error)

	// ResolveColumnMismatch supplies the merged free-text value, skips the
	// row, or aborts. suggested is empty when no merge is possible.
	ResolveColumnMismatch(m types.ColumnMismatch, suggested string) (types.Resolution, error)

	// ConfirmExport is the last chance to stop before the file is written.
	ConfirmExport(summary ExportSummary) (bool, error)
}

// =============================================================================
// AUTO RESOLVER
// =============================================================================

// AutoResolver answers without an operator: it accepts everything that has
// a deterministic answer and skips whatever would need a human.
type AutoResolver struct{}

func (AutoResolver) ConfirmRowTrim(rowdetect.Boundaries, [][]string, [][]string) (bool, error) {
	return true, nil
}

func (AutoResolver) ConfirmVariationMappings([]matcher.Candidate, *matcher.Mapping) (bool, error) {
	return true, nil
}

func (AutoResolver) ResolveManualMapping(string, int, []schema.FieldSpec) (types.Resolution, error) {
	return types.Skip(), nil
}

func (AutoResolver) ResolveMissingMandatoryField(_ schema.FieldSpec, proposed string) (string, bool, error) {
	return proposed, true, nil
}

func (AutoResolver) ReviewAutoCorrections([]*validation.ValidationError) (bool, error) {
	return true, nil
}

func (AutoResolver) ResolveValidationError(*validation.ValidationError, RowContext) (types.Resolution, error) {
	return types.Skip(), nil
}

func (AutoResolver) ResolveColumnMismatch(types.ColumnMismatch, string) (types.Resolution, error) {
	return types.Skip(), nil
}

func (AutoResolver) ConfirmExport(ExportSummary) (bool, error) {
	return true, nil
}
