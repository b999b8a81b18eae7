// =============================================================================
// Sport Passport Converter - Converter Module
// =============================================================================
//
// This module contains the conversion pipeline. It turns a raw grid of cells
// into Sport Passport rows, asking a Resolver whenever a decision is needed.
//
// CONVERSION PIPELINE:
//   1. Detect title rows above the header and summary rows below the data
//   2. Map the input headers onto the canonical fields
//   3. Fill mandatory gaps from operator overrides and fixed defaults
//   4. Per row: repair split free-text cells, normalise, validate
//   5. Review auto-corrections as a batch, then resolve manual errors
//   6. Apply operator overrides to every row
//   7. Confirm and write the output
//
// ERROR HANDLING:
//   Row defects never stop the run: the row is fixed or skipped, and the
//   ledger records which. Run-level failures (missing mandatory columns,
//   operator abort, nothing left to export) return an error and no output is
//   written.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/sport-passport-converter/internal/config"
	"github.com/ginjaninja78/sport-passport-converter/internal/csvparser"
	"github.com/ginjaninja78/sport-passport-converter/internal/csvwriter"
	"github.com/ginjaninja78/sport-passport-converter/internal/matcher"
	"github.com/ginjaninja78/sport-passport-converter/internal/repair"
	"github.com/ginjaninja78/sport-passport-converter/internal/rowdetect"
	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
	"github.com/ginjaninja78/sport-passport-converter/internal/types"
	"github.com/ginjaninja78/sport-passport-converter/internal/validation"
	"github.com/ginjaninja78/sport-passport-converter/internal/xlsxparser"
	"github.com/ginjaninja78/sport-passport-converter/pkg/utils"
)

// Run-level failures.
var (
	ErrNoData         = errors.New("no data rows found in input")
	ErrNoValidRows    = errors.New("no valid rows left to export")
	ErrExportDeclined = errors.New("export declined by operator")
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// CorrectionStats counts ledger entries.
type CorrectionStats struct {
	Total   int
	ByType  map[string]int
	ByField map[string]int
}

// Record counts one ledger entry.
func (s *CorrectionStats) Record(rec types.CorrectionRecord) {
	if s.ByType == nil {
		s.ByType = make(map[string]int)
		s.ByField = make(map[string]int)
	}
	s.Total++
	s.ByType[rec.Type]++
	s.ByField[rec.Field]++
}

// Result is the outcome of one conversion.
type Result struct {
	// RunID identifies the run in logs and the ledger store.
	RunID string

	// InputPath and OutputPath are set by Run.
	InputPath  string
	OutputPath string

	// Headers are the trimmed input headers.
	Headers []string

	// Mapping is the final header mapping, defaults included.
	Mapping *matcher.Mapping

	// Boundaries is what the row detector found; Trimmed reports whether
	// the trim was applied.
	Boundaries rowdetect.Boundaries
	Trimmed    bool

	// Rows are the surviving rows, ready for export.
	Rows []types.NormalizedRow

	// TotalRows is the number of data rows after trimming.
	TotalRows int

	// EmptyRows counts blank rows that were dropped silently.
	EmptyRows int

	// CSVRepairs counts rows whose split free-text cells were merged.
	CSVRepairs int

	// Corrections is the ledger of normalisations and applied auto-fixes.
	Corrections []types.CorrectionRecord

	// Manual holds the values typed in by the operator.
	Manual []types.ManualCorrection

	// Skipped lists dropped rows with the reason.
	Skipped []types.SkippedRow

	// Stats summarises Corrections.
	Stats CorrectionStats

	// ProcessingTime is the wall time of Process (and Run).
	ProcessingTime time.Duration
}

// Table renders the surviving rows in schema order.
func (r *Result) Table(s *schema.Schema) [][]string {
	fields := s.Fields()
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		cells := make([]string, len(fields))
		for j, f := range fields {
			cells[j] = row[f.Name]
		}
		out[i] = cells
	}
	return out
}

func (r *Result) addCorrection(rec types.CorrectionRecord) {
	r.Corrections = append(r.Corrections, rec)
	r.Stats.Record(rec)
}

func (r *Result) skip(rowIndex int, name, reason string) {
	r.Skipped = append(r.Skipped, types.SkippedRow{RowIndex: rowIndex, Name: name, Reason: reason})
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options configures a Converter.
type Options struct {
	// Schema is the output schema. Nil means schema.Default().
	Schema *schema.Schema

	// Overrides maps field name -> value written to every output row.
	Overrides map[string]string

	// Input controls how Run reads source files.
	Input config.InputSettings

	// MinConfidence is the variation-tier threshold. Zero means the default.
	MinConfidence float64

	// Detect holds the row detector thresholds. Zero means the defaults.
	Detect rowdetect.Options

	// Variations overrides the synonym table when non-nil.
	Variations matcher.Variations
}

// OptionsFromConfig builds converter options from the loaded configuration.
func OptionsFromConfig(cfg *config.MainConfig) Options {
	detect := rowdetect.DefaultOptions()
	detect.MinHeaderMatches = cfg.Matching.HeaderMinMatches
	return Options{
		Overrides:     cfg.Overrides(),
		Input:         cfg.Input,
		MinConfidence: cfg.Matching.MinConfidence,
		Detect:        detect,
	}
}

// Grid is a raw table of cells as loaded from a source file.
type Grid struct {
	Rows [][]string

	// Delimited is true for text files, whose rows may carry split
	// free-text cells. Spreadsheet rows are never repaired.
	Delimited bool
}

// Converter runs the pipeline with one Resolver.
type Converter struct {
	schema     *schema.Schema
	opts       Options
	resolver   Resolver
	logger     Logger
	normalizer *Normalizer
	validator  *validation.Validator
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a Converter.
//
// PARAMETERS:
//   - opts: schema, overrides, and thresholds
//   - resolver: answers every decision point; nil means AutoResolver
//   - logger: progress sink; nil discards
//
// RETURNS:
//   - A new Converter instance.
func New(opts Options, resolver Resolver, logger Logger) *Converter {
	if opts.Schema == nil {
		opts.Schema = schema.Default()
	}
	if opts.Detect.MinHeaderMatches == 0 {
		opts.Detect = rowdetect.DefaultOptions()
	}
	if resolver == nil {
		resolver = AutoResolver{}
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Converter{
		schema:     opts.Schema,
		opts:       opts,
		resolver:   resolver,
		logger:     logger,
		normalizer: NewNormalizer(opts.Schema),
		validator:  validation.NewValidator(opts.Schema),
	}
}

// =============================================================================
// FILE PIPELINE
// =============================================================================

// Run loads inputPath, converts it, and writes outputPath. An empty
// outputPath uses DefaultOutputPath. Nothing is written unless the whole
// conversion succeeds.
func (c *Converter) Run(inputPath, outputPath string) (*Result, error) {
	start := time.Now()
	if outputPath == "" {
		outputPath = DefaultOutputPath(inputPath)
	}

	c.logger.Info("Processing file: %s", inputPath)
	grid, err := c.Load(inputPath)
	if err != nil {
		return nil, err
	}

	result, err := c.Process(grid)
	if err != nil {
		return nil, err
	}
	result.InputPath = inputPath
	result.OutputPath = outputPath

	if err := csvwriter.WriteFile(outputPath, c.schema.Headers(), result.Table(c.schema)); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	result.ProcessingTime = time.Since(start)

	c.logger.Info("Wrote %d rows to: %s", len(result.Rows), outputPath)
	return result, nil
}

// Load reads a spreadsheet or delimited file into a grid.
func (c *Converter) Load(inputPath string) (Grid, error) {
	if xlsxparser.IsSpreadsheet(inputPath) {
		data, err := xlsxparser.Parse(inputPath, c.opts.Input.Sheet)
		if err != nil {
			return Grid{}, fmt.Errorf("failed to read spreadsheet: %w", err)
		}
		c.logger.Debug("Read %d rows from sheet %s", data.RowCount, data.SheetName)
		return Grid{Rows: data.Rows}, nil
	}

	data, err := csvparser.Parse(inputPath, c.opts.Input)
	if err != nil {
		return Grid{}, fmt.Errorf("failed to read delimited file: %w", err)
	}
	c.logger.Debug("Read %d rows (%s)", data.RowCount, data.Encoding)
	return Grid{Rows: data.Rows, Delimited: true}, nil
}

// DefaultOutputPath swaps the input extension for ".converted.csv".
func DefaultOutputPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".converted.csv"
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// pendingRow is a row that survived structural checks and awaits error
// resolution.
type pendingRow struct {
	index  int
	row    types.NormalizedRow
	result validation.RowValidationResult
}

// Process converts a loaded grid. It performs no I/O besides calling the
// Resolver and the Logger.
func (c *Converter) Process(grid Grid) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: utils.NewRunID()}

	rows := grid.Rows
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	// =========================================================================
	// STEP 1: ROW BOUNDARIES
	// =========================================================================

	detector := rowdetect.ForSchema(c.schema, c.opts.Detect)
	result.Boundaries = detector.DetectRowsToRemove(rows)
	if result.Boundaries.NeedsTrim() {
		top, bottom := result.Boundaries.Preview(rows)
		ok, err := c.resolver.ConfirmRowTrim(result.Boundaries, top, bottom)
		if err != nil {
			return nil, err
		}
		if ok {
			rows = result.Boundaries.Apply(rows)
			result.Trimmed = true
			c.logger.Info("Trimmed input to rows %d-%d", result.Boundaries.HeaderIndex+1, result.Boundaries.HeaderIndex+len(rows))
		}
	}
	if len(rows) < 2 {
		return nil, ErrNoData
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	result.Headers = headers
	data := rows[1:]
	result.TotalRows = len(data)

	// =========================================================================
	// STEP 2: HEADER MAPPING
	// =========================================================================

	mapping, err := matcher.MapHeaders(c.schema, headers, matcher.Options{
		Variations:    c.opts.Variations,
		MinConfidence: c.opts.MinConfidence,
		Confirm:       c.resolver.ConfirmVariationMappings,
		Manual:        c.resolver.ResolveManualMapping,
	})
	if err != nil {
		return nil, fmt.Errorf("header mapping failed: %w", err)
	}

	// =========================================================================
	// STEP 3: MANDATORY FIELDS
	// =========================================================================

	err = matcher.ResolveMissing(c.schema, mapping, headers, c.opts.Overrides, c.resolver.ResolveMissingMandatoryField)
	if err != nil {
		return nil, err
	}
	result.Mapping = mapping

	for _, hm := range mapping.Matches() {
		c.logger.Debug("Mapped %q -> %s (%s, %.2f)", hm.Header, hm.Field, hm.Tier, hm.Confidence)
	}
	for _, f := range mapping.OptionalMissing(c.schema) {
		c.logger.Info("Optional field %s has no column and will be empty", f.DisplayName())
	}

	// Defaulted and overridden fields are replaced at export, so their
	// per-row values are not validated.
	unchecked := make(map[string]bool)
	for field := range mapping.Defaults() {
		unchecked[field] = true
	}
	for field, v := range c.opts.Overrides {
		if strings.TrimSpace(v) != "" {
			unchecked[field] = true
		}
	}

	// =========================================================================
	// STEP 4: STRUCTURE, NORMALISATION, VALIDATION
	// =========================================================================

	repairer := repair.New(len(headers), mapping.ColumnOf(schema.FieldMedicalConditions))
	var pending []pendingRow

	for i, cells := range data {
		if isBlank(cells) {
			result.EmptyRows++
			continue
		}

		if grid.Delimited {
			fixed, ok, err := c.fixColumnCount(repairer, i, cells, result)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			cells = fixed
		} else {
			cells = fitWidth(cells, len(headers))
		}

		row, records := c.normalizer.NormalizeRow(i, mapping.FieldValues(cells))
		for _, rec := range records {
			result.addCorrection(rec)
		}

		vr := c.validator.ValidateRow(i, row).Without(unchecked)
		pending = append(pending, pendingRow{index: i, row: row, result: vr})
	}

	// =========================================================================
	// STEP 5: ERROR RESOLUTION
	// =========================================================================

	var fixes []*validation.ValidationError
	for _, p := range pending {
		fixes = append(fixes, p.result.AutoFixable()...)
	}
	acceptFixes := false
	if len(fixes) > 0 {
		acceptFixes, err = c.resolver.ReviewAutoCorrections(fixes)
		if err != nil {
			return nil, err
		}
		if acceptFixes {
			c.logger.Info("Accepted %d auto-correction(s)", len(fixes))
		} else {
			c.logger.Info("Rejected %d auto-correction(s); each will be reviewed", len(fixes))
		}
	}

	for _, p := range pending {
		keep, err := c.resolveRow(p, acceptFixes, result)
		if err != nil {
			return nil, err
		}
		if keep {
			result.Rows = append(result.Rows, p.row)
		}
	}

	// =========================================================================
	// STEP 6: OVERRIDES
	// =========================================================================

	for field, v := range c.opts.Overrides {
		f, ok := c.schema.FieldByName(field)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		value := NormalizeValue(f, v)
		for _, row := range result.Rows {
			row[field] = value
		}
	}

	if len(result.Rows) == 0 {
		return nil, ErrNoValidRows
	}

	// =========================================================================
	// STEP 7: EXPORT CONFIRMATION
	// =========================================================================

	ok, err := c.resolver.ConfirmExport(ExportSummary{
		Rows:        len(result.Rows),
		Skipped:     result.Skipped,
		Corrections: len(result.Corrections),
		Manual:      result.Manual,
		Stats:       result.Stats,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrExportDeclined
	}

	result.ProcessingTime = time.Since(start)
	c.logger.Info("Converted %d of %d rows (%d skipped, %d corrections, %d manual)",
		len(result.Rows), result.TotalRows, len(result.Skipped), len(result.Corrections), len(result.Manual))
	return result, nil
}

// fixColumnCount checks a delimited row's width and repairs it, or asks the
// resolver. ok is false when the row was skipped.
func (c *Converter) fixColumnCount(repairer *repair.Repairer, i int, cells []string, result *Result) ([]string, bool, error) {
	mm := repairer.CheckColumnCount(i, cells)
	if mm == nil {
		return cells, true, nil
	}

	if repaired := repairer.AttemptRepair(*mm); repaired != nil {
		result.CSVRepairs++
		c.logger.Debug("%s: merged %d split cell(s) into the free-text column", types.RowLabel(i), mm.ExtraColumns())
		return repaired, true, nil
	}

	res, err := c.resolver.ResolveColumnMismatch(*mm, repairer.SuggestedMerge(*mm))
	if err != nil {
		return nil, false, err
	}
	reason := fmt.Sprintf("column count mismatch (expected %d, got %d)", mm.Expected, mm.Actual)
	switch res.Outcome {
	case types.OutcomeAbort:
		return nil, false, types.ErrAborted
	case types.OutcomeSkip:
		result.skip(i, rawName(cells), reason)
		c.logger.Warn("%s skipped: %s", types.RowLabel(i), reason)
		return nil, false, nil
	}

	merged, ok := repairer.MergeAt(*mm, res.Value)
	if !ok {
		reason += "; merge did not fix it"
		result.skip(i, rawName(cells), reason)
		c.logger.Warn("%s skipped: %s", types.RowLabel(i), reason)
		return nil, false, nil
	}
	result.CSVRepairs++
	return merged, true, nil
}

// resolveRow applies accepted auto-fixes and asks about every remaining
// error. keep is false when the row was skipped.
func (c *Converter) resolveRow(p pendingRow, acceptFixes bool, result *Result) (bool, error) {
	remaining := p.result.Errors
	if acceptFixes {
		for _, e := range p.result.AutoFixable() {
			p.row[e.Field.Name] = e.Suggested
			result.addCorrection(e.Record())
		}
		remaining = p.result.ManualRequired()
	}

	for _, e := range remaining {
		ctx := RowContext{RowIndex: p.index, Name: p.result.DisplayName(), Row: p.row}
		res, err := c.resolver.ResolveValidationError(e, ctx)
		if err != nil {
			return false, err
		}

		switch res.Outcome {
		case types.OutcomeAbort:
			return false, types.ErrAborted
		case types.OutcomeSkip:
			reason := fmt.Sprintf("%s: %s", e.FieldName(), e.Message)
			result.skip(p.index, ctx.Name, reason)
			c.logger.Warn("%s (%s) skipped: %s", types.RowLabel(p.index), ctx.Name, reason)
			return false, nil
		}

		value := NormalizeValue(e.Field, res.Value)
		result.Manual = append(result.Manual, types.ManualCorrection{
			RowIndex:  p.index,
			Field:     e.FieldName(),
			Original:  e.Value,
			Corrected: value,
		})
		p.row[e.Field.Name] = value
	}
	return true, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// fitWidth pads or cuts a spreadsheet row to the header width.
func fitWidth(cells []string, width int) []string {
	if len(cells) == width {
		return cells
	}
	out := make([]string, width)
	copy(out, cells)
	return out
}

// rawName labels a row that could not be mapped, from its first two
// non-empty cells.
func rawName(cells []string) string {
	var parts []string
	for _, c := range cells {
		if v := strings.TrimSpace(c); v != "" {
			parts = append(parts, v)
			if len(parts) == 2 {
				break
			}
		}
	}
	return strings.Join(parts, " ")
}
