// =============================================================================
// Sport Passport Converter - Console Prompts
// =============================================================================
//
// This module is the interactive implementation of converter.Resolver. It
// reads answers line by line from an io.Reader and writes panels and tables
// to an io.Writer, so the same code drives a terminal and a scripted test.
//
// ANSWER CONVENTIONS:
//   - Numbered menus take the option number.
//   - Yes/no questions take y/n; an empty line takes the default.
//   - Free-text answers take 's' to skip the row and 'q' to quit.
//   - End of input is treated as quitting the run.
//
// =============================================================================

package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ginjaninja78/sport-passport-converter/internal/converter"
	"github.com/ginjaninja78/sport-passport-converter/internal/matcher"
	"github.com/ginjaninja78/sport-passport-converter/internal/rowdetect"
	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
	"github.com/ginjaninja78/sport-passport-converter/internal/types"
	"github.com/ginjaninja78/sport-passport-converter/internal/validation"
	"github.com/ginjaninja78/sport-passport-converter/pkg/utils"
)

// Display limits.
const (
	// MaxExamplesPerType caps the rows listed per correction type.
	MaxExamplesPerType = 10

	// previewWidth caps a one-line row preview.
	previewWidth = 70

	// cellWidth caps a single cell inside a preview or table.
	cellWidth = 25
)

// Console asks the operator every question the conversion needs.
type Console struct {
	in        *bufio.Reader
	out       io.Writer
	schema    *schema.Schema
	validator *validation.Validator
}

// New creates a Console over in and out for the given schema. A nil schema
// means schema.Default().
func New(in io.Reader, out io.Writer, s *schema.Schema) *Console {
	if s == nil {
		s = schema.Default()
	}
	return &Console{
		in:        bufio.NewReader(in),
		out:       out,
		schema:    s,
		validator: validation.NewValidator(s),
	}
}

var _ converter.Resolver = (*Console)(nil)

// =============================================================================
// ROW DETECTION
// =============================================================================

// ConfirmRowTrim shows the rows a trim would drop and asks whether to drop
// them.
func (c *Console) ConfirmRowTrim(b rowdetect.Boundaries, top, bottom [][]string) (bool, error) {
	c.panel("Row Detection",
		"The input has rows that look like titles, notes, or totals rather than data.")

	if b.HeaderIndex > 0 {
		c.printf("Rows to remove from top: %d (rows 1-%d)\n", b.HeaderIndex, b.HeaderIndex)
		c.previewRows(top, 1)
	}
	if b.TrailingDetected {
		c.printf("Rows to remove from bottom: starting after row %d\n", b.LastValid+1)
		c.previewRows(bottom, b.LastValid+2)
	}
	return c.confirm("Remove these rows?", true)
}

func (c *Console) previewRows(rows [][]string, firstNumber int) {
	w := c.table()
	for i, row := range rows {
		fmt.Fprintf(w, "  %d\t%s\n", firstNumber+i, previewRow(row))
	}
	w.Flush()
	c.printf("\n")
}

// previewRow joins the first five non-empty cells of a row.
func previewRow(row []string) string {
	var parts []string
	for _, cell := range row {
		if len(parts) == 5 {
			break
		}
		if v := strings.TrimSpace(cell); v != "" {
			parts = append(parts, truncate(v, 20))
		}
	}
	return truncate(strings.Join(parts, " | "), previewWidth)
}

// =============================================================================
// HEADER MAPPING
// =============================================================================

// ConfirmVariationMappings lists the fuzzy matches and accepts or rejects
// them as a batch.
func (c *Console) ConfirmVariationMappings(candidates []matcher.Candidate, current *matcher.Mapping) (bool, error) {
	c.panel("Column Name Variations Detected",
		"Some column names look like variations of the expected names. Please confirm the mappings.")

	w := c.table()
	fmt.Fprintln(w, "  Input Column\tMaps To\tConfidence")
	for _, cand := range candidates {
		fmt.Fprintf(w, "  %s\t%s\t%.0f%%\n", cand.Header, c.schema.DisplayNameOf(cand.Field), cand.Confidence*100)
	}
	w.Flush()
	c.printf("\n")

	choice, err := c.choose("Would you like to use these column mappings?",
		"Yes, use these mappings", "No, skip variation matching")
	if err != nil {
		return false, err
	}
	return choice == 0, nil
}

// ResolveManualMapping offers every still-unmapped field for one header.
// Required fields are listed first.
func (c *Console) ResolveManualMapping(header string, column int, unmapped []schema.FieldSpec) (types.Resolution, error) {
	fields := make([]schema.FieldSpec, len(unmapped))
	copy(fields, unmapped)
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].Required != fields[j].Required {
			return fields[i].Required
		}
		return fields[i].DisplayName() < fields[j].DisplayName()
	})

	options := []string{"Skip this column"}
	for _, f := range fields {
		label := f.DisplayName()
		if f.Required {
			label += " [required]"
		}
		options = append(options, label)
	}
	options = append(options, "Exit - cannot match this column")

	c.printf("\nColumn %d: %s\n", column+1, header)
	choice, err := c.choose("Which field should this column map to?", options...)
	if err != nil {
		return types.Resolution{}, err
	}
	switch {
	case choice == 0:
		c.printf("Skipping column '%s'\n", header)
		return types.Skip(), nil
	case choice == len(options)-1:
		return types.Abort(), nil
	}
	f := fields[choice-1]
	c.printf("Mapped '%s' to '%s'\n", header, f.DisplayName())
	return types.UseValue(f.Name), nil
}

// ResolveMissingMandatoryField offers a default for a missing mandatory
// column.
func (c *Console) ResolveMissingMandatoryField(f schema.FieldSpec, proposed string) (string, bool, error) {
	name := f.DisplayName()
	c.panel("Missing Mandatory Field: "+name,
		fmt.Sprintf("The field '%s' is missing from the input file.", name))

	ok, err := c.confirm(fmt.Sprintf("Add '%s' with default value '%s'?", name, proposed), true)
	if err != nil || !ok {
		return "", false, err
	}
	c.printf("Added '%s' with default value '%s'\n", name, proposed)
	return proposed, true, nil
}

// =============================================================================
// ROW ERRORS
// =============================================================================

// ReviewAutoCorrections lists the pending auto-fixes grouped by type.
func (c *Console) ReviewAutoCorrections(fixes []*validation.ValidationError) (bool, error) {
	c.panel("Auto-Corrections Review",
		fmt.Sprintf("The following %d correction(s) can be applied automatically.", len(fixes)))

	records := make([]types.CorrectionRecord, len(fixes))
	for i, e := range fixes {
		records[i] = e.Record()
	}
	c.printCorrections(records)

	choice, err := c.choose("Choose an option:",
		"Accept all auto-corrections", "Reject and review each one")
	if err != nil {
		return false, err
	}
	return choice == 0, nil
}

// ResolveValidationError asks for a corrected value until one passes
// validation, or the operator skips or quits.
func (c *Console) ResolveValidationError(e *validation.ValidationError, row converter.RowContext) (types.Resolution, error) {
	c.printf("\n--- %s: Validation Error ---\n", types.RowLabel(row.RowIndex))
	w := c.table()
	if row.Name != "" {
		fmt.Fprintf(w, "  Name:\t%s\n", row.Name)
	}
	if v := row.Row[schema.FieldEmail]; v != "" && e.Field.Name != schema.FieldEmail {
		fmt.Fprintf(w, "  Email:\t%s\n", v)
	}
	if v := row.Row[schema.FieldDateOfBirth]; v != "" && e.Field.Name != schema.FieldDateOfBirth {
		fmt.Fprintf(w, "  DOB:\t%s\n", v)
	}
	fmt.Fprintf(w, "  Issue:\t%s\n", e.Message)
	fmt.Fprintf(w, "  Field:\t%s\n", e.FieldName())
	fmt.Fprintf(w, "  Current:\t%s\n", orEmpty(e.Value))
	if e.Field.HasAllowedValues() {
		fmt.Fprintf(w, "  Allowed:\t%s\n", strings.Join(e.Field.AllowedValues, ", "))
	}
	w.Flush()

	def := e.Value
	if e.AutoFixable {
		def = e.Suggested
	}
	for {
		answer, err := c.ask("Enter corrected value (or 's' to skip row, 'q' to quit)", def)
		if err != nil {
			return types.Resolution{}, err
		}
		switch strings.ToLower(answer) {
		case "q":
			return types.Abort(), nil
		case "s":
			return types.Skip(), nil
		}

		value := converter.NormalizeValue(e.Field, answer)
		check := c.validator.ValidateField(row.RowIndex, e.Field, value)
		if check == nil {
			return types.UseValue(value), nil
		}
		if check.AutoFixable {
			return types.UseValue(check.Suggested), nil
		}
		c.printf("%s\n", check.Message)
	}
}

// ResolveColumnMismatch asks for the full free-text value of a row with too
// many cells. Short rows can only be skipped.
func (c *Console) ResolveColumnMismatch(m types.ColumnMismatch, suggested string) (types.Resolution, error) {
	c.printf("\n--- %s: Column Count Mismatch ---\n", types.RowLabel(m.RowIndex))
	c.printf("Found %d columns, expected %d\n", m.Actual, m.Expected)

	if m.ExtraColumns() < 0 || suggested == "" {
		c.printf("This row cannot be repaired automatically.\n")
		choice, err := c.choose("What would you like to do?", "Skip this row", "Abort processing")
		if err != nil {
			return types.Resolution{}, err
		}
		if choice == 0 {
			return types.Skip(), nil
		}
		return types.Abort(), nil
	}

	w := c.table()
	for i, cell := range m.Cells {
		fmt.Fprintf(w, "  [%d]\t%s\n", i, truncate(cell, 50))
	}
	w.Flush()
	c.printf("Some cells were probably split by commas inside %s.\n", c.schema.DisplayNameOf(schema.FieldMedicalConditions))
	c.printf("Enter the complete text (commas are OK).\n")

	answer, err := c.ask("Value (or 's' to skip row, 'q' to quit)", suggested)
	if err != nil {
		return types.Resolution{}, err
	}
	switch strings.ToLower(answer) {
	case "q":
		return types.Abort(), nil
	case "s":
		return types.Skip(), nil
	}
	return types.UseValue(answer), nil
}

// =============================================================================
// EXPORT
// =============================================================================

// ConfirmExport shows what changed and asks whether to write the output.
func (c *Console) ConfirmExport(s converter.ExportSummary) (bool, error) {
	c.panel("Review Changes Before Export", fmt.Sprintf(
		"%d row(s) ready, %d skipped.\n  %d auto-correction(s)\n  %d manual correction(s)",
		s.Rows, len(s.Skipped), s.Corrections, len(s.Manual)))

	choice, err := c.choose("Would you like to review the changes before export?",
		"Proceed to export", "Review detailed changes", "Cancel export")
	if err != nil {
		return false, err
	}
	switch choice {
	case 0:
		return true, nil
	case 2:
		c.printf("Export cancelled.\n")
		return false, nil
	}

	c.printf("\nCorrections by type:\n")
	w := c.table()
	for _, typ := range sortedKeys(s.Stats.ByType) {
		fmt.Fprintf(w, "  %s\t%d\n", typ, s.Stats.ByType[typ])
	}
	w.Flush()

	if len(s.Manual) > 0 {
		c.printf("\nManual corrections:\n")
		w = c.table()
		fmt.Fprintln(w, "  Row\tField\tOriginal\tCorrected")
		for _, m := range s.Manual {
			fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", m.RowIndex+2, m.Field, truncate(m.Original, cellWidth), truncate(m.Corrected, cellWidth))
		}
		w.Flush()
	}
	if len(s.Skipped) > 0 {
		c.printf("\nSkipped rows:\n")
		w = c.table()
		for _, sk := range s.Skipped {
			fmt.Fprintf(w, "  %d\t%s\t%s\n", sk.RowIndex+2, sk.Name, sk.Reason)
		}
		w.Flush()
	}

	ok, err := c.confirm("Proceed with export?", true)
	if err == nil && !ok {
		c.printf("Export cancelled.\n")
	}
	return ok, err
}

// Summary prints the end-of-run report.
func (c *Console) Summary(r *converter.Result) {
	c.panel("Processing Complete", "")
	w := c.table()
	fmt.Fprintf(w, "  Total rows processed\t%d\n", r.TotalRows)
	fmt.Fprintf(w, "  Rows written\t%d\n", len(r.Rows))
	fmt.Fprintf(w, "  Rows skipped\t%d\n", len(r.Skipped))
	fmt.Fprintf(w, "  Corrections applied\t%d\n", r.Stats.Total)
	fmt.Fprintf(w, "  CSV comma repairs\t%d\n", r.CSVRepairs)
	fmt.Fprintf(w, "  Manual corrections\t%d\n", len(r.Manual))
	w.Flush()

	if len(r.Skipped) > 0 {
		rows := make([]string, len(r.Skipped))
		for i, sk := range r.Skipped {
			rows[i] = strconv.Itoa(sk.RowIndex + 2)
		}
		c.printf("\nSkipped rows: %s\n", strings.Join(rows, ", "))
	}
}

// printCorrections lists records grouped by type, MaxExamplesPerType each.
func (c *Console) printCorrections(records []types.CorrectionRecord) {
	byType := make(map[string][]types.CorrectionRecord)
	for _, rec := range records {
		byType[rec.Type] = append(byType[rec.Type], rec)
	}

	for _, typ := range sortedKeys(byType) {
		list := byType[typ]
		c.printf("%s (%d corrections)\n", utils.TypeLabel(typ), len(list))
		w := c.table()
		fmt.Fprintln(w, "  Row\tField\tOriginal\tCorrected")
		for i, rec := range list {
			if i == MaxExamplesPerType {
				fmt.Fprintf(w, "  ...\t(%d more)\t\t\n", len(list)-MaxExamplesPerType)
				break
			}
			fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", rec.RowIndex+2, rec.Field,
				truncate(rec.Original, cellWidth), truncate(rec.Corrected, cellWidth))
		}
		w.Flush()
		c.printf("\n")
	}
}

// =============================================================================
// INPUT PRIMITIVES
// =============================================================================

// readLine returns the next line without its terminator. End of input with
// nothing read is an abort.
func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", types.ErrAborted
		}
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ask reads a free-text answer. An empty line returns def.
func (c *Console) ask(question, def string) (string, error) {
	if def != "" {
		c.printf("%s [%s]: ", question, def)
	} else {
		c.printf("%s: ", question)
	}
	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	if v := strings.TrimSpace(line); v != "" {
		return v, nil
	}
	return def, nil
}

// confirm reads a yes/no answer.
func (c *Console) confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		c.printf("%s [%s]: ", question, hint)
		line, err := c.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		case "q":
			return false, types.ErrAborted
		}
	}
}

// choose prints a numbered menu and returns the 0-based choice.
func (c *Console) choose(question string, options ...string) (int, error) {
	c.printf("%s\n", question)
	for i, o := range options {
		c.printf("  %d) %s\n", i+1, o)
	}
	for {
		c.printf("> ")
		line, err := c.readLine()
		if err != nil {
			return 0, err
		}
		v := strings.TrimSpace(line)
		if strings.EqualFold(v, "q") {
			return 0, types.ErrAborted
		}
		n, err := strconv.Atoi(v)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		c.printf("Please enter a number from 1 to %d.\n", len(options))
	}
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) panel(title, body string) {
	rule := strings.Repeat("=", 60)
	c.printf("\n%s\n%s\n", rule, title)
	if body != "" {
		c.printf("\n%s\n", body)
	}
	c.printf("%s\n\n", rule)
}

func (c *Console) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func orEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
