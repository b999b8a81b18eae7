// =============================================================================
// Sport Passport Converter - Row-Boundary Detector
// =============================================================================
//
// Spreadsheet exports often carry a title block above the real header row and
// totals, notes, or page footers below the data. This module finds both
// boundaries on the raw grid:
//
//   - DetectHeaderRow:    the first row that looks like the canonical header
//   - DetectTrailingRows: the last row that still looks like data
//
// The result is advisory. The detector never mutates the grid; the caller
// decides (usually after showing a preview) whether to apply the trim.
//
// CUSTOMIZATION:
//   - Thresholds and the summary keyword list live in Options.
//
// =============================================================================

package rowdetect

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
)

// =============================================================================
// OPTIONS
// =============================================================================

// DefaultSummaryKeywords mark a row as a summary or footer when they appear
// anywhere in the row's lowercase text.
var DefaultSummaryKeywords = []string{
	"total", "sum", "summary", "subtotal", "grand total",
	"count", "average", "avg", "mean", "maximum", "minimum",
	"note", "notes", "footer", "end of", "page", "continued",
}

// Options holds the tuned detection thresholds.
type Options struct {
	// MinHeaderMatches is how many cells must match a canonical header.
	MinHeaderMatches int

	// MinContainLen is the shortest cell/header length for which containment
	// counts as a header match.
	MinContainLen int

	// PatternScanRows is how many leading rows the fallback heuristic scans.
	PatternScanRows int

	// PatternMinCells skips fallback candidates with fewer non-empty cells.
	PatternMinCells int

	// PatternCheckCells is how many non-empty cells the fallback inspects.
	PatternCheckCells int

	// PatternRatio is the share of non-empty cells that must look like
	// headers (capped at PatternMinCells).
	PatternRatio float64

	// MinDataFill is the minimum share of non-empty cells in a data row.
	MinDataFill float64

	// NumericProbeCells is how many leading non-empty cells are probed for
	// an all-numeric summary row.
	NumericProbeCells int

	// SummaryKeywords override DefaultSummaryKeywords when non-nil.
	SummaryKeywords []string
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		MinHeaderMatches:  3,
		MinContainLen:     3,
		PatternScanRows:   20,
		PatternMinCells:   3,
		PatternCheckCells: 10,
		PatternRatio:      0.5,
		MinDataFill:       0.3,
		NumericProbeCells: 5,
		SummaryKeywords:   DefaultSummaryKeywords,
	}
}

// =============================================================================
// DETECTOR
// =============================================================================

// Detector scans raw grids for header and trailer boundaries.
type Detector struct {
	opts     Options
	expected []string
}

// New builds a detector for a set of expected header strings. Each header is
// also considered without its required marker.
func New(expectedHeaders []string, opts Options) *Detector {
	d := &Detector{opts: opts}
	for _, h := range expectedHeaders {
		d.expected = append(d.expected, strings.ToLower(strings.TrimSpace(h)))
		if strings.HasSuffix(h, schema.RequiredMarker) {
			d.expected = append(d.expected,
				strings.ToLower(strings.TrimSpace(strings.TrimRight(h, schema.RequiredMarker))))
		}
	}
	if d.opts.SummaryKeywords == nil {
		d.opts.SummaryKeywords = DefaultSummaryKeywords
	}
	return d
}

// ForSchema builds a detector for the schema's canonical headers.
func ForSchema(s *schema.Schema, opts Options) *Detector {
	return New(s.Headers(), opts)
}

// Boundaries is the detection result.
type Boundaries struct {
	// HeaderIndex is the header row; 0 when nothing was detected.
	HeaderIndex int

	// HeaderDetected reports whether a header row was positively found.
	HeaderDetected bool

	// LastValid is the last data row to keep, when TrailingDetected.
	LastValid int

	// TrailingDetected reports whether rows at the bottom should go.
	TrailingDetected bool
}

// NeedsTrim reports whether applying the boundaries would drop any row.
func (b Boundaries) NeedsTrim() bool {
	return b.HeaderIndex > 0 || b.TrailingDetected
}

// DetectRowsToRemove runs both scans. When no header is found, trailing
// detection assumes the header is row 0.
func (d *Detector) DetectRowsToRemove(rows [][]string) Boundaries {
	var b Boundaries
	b.HeaderIndex, b.HeaderDetected = d.DetectHeaderRow(rows)
	b.LastValid, b.TrailingDetected = d.DetectTrailingRows(rows, b.HeaderIndex)
	return b
}

// =============================================================================
// HEADER DETECTION
// =============================================================================

// DetectHeaderRow returns the first row index with at least MinHeaderMatches
// cells matching an expected header, falling back to a shape heuristic.
func (d *Detector) DetectHeaderRow(rows [][]string) (int, bool) {
	for i, row := range rows {
		if d.headerMatches(row) >= d.opts.MinHeaderMatches {
			return i, true
		}
	}
	return d.detectHeaderByPattern(rows)
}

func (d *Detector) headerMatches(row []string) int {
	matches := 0
	for _, cell := range row {
		v := strings.ToLower(strings.TrimSpace(cell))
		for _, exp := range d.expected {
			if v == exp {
				matches++
				break
			}
			if (strings.Contains(exp, v) || strings.Contains(v, exp)) &&
				len(v) >= d.opts.MinContainLen && len(exp) >= d.opts.MinContainLen {
				matches++
				break
			}
		}
	}
	return matches
}

var dateLike = regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2,4}$`)

// detectHeaderByPattern looks for a leading row whose cells are mostly
// title-case, upper-case, or multi-word text rather than numbers or dates.
func (d *Detector) detectHeaderByPattern(rows [][]string) (int, bool) {
	for i, row := range rows {
		if i >= d.opts.PatternScanRows {
			break
		}
		nonEmpty := nonEmptyCells(row)
		if len(nonEmpty) < d.opts.PatternMinCells {
			continue
		}

		headerLike := 0
		for j, v := range nonEmpty {
			if j >= d.opts.PatternCheckCells {
				break
			}
			if isNumeric(strings.ReplaceAll(v, ",", "")) || dateLike.MatchString(v) {
				continue
			}
			if (isTitle(v) || isUpper(v) || strings.Contains(v, " ")) && len([]rune(v)) > 2 {
				headerLike++
			}
		}

		need := float64(len(nonEmpty)) * d.opts.PatternRatio
		if float64(d.opts.PatternMinCells) < need {
			need = float64(d.opts.PatternMinCells)
		}
		if float64(headerLike) >= need {
			return i, true
		}
	}
	return 0, false
}

// =============================================================================
// TRAILING ROW DETECTION
// =============================================================================

// DetectTrailingRows walks up from the bottom, first past empty rows and then
// past rows that do not look like data. It returns the last data row and
// true, or false when nothing would be trimmed.
func (d *Detector) DetectTrailingRows(rows [][]string, headerIdx int) (int, bool) {
	if len(rows) <= headerIdx+1 {
		return 0, false
	}

	last := len(rows) - 1
	for i := len(rows) - 1; i > headerIdx; i-- {
		if !isEmptyRow(rows[i]) {
			break
		}
		last = i - 1
	}
	for i := last; i > headerIdx; i-- {
		if d.isLikelyDataRow(rows[i]) {
			break
		}
		last = i - 1
	}

	if last < len(rows)-1 {
		return last, true
	}
	return 0, false
}

var (
	nameLike   = regexp.MustCompile(`[a-zA-Z]{2,}`)
	datePrefix = regexp.MustCompile(`^\d+[/-]\d+`)
	currency   = strings.NewReplacer(",", "", "£", "", "$", "")
)

func (d *Detector) isLikelyDataRow(row []string) bool {
	if len(row) == 0 {
		return false
	}

	nonEmpty := nonEmptyCells(row)
	if float64(len(nonEmpty)) < float64(len(row))*d.opts.MinDataFill {
		return false
	}

	trimmed := make([]string, len(row))
	for i, c := range row {
		trimmed[i] = strings.TrimSpace(c)
	}
	text := strings.ToLower(strings.Join(trimmed, " "))
	for _, kw := range d.opts.SummaryKeywords {
		if strings.Contains(text, kw) {
			return false
		}
	}

	// A row whose leading cells are all numbers is a summary unless
	// something in it reads like a name.
	probe := nonEmpty
	if len(probe) > d.opts.NumericProbeCells {
		probe = probe[:d.opts.NumericProbeCells]
	}
	numeric := 0
	for _, v := range probe {
		if isNumeric(currency.Replace(v)) {
			numeric++
		}
	}
	if len(nonEmpty) >= d.opts.NumericProbeCells && numeric == len(probe) {
		for _, v := range nonEmpty {
			if nameLike.MatchString(v) && !datePrefix.MatchString(v) {
				return true
			}
		}
		return false
	}
	return true
}

// =============================================================================
// TRIM HELPERS
// =============================================================================

// PreviewSize is the maximum number of rows shown above and below the data.
const PreviewSize = 5

// Preview returns the rows a trim would remove: up to PreviewSize rows above
// the header, and the last rows below the data.
func (b Boundaries) Preview(rows [][]string) (top, bottom [][]string) {
	if b.HeaderIndex > 0 {
		n := b.HeaderIndex
		if n > PreviewSize {
			n = PreviewSize
		}
		top = rows[:n]
	}
	if b.TrailingDetected && b.LastValid < len(rows)-1 {
		start := b.LastValid + 1
		if alt := len(rows) - PreviewSize; alt > start {
			start = alt
		}
		bottom = rows[start:]
	}
	return top, bottom
}

// Apply returns the sub-grid from the header row through the last data row.
func (b Boundaries) Apply(rows [][]string) [][]string {
	end := len(rows)
	if b.TrailingDetected && b.LastValid+1 < end {
		end = b.LastValid + 1
	}
	if b.HeaderIndex >= end {
		return nil
	}
	return rows[b.HeaderIndex:end]
}

// =============================================================================
// CELL HELPERS
// =============================================================================

func nonEmptyCells(row []string) []string {
	var out []string
	for _, c := range row {
		if v := strings.TrimSpace(c); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

// isTitle reports whether every cased run starts with an upper-case letter
// followed only by lower-case letters, with at least one cased letter.
func isTitle(s string) bool {
	cased, prevCased := false, false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased, cased = true, true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased, cased = true, true
		default:
			prevCased = false
		}
	}
	return cased
}

// isUpper reports whether s has a cased letter and no lower-case ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}
