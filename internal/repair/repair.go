// =============================================================================
// Sport Passport Converter - Column-Count Repairer
// =============================================================================
//
// Delimited exports frequently contain free-text cells (medical notes) with
// unescaped commas. Such a row arrives with more cells than the header row.
// The repairer merges the stray cells back into the free-text column, but
// only when the result is plausible:
//
//   1. the repaired row has exactly the expected number of cells
//   2. the cell right after the merged column is empty or looks like the
//      start of an address (the column that follows medical conditions)
//
// Rows with too few cells are never repaired automatically.
//
// =============================================================================

package repair

import (
	"regexp"
	"strings"

	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
	"github.com/ginjaninja78/sport-passport-converter/internal/types"
)

// MergeSeparator joins merged cells back into one value.
const MergeSeparator = ", "

// addressShapes are matched against the lower-cased, trimmed cell that
// follows the merged free-text column.
var addressShapes = []*regexp.Regexp{
	regexp.MustCompile(`^\d+\s+\w+`),
	regexp.MustCompile(`^\w+\s+\w+\s+(road|street|lane|avenue|drive|close|way|court)`),
	regexp.MustCompile(`^flat\s+\d+`),
	regexp.MustCompile(`^unit\s+\d+`),
}

// Repairer checks and repairs rows for one header layout.
type Repairer struct {
	expected      int
	freeTextIndex int
}

// New creates a repairer for rows that should have expected cells, with the
// free-text column at freeTextIndex. A negative index disables automatic
// repair; mismatches are still detected.
func New(expected, freeTextIndex int) *Repairer {
	return &Repairer{expected: expected, freeTextIndex: freeTextIndex}
}

// ForSchema creates a repairer for input laid out exactly like the schema.
func ForSchema(s *schema.Schema) *Repairer {
	return New(s.Len(), s.FreeTextIndex())
}

// Expected returns the expected cell count.
func (r *Repairer) Expected() int {
	return r.expected
}

// CheckColumnCount returns a mismatch when cells does not have the expected
// length, or nil.
func (r *Repairer) CheckColumnCount(rowIndex int, cells []string) *types.ColumnMismatch {
	if len(cells) == r.expected {
		return nil
	}
	return &types.ColumnMismatch{
		RowIndex: rowIndex,
		Cells:    cells,
		Expected: r.expected,
		Actual:   len(cells),
	}
}

// AttemptRepair merges the surplus cells into the free-text column. It
// returns nil when the row is short, when repair is disabled, when the
// free-text column is the last one, or when the cell after the merge is
// neither empty nor address-like.
func (r *Repairer) AttemptRepair(m types.ColumnMismatch) []string {
	extra := m.ExtraColumns()
	if extra <= 0 || r.freeTextIndex < 0 {
		return nil
	}

	repaired, ok := r.merge(m, strings.Join(mergeSpan(m.Cells, r.freeTextIndex, extra), MergeSeparator))
	if !ok {
		return nil
	}

	// With nothing after the free-text column there is no cell to check,
	// so the merge is left to the operator.
	next := r.freeTextIndex + 1
	if next >= len(repaired) || !LooksLikeAddressOrEmpty(repaired[next]) {
		return nil
	}
	return repaired
}

// SuggestedMerge is the value AttemptRepair would place in the free-text
// column. It is offered to the operator as the starting point for a manual
// merge. Empty when no merge is possible.
func (r *Repairer) SuggestedMerge(m types.ColumnMismatch) string {
	extra := m.ExtraColumns()
	if extra <= 0 || r.freeTextIndex < 0 {
		return ""
	}
	return strings.Join(mergeSpan(m.Cells, r.freeTextIndex, extra), MergeSeparator)
}

// MergeAt replaces the surplus span with an operator-supplied value. The
// second result is false when the outcome still has the wrong length.
func (r *Repairer) MergeAt(m types.ColumnMismatch, value string) ([]string, bool) {
	if m.ExtraColumns() <= 0 || r.freeTextIndex < 0 {
		return nil, false
	}
	return r.merge(m, value)
}

func (r *Repairer) merge(m types.ColumnMismatch, value string) ([]string, bool) {
	extra := m.ExtraColumns()
	end := r.freeTextIndex + extra + 1
	if end > len(m.Cells) {
		return nil, false
	}

	repaired := make([]string, 0, r.expected)
	repaired = append(repaired, m.Cells[:r.freeTextIndex]...)
	repaired = append(repaired, value)
	repaired = append(repaired, m.Cells[end:]...)
	if len(repaired) != r.expected {
		return nil, false
	}
	return repaired, true
}

func mergeSpan(cells []string, start, extra int) []string {
	end := start + extra + 1
	if start >= len(cells) {
		return nil
	}
	if end > len(cells) {
		end = len(cells)
	}
	return cells[start:end]
}

// LooksLikeAddressOrEmpty reports whether a cell could be the first address
// line.
func LooksLikeAddressOrEmpty(cell string) bool {
	v := strings.ToLower(strings.TrimSpace(cell))
	if v == "" {
		return true
	}
	for _, re := range addressShapes {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}
