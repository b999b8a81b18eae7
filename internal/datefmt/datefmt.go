// =============================================================================
// Sport Passport Converter - Date Helpers
// =============================================================================
//
// Shared date handling for the field normaliser and validator. The output
// format is always DD/MM/YYYY. Inputs arrive as strings in several shapes:
//
//   - DD/MM/YYYY or D/M/YYYY         slash dates (UK/US ambiguity handled by
//                                     the validator)
//   - YYYY-MM-DD[ T]HH:MM:SS          date-time text from spreadsheet exports
//   - 37241                           spreadsheet serial day counts
//   - "16 Dec 2001", "16-12-2001"...  free-form, parsed day-first
//
// =============================================================================

package datefmt

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layout is the canonical output format.
const Layout = "02/01/2006"

// SerialEpoch is day zero of the spreadsheet serial-date scheme.
var SerialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// MaxSerial is the serial number of 31/12/9999.
const MaxSerial = 2958465

var (
	canonical  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	slashShape = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	isoDate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([ T]\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?)?$`)
)

// Format renders t as DD/MM/YYYY.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// IsCanonical reports whether s is already exactly DD/MM/YYYY in shape.
func IsCanonical(s string) bool {
	return canonical.MatchString(s)
}

// SlashParts splits a D/M/YYYY-shaped value into its three numbers.
func SlashParts(s string) (first, second, year int, ok bool) {
	m := slashShape.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, 0, false
	}
	first, _ = strconv.Atoi(m[1])
	second, _ = strconv.Atoi(m[2])
	year, _ = strconv.Atoi(m[3])
	return first, second, year, true
}

// PadSlash rewrites a D/M/YYYY value that reads as a real UK date into
// DD/MM/YYYY. Values that only make sense month-first are left alone.
func PadSlash(s string) (string, bool) {
	day, month, year, ok := SlashParts(s)
	if !ok || !Valid(year, month, day) {
		return "", false
	}
	return Format(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)), true
}

// Valid reports whether year/month/day names a real calendar date in
// years 1 through 9999.
func Valid(year, month, day int) bool {
	if year < 1 || year > 9999 || month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

// IsNumeric reports whether s is a finite number.
func IsNumeric(s string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// serialEpsilon absorbs float noise in serials written from date-times,
// e.g. 37240.9999999 for midnight on day 37241.
const serialEpsilon = 1e-6

// FromSerial converts a spreadsheet serial day count. The fractional part
// (time of day) is dropped.
func FromSerial(s string) (time.Time, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	days := int(math.Floor(f + serialEpsilon))
	if days < 1 || days > MaxSerial {
		return time.Time{}, false
	}
	return SerialEpoch.AddDate(0, 0, days), true
}

// FromDateTime parses ISO-style date and date-time text, as produced when a
// spreadsheet date cell is exported as text.
func FromDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if !isoDate.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// dayFirstLayouts are tried in order before falling back to dateparse.
var dayFirstLayouts = []string{
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
	"2.1.06",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2/1/06 15:04",
	"2006/1/2",
	"2006-1-2",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 06",
	"Jan 2 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon 2 Jan 2006",
	"Monday 2 January 2006",
	"Monday, 2 January 2006",
}

var dayFirstOptions = []dateparse.ParserOption{
	dateparse.PreferMonthFirst(false),
	dateparse.RetryAmbiguousDateWithSwap(true),
}

// ParseDayFirst parses free-form date text, resolving numeric ambiguity in
// favour of day-before-month. Values shaped D/M/YYYY are not handled here:
// the validator decides between UK and US readings for those. Anything the
// layouts miss goes to dateparse with day-first preferred; a value that is
// only valid month-first (12/16/2001 10:30) is read that way.
func ParseDayFirst(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || slashShape.MatchString(s) {
		return time.Time{}, false
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	t, err := dateparse.ParseAny(s, dayFirstOptions...)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
