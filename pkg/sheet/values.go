package sheet

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ISODate is the stored completion_date layout.
const ISODate = "2006-01-02"

// Month-first, like the US-formatted exports the dashboard receives.
var dateLayouts = []string{
	ISODate,
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1-2-2006",
	"01.02.2006",
	"1/2/06",
	"01/02/06",
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"2-Jan-06",
	"02 Jan 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"Mon, 02 Jan 2006",
	"20060102",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

// trailing clock time with optional meridiem and zone, e.g. " 10:30:00 PM +05:30"
var timeSuffix = regexp.MustCompile(`(?i)[\sT]+\d{1,2}:\d{2}(:\d{2}(\.\d+)?)?\s*(am|pm)?\s*(z|utc|gmt|[a-z]{3,4}|[+-]\d{2}:?\d{2})?$`)

// Excel serials outside this range are not plausible completion dates.
// The floor is 1970-01-01, so bare years and small counts are not read as
// days since 1900.
const (
	minExcelSerial = 25569
	maxExcelSerial = 2958465
)

// NormalizeDate converts a cell to YYYY-MM-DD. Text dates in the common
// layouts are accepted, with or without a trailing time of day or zone, as
// are Excel serial day numbers.
func NormalizeDate(raw string, date1904 bool) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	candidates := []string{raw}
	if stripped := strings.TrimSpace(timeSuffix.ReplaceAllString(raw, "")); stripped != raw && stripped != "" {
		candidates = append(candidates, stripped)
	}
	if i := strings.IndexAny(raw, "T "); i > 0 {
		candidates = append(candidates, raw[:i])
	}
	for _, c := range candidates {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				return t.Format(ISODate), true
			}
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial >= minExcelSerial && serial <= maxExcelSerial {
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err == nil {
			return t.Format(ISODate), true
		}
	}
	return "", false
}

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// CleanNumber parses currency-like text such as "$1,234.50" or "₹ 2,000".
// Thousands separators, currency symbols and other decoration are dropped
// before conversion. ok is false when nothing numeric remains.
func CleanNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	s = nonNumeric.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// CleanInt is CleanNumber rounded to the nearest integer.
func CleanInt(raw string) (int, bool) {
	v, ok := CleanNumber(raw)
	if !ok {
		return 0, false
	}
	return int(math.Round(v)), true
}
