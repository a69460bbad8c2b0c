package core

// dates.go parses the date shapes found in spreadsheet exports.
//
// All results are in UTC; spreadsheet values carry no zone.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
	timeLayout     = "15:04:05"

	// Serial-date bounds. Integers in [yearMin, yearMax] are read as bare
	// years before the serial interpretation is considered.
	yearMin        = 1900
	yearMax        = 2100
	serialMin      = 1
	serialMaxExcl  = 100000
	fakeLeapSerial = 60
)

var (
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})`)
	dashDateRe  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})`)
	bareYearRe  = regexp.MustCompile(`^\d{4,6}$`)

	// leadingFloatRe matches the longest numeric prefix ("1.5kg" -> 1.5).
	leadingFloatRe = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

	serialEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

	// naturalLayouts is the fallback for free-form dates.
	naturalLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006/01/02",
		"2006.01.02",
		"January 2, 2006",
		"January 2 2006",
		"Jan 2, 2006",
		"Jan 2 2006",
		"2 January 2006",
		"2 Jan 2006",
		"02 Jan 2006",
		"Mon, 02 Jan 2006 15:04:05 MST",
		"Mon, 02 Jan 2006",
		"Monday, January 2, 2006",
		"January 2006",
		"Jan 2006",
		"20060102",
	}

	// dateTimeLayouts carry a time-of-day and are tried before smart dates.
	dateTimeLayouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.999999999",
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006/01/02 15:04:05",
		time.RFC1123,
		time.RFC1123Z,
	}
)

// ParseSmartDate parses a calendar date. It tries, in order: ISO YYYY-MM-DD
// (prefix), DD/MM/YYYY falling back to MM/DD/YYYY, DD-MM-YYYY, and a set of
// natural-language layouts. The result is midnight UTC.
func ParseSmartDate(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return exactDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}

	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		first, second, y := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if t, ok := exactDate(y, second, first); ok {
			return t, true
		}
		if t, ok := exactDate(y, first, second); ok {
			return t, true
		}
		return time.Time{}, false
	}

	if m := dashDateRe.FindStringSubmatch(s); m != nil {
		return exactDate(atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}

	for _, layout := range naturalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseDateTime parses a value that may carry a time of day. Values without
// one fall back to ParseSmartDate at midnight.
func ParseDateTime(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return ParseSmartDate(s)
}

// ParseExcelDate decodes a spreadsheet serial date.
//
// Integers in [1900, 2100] are bare years and yield January 1st of that
// year. Text must parse as a whole number literal, so "2023-01-15" is not
// a serial. Other values in [1, 100000) are day counts from 1900-01-01, where
// serial 1 is the epoch itself and serials after 60 skip the fictitious
// 1900-02-29 that the legacy format counts. Fractional days become the
// time of day.
func ParseExcelDate(v CellValue) (time.Time, bool) {
	if v.Kind() == KindBool {
		return time.Time{}, false
	}
	num, ok := cellNumber(v)
	if !ok {
		return time.Time{}, false
	}

	if num >= yearMin && num <= yearMax && num == math.Trunc(num) {
		return time.Date(int(num), time.January, 1, 0, 0, 0, 0, time.UTC), true
	}

	if num < serialMin || num >= serialMaxExcl {
		return time.Time{}, false
	}

	days := num - 1
	if num > fakeLeapSerial {
		days = num - 2
	}
	ms := int64(math.Trunc(days * float64(24*time.Hour/time.Millisecond)))
	return serialEpoch.Add(time.Duration(ms) * time.Millisecond), true
}

// IsYearValue reports whether v is an integer in the bare-year range.
func IsYearValue(v CellValue) bool {
	if v.Kind() == KindBool {
		return false
	}
	num, ok := cellNumber(v)
	return ok && num >= yearMin && num <= yearMax && num == math.Trunc(num)
}

// HasYearOnlyValues reports whether at least half of the first ten non-null
// samples look like bare years.
func HasYearOnlyValues(values []CellValue) bool {
	sample := sampleValues(values, suggestionSampleSize)
	if len(sample) == 0 {
		return false
	}
	years := 0
	for _, v := range sample {
		if IsYearValue(v) {
			years++
		}
	}
	return float64(years) >= float64(len(sample))/2
}

// FormatDateISO renders YYYY-MM-DD.
func FormatDateISO(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// FormatDateTimeISO renders YYYY-MM-DD HH:MM:SS.
func FormatDateTimeISO(t time.Time) string {
	return t.UTC().Format(dateTimeLayout)
}

// parseBareYear reads a plain run of 4 to 6 digits as a year. Serial and
// calendar readings take precedence; this only catches what they reject.
func parseBareYear(s string) (int, bool) {
	if !bareYearRe.MatchString(s) {
		return 0, false
	}
	return atoi(s), true
}

// exactDate builds a date only when day and month are in range for the year.
func exactDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// parseFloatPrefix reads the leading numeric literal of s, ignoring any
// trailing garbage. Leading whitespace is skipped.
func parseFloatPrefix(s string) (float64, bool) {
	m := leadingFloatRe.FindString(strings.TrimLeft(s, " \t\r\n"))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
