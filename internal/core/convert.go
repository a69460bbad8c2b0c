package core

// convert.go turns pipeline cells into pgx values for COPY.
//
// The same coercion rules as the SQL literal sanitizer apply, so a cell
// that renders as a literal also converts here. Empty cells become nil,
// which COPY writes as NULL.

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ToPgValue converts v for a column of type t. It fails with the same
// *SanitizeError kinds as SanitizeValue.
func ToPgValue(v CellValue, t TypeInfo) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if s, ok := v.AsText(); ok && s == "" {
		return nil, nil
	}

	switch t.Family {
	case FamilyInteger:
		num, ok := cellNumber(v)
		if !ok || math.Abs(num) >= math.MaxInt64 {
			return nil, sanitizeErr(InvalidIntegerValue, v)
		}
		return pgtype.Int8{Int64: int64(math.Trunc(num)), Valid: true}, nil

	case FamilyDecimal:
		num, ok := cellNumber(v)
		if !ok {
			return nil, sanitizeErr(InvalidNumericValue, v)
		}
		var n pgtype.Numeric
		if err := n.Scan(strconv.FormatFloat(num, 'f', -1, 64)); err != nil {
			return nil, sanitizeErr(InvalidNumericValue, v)
		}
		return n, nil

	case FamilyBoolean:
		lit, err := sanitizeBoolean(v)
		if err != nil {
			return nil, err
		}
		return pgtype.Bool{Bool: lit == "1", Valid: true}, nil

	case FamilyDate:
		d, ok := cellTime(v)
		if !ok {
			return nil, sanitizeErr(InvalidDateValue, v)
		}
		return pgtype.Date{Time: truncateDay(d), Valid: true}, nil

	case FamilyDateTime:
		d, ok := cellTime(v)
		if !ok {
			return nil, sanitizeErr(InvalidDatetimeValue, v)
		}
		return pgtype.Timestamp{Time: d.Truncate(time.Second), Valid: true}, nil

	case FamilyTime:
		us, ok := timeOfDay(v)
		if !ok {
			return nil, sanitizeErr(InvalidTimeValue, v)
		}
		return pgtype.Time{Microseconds: us, Valid: true}, nil

	case FamilyJSON:
		if s, ok := v.AsText(); ok {
			return s, nil
		}
		b, err := v.MarshalJSON()
		if err != nil {
			return nil, sanitizeErr(InvalidJsonValue, v)
		}
		return string(b), nil

	case FamilyUUID:
		s := v.String()
		if !uuidRe.MatchString(s) {
			return nil, sanitizeErr(InvalidUuidFormat, v)
		}
		return ToPgUUID(s), nil
	}

	return pgtype.Text{String: v.String(), Valid: true}, nil
}

// ToPgRow converts one output row using parallel column types.
func ToPgRow(cells []CellValue, types []TypeInfo) ([]any, error) {
	out := make([]any, len(cells))
	for i, c := range cells {
		pv, err := ToPgValue(c, types[i])
		if err != nil {
			return nil, err
		}
		out[i] = pv
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// timeOfDay reads HH:MM:SS directly, otherwise the clock part of any
// parseable date or timestamp.
func timeOfDay(v CellValue) (int64, bool) {
	s := v.String()
	if m := strictTimeRe.FindStringSubmatch(s); m != nil {
		h, mi, sec := atoi(m[1]), atoi(m[2]), atoi(m[3])
		return int64(h*3600+mi*60+sec) * 1e6, true
	}
	d, ok := cellTime(v)
	if !ok {
		return 0, false
	}
	return int64(d.Hour()*3600+d.Minute()*60+d.Second()) * 1e6, true
}

// ToPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// CleanCell removes spreadsheet export artifacts from a raw CSV cell:
// surrounding whitespace, a leading byte order mark, the ="..." formula
// wrapper and stray surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}
