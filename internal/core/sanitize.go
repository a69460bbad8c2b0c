package core

// sanitize.go renders cell values as SQL literals for a VALUES clause.
//
// SanitizeValue is strict: a value that does not fit the target type is a
// *SanitizeError. SafeSanitizeValue adds injection screening and degrades
// every failure to NULL with a warning.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NullLiteral is the SQL keyword emitted for empty values.
const NullLiteral = "NULL"

// SanitizeErrorKind names why a value could not be rendered.
type SanitizeErrorKind string

const (
	InvalidIntegerValue  SanitizeErrorKind = "InvalidIntegerValue"
	InvalidNumericValue  SanitizeErrorKind = "InvalidNumericValue"
	InvalidBooleanValue  SanitizeErrorKind = "InvalidBooleanValue"
	InvalidDateValue     SanitizeErrorKind = "InvalidDateValue"
	InvalidDatetimeValue SanitizeErrorKind = "InvalidDatetimeValue"
	InvalidTimeValue     SanitizeErrorKind = "InvalidTimeValue"
	InvalidJsonValue     SanitizeErrorKind = "InvalidJsonValue"
	InvalidUuidFormat    SanitizeErrorKind = "InvalidUuidFormat"
)

var sanitizeMessages = map[SanitizeErrorKind]string{
	InvalidIntegerValue:  "Invalid integer value",
	InvalidNumericValue:  "Invalid numeric value",
	InvalidBooleanValue:  "Invalid boolean value",
	InvalidDateValue:     "Invalid date value",
	InvalidDatetimeValue: "Invalid datetime value",
	InvalidTimeValue:     "Invalid time value",
	InvalidJsonValue:     "Invalid JSON value",
	InvalidUuidFormat:    "Invalid UUID format",
}

// SanitizeError reports a value that does not fit its target type.
type SanitizeError struct {
	Kind  SanitizeErrorKind
	Value string
}

func (e *SanitizeError) Error() string {
	return sanitizeMessages[e.Kind] + ": " + e.Value
}

// Is matches another *SanitizeError of the same kind, so callers can test
// errors.Is(err, &SanitizeError{Kind: InvalidDateValue}).
func (e *SanitizeError) Is(target error) bool {
	var t *SanitizeError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Value == "" || t.Value == e.Value)
}

func sanitizeErr(kind SanitizeErrorKind, v CellValue) error {
	return &SanitizeError{Kind: kind, Value: v.String()}
}

// Dialect selects identifier quoting.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgresql"
)

// ErrUnknownDialect is returned by ParseDialect.
var ErrUnknownDialect = errors.New("unknown SQL dialect")

// ParseDialect accepts the common spellings of the supported dialects.
// The empty string is MySQL.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgresql", "postgres", "pg":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDialect, s)
}

var (
	uuidRe       = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	strictTimeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`)
	identCharRe  = regexp.MustCompile(`[^a-zA-Z0-9_]`)
)

// SanitizeValue renders v as a literal for a column of type t.
// Null cells and the empty string render as NULL for every type.
func SanitizeValue(v CellValue, t TypeInfo) (string, error) {
	if v.IsNull() {
		return NullLiteral, nil
	}
	if s, ok := v.AsText(); ok && s == "" {
		return NullLiteral, nil
	}

	switch t.Family {
	case FamilyInteger:
		num, ok := cellNumber(v)
		if !ok {
			return "", sanitizeErr(InvalidIntegerValue, v)
		}
		return formatNumber(math.Trunc(num)), nil

	case FamilyDecimal:
		num, ok := cellNumber(v)
		if !ok {
			return "", sanitizeErr(InvalidNumericValue, v)
		}
		return formatNumber(num), nil

	case FamilyBoolean:
		return sanitizeBoolean(v)

	case FamilyDate:
		d, ok := cellTime(v)
		if !ok {
			return "", sanitizeErr(InvalidDateValue, v)
		}
		return quote(d.Format(dateLayout)), nil

	case FamilyDateTime:
		d, ok := cellTime(v)
		if !ok {
			return "", sanitizeErr(InvalidDatetimeValue, v)
		}
		return quote(d.Format(dateTimeLayout)), nil

	case FamilyTime:
		s := v.String()
		if strictTimeRe.MatchString(s) {
			return quote(s), nil
		}
		d, ok := cellTime(v)
		if !ok {
			return "", sanitizeErr(InvalidTimeValue, v)
		}
		return quote(d.Format(timeLayout)), nil

	case FamilyJSON:
		s, ok := v.AsText()
		if !ok {
			b, err := json.Marshal(v)
			if err != nil {
				return "", sanitizeErr(InvalidJsonValue, v)
			}
			s = string(b)
		}
		return quote(strings.ReplaceAll(s, "'", "''")), nil

	case FamilyUUID:
		s := v.String()
		if !uuidRe.MatchString(s) {
			return "", sanitizeErr(InvalidUuidFormat, v)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return "", sanitizeErr(InvalidUuidFormat, v)
		}
		return quote(id.String()), nil
	}

	return EscapeString(v.String()), nil
}

func sanitizeBoolean(v CellValue) (string, error) {
	switch v.Kind() {
	case KindBool:
		if b, _ := v.AsBool(); b {
			return "1", nil
		}
		return "0", nil
	case KindNumber:
		switch n, _ := v.AsNumber(); n {
		case 1:
			return "1", nil
		case 0:
			return "0", nil
		}
	case KindText:
		switch s, _ := v.AsText(); s {
		case "1", "true", "TRUE":
			return "1", nil
		case "0", "false", "FALSE":
			return "0", nil
		}
	}
	return "", sanitizeErr(InvalidBooleanValue, v)
}

// cellTime reads a date or timestamp. Numbers are spreadsheet serials,
// text goes through the date-time then calendar-date parsers.
func cellTime(v CellValue) (time.Time, bool) {
	switch v.Kind() {
	case KindNumber:
		return ParseExcelDate(v)
	case KindText:
		s, _ := v.AsText()
		return ParseDateTime(s)
	}
	return time.Time{}, false
}

func quote(s string) string {
	return "'" + s + "'"
}

var stringEscaper = strings.NewReplacer(
	"'", "''",
	`\`, `\\`,
	"\x00", "",
	"\r", `\r`,
	"\n", `\n`,
	"\t", `\t`,
)

// EscapeString quotes s as a SQL string literal. Single quotes are doubled,
// backslashes escaped, NUL bytes dropped, and CR, LF and TAB written as
// two-character escapes.
func EscapeString(s string) string {
	return quote(stringEscaper.Replace(s))
}

// SanitizeIdentifier strips everything outside [A-Za-z0-9_] and quotes the
// result for the dialect: backticks for MySQL, double quotes for PostgreSQL.
func SanitizeIdentifier(name string, d Dialect) string {
	cleaned := identCharRe.ReplaceAllString(name, "")
	if cleaned != name {
		slog.Debug("identifier sanitized", "from", name, "to", cleaned)
	}
	if d == DialectPostgres {
		return `"` + cleaned + `"`
	}
	return "`" + cleaned + "`"
}

// SanitizeRow renders a row against a parallel list of column types.
func SanitizeRow(row []CellValue, types []TypeInfo) ([]string, error) {
	if len(row) != len(types) {
		return nil, fmt.Errorf("row length (%d) does not match field types length (%d)", len(row), len(types))
	}
	out := make([]string, len(row))
	for i, v := range row {
		lit, err := SanitizeValue(v, types[i])
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		out[i] = lit
	}
	return out, nil
}

// SanitizeChecked screens text cells for injection patterns before
// rendering. It returns ErrInjectionDetected or a *SanitizeError.
func SanitizeChecked(v CellValue, t TypeInfo) (string, error) {
	if DetectSQLInjection(v) {
		return "", ErrInjectionDetected
	}
	return SanitizeValue(v, t)
}

// SafeSanitizeValue never fails. Suspicious or unrenderable values become
// NULL with Safe=false and a warning explaining why.
func SafeSanitizeValue(v CellValue, t TypeInfo) SanitizedValue {
	lit, err := SanitizeChecked(v, t)
	if err != nil {
		return SanitizedValue{Literal: NullLiteral, Warning: sanitizeWarning(err)}
	}
	return SanitizedValue{Literal: lit, Safe: true}
}

func sanitizeWarning(err error) string {
	if errors.Is(err, ErrInjectionDetected) {
		return injectionWarning
	}
	return err.Error()
}
