package core

// validation.go checks cell values against the declared type of their
// target field.
//
// ValidateCell never fails: every outcome is a ValidationFinding. Findings
// with severity error make the row invalid; warnings are advisory and may
// carry Valid=false (the value will be altered on insert) or Valid=true
// (the value is stored as-is but looks suspicious).

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	booleanWords = []string{"true", "false", "1", "0", "yes", "no", "y", "n", "t", "f", "on", "off"}

	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidateCell validates one value against its target field. It is a pure
// function of its arguments.
func ValidateCell(value CellValue, field FieldDescriptor, row, col int) ValidationFinding {
	t := field.Type()
	base := ValidationFinding{
		RowIndex:    row,
		ColumnIndex: col,
		FieldName:   field.Name,
		Value:       value,
		Valid:       true,
		Severity:    SeveritySuccess,
	}

	if value.IsEmpty() {
		switch {
		case field.Nullable:
			return base.with(true, SeverityInfo, "NULL value", "")
		case t.Class == ClassDateTime:
			return base.with(true, SeverityWarning,
				fmt.Sprintf("Field %q is NOT NULL but value is NULL", field.Name),
				"Database must accept NULL dates")
		default:
			return base.with(false, SeverityError,
				fmt.Sprintf("Field %q cannot be NULL", field.Name),
				"Provide a value for this required field")
		}
	}

	switch t.Class {
	case ClassNumeric:
		return validateNumeric(value, t, base)
	case ClassBoolean:
		return validateBoolean(value, base)
	case ClassDateTime:
		return validateDateTime(value, base)
	case ClassString:
		return validateString(value, field, t, base)
	}
	return base
}

func (f ValidationFinding) with(valid bool, sev Severity, msg, suggestion string) ValidationFinding {
	f.Valid = valid
	f.Severity = sev
	f.Message = msg
	f.Suggestion = suggestion
	return f
}

func validateNumeric(value CellValue, t TypeInfo, base ValidationFinding) ValidationFinding {
	raw := strings.TrimSpace(value.String())
	num, ok := value.AsNumber()
	if !ok {
		num, ok = parseNumber(raw)
	}
	if !ok || math.IsNaN(num) || math.IsInf(num, 0) {
		return base.with(false, SeverityError,
			fmt.Sprintf("Expected number, got %q", raw),
			"Provide a valid numeric value")
	}

	if t.Integer {
		if num != math.Trunc(num) {
			return base.with(false, SeverityWarning,
				"Value will be rounded to integer",
				formatNumber(roundHalfUp(num)))
		}
		if t.Bounded && (num < t.MinValue || num > t.MaxValue) {
			name := "TINYINT"
			if strings.Contains(t.Lower, "smallint") {
				name = "SMALLINT"
			}
			return base.with(false, SeverityError,
				fmt.Sprintf("%s range is %s to %s, got %s", name,
					formatNumber(t.MinValue), formatNumber(t.MaxValue), formatNumber(num)),
				"Use a value within the valid range")
		}
	}

	if t.HasPrecision {
		intDigits, fracDigits := digitCounts(num)
		if intDigits+fracDigits > t.Precision {
			return base.with(false, SeverityWarning,
				fmt.Sprintf("Value exceeds precision %d", t.Precision),
				"Value will be truncated")
		}
		if fracDigits > t.Scale {
			return base.with(true, SeverityWarning,
				fmt.Sprintf("Value exceeds scale %d", t.Scale),
				"Value will be rounded")
		}
	}
	return base
}

// digitCounts splits the display form of num into integer and fractional
// digit counts. The sign is not counted.
func digitCounts(num float64) (int, int) {
	s := strings.TrimPrefix(formatNumber(num), "-")
	intPart, fracPart, _ := strings.Cut(s, ".")
	return len(intPart), len(fracPart)
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(f float64) float64 {
	return math.Floor(f + 0.5)
}

func validateBoolean(value CellValue, base ValidationFinding) ValidationFinding {
	s := strings.ToLower(strings.TrimSpace(value.String()))
	if !slices.Contains(booleanWords, s) {
		return base.with(false, SeverityError,
			fmt.Sprintf("Expected boolean value, got %q", value.String()),
			"Use: true/false, 1/0, yes/no")
	}
	return base
}

func validateDateTime(value CellValue, base ValidationFinding) ValidationFinding {
	raw := strings.TrimSpace(value.String())

	var (
		parsed bool
		year   int
	)
	if d, ok := numberDate(value); ok {
		parsed, year = true, d.Year()
	} else if d, ok := ParseSmartDate(raw); ok {
		parsed, year = true, d.Year()
	} else if d, ok := ParseDateTime(raw); ok {
		parsed, year = true, d.Year()
	} else if y, ok := parseBareYear(raw); ok {
		parsed, year = true, y
	}

	if !parsed {
		return base.with(false, SeverityError,
			fmt.Sprintf("Invalid date format: %q", raw),
			"Use format: YYYY-MM-DD or DD/MM/YYYY")
	}
	if year < yearMin || year > yearMax {
		return base.with(true, SeverityWarning,
			fmt.Sprintf("Unusual year: %d", year),
			"Verify this date is correct")
	}
	return base
}

// numberDate reads a Number cell as a serial date or bare year.
func numberDate(value CellValue) (time.Time, bool) {
	if value.Kind() != KindNumber {
		return time.Time{}, false
	}
	return ParseExcelDate(value)
}

func validateString(value CellValue, field FieldDescriptor, t TypeInfo, base ValidationFinding) ValidationFinding {
	s := value.String()

	if t.Length > 0 {
		n := utf8.RuneCountInString(s)
		if n > t.Length {
			return base.with(false, SeverityError,
				fmt.Sprintf("Length %d exceeds maximum %d", n, t.Length),
				fmt.Sprintf("Truncate to %d characters", t.Length))
		}
		if float64(n) > float64(t.Length)*0.9 {
			return base.with(true, SeverityWarning,
				fmt.Sprintf("Length %d is close to maximum %d", n, t.Length),
				"Consider using a longer field type")
		}
	}

	name := strings.ToLower(field.Name)
	if strings.Contains(name, "email") && !emailRe.MatchString(s) {
		return base.with(false, SeverityWarning,
			"Does not look like a valid email", "Check email format")
	}
	if strings.Contains(name, "url") || strings.Contains(name, "website") {
		if u, err := url.Parse(s); err != nil || u.Scheme == "" {
			return base.with(false, SeverityWarning,
				"Does not look like a valid URL", "Check URL format")
		}
	}
	return base
}

// ValidateDataset validates every mapped cell of every row. Headers without
// a mapping, and mappings to fields not in fields, are skipped.
//
// Every error or warning finding is collected. A row is valid when none of
// its findings has severity error.
func ValidateDataset(rows [][]CellValue, fields []FieldDescriptor, mapping ColumnMapping, headers []string) ValidationResult {
	byName := make(map[string]FieldDescriptor, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	res := ValidationResult{Validations: []ValidationFinding{}}
	for r, row := range rows {
		rowHasError := false
		for c, h := range headers {
			name := mapping[h]
			if name == "" {
				continue
			}
			f, ok := byName[name]
			if !ok {
				continue
			}
			var v CellValue
			if c < len(row) {
				v = row[c]
			}
			if res.record(ValidateCell(v, f, r, c)) {
				rowHasError = true
			}
		}
		if !rowHasError {
			res.ValidRowCount++
		}
	}
	return res
}

// record adds a finding that marks the value invalid and reports whether
// it was an error. Warnings on values that are still valid, such as extra
// decimal places or a length near the limit, are not collected.
func (r *ValidationResult) record(f ValidationFinding) bool {
	if f.Valid {
		return false
	}
	switch f.Severity {
	case SeverityError:
		r.Validations = append(r.Validations, f)
		r.ErrorCount++
		return true
	case SeverityWarning:
		r.Validations = append(r.Validations, f)
		r.WarningCount++
	}
	return false
}

// merge folds o into r. It is associative, so per-worker partial results
// can be combined in any grouping as long as row order is kept.
func (r *ValidationResult) merge(o ValidationResult) {
	r.Validations = append(r.Validations, o.Validations...)
	r.ErrorCount += o.ErrorCount
	r.WarningCount += o.WarningCount
	r.ValidRowCount += o.ValidRowCount
}

// HasErrors reports whether any finding has severity error.
func (r ValidationResult) HasErrors() bool {
	return r.ErrorCount > 0
}
