package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellKind tags the variant held by a CellValue.
type CellKind uint8

const (
	KindNull CellKind = iota
	KindText
	KindNumber
	KindBool
)

// CellValue is the content of one spreadsheet cell: null, text, number or bool.
// The zero value is Null.
type CellValue struct {
	kind CellKind
	text string
	num  float64
	b    bool
}

// Null returns the empty cell.
func Null() CellValue { return CellValue{} }

// Text wraps a string cell.
func Text(s string) CellValue { return CellValue{kind: KindText, text: s} }

// Number wraps a numeric cell.
func Number(f float64) CellValue { return CellValue{kind: KindNumber, num: f} }

// Bool wraps a boolean cell.
func Bool(b bool) CellValue { return CellValue{kind: KindBool, b: b} }

// Kind reports the variant.
func (c CellValue) Kind() CellKind { return c.kind }

// IsNull reports whether the cell holds no value at all.
func (c CellValue) IsNull() bool { return c.kind == KindNull }

// IsEmpty reports whether the cell counts as NULL for constraint checks:
// null, or text that is blank after trimming.
func (c CellValue) IsEmpty() bool {
	switch c.kind {
	case KindNull:
		return true
	case KindText:
		return strings.TrimSpace(c.text) == ""
	default:
		return false
	}
}

// AsText returns the raw string for text cells.
func (c CellValue) AsText() (string, bool) {
	return c.text, c.kind == KindText
}

// AsNumber returns the float for number cells.
func (c CellValue) AsNumber() (float64, bool) {
	return c.num, c.kind == KindNumber
}

// AsBool returns the bool for bool cells.
func (c CellValue) AsBool() (bool, bool) {
	return c.b, c.kind == KindBool
}

// String renders the display form: "" for null, the text unchanged,
// the shortest round-trip form for numbers, and "true"/"false".
func (c CellValue) String() string {
	switch c.kind {
	case KindText:
		return c.text
	case KindNumber:
		return formatNumber(c.num)
	case KindBool:
		return strconv.FormatBool(c.b)
	default:
		return ""
	}
}

// GoString is used by %#v in test output.
func (c CellValue) GoString() string {
	switch c.kind {
	case KindText:
		return fmt.Sprintf("Text(%q)", c.text)
	case KindNumber:
		return fmt.Sprintf("Number(%s)", formatNumber(c.num))
	case KindBool:
		return fmt.Sprintf("Bool(%t)", c.b)
	default:
		return "Null()"
	}
}

// MarshalJSON encodes the cell as a JSON scalar.
func (c CellValue) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindText:
		return json.Marshal(c.text)
	case KindNumber:
		if math.IsNaN(c.num) || math.IsInf(c.num, 0) {
			return nil, fmt.Errorf("cell: cannot encode non-finite number %v", c.num)
		}
		return json.Marshal(c.num)
	case KindBool:
		return json.Marshal(c.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar. Arrays and objects are rejected.
func (c *CellValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := CellFromAny(raw)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// CellFromAny converts a decoded scalar (from JSON, YAML or a CSV parser)
// into a CellValue.
func CellFromAny(v any) (CellValue, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case CellValue:
		return t, nil
	case string:
		return Text(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Null(), fmt.Errorf("cell: invalid number %q: %w", t, err)
		}
		return Number(f), nil
	default:
		return Null(), fmt.Errorf("cell: unsupported value type %T", v)
	}
}

// formatNumber renders a float the way spreadsheet exports and JSON do:
// integers without a decimal point, otherwise the shortest round-trip form.
// Magnitudes at or beyond 1e21 use exponent notation.
func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// 1e-07 -> 1e-7
		if i := strings.IndexAny(s, "e"); i >= 0 && i+2 < len(s) && s[i+2] == '0' {
			s = s[:i+2] + strings.TrimLeft(s[i+2:], "0")
		}
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseNumber parses a trimmed decimal or exponent literal. Non-finite
// results are rejected so that "NaN" and "Inf" never pass as numbers.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// cellNumber coerces a cell to a number: numbers pass through, bools become
// 1/0, text is parsed.
func cellNumber(c CellValue) (float64, bool) {
	switch c.kind {
	case KindNumber:
		if math.IsNaN(c.num) || math.IsInf(c.num, 0) {
			return 0, false
		}
		return c.num, true
	case KindBool:
		if c.b {
			return 1, true
		}
		return 0, true
	case KindText:
		return parseNumber(c.text)
	default:
		return 0, false
	}
}
