package core

// transform.go provides the named value transforms applied to mapped columns.
//
// Each transform is a deterministic function of the cell's display string.
// Most produce text; toBoolean produces a Bool and toNumber a Number.
//
// ApplyTransformation reports failures as errors. ApplyTransformationLenient
// is the import-friendly variant that falls back to the original value.

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TransformationKind names a transform. The set is closed.
type TransformationKind string

const (
	TransformNone               TransformationKind = "none"
	TransformUppercase          TransformationKind = "uppercase"
	TransformLowercase          TransformationKind = "lowercase"
	TransformTrim               TransformationKind = "trim"
	TransformCapitalize         TransformationKind = "capitalize"
	TransformRemoveSpaces       TransformationKind = "removeSpaces"
	TransformRemoveSpecialChars TransformationKind = "removeSpecialChars"
	TransformFormatPhone        TransformationKind = "formatPhone"
	TransformFormatEmail        TransformationKind = "formatEmail"
	TransformExtractNumbers     TransformationKind = "extractNumbers"
	TransformToBoolean          TransformationKind = "toBoolean"
	TransformToNumber           TransformationKind = "toNumber"
	TransformFormatDate         TransformationKind = "formatDate"
	TransformExcelDate          TransformationKind = "excelDate"
)

// ErrUnknownTransform is returned for a kind outside the closed set.
var ErrUnknownTransform = errors.New("unknown transformation")

// TransformError wraps a failure inside a transform function.
type TransformError struct {
	Kind  TransformationKind
	Value string
	Cause error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transformation %s failed for %q: %v", e.Kind, e.Value, e.Cause)
}

func (e *TransformError) Unwrap() error { return e.Cause }

// previewStyle selects which side of a preview is quoted.
type previewStyle uint8

const (
	previewRaw previewStyle = iota
	previewQuoted
	previewQuoteInput
	previewQuoteResult
)

// Transformation describes one transform for catalog listings.
type Transformation struct {
	Kind        TransformationKind `json:"type"`
	Label       string             `json:"label"`
	Description string             `json:"description"`

	apply   func(string) CellValue
	preview previewStyle
}

// Apply runs the transform over a display string.
func (t Transformation) Apply(s string) CellValue {
	return t.apply(s)
}

// Preview renders a before/after example, e.g. `"abc" → "ABC"`.
func (t Transformation) Preview(s string) string {
	in, out := s, t.apply(s).String()
	if t.preview == previewQuoted || t.preview == previewQuoteInput {
		in = `"` + in + `"`
	}
	if t.preview == previewQuoted || t.preview == previewQuoteResult {
		out = `"` + out + `"`
	}
	return in + " → " + out
}

var (
	truthyWords = []string{"true", "yes", "y", "1", "on"}

	phoneGroupRe = regexp.MustCompile(`\d{3}[-\s.]?\d{3}[-\s.]?\d{4}`)
	numberCharRe = regexp.MustCompile(`[^\d.-]`)
)

// catalog lists every transform in display order.
var catalog = []Transformation{
	{TransformNone, "No transformation", "Use value as-is", identityText, previewRaw},
	{TransformUppercase, "UPPERCASE", "Convert to uppercase", upperText, previewQuoted},
	{TransformLowercase, "lowercase", "Convert to lowercase", lowerText, previewQuoted},
	{TransformTrim, "Trim spaces", "Remove leading and trailing spaces", trimText, previewQuoted},
	{TransformCapitalize, "Capitalize", "Capitalize first letter of each word", capitalizeText, previewQuoted},
	{TransformRemoveSpaces, "Remove all spaces", "Remove all whitespace characters", removeSpacesText, previewQuoted},
	{TransformRemoveSpecialChars, "Remove special characters", "Keep only letters, numbers, and spaces", removeSpecialText, previewQuoted},
	{TransformFormatPhone, "Format phone", "Extract only digits from phone number", digitsText, previewQuoted},
	{TransformFormatEmail, "Format email", "Convert to lowercase and trim", emailText, previewQuoted},
	{TransformExtractNumbers, "Extract numbers", "Extract only numeric characters", digitsText, previewQuoted},
	{TransformToBoolean, "To boolean", "Convert to true/false (yes/no, 1/0, true/false)", toBoolean, previewQuoteInput},
	{TransformToNumber, "To number", "Convert to number (remove non-numeric chars)", toNumber, previewQuoteInput},
	{TransformFormatDate, "Format date", "Attempt to parse and format as YYYY-MM-DD", formatDate, previewQuoted},
	{TransformExcelDate, "Excel Date (or Year)", "Convert Excel serial date to YYYY-MM-DD HH:MM:SS. If value is just a year (e.g., 2023), converts to YYYY-01-01", excelDate, previewQuoteResult},
}

var transformations = func() map[TransformationKind]Transformation {
	m := make(map[TransformationKind]Transformation, len(catalog))
	for _, t := range catalog {
		m[t.Kind] = t
	}
	return m
}()

func identityText(s string) CellValue { return Text(s) }

func upperText(s string) CellValue { return Text(cases.Upper(language.Und).String(s)) }

func lowerText(s string) CellValue { return Text(cases.Lower(language.Und).String(s)) }

func trimText(s string) CellValue { return Text(strings.TrimSpace(s)) }

func capitalizeText(s string) CellValue { return Text(capitalizeWords(s)) }

func digitsText(s string) CellValue { return Text(keepDigits(s)) }

func emailText(s string) CellValue {
	return Text(strings.TrimSpace(cases.Lower(language.Und).String(s)))
}

func removeSpacesText(s string) CellValue {
	return Text(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

func removeSpecialText(s string) CellValue {
	return Text(strings.Map(func(r rune) rune {
		if isASCIIAlnum(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s))
}

func toBoolean(s string) CellValue {
	return Bool(slices.Contains(truthyWords, strings.ToLower(strings.TrimSpace(s))))
}

// toNumber strips everything but digits, dots and minus signs, then reads
// the leading number. Unparsable input becomes 0.
func toNumber(s string) CellValue {
	f, ok := parseFloatPrefix(numberCharRe.ReplaceAllString(s, ""))
	if !ok {
		return Number(0)
	}
	return Number(f)
}

func formatDate(s string) CellValue {
	if t, ok := ParseSmartDate(s); ok {
		return Text(FormatDateISO(t))
	}
	return Text(s)
}

func excelDate(s string) CellValue {
	if t, ok := ParseExcelDate(Text(s)); ok {
		return Text(FormatDateTimeISO(t))
	}
	return Text(s)
}

// Transformations lists the catalog in display order.
func Transformations() []Transformation {
	return slices.Clone(catalog)
}

// LookupTransformation returns the transform for kind.
func LookupTransformation(kind TransformationKind) (Transformation, bool) {
	t, ok := transformations[kind]
	return t, ok
}

// ParseTransformationKind validates a kind name. The empty string is none.
func ParseTransformationKind(name string) (TransformationKind, error) {
	if name == "" {
		return TransformNone, nil
	}
	k := TransformationKind(name)
	if _, ok := transformations[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTransform, name)
	}
	return k, nil
}

// ApplyTransformation transforms v. Null cells pass through unchanged, and
// a panic inside a transform is returned as a *TransformError.
func ApplyTransformation(v CellValue, kind TransformationKind) (out CellValue, err error) {
	if v.IsNull() {
		return v, nil
	}
	if kind == "" || kind == TransformNone {
		return v, nil
	}
	t, ok := transformations[kind]
	if !ok {
		return v, fmt.Errorf("%w: %q", ErrUnknownTransform, kind)
	}

	s := v.String()
	defer func() {
		if r := recover(); r != nil {
			out = v
			err = &TransformError{Kind: kind, Value: s, Cause: fmt.Errorf("%v", r)}
		}
	}()
	return t.apply(s), nil
}

// ApplyTransformationLenient is ApplyTransformation with failures replaced
// by the original value.
func ApplyTransformationLenient(v CellValue, kind TransformationKind) CellValue {
	out, err := ApplyTransformation(v, kind)
	if err != nil {
		return v
	}
	return out
}

// ApplyColumnTransformation returns a copy of rows with one column transformed.
func ApplyColumnTransformation(rows [][]CellValue, col int, kind TransformationKind) [][]CellValue {
	out := make([][]CellValue, len(rows))
	for i, row := range rows {
		r := slices.Clone(row)
		if col >= 0 && col < len(r) {
			r[col] = ApplyTransformationLenient(r[col], kind)
		}
		out[i] = r
	}
	return out
}

// suggestionSampleSize is how many leading values heuristics look at.
const suggestionSampleSize = 10

// SuggestTransformations proposes transforms for a column given sample values
// and the target type. The list always starts with none and has no duplicates.
func SuggestTransformations(values []CellValue, t TypeInfo) []TransformationKind {
	sample := sampleValues(values, suggestionSampleSize)
	if len(sample) == 0 {
		return []TransformationKind{TransformNone}
	}

	out := []TransformationKind{TransformNone}

	switch t.Class {
	case ClassNumeric:
		out = append(out, TransformToNumber, TransformExtractNumbers)

	case ClassBoolean:
		out = append(out, TransformToBoolean)

	case ClassDateTime:
		serials := 0
		for _, v := range sample {
			if v.Kind() == KindBool {
				continue
			}
			if n, ok := cellNumber(v); ok && n >= serialMin && n < serialMaxExcl {
				serials++
			}
		}
		if serials*2 > len(sample) {
			out = append(out, TransformExcelDate)
		}
		out = append(out, TransformFormatDate)

	case ClassString:
		if anySample(sample, func(s string) bool {
			return strings.Contains(s, "@") && strings.Contains(s, ".")
		}) {
			out = append(out, TransformFormatEmail, TransformLowercase, TransformTrim)
		}
		if anySample(sample, phoneGroupRe.MatchString) {
			out = append(out, TransformFormatPhone, TransformExtractNumbers)
		}
		if anySample(sample, startsUpper) {
			out = append(out, TransformCapitalize, TransformTrim)
		}
		out = append(out, TransformUppercase, TransformLowercase, TransformTrim)
	}

	return dedupeKinds(out)
}

// sampleValues takes the first n values and drops nulls.
func sampleValues(values []CellValue, n int) []CellValue {
	if len(values) > n {
		values = values[:n]
	}
	out := make([]CellValue, 0, len(values))
	for _, v := range values {
		if !v.IsNull() {
			out = append(out, v)
		}
	}
	return out
}

func anySample(sample []CellValue, pred func(string) bool) bool {
	for _, v := range sample {
		if pred(v.String()) {
			return true
		}
	}
	return false
}

func dedupeKinds(kinds []TransformationKind) []TransformationKind {
	seen := make(map[TransformationKind]bool, len(kinds))
	out := kinds[:0]
	for _, k := range kinds {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// capitalizeWords lowercases s and uppercases the first rune of every
// space-separated word. Runs of spaces are preserved.
func capitalizeWords(s string) string {
	lower := cases.Lower(language.Und).String(s)
	upper := cases.Upper(language.Und)
	words := strings.Split(lower, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		words[i] = upper.String(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

func keepDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
