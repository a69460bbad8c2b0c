package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestApplyTransformation(t *testing.T) {
	tests := []struct {
		kind  TransformationKind
		input CellValue
		want  CellValue
	}{
		{TransformNone, Text(" As Is "), Text(" As Is ")},
		{TransformUppercase, Text("mixed Case"), Text("MIXED CASE")},
		{TransformLowercase, Text("HeLLo"), Text("hello")},
		{TransformTrim, Text("  padded \t"), Text("padded")},
		{TransformCapitalize, Text("hELLO wORLD"), Text("Hello World")},
		{TransformCapitalize, Text("two  spaces"), Text("Two  Spaces")},
		{TransformRemoveSpaces, Text(" a b\tc "), Text("abc")},
		{TransformRemoveSpecialChars, Text("Hi! #1 (ok)"), Text("Hi 1 ok")},
		{TransformFormatPhone, Text("(555) 123-4567"), Text("5551234567")},
		{TransformFormatEmail, Text("  John@Example.COM "), Text("john@example.com")},
		{TransformExtractNumbers, Text("abc123def45"), Text("12345")},
		{TransformToBoolean, Text(" YES "), Bool(true)},
		{TransformToBoolean, Text("on"), Bool(true)},
		{TransformToBoolean, Text("nope"), Bool(false)},
		{TransformToBoolean, Number(1), Bool(true)},
		{TransformToNumber, Text("$1,234.50"), Number(1234.5)},
		{TransformToNumber, Text("-12abc"), Number(-12)},
		{TransformToNumber, Text("n/a"), Number(0)},
		{TransformFormatDate, Text("15/03/2024"), Text("2024-03-15")},
		{TransformFormatDate, Text("whenever"), Text("whenever")},
		{TransformFormatDate, Text("31-02-2023"), Text("31-02-2023")},
		{TransformFormatDate, Text("2024-13-45"), Text("2024-13-45")},
		{TransformExcelDate, Number(44927), Text("2023-01-01 00:00:00")},
		{TransformExcelDate, Number(2023), Text("2023-01-01 00:00:00")},
		{TransformExcelDate, Text("2023-01-15"), Text("2023-01-15")},
		{TransformExcelDate, Number(0), Text("0")},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.input.String(), func(t *testing.T) {
			got, err := ApplyTransformation(tt.input, tt.kind)
			if err != nil {
				t.Fatalf("ApplyTransformation error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ApplyTransformation(%#v, %s) = %#v, want %#v", tt.input, tt.kind, got, tt.want)
			}
		})
	}
}

func TestApplyTransformation_NullPassesThrough(t *testing.T) {
	for _, tr := range Transformations() {
		got, err := ApplyTransformation(Null(), tr.Kind)
		if err != nil || !got.IsNull() {
			t.Errorf("ApplyTransformation(Null, %s) = %#v, %v", tr.Kind, got, err)
		}
	}
}

func TestApplyTransformation_Unknown(t *testing.T) {
	v := Text("x")
	got, err := ApplyTransformation(v, "reverse")
	if !errors.Is(err, ErrUnknownTransform) {
		t.Errorf("error = %v, want ErrUnknownTransform", err)
	}
	if got != v {
		t.Errorf("value = %#v, want original", got)
	}
	if lenient := ApplyTransformationLenient(v, "reverse"); lenient != v {
		t.Errorf("lenient = %#v, want original", lenient)
	}
}

func TestParseTransformationKind(t *testing.T) {
	if k, err := ParseTransformationKind(""); err != nil || k != TransformNone {
		t.Errorf("ParseTransformationKind(\"\") = %q, %v", k, err)
	}
	if k, err := ParseTransformationKind("excelDate"); err != nil || k != TransformExcelDate {
		t.Errorf("ParseTransformationKind(excelDate) = %q, %v", k, err)
	}
	if _, err := ParseTransformationKind("ExcelDate"); !errors.Is(err, ErrUnknownTransform) {
		t.Errorf("kind names are case sensitive, got %v", err)
	}
}

func TestTransformationPreview(t *testing.T) {
	tests := []struct {
		kind  TransformationKind
		input string
		want  string
	}{
		{TransformUppercase, "abc", `"abc" → "ABC"`},
		{TransformToNumber, "$5", `"$5" → 5`},
		{TransformExcelDate, "44927", `44927 → "2023-01-01 00:00:00"`},
		{TransformNone, "x", "x → x"},
	}
	for _, tt := range tests {
		tr, ok := LookupTransformation(tt.kind)
		if !ok {
			t.Fatalf("LookupTransformation(%s) missing", tt.kind)
		}
		if got := tr.Preview(tt.input); got != tt.want {
			t.Errorf("Preview(%s, %q) = %s, want %s", tt.kind, tt.input, got, tt.want)
		}
	}
}

func TestTransformations_Catalog(t *testing.T) {
	list := Transformations()
	if len(list) != 14 {
		t.Fatalf("catalog size = %d, want 14", len(list))
	}
	if list[0].Kind != TransformNone {
		t.Errorf("first entry = %s, want none", list[0].Kind)
	}
	list[0].Label = "changed"
	if again := Transformations(); again[0].Label == "changed" {
		t.Error("Transformations returned shared storage")
	}
}

func TestApplyColumnTransformation(t *testing.T) {
	rows := [][]CellValue{
		{Text("a"), Text("x")},
		{Text("b")},
		{Text("c"), Null()},
	}
	got := ApplyColumnTransformation(rows, 1, TransformUppercase)
	want := [][]CellValue{
		{Text("a"), Text("X")},
		{Text("b")},
		{Text("c"), Null()},
	}
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b CellValue) bool { return a == b })); diff != "" {
		t.Errorf("ApplyColumnTransformation mismatch (-want +got):\n%s", diff)
	}
	if rows[0][1] != Text("x") {
		t.Error("input rows were modified")
	}
}

func TestSuggestTransformations(t *testing.T) {
	tests := []struct {
		name    string
		values  []CellValue
		sqlType string
		want    []TransformationKind
	}{
		{
			name:    "no samples",
			values:  []CellValue{Null(), Null()},
			sqlType: "varchar(20)",
			want:    []TransformationKind{TransformNone},
		},
		{
			name:    "numeric",
			values:  []CellValue{Text("$1")},
			sqlType: "int",
			want:    []TransformationKind{TransformNone, TransformToNumber, TransformExtractNumbers},
		},
		{
			name:    "boolean",
			values:  []CellValue{Text("yes")},
			sqlType: "tinyint(1)",
			want:    []TransformationKind{TransformNone, TransformToNumber, TransformExtractNumbers},
		},
		{
			name:    "bool keyword",
			values:  []CellValue{Text("yes")},
			sqlType: "boolean",
			want:    []TransformationKind{TransformNone, TransformToBoolean},
		},
		{
			name:    "datetime with serial majority",
			values:  []CellValue{Number(44927), Text("44928"), Text("2023-01-03")},
			sqlType: "datetime",
			want:    []TransformationKind{TransformNone, TransformExcelDate, TransformFormatDate},
		},
		{
			name:    "datetime without serial majority",
			values:  []CellValue{Number(44927), Text("2023-01-02"), Text("2023-01-03")},
			sqlType: "date",
			want:    []TransformationKind{TransformNone, TransformFormatDate},
		},
		{
			name:    "emails",
			values:  []CellValue{Text("a@b.com")},
			sqlType: "varchar(100)",
			want: []TransformationKind{
				TransformNone, TransformFormatEmail, TransformLowercase, TransformTrim, TransformUppercase,
			},
		},
		{
			name:    "phones",
			values:  []CellValue{Text("555-123-4567")},
			sqlType: "text",
			want: []TransformationKind{
				TransformNone, TransformFormatPhone, TransformExtractNumbers,
				TransformUppercase, TransformLowercase, TransformTrim,
			},
		},
		{
			name:    "capitalized words",
			values:  []CellValue{Text("alice"), Text("Bob")},
			sqlType: "char(10)",
			want: []TransformationKind{
				TransformNone, TransformCapitalize, TransformTrim, TransformUppercase, TransformLowercase,
			},
		},
		{
			name:    "other class",
			values:  []CellValue{Text("{}")},
			sqlType: "json",
			want:    []TransformationKind{TransformNone},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestTransformations(tt.values, ParseSQLType(tt.sqlType))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SuggestTransformations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSuggestTransformations_OnlyFirstTenSampled(t *testing.T) {
	values := make([]CellValue, 0, 11)
	for i := 0; i < 10; i++ {
		values = append(values, Text("plain"))
	}
	values = append(values, Text("x@y.z"))

	got := SuggestTransformations(values, ParseSQLType("varchar(50)"))
	for _, k := range got {
		if k == TransformFormatEmail {
			t.Fatalf("eleventh value influenced suggestions: %v", got)
		}
	}
}
