package core

import (
	"strings"
	"testing"
)

func TestValidateCell(t *testing.T) {
	tests := []struct {
		name      string
		value     CellValue
		field     FieldDescriptor
		wantValid bool
		wantSev   Severity
		wantMsg   string
	}{
		// --- null handling ---
		{"nullable null", Null(), NewField("note", "text", true), true, SeverityInfo, "NULL value"},
		{"not null int", Null(), NewField("qty", "int", false), false, SeverityError, `Field "qty" cannot be NULL`},
		{"not null empty text", Text(""), NewField("name", "varchar(10)", false), false, SeverityError, `Field "name" cannot be NULL`},
		{"not null date only warns", Null(), NewField("born", "date", false), true, SeverityWarning, `Field "born" is NOT NULL but value is NULL`},

		// --- numeric ---
		{"number ok", Number(42), NewField("qty", "int", true), true, SeveritySuccess, ""},
		{"numeric text ok", Text(" 42 "), NewField("qty", "int", true), true, SeveritySuccess, ""},
		{"not a number", Text("abc"), NewField("qty", "int", true), false, SeverityError, `Expected number, got "abc"`},
		{"fraction in integer", Number(3.7), NewField("qty", "int", true), false, SeverityWarning, "Value will be rounded to integer"},
		{"tinyint range", Number(200), NewField("flag", "tinyint", true), false, SeverityError, "TINYINT range is -128 to 127, got 200"},
		{"smallint range", Number(-40000), NewField("n", "smallint", true), false, SeverityError, "SMALLINT range is -32768 to 32767, got -40000"},
		{"precision", Number(12345.67), NewField("price", "decimal(5,2)", true), false, SeverityWarning, "Value exceeds precision 5"},
		{"scale", Number(1.234), NewField("price", "decimal(10,2)", true), true, SeverityWarning, "Value exceeds scale 2"},
		{"decimal ok", Text("123.45"), NewField("price", "numeric(5,2)", true), true, SeveritySuccess, ""},

		// --- boolean ---
		{"boolean word", Text("Yes"), NewField("active", "boolean", true), true, SeveritySuccess, ""},
		{"boolean cell", Bool(false), NewField("active", "bool", true), true, SeveritySuccess, ""},
		{"bad boolean", Text("maybe"), NewField("active", "boolean", true), false, SeverityError, `Expected boolean value, got "maybe"`},

		// --- dates ---
		{"iso date", Text("2024-03-15"), NewField("d", "date", true), true, SeveritySuccess, ""},
		{"european date", Text("15/03/2024"), NewField("d", "date", true), true, SeveritySuccess, ""},
		{"datetime text", Text("2024-03-15 10:00:00"), NewField("d", "datetime", true), true, SeveritySuccess, ""},
		{"serial number", Number(44927), NewField("d", "date", true), true, SeveritySuccess, ""},
		{"bad date", Text("2024-13-45"), NewField("d", "date", true), false, SeverityError, `Invalid date format: "2024-13-45"`},
		{"unusual year", Text("1850-06-01"), NewField("d", "date", true), true, SeverityWarning, "Unusual year: 1850"},
		{"number past serial range", Number(150000), NewField("d", "date", true), true, SeverityWarning, "Unusual year: 150000"},
		{"impossible dash date", Text("31-02-2023"), NewField("d", "date", true), false, SeverityError, `Invalid date format: "31-02-2023"`},

		// --- strings ---
		{"too long", Text("abcdef"), NewField("code", "varchar(5)", true), false, SeverityError, "Length 6 exceeds maximum 5"},
		{"length counts runes", Text("ééééé"), NewField("code", "varchar(5)", true), true, SeverityWarning, "Length 5 is close to maximum 5"},
		{"near limit", Text("abcdefghij"), NewField("code", "varchar(10)", true), true, SeverityWarning, "Length 10 is close to maximum 10"},
		{"email ok", Text("a@b.co"), NewField("email", "varchar(100)", true), true, SeveritySuccess, ""},
		{"bad email", Text("nope"), NewField("contact_email", "text", true), false, SeverityWarning, "Does not look like a valid email"},
		{"url ok", Text("https://example.com"), NewField("website", "text", true), true, SeveritySuccess, ""},
		{"url without scheme", Text("example.com"), NewField("homepage_url", "text", true), false, SeverityWarning, "Does not look like a valid URL"},

		// --- other ---
		{"json is not checked", Text("{"), NewField("payload", "json", true), true, SeveritySuccess, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateCell(tt.value, tt.field, 3, 1)
			if got.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if got.Severity != tt.wantSev {
				t.Errorf("Severity = %q, want %q", got.Severity, tt.wantSev)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
			if got.RowIndex != 3 || got.ColumnIndex != 1 || got.FieldName != tt.field.Name {
				t.Errorf("position = (%d, %d, %q), want (3, 1, %q)", got.RowIndex, got.ColumnIndex, got.FieldName, tt.field.Name)
			}
		})
	}
}

func TestValidateCell_RoundingSuggestion(t *testing.T) {
	field := NewField("qty", "int", true)
	tests := []struct {
		value float64
		want  string
	}{
		{3.7, "4"},
		{2.5, "3"},
		{-2.5, "-2"},
	}
	for _, tt := range tests {
		got := ValidateCell(Number(tt.value), field, 0, 0)
		if got.Suggestion != tt.want {
			t.Errorf("ValidateCell(%v).Suggestion = %q, want %q", tt.value, got.Suggestion, tt.want)
		}
	}
}

func TestValidateCell_IsPure(t *testing.T) {
	field := NewField("price", "decimal(5,2)", false)
	v := Text("12345.67")
	first := ValidateCell(v, field, 0, 0)
	for i := 0; i < 5; i++ {
		if got := ValidateCell(v, field, 0, 0); got != first {
			t.Fatalf("call %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestValidateDataset(t *testing.T) {
	fields := []FieldDescriptor{
		NewField("qty", "int", false),
		NewField("name", "varchar(5)", true),
	}
	headers := []string{"Quantity", "Name", "Ignored"}
	mapping := ColumnMapping{"Quantity": "qty", "Name": "name", "Ignored": "", "Ghost": "missing"}
	rows := [][]CellValue{
		{Number(1), Text("ok"), Text("whatever")},
		{Text("x"), Text("toolong")},
		{Number(2)},
		{Number(1.5), Text("abcde")},
	}

	res := ValidateDataset(rows, fields, mapping, headers)

	if res.ErrorCount != 2 {
		t.Errorf("ErrorCount = %d, want 2", res.ErrorCount)
	}
	// rounding on row 3; the near-limit length on the same row is still valid
	if res.WarningCount != 1 {
		t.Errorf("WarningCount = %d, want 1", res.WarningCount)
	}
	if res.ValidRowCount != 3 {
		t.Errorf("ValidRowCount = %d, want 3", res.ValidRowCount)
	}
	if len(res.Validations) != 3 {
		t.Fatalf("len(Validations) = %d, want 3", len(res.Validations))
	}
	for _, f := range res.Validations {
		if f.Severity != SeverityError && f.Severity != SeverityWarning {
			t.Errorf("unexpected %s finding recorded: %+v", f.Severity, f)
		}
	}
	if first := res.Validations[0]; first.RowIndex != 1 || first.FieldName != "qty" {
		t.Errorf("first finding = row %d field %q, want row 1 field qty", first.RowIndex, first.FieldName)
	}
	if !res.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
}

func TestValidateDataset_ValidWarningsNotCounted(t *testing.T) {
	fields := []FieldDescriptor{
		NewField("price", "decimal(10,2)", true),
		NewField("d", "date", true),
	}
	headers := []string{"Price", "Date"}
	mapping := ColumnMapping{"Price": "price", "Date": "d"}
	rows := [][]CellValue{
		{Number(1.234), Text("1850-06-01")},
	}

	res := ValidateDataset(rows, fields, mapping, headers)

	if res.WarningCount != 0 || res.ErrorCount != 0 {
		t.Errorf("counts = %d warnings, %d errors, want 0 and 0", res.WarningCount, res.ErrorCount)
	}
	if len(res.Validations) != 0 {
		t.Errorf("Validations = %+v, want none", res.Validations)
	}
	if res.ValidRowCount != 1 {
		t.Errorf("ValidRowCount = %d, want 1", res.ValidRowCount)
	}
}

func TestValidateDataset_Empty(t *testing.T) {
	res := ValidateDataset(nil, []FieldDescriptor{NewField("a", "int", true)}, ColumnMapping{}, nil)
	if res.Validations == nil {
		t.Error("Validations is nil, want empty slice")
	}
	if res.HasErrors() || res.ValidRowCount != 0 {
		t.Errorf("unexpected result for empty input: %+v", res)
	}
}

func TestValidationResult_Merge(t *testing.T) {
	field := NewField("qty", "int", false)
	var a, b ValidationResult
	a.record(ValidateCell(Null(), field, 0, 0))
	a.ValidRowCount = 4
	b.record(ValidateCell(Number(1.5), field, 5, 0))
	b.ValidRowCount = 2

	a.merge(b)

	if a.ErrorCount != 1 || a.WarningCount != 1 || a.ValidRowCount != 6 {
		t.Errorf("merged counts = %d/%d/%d, want 1/1/6", a.ErrorCount, a.WarningCount, a.ValidRowCount)
	}
	if len(a.Validations) != 2 || !strings.Contains(a.Validations[0].Message, "cannot be NULL") {
		t.Errorf("merged findings out of order: %+v", a.Validations)
	}
}
