package core

import (
	"testing"
	"time"
)

func TestParseExcelDate(t *testing.T) {
	tests := []struct {
		name   string
		input  CellValue
		want   string
		wantOK bool
	}{
		{"serial 1 is the epoch", Number(1), "1900-01-01 00:00:00", true},
		{"serial 59", Number(59), "1900-02-28 00:00:00", true},
		{"serial 60 is the fictitious leap day", Number(60), "1900-03-01 00:00:00", true},
		{"serial 61 skips the leap day", Number(61), "1900-03-01 00:00:00", true},
		{"modern serial", Number(44927), "2023-01-01 00:00:00", true},
		{"serial as text", Text("44927"), "2023-01-01 00:00:00", true},
		{"fractional day is time of day", Number(44927.5), "2023-01-01 12:00:00", true},
		{"year shortcut wins", Number(2023), "2023-01-01 00:00:00", true},
		{"year shortcut as text", Text(" 1999 "), "1999-01-01 00:00:00", true},
		{"non-integral year-sized value is a serial", Number(2023.5), "1905-07-15 12:00:00", true},
		{"zero is out of range", Number(0), "", false},
		{"upper bound is exclusive", Number(100000), "", false},
		{"negative", Number(-5), "", false},
		{"iso date text is not a serial", Text("2023-01-15"), "", false},
		{"garbage", Text("abc"), "", false},
		{"bool", Bool(true), "", false},
		{"null", Null(), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseExcelDate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseExcelDate(%#v) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && FormatDateTimeISO(got) != tt.want {
				t.Errorf("ParseExcelDate(%#v) = %s, want %s", tt.input, FormatDateTimeISO(got), tt.want)
			}
		})
	}
}

func TestParseSmartDate(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"2024-03-15", "2024-03-15", true},
		{"2024-03-15T10:20:30Z", "2024-03-15", true},
		{"15/03/2024", "2024-03-15", true},  // European reading
		{"03/15/2024", "2024-03-15", true},  // US fallback
		{"05/04/2024", "2024-04-05", true},  // ambiguous: European first
		{"31/02/2024", "", false},           // invalid both ways
		{"15-03-2024", "2024-03-15", true},
		{"2024-13-45", "", false},           // no rollover into 2025
		{"2023-02-29", "", false},           // not a leap year
		{"2024-02-29", "2024-02-29", true},
		{"31-02-2023", "", false},
		{"Jan 5, 2024", "2024-01-05", true},
		{"5 January 2024", "2024-01-05", true},
		{"20240105", "2024-01-05", true},
		{"", "", false},
		{"not a date", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSmartDate(tt.input)
		if ok != tt.wantOK {
			t.Errorf("ParseSmartDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			continue
		}
		if ok && FormatDateISO(got) != tt.want {
			t.Errorf("ParseSmartDate(%q) = %s, want %s", tt.input, FormatDateISO(got), tt.want)
		}
	}
}

func TestParseDateTime(t *testing.T) {
	got, ok := ParseDateTime("2024-03-15 08:09:10")
	if !ok {
		t.Fatal("ParseDateTime failed")
	}
	want := time.Date(2024, time.March, 15, 8, 9, 10, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDateTime = %v, want %v", got, want)
	}

	got, ok = ParseDateTime("2024-03-15")
	if !ok || !got.Equal(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDateTime(date only) = %v, %v", got, ok)
	}
}

func TestHasYearOnlyValues(t *testing.T) {
	tests := []struct {
		name   string
		values []CellValue
		want   bool
	}{
		{"all years", []CellValue{Number(2020), Text("2021"), Number(1999)}, true},
		{"half years", []CellValue{Number(2020), Text("abc")}, true},
		{"minority years", []CellValue{Number(2020), Text("a"), Text("b")}, false},
		{"nulls are ignored", []CellValue{Null(), Number(2020), Null()}, true},
		{"empty", nil, false},
		{"serials are not years", []CellValue{Number(44927), Number(45000)}, false},
	}
	for _, tt := range tests {
		if got := HasYearOnlyValues(tt.values); got != tt.want {
			t.Errorf("%s: HasYearOnlyValues = %v, want %v", tt.name, got, tt.want)
		}
	}
}
