package core

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"First Name", "firstname"},
		{"first_name", "firstname"},
		{"E-Mail Address", "emailaddress"},
		{"  Zip\tCode ", "zipcode"},
		{"Prix (€)", "prix"},
		{"", ""},
		{"ID#42", "id42"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical after normalization", "First Name", "first_name", 1.0},
		{"containment shortcut", "email", "customer_email", 0.8},
		{"containment is symmetric", "customer_email", "email", 0.8},
		{"both empty", "", "", 1.0},
		{"empty is contained in anything", "", "name", 0.8},
		{"punctuation-only header normalizes to empty", "--- ", "name", 0.8},
		{"one deletion", "colour", "color", 5.0 / 6.0},
		{"edit distance", "phone", "phome", 0.8},
		{"unrelated", "abc", "xyz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestScore_SelfIsOne(t *testing.T) {
	for _, s := range []string{"", "a", "Customer ID", "___", "日本語", "Zip-Code 2"} {
		n := Normalize(s)
		if got := Score(n, n); got != 1.0 {
			t.Errorf("Score(%q, %q) = %v, want 1", n, n, got)
		}
	}
}

func TestScore_Range(t *testing.T) {
	pairs := [][2]string{{"a", "bcdefg"}, {"quantity", "qty"}, {"x", ""}, {"order_date", "date_ordered"}}
	for _, p := range pairs {
		got := Score(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Score(%q, %q) = %v, out of [0,1]", p[0], p[1], got)
		}
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		if got := EditDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("EditDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
