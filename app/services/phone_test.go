package services

import (
	"math"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"national format", "0712345678", "254712345678"},
		{"already canonical", "254712345678", "254712345678"},
		{"bare subscriber number", "712345678", "254712345678"},
		{"duplicated prefix", "2540712345678", "254712345678"},
		{"plus prefix stripped", "+254712345678", "254712345678"},
		{"spaces and dashes stripped", "0712 345-678", "254712345678"},
		{"empty passes through", "", ""},
		{"no digits passes through", "abc", "abc"},
		{"unrecognized digits pass through", "1234", "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhoneEquivalentForms(t *testing.T) {
	// Every common way a parent types the same number must land on the
	// same canonical form.
	forms := []string{"0712345678", "712345678", "254712345678", "+254 712 345 678", "2540712345678"}
	want := "254712345678"
	for _, f := range forms {
		if got := NormalizePhone(f); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", f, got, want)
		}
	}
}

func TestValidAmount(t *testing.T) {
	valid := []float64{1, 0.5, 15000, 1e6}
	for _, v := range valid {
		if !ValidAmount(v) {
			t.Errorf("ValidAmount(%v) = false, want true", v)
		}
	}

	invalid := []float64{0, -1, -0.01, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, v := range invalid {
		if ValidAmount(v) {
			t.Errorf("ValidAmount(%v) = true, want false", v)
		}
	}
}
