package util

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestValidateAmount_Valid(t *testing.T) {
	testCases := []string{"0", "0.01", "1500.00", "99999999.99"}

	for _, s := range testCases {
		if err := ValidateAmount(decimal.RequireFromString(s)); err != nil {
			t.Errorf("ValidateAmount(%s) error = %v, want nil", s, err)
		}
	}
}

func TestValidateAmount_Negative(t *testing.T) {
	testCases := []string{"-0.01", "-100", "-9999.99"}

	for _, s := range testCases {
		if err := ValidateAmount(decimal.RequireFromString(s)); err == nil {
			t.Errorf("ValidateAmount(%s) error = nil, want error", s)
		}
	}
}

func TestValidateAmount_TooLarge(t *testing.T) {
	if err := ValidateAmount(decimal.NewFromInt(100_000_000)); err == nil {
		t.Error("ValidateAmount(100000000) error = nil, want error")
	}
}

func TestValidateCompetence(t *testing.T) {
	valid := []string{"01/2024", "07/2024", "12/1999"}
	for _, c := range valid {
		if err := ValidateCompetence(c); err != nil {
			t.Errorf("ValidateCompetence(%q) error = %v, want nil", c, err)
		}
	}

	invalid := []string{"", "7/2024", "13/2024", "00/2024", "2024-07", "07/24", "07/2024x"}
	for _, c := range invalid {
		if err := ValidateCompetence(c); err == nil {
			t.Errorf("ValidateCompetence(%q) error = nil, want error", c)
		}
	}
}

func TestValidateAIHNumber(t *testing.T) {
	valid := []string{"1", "1234567890123", "12345678901234567890"}
	for _, n := range valid {
		if err := ValidateAIHNumber(n); err != nil {
			t.Errorf("ValidateAIHNumber(%q) error = %v, want nil", n, err)
		}
	}

	invalid := []string{"", "12a4", "123456789012345678901", " 123"}
	for _, n := range invalid {
		if err := ValidateAIHNumber(n); err == nil {
			t.Errorf("ValidateAIHNumber(%q) error = nil, want error", n)
		}
	}
}

func TestValidateDate(t *testing.T) {
	for _, d := range []string{"2024-01-01", "2024-12-31"} {
		if err := ValidateDate(d); err != nil {
			t.Errorf("ValidateDate(%q) error = %v, want nil", d, err)
		}
	}
	for _, d := range []string{"", "2024/01/01", "2024-13-01", "2024-01-32"} {
		if err := ValidateDate(d); err == nil {
			t.Errorf("ValidateDate(%q) error = nil, want error", d)
		}
	}
}

func TestCompetenceOf(t *testing.T) {
	got := CompetenceOf(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	if got != "03/2024" {
		t.Errorf("CompetenceOf() = %q, want 03/2024", got)
	}
}

func TestCompetenceSortKey(t *testing.T) {
	if CompetenceSortKey("12/2023") >= CompetenceSortKey("01/2024") {
		t.Error("12/2023 should sort before 01/2024")
	}
	if CompetenceSortKey("bad") != 0 {
		t.Error("invalid competence should map to 0")
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Hello World  ", "Hello World"},
		{"<script>alert(1)</script>", "scriptalert(1)/script"},
		{"Dr. Silva", "Dr. Silva"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeString(tt.input); got != tt.want {
			t.Errorf("SanitizeString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestContainsPattern(t *testing.T) {
	cases := map[string]string{
		"123":    "%123%",
		"a_b":    `%a\_b%`,
		"100%":   `%100\%%`,
		`c:\tmp`: `%c:\\tmp%`,
		"":       "%%",
	}
	for in, want := range cases {
		if got := ContainsPattern(in); got != want {
			t.Errorf("ContainsPattern(%q) = %q, want %q", in, got, want)
		}
	}
}
