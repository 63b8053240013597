package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	competenceRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{4}$`)
	aihNumberRe  = regexp.MustCompile(`^\d{1,20}$`)
	maxAmount    = decimal.NewFromInt(100_000_000)
)

// ValidateAmount checks a monetary value: non-negative and below 100 million.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("amount must not be negative, got %s", amount)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("amount too large, got %s", amount)
	}
	return nil
}

// ValidateCompetence checks an accounting period token "MM/YYYY".
func ValidateCompetence(competence string) error {
	if competence == "" {
		return fmt.Errorf("competence is empty")
	}
	if !competenceRe.MatchString(competence) {
		return fmt.Errorf("invalid competence %q, want MM/YYYY", competence)
	}
	return nil
}

// ValidateAIHNumber accepts 1-20 digits; 13 is the usual length but older
// records do not always follow it.
func ValidateAIHNumber(number string) error {
	if number == "" {
		return fmt.Errorf("aih number is empty")
	}
	if !aihNumberRe.MatchString(number) {
		return fmt.Errorf("invalid aih number %q", number)
	}
	return nil
}

// ValidateDate checks a YYYY-MM-DD date.
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	if _, err := time.Parse("2006-01-02", dateStr); err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}

// CompetenceOf formats t as "MM/YYYY".
func CompetenceOf(t time.Time) string {
	return fmt.Sprintf("%02d/%d", int(t.Month()), t.Year())
}

// CompetenceSortKey turns "MM/YYYY" into YYYYMM for ordering; invalid tokens sort last.
func CompetenceSortKey(competence string) int {
	if !competenceRe.MatchString(competence) {
		return 0
	}
	month, _ := strconv.Atoi(competence[:2])
	year, _ := strconv.Atoi(competence[3:])
	return year*100 + month
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ContainsPattern builds a LIKE pattern matching s literally anywhere.
// Use it with ESCAPE '\'.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// SanitizeString trims and strips angle brackets from free text.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer("<", "", ">", "").Replace(s)
}
