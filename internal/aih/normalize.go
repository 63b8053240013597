package aih

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/guscambraia/aih-v3.5/internal/models"
)

// NormalizeName folds case and strips diacritics ("João" -> "joao").
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

const keySep = "|"

// professionalKey joins the normalized professional names of m for LIKE search.
func professionalKey(m *models.Movement) string {
	var parts []string
	for _, name := range []string{m.ProfMedicine, m.ProfNursing, m.ProfPhysio, m.ProfMaxillo} {
		if n := NormalizeName(name); n != "" {
			parts = append(parts, n)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return keySep + strings.Join(parts, keySep) + keySep
}
