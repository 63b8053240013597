package aih

import (
	"sort"

	"github.com/guscambraia/aih-v3.5/internal/models"
)

// InitialMovementNote is stored on the entry synthesized when a record is created.
const InitialMovementNote = "Entrada inicial no sistema"

// sortHistory orders movements by (MovedAt, ID) in place.
func sortHistory(history []models.Movement, newestFirst bool) {
	sort.SliceStable(history, func(i, j int) bool {
		if newestFirst {
			return before(history[j], history[i])
		}
		return before(history[i], history[j])
	})
}

func before(a, b models.Movement) bool {
	if !a.MovedAt.Equal(b.MovedAt) {
		return a.MovedAt.Before(b.MovedAt)
	}
	return a.ID < b.ID
}

// LastMovement returns the latest movement by (MovedAt, ID), or nil for an empty history.
// The input does not need to be sorted.
func LastMovement(history []models.Movement) *models.Movement {
	if len(history) == 0 {
		return nil
	}
	last := 0
	for i := 1; i < len(history); i++ {
		if before(history[last], history[i]) {
			last = i
		}
	}
	return &history[last]
}

// NextLegalKind is the only movement kind that may follow history.
// An empty history always starts with an entry.
func NextLegalKind(history []models.Movement) models.MovementKind {
	last := LastMovement(history)
	if last == nil {
		return models.KindEntry
	}
	return last.Kind.Opposite()
}

// Validate checks proposed against the alternation rule. It never mutates history.
func Validate(history []models.Movement, proposed models.MovementKind) error {
	expected := NextLegalKind(history)
	if proposed != expected {
		return &SequenceViolation{Expected: expected, Received: proposed}
	}
	return nil
}

// NextMovement describes the legal next movement for form pre-fill.
type NextMovement struct {
	Kind        models.MovementKind  `json:"kind"`
	Description string               `json:"description"`
	Explanation string               `json:"explanation"`
	Last        *models.MovementKind `json:"last"`
}

// Explain builds the NextMovement for history using NextLegalKind.
func Explain(history []models.Movement) NextMovement {
	next := NextMovement{
		Kind: NextLegalKind(history),
	}
	next.Description = next.Kind.Label()

	last := LastMovement(history)
	switch {
	case last == nil:
		next.Explanation = "Esta é a primeira movimentação da AIH. Deve ser registrada como entrada na Auditoria SUS."
	case last.Kind == models.KindEntry:
		next.Explanation = "A última movimentação foi entrada na Auditoria SUS. A próxima deve ser saída para Auditoria Hospital."
	default:
		next.Explanation = "A última movimentação foi saída para Hospital. A próxima deve ser entrada na Auditoria SUS."
	}
	if last != nil {
		k := last.Kind
		next.Last = &k
	}
	return next
}
