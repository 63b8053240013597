package aih

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guscambraia/aih-v3.5/internal/models"
)

func mv(id uint, kind models.MovementKind, at time.Time) models.Movement {
	return models.Movement{ID: id, Kind: kind, MovedAt: at}
}

func TestNextLegalKind(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		history []models.Movement
		want    models.MovementKind
	}{
		{"empty history starts with entry", nil, models.KindEntry},
		{"after entry", []models.Movement{mv(1, models.KindEntry, t0)}, models.KindExit},
		{"after exit", []models.Movement{
			mv(1, models.KindEntry, t0),
			mv(2, models.KindExit, t0.Add(time.Hour)),
		}, models.KindEntry},
		{"unsorted input uses latest timestamp", []models.Movement{
			mv(2, models.KindExit, t0.Add(time.Hour)),
			mv(1, models.KindEntry, t0),
		}, models.KindEntry},
		{"equal timestamps break ties by id", []models.Movement{
			mv(5, models.KindExit, t0),
			mv(4, models.KindEntry, t0),
		}, models.KindEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextLegalKind(tt.history))
		})
	}
}

func TestValidate(t *testing.T) {
	history := []models.Movement{mv(1, models.KindEntry, time.Now())}

	require.NoError(t, Validate(history, models.KindExit))

	err := Validate(history, models.KindEntry)
	var sv *SequenceViolation
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, models.KindExit, sv.Expected)
	assert.Equal(t, models.KindEntry, sv.Received)

	assert.Len(t, history, 1)
}

func TestExplain(t *testing.T) {
	first := Explain(nil)
	assert.Equal(t, models.KindEntry, first.Kind)
	assert.Equal(t, "Entrada na Auditoria SUS", first.Description)
	assert.Nil(t, first.Last)

	next := Explain([]models.Movement{mv(1, models.KindEntry, time.Now())})
	assert.Equal(t, models.KindExit, next.Kind)
	require.NotNil(t, next.Last)
	assert.Equal(t, models.KindEntry, *next.Last)
	assert.Contains(t, next.Explanation, "saída para Auditoria Hospital")
}

func TestSortHistory(t *testing.T) {
	t0 := time.Now()
	h := []models.Movement{
		mv(3, models.KindEntry, t0.Add(time.Minute)),
		mv(2, models.KindExit, t0),
		mv(1, models.KindEntry, t0),
	}
	sortHistory(h, false)
	assert.Equal(t, []uint{1, 2, 3}, []uint{h[0].ID, h[1].ID, h[2].ID})

	sortHistory(h, true)
	assert.Equal(t, []uint{3, 2, 1}, []uint{h[0].ID, h[1].ID, h[2].ID})
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "joao conceicao", NormalizeName("  João Conceição "))
	assert.Equal(t, "", NormalizeName(""))

	m := models.Movement{ProfMedicine: "Dr. Álvaro", ProfNursing: "", ProfPhysio: "Inês"}
	assert.Equal(t, "|dr. alvaro|ines|", professionalKey(&m))
}
