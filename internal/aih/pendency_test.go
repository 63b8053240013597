package aih

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guscambraia/aih-v3.5/internal/models"
)

func TestAddPendency(t *testing.T) {
	svc, db := createTestService(t)
	ctx := context.Background()
	rec := mustCreate(t, svc, "100", "1000", "06/2025")

	in := PendencyInput{Line: " 12 ", Category: "Material não autorizado", Professional: "Dra. <b>Lia</b>"}
	id1, err := svc.AddPendency(ctx, rec.ID, in)
	require.NoError(t, err)
	id2, err := svc.AddPendency(ctx, rec.ID, in)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	var g models.Glosa
	require.NoError(t, db.First(&g, id1).Error)
	assert.True(t, g.Active)
	assert.Equal(t, 1, g.Quantity)
	assert.Equal(t, "12", g.Line)
	assert.Equal(t, "Dra. bLia/b", g.Professional)
}

func TestAddPendency_Errors(t *testing.T) {
	svc, _ := createTestService(t)
	ctx := context.Background()

	_, err := svc.AddPendency(ctx, 77, PendencyInput{Line: "1", Category: "x", Professional: "y"})
	assert.ErrorIs(t, err, ErrNotFound)

	rec := mustCreate(t, svc, "101", "10", "06/2025")
	_, err = svc.AddPendency(ctx, rec.ID, PendencyInput{Line: "1", Category: "x", Professional: "y", Quantity: -2})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "quantity", ve.Field)

	_, err = svc.AddPendency(ctx, rec.ID, PendencyInput{Line: "1", Professional: "y"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "category", ve.Field)
}

func TestRetirePendency_Idempotent(t *testing.T) {
	svc, _ := createTestService(t)
	ctx := context.Background()
	rec := mustCreate(t, svc, "102", "1000", "06/2025")

	id, err := svc.AddPendency(ctx, rec.ID, PendencyInput{Line: "1", Category: "Quantidade excedente", Professional: "Ana", Quantity: 3})
	require.NoError(t, err)

	require.NoError(t, svc.RetirePendency(ctx, id))
	require.NoError(t, svc.RetirePendency(ctx, id))

	active, err := svc.ListPendencies(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.PendencyHistory(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)

	report, err := svc.Report(ctx, ReportGlosaTypes, Scope{})
	require.NoError(t, err)
	assert.Empty(t, report.Result)

	stats, err := svc.Report(ctx, ReportPeriodStats, Scope{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Result.(*PeriodStatsReport).ActiveGlosas)

	assert.ErrorIs(t, svc.RetirePendency(ctx, 9999), ErrNotFound)
}

func TestGlosaTypes(t *testing.T) {
	svc, _ := createTestService(t)
	ctx := context.Background()

	list, err := svc.ListGlosaTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(models.DefaultGlosaTypes))

	created, err := svc.CreateGlosaType(ctx, "Cobrança indevida")
	require.NoError(t, err)

	_, err = svc.CreateGlosaType(ctx, "Cobrança indevida")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	require.NoError(t, svc.DeleteGlosaType(ctx, created.ID))
	assert.ErrorIs(t, svc.DeleteGlosaType(ctx, created.ID), ErrNotFound)
}

func TestProfessionals(t *testing.T) {
	svc, _ := createTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProfessional(ctx, "Marta", "nursing")
	require.NoError(t, err)

	_, err = svc.CreateProfessional(ctx, "Zeca", "cardiology")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "specialty", ve.Field)

	list, err := svc.ListProfessionals(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteProfessional(ctx, p.ID))
	assert.ErrorIs(t, svc.DeleteProfessional(ctx, p.ID), ErrNotFound)
}
