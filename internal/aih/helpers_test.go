package aih

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/guscambraia/aih-v3.5/internal/config"
	"github.com/guscambraia/aih-v3.5/internal/database"
	"github.com/guscambraia/aih-v3.5/internal/models"
)

var testActor = Actor{UserID: 1, Username: "auditor"}

// fakeClock advances one second per call so movement timestamps are distinct.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func createTestService(t *testing.T, opts ...Option) (*Service, *gorm.DB) {
	t.Helper()

	db, err := database.Init(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "aih.db")})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	clock := newFakeClock(time.Date(2025, time.June, 10, 9, 0, 0, 0, time.Local))
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewService(db, logger, opts...), db
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func mustCreate(t *testing.T, svc *Service, number, value, competence string) *models.AIH {
	t.Helper()
	rec, err := svc.CreateRecord(context.Background(), CreateRecordInput{
		Number:       number,
		InitialValue: dec(value),
		Competence:   competence,
		Attendances:  []string{"AT-" + number},
	}, testActor)
	require.NoError(t, err)
	return rec
}

func mustSubmit(t *testing.T, svc *Service, id uint, kind models.MovementKind, status models.Status, value string) *models.AIH {
	t.Helper()
	rec, err := svc.SubmitMovement(context.Background(), id, MovementInput{
		Kind:   kind,
		Status: status,
		Value:  dec(value),
	}, testActor)
	require.NoError(t, err)
	return rec
}
