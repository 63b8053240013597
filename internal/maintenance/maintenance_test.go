package maintenance

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/guscambraia/aih-v3.5/internal/config"
	"github.com/guscambraia/aih-v3.5/internal/database"
	"github.com/guscambraia/aih-v3.5/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "aih.db")})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPurgeLogs(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.Local)

	require.NoError(t, db.Create(&[]models.AccessLog{
		{UserID: 1, Action: "old", CreatedAt: now.AddDate(0, 0, -91)},
		{UserID: 1, Action: "edge", CreatedAt: now.AddDate(0, 0, -89)},
		{UserID: 1, Action: "new", CreatedAt: now.Add(-time.Hour)},
	}).Error)

	r := New(db, config.MaintenanceConfig{LogRetentionDays: 90}, quietLogger())
	r.now = func() time.Time { return now }

	n, err := r.PurgeLogs(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var left []string
	require.NoError(t, db.Model(&models.AccessLog{}).Order("id").Pluck("action", &left).Error)
	assert.Equal(t, []string{"edge", "new"}, left)
}

func TestRunOnce(t *testing.T) {
	db := setupTestDB(t)
	r := New(db, config.MaintenanceConfig{}, quietLogger())

	res, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.PurgedLogs)
}

func TestStats(t *testing.T) {
	db := setupTestDB(t)
	rec := models.AIH{Number: "1", Competence: "06/2025", Status: models.StatusInDiscussion}
	require.NoError(t, db.Create(&rec).Error)
	require.NoError(t, db.Create(&[]models.Glosa{
		{AIHID: rec.ID, Line: "l", Category: "c", Professional: "p", Quantity: 1, Active: true},
		{AIHID: rec.ID, Line: "l", Category: "c", Professional: "p", Quantity: 1, Active: false},
	}).Error)

	r := New(db, config.MaintenanceConfig{}, quietLogger())
	s, err := r.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, s.Records)
	assert.EqualValues(t, 1, s.ActiveGlosas)
	assert.Greater(t, s.SizeMB, 0.0)
	assert.False(t, s.OverLimit)

	r.cfg.SizeWarnMB = 0.0001
	s, err = r.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, s.OverLimit)
}

func TestLogStats_WarnsOverLimit(t *testing.T) {
	db := setupTestDB(t)
	logger, hook := test.NewNullLogger()
	r := New(db, config.MaintenanceConfig{SizeWarnMB: 0.0001}, logger)

	r.logStats(context.Background())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestStart_StopsOnCancel(t *testing.T) {
	db := setupTestDB(t)
	logger, hook := test.NewNullLogger()
	r := New(db, config.MaintenanceConfig{
		FirstRunDelay: 10 * time.Millisecond,
		Interval:      time.Hour,
		StatsInterval: time.Hour,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "maintenance finished" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
