package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/guscambraia/aih-v3.5/internal/config"
	"github.com/guscambraia/aih-v3.5/internal/models"
)

// Runner performs periodic housekeeping on the database.
type Runner struct {
	db     *gorm.DB
	cfg    config.MaintenanceConfig
	logger *logrus.Logger
	now    func() time.Time
}

func New(db *gorm.DB, cfg config.MaintenanceConfig, logger *logrus.Logger) *Runner {
	if cfg.LogRetentionDays <= 0 {
		cfg.LogRetentionDays = 90
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 7 * 24 * time.Hour
	}
	if cfg.FirstRunDelay <= 0 {
		cfg.FirstRunDelay = time.Minute
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = time.Hour
	}
	if cfg.SizeWarnMB <= 0 {
		cfg.SizeWarnMB = 500
	}
	return &Runner{db: db, cfg: cfg, logger: logger, now: time.Now}
}

// Result summarizes one maintenance pass.
type Result struct {
	PurgedLogs int64         `json:"purged_logs"`
	Took       time.Duration `json:"took"`
}

// PurgeLogs deletes access logs older than the retention period.
func (r *Runner) PurgeLogs(ctx context.Context) (int64, error) {
	cutoff := r.now().AddDate(0, 0, -r.cfg.LogRetentionDays)
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AccessLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge access logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Optimize rebuilds the database file and refreshes planner statistics.
func (r *Runner) Optimize(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("VACUUM").Error; err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	if err := db.Exec("ANALYZE").Error; err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	return nil
}

// RunOnce purges old logs then optimizes.
func (r *Runner) RunOnce(ctx context.Context) (*Result, error) {
	start := r.now()

	purged, err := r.PurgeLogs(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.Optimize(ctx); err != nil {
		return nil, err
	}

	res := &Result{PurgedLogs: purged, Took: r.now().Sub(start)}
	r.logger.WithFields(logrus.Fields{
		"purged_logs": res.PurgedLogs,
		"took":        res.Took.String(),
	}).Info("maintenance finished")
	return res, nil
}

// Stats are the figures reported by the hourly performance check.
type Stats struct {
	Records      int64   `json:"records"`
	Movements    int64   `json:"movements"`
	ActiveGlosas int64   `json:"active_glosas"`
	Users        int64   `json:"users"`
	AccessLogs   int64   `json:"access_logs"`
	SizeMB       float64 `json:"size_mb"`
	OverLimit    bool    `json:"over_limit"`
}

func (r *Runner) Stats(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	var s Stats

	counts := []struct {
		query *gorm.DB
		dst   *int64
	}{
		{db.Model(&models.AIH{}), &s.Records},
		{db.Model(&models.Movement{}), &s.Movements},
		{db.Model(&models.Glosa{}).Where("active = ?", true), &s.ActiveGlosas},
		{db.Model(&models.User{}), &s.Users},
		{db.Model(&models.AccessLog{}), &s.AccessLogs},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
	}

	var pages, pageSize int64
	if err := db.Raw("PRAGMA page_count").Scan(&pages).Error; err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if err := db.Raw("PRAGMA page_size").Scan(&pageSize).Error; err != nil {
		return nil, fmt.Errorf("page size: %w", err)
	}
	s.SizeMB = float64(pages*pageSize) / (1024 * 1024)
	s.OverLimit = s.SizeMB > r.cfg.SizeWarnMB
	return &s, nil
}

func (r *Runner) logStats(ctx context.Context) {
	s, err := r.Stats(ctx)
	if err != nil {
		config.LogError(r.logger, "maintenance", "logStats", "collect stats", nil, err)
		return
	}
	entry := r.logger.WithFields(logrus.Fields{
		"records":       s.Records,
		"movements":     s.Movements,
		"active_glosas": s.ActiveGlosas,
		"users":         s.Users,
		"size_mb":       fmt.Sprintf("%.2f", s.SizeMB),
	})
	if s.OverLimit {
		entry.Warn("database is large, consider archiving old records")
		return
	}
	entry.Info("database stats")
}

// Start runs maintenance after FirstRunDelay and then every Interval, and
// logs stats every StatsInterval. It blocks until ctx is done.
func (r *Runner) Start(ctx context.Context) {
	first := time.NewTimer(r.cfg.FirstRunDelay)
	defer first.Stop()
	stats := time.NewTicker(r.cfg.StatsInterval)
	defer stats.Stop()

	var weekly *time.Ticker
	var weeklyC <-chan time.Time
	defer func() {
		if weekly != nil {
			weekly.Stop()
		}
	}()

	run := func() {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			config.LogError(r.logger, "maintenance", "Start", "run maintenance", nil, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-first.C:
			run()
			weekly = time.NewTicker(r.cfg.Interval)
			weeklyC = weekly.C
		case <-weeklyC:
			run()
		case <-stats.C:
			r.logStats(ctx)
		}
	}
}
