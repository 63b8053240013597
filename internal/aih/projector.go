package aih

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/guscambraia/aih-v3.5/internal/models"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

const dateLayout = "2006-01-02"

// Scope restricts a query to a competence or to a date range. Competence
// wins when both are given; the zero Scope covers everything.
// Records are matched on their own competence and creation time, movements
// on theirs.
type Scope struct {
	Competence string `json:"competence"`
	StartDate  string `json:"start_date"` // YYYY-MM-DD, inclusive
	EndDate    string `json:"end_date"`   // YYYY-MM-DD, inclusive
}

type scopeFilter struct {
	competence string
	from, to   time.Time
}

func (sc Scope) resolve() (scopeFilter, error) {
	var f scopeFilter
	if sc.Competence != "" {
		if err := util.ValidateCompetence(sc.Competence); err != nil {
			return f, &ValidationError{Field: "competence", Reason: "must be MM/YYYY"}
		}
		f.competence = sc.Competence
		return f, nil
	}
	if sc.StartDate != "" {
		t, err := time.ParseInLocation(dateLayout, sc.StartDate, time.Local)
		if err != nil {
			return f, &ValidationError{Field: "start_date", Reason: "must be YYYY-MM-DD"}
		}
		f.from = t
	}
	if sc.EndDate != "" {
		t, err := time.ParseInLocation(dateLayout, sc.EndDate, time.Local)
		if err != nil {
			return f, &ValidationError{Field: "end_date", Reason: "must be YYYY-MM-DD"}
		}
		f.to = t.Add(24 * time.Hour)
	}
	return f, nil
}

func (f scopeFilter) apply(db *gorm.DB, competenceCol, timeCol string) *gorm.DB {
	if f.competence != "" {
		return db.Where(competenceCol+" = ?", f.competence)
	}
	if !f.from.IsZero() {
		db = db.Where(timeCol+" >= ?", f.from)
	}
	if !f.to.IsZero() {
		db = db.Where(timeCol+" < ?", f.to)
	}
	return db
}

func (f scopeFilter) records(db *gorm.DB) *gorm.DB {
	return f.apply(db, "aihs.competence", "aihs.created_at")
}

func (f scopeFilter) movements(db *gorm.DB) *gorm.DB {
	return f.apply(db, "movements.competence", "movements.moved_at")
}

// StatusCounts groups records by review state. InProgress is a flow figure,
// distinct records with an entry minus distinct records with an exit, and is
// reported as-is even when negative.
type StatusCounts struct {
	Entries    int64 `json:"entries"`
	Exits      int64 `json:"exits"`
	InProgress int64 `json:"in_progress"`
	Finalized  int64 `json:"finalized"`
	Pending    int64 `json:"pending"`
}

func (s *Service) CountByStatusGroup(ctx context.Context, scope Scope) (*StatusCounts, error) {
	f, err := scope.resolve()
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var out StatusCounts
	if out.Entries, err = s.distinctMoved(db, f, models.KindEntry); err != nil {
		return nil, err
	}
	if out.Exits, err = s.distinctMoved(db, f, models.KindExit); err != nil {
		return nil, err
	}
	out.InProgress = out.Entries - out.Exits
	if out.InProgress < 0 {
		s.logger.WithFields(logrus.Fields{
			"scope":       scope,
			"entries":     out.Entries,
			"exits":       out.Exits,
			"in_progress": out.InProgress,
		}).Warn("negative in-progress count, movement data may be inconsistent")
	}

	if err := f.records(db.Model(&models.AIH{})).Where("status IN ?", models.TerminalStatuses).Count(&out.Finalized).Error; err != nil {
		return nil, wrapStorage("count finalized", err)
	}
	if err := f.records(db.Model(&models.AIH{})).Where("status IN ?", models.PendingStatuses).Count(&out.Pending).Error; err != nil {
		return nil, wrapStorage("count pending", err)
	}
	return &out, nil
}

func (s *Service) distinctMoved(db *gorm.DB, f scopeFilter, kind models.MovementKind) (int64, error) {
	var n int64
	err := f.movements(db.Model(&models.Movement{})).
		Where("movements.kind = ?", kind).
		Distinct("movements.aih_id").
		Count(&n).Error
	if err != nil {
		return 0, wrapStorage("count movements", err)
	}
	return n, nil
}

// FinancialSummary totals the values of the records in scope.
// AverageDelta is the mean of initial minus current value, zero for an empty scope.
type FinancialSummary struct {
	Records      int64           `json:"records"`
	InitialTotal decimal.Decimal `json:"initial_total"`
	CurrentTotal decimal.Decimal `json:"current_total"`
	AverageDelta decimal.Decimal `json:"average_delta"`
}

func (s *Service) FinancialSummary(ctx context.Context, scope Scope) (*FinancialSummary, error) {
	f, err := scope.resolve()
	if err != nil {
		return nil, err
	}

	var row struct {
		Records      int64
		InitialTotal decimal.NullDecimal
		CurrentTotal decimal.NullDecimal
	}
	err = f.records(s.db.WithContext(ctx).Model(&models.AIH{})).
		Select("COUNT(*) AS records, SUM(initial_value) AS initial_total, SUM(current_value) AS current_total").
		Scan(&row).Error
	if err != nil {
		return nil, wrapStorage("financial summary", err)
	}

	out := &FinancialSummary{
		Records:      row.Records,
		InitialTotal: row.InitialTotal.Decimal.Round(2),
		CurrentTotal: row.CurrentTotal.Decimal.Round(2),
		AverageDelta: decimal.Zero,
	}
	if out.Records > 0 {
		out.AverageDelta = out.InitialTotal.Sub(out.CurrentTotal).
			Div(decimal.NewFromInt(out.Records)).Round(2)
	}
	return out, nil
}

type CompetenceMetrics struct {
	InProgress   int64 `json:"in_progress"`
	Finalized    int64 `json:"finalized"`
	Pending      int64 `json:"pending"`
	TotalRecords int64 `json:"total_records"`
}

type OverallMetrics struct {
	Entries      int64 `json:"entries"`
	Exits        int64 `json:"exits"`
	InProgress   int64 `json:"in_progress"`
	Finalized    int64 `json:"finalized"`
	TotalRecords int64 `json:"total_records"`
}

type Dashboard struct {
	Competence           string            `json:"competence"`
	AvailableCompetences []string          `json:"available_competences"`
	CompetenceMetrics    CompetenceMetrics `json:"competence_metrics"`
	Overall              OverallMetrics    `json:"overall"`
	Financial            FinancialSummary  `json:"financial"`
}

// Dashboard aggregates one competence (the current month when empty) next
// to the all-time figures.
func (s *Service) Dashboard(ctx context.Context, competence string) (*Dashboard, error) {
	if competence == "" {
		competence = s.CurrentCompetence()
	}
	scope := Scope{Competence: competence}

	counts, err := s.CountByStatusGroup(ctx, scope)
	if err != nil {
		return nil, err
	}
	all, err := s.CountByStatusGroup(ctx, Scope{})
	if err != nil {
		return nil, err
	}
	fin, err := s.FinancialSummary(ctx, scope)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.AIH{}).Count(&total).Error; err != nil {
		return nil, wrapStorage("count records", err)
	}
	competences, err := s.AvailableCompetences(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Competence:           competence,
		AvailableCompetences: competences,
		CompetenceMetrics: CompetenceMetrics{
			InProgress:   counts.InProgress,
			Finalized:    counts.Finalized,
			Pending:      counts.Pending,
			TotalRecords: fin.Records,
		},
		Overall: OverallMetrics{
			Entries:      all.Entries,
			Exits:        all.Exits,
			InProgress:   all.InProgress,
			Finalized:    all.Finalized,
			TotalRecords: total,
		},
		Financial: *fin,
	}, nil
}

// AvailableCompetences lists the distinct record competences, newest first.
func (s *Service) AvailableCompetences(ctx context.Context) ([]string, error) {
	var list []string
	if err := s.db.WithContext(ctx).Model(&models.AIH{}).Distinct().Pluck("competence", &list).Error; err != nil {
		return nil, wrapStorage("list competences", err)
	}
	sort.Slice(list, func(i, j int) bool {
		return util.CompetenceSortKey(list[i]) > util.CompetenceSortKey(list[j])
	})
	return list, nil
}

// SearchFilters are AND-combined; zero fields are ignored.
type SearchFilters struct {
	Statuses     []models.Status  `json:"status"`
	Competence   string           `json:"competence"`
	StartDate    string           `json:"start_date"`
	EndDate      string           `json:"end_date"`
	MinValue     *decimal.Decimal `json:"min_value"`
	MaxValue     *decimal.Decimal `json:"max_value"`
	Number       string           `json:"number"`
	Professional string           `json:"professional"`
	Page         int              `json:"page"`
	PageSize     int              `json:"page_size"` // 0 returns every match
}

type RecordSummary struct {
	ID           uint            `json:"id"`
	Number       string          `json:"number"`
	InitialValue decimal.Decimal `json:"initial_value"`
	CurrentValue decimal.Decimal `json:"current_value"`
	Status       models.Status   `json:"status"`
	Competence   string          `json:"competence"`
	CreatedAt    time.Time       `json:"created_at"`
	ActiveGlosas int64           `json:"active_glosas"`
}

type SearchResult struct {
	Items    []RecordSummary `json:"items"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// Search lists matching records, newest first.
func (s *Service) Search(ctx context.Context, filters SearchFilters) (*SearchResult, error) {
	for _, st := range filters.Statuses {
		if !st.Valid() {
			return nil, &ValidationError{Field: "status", Reason: "must be 1, 2, 3 or 4"}
		}
	}
	if filters.Competence != "" {
		if err := util.ValidateCompetence(filters.Competence); err != nil {
			return nil, &ValidationError{Field: "competence", Reason: "must be MM/YYYY"}
		}
	}
	dates, err := Scope{StartDate: filters.StartDate, EndDate: filters.EndDate}.resolve()
	if err != nil {
		return nil, err
	}

	base := dates.records(s.db.WithContext(ctx).Model(&models.AIH{}))
	if len(filters.Statuses) > 0 {
		base = base.Where("aihs.status IN ?", filters.Statuses)
	}
	if filters.Competence != "" {
		base = base.Where("aihs.competence = ?", filters.Competence)
	}
	if filters.MinValue != nil {
		base = base.Where("aihs.current_value >= ?", *filters.MinValue)
	}
	if filters.MaxValue != nil {
		base = base.Where("aihs.current_value <= ?", *filters.MaxValue)
	}
	if n := util.SanitizeString(filters.Number); n != "" {
		base = base.Where(`aihs.number LIKE ? ESCAPE '\'`, util.ContainsPattern(n))
	}
	if p := NormalizeName(filters.Professional); p != "" {
		base = base.Where("aihs.id IN (?)",
			s.db.Model(&models.Movement{}).Select("aih_id").Where(`professional_key LIKE ? ESCAPE '\'`, util.ContainsPattern(p)))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, wrapStorage("count search", err)
	}

	q := base.Session(&gorm.Session{}).
		Select("aihs.*, (SELECT COUNT(*) FROM glosas WHERE glosas.aih_id = aihs.id AND glosas.active = ?) AS active_glosas", true).
		Order("aihs.created_at DESC, aihs.id DESC")
	if filters.PageSize > 0 {
		if filters.Page <= 0 {
			filters.Page = 1
		}
		q = q.Offset((filters.Page - 1) * filters.PageSize).Limit(filters.PageSize)
	}

	items := []RecordSummary{}
	if err := q.Scan(&items).Error; err != nil {
		return nil, wrapStorage("search", err)
	}
	return &SearchResult{Items: items, Total: total, Page: filters.Page, PageSize: filters.PageSize}, nil
}
