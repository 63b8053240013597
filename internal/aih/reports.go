package aih

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/guscambraia/aih-v3.5/internal/models"
)

type ReportKind string

const (
	ReportGlosaTypes            ReportKind = "glosa-types"
	ReportGlosasByProfessional  ReportKind = "glosas-by-professional"
	ReportRecordsByProfessional ReportKind = "records-by-professional"
	ReportGlosaValues           ReportKind = "glosa-values"
	ReportPeriodStats           ReportKind = "period-stats"
	ReportApprovals             ReportKind = "approvals"
	ReportAccess                ReportKind = "access"
)

var ReportKinds = []ReportKind{
	ReportGlosaTypes,
	ReportGlosasByProfessional,
	ReportRecordsByProfessional,
	ReportGlosaValues,
	ReportPeriodStats,
	ReportApprovals,
	ReportAccess,
}

// Table is a report flattened for spreadsheet export.
type Table struct {
	Headers []string
	Rows    [][]any
}

type Tabular interface {
	Table() Table
}

type Report struct {
	Kind   ReportKind `json:"kind"`
	Scope  Scope      `json:"scope"`
	Result Tabular    `json:"result"`
}

// Report runs one of ReportKinds over scope. The access report ignores scope.
func (s *Service) Report(ctx context.Context, kind ReportKind, scope Scope) (*Report, error) {
	f, err := scope.resolve()
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var result Tabular
	switch kind {
	case ReportGlosaTypes:
		result, err = glosaTypeReport(db, f)
	case ReportGlosasByProfessional:
		result, err = glosasByProfessional(db, f)
	case ReportRecordsByProfessional:
		result, err = recordsByProfessional(db, f)
	case ReportGlosaValues:
		result, err = glosaValues(db, f)
	case ReportPeriodStats:
		result, err = periodStats(db, f)
	case ReportApprovals:
		result, err = approvals(db, f)
	case ReportAccess:
		result, err = accessReport(db)
	default:
		return nil, &ValidationError{Field: "kind", Reason: "unknown report " + string(kind)}
	}
	if err != nil {
		return nil, wrapStorage("report "+string(kind), err)
	}
	return &Report{Kind: kind, Scope: scope, Result: result}, nil
}

func activeGlosas(db *gorm.DB, f scopeFilter) *gorm.DB {
	q := db.Table("glosas").
		Joins("JOIN aihs ON aihs.id = glosas.aih_id").
		Where("glosas.active = ?", true)
	return f.records(q)
}

type GlosaTypeRow struct {
	Category      string `json:"category"`
	Occurrences   int64  `json:"occurrences"`
	Quantity      int64  `json:"quantity"`
	Professionals string `json:"professionals"`
}

type GlosaTypeReport []GlosaTypeRow

func (r GlosaTypeReport) Table() Table {
	t := Table{Headers: []string{"Tipo de Glosa", "Ocorrências", "Quantidade Total", "Profissionais"}}
	for _, row := range r {
		t.Rows = append(t.Rows, []any{row.Category, row.Occurrences, row.Quantity, row.Professionals})
	}
	return t
}

func glosaTypeReport(db *gorm.DB, f scopeFilter) (GlosaTypeReport, error) {
	rows := GlosaTypeReport{}
	err := activeGlosas(db, f).
		Select("glosas.category AS category, COUNT(*) AS occurrences, SUM(glosas.quantity) AS quantity, " +
			"GROUP_CONCAT(DISTINCT glosas.professional) AS professionals").
		Group("glosas.category").
		Order("occurrences DESC, category ASC").
		Scan(&rows).Error
	return rows, err
}

type ProfessionalGlosaRow struct {
	Professional       string `json:"professional"`
	Total              int64  `json:"total"`
	Quantity           int64  `json:"quantity"`
	Categories         string `json:"categories"`
	DistinctCategories int64  `json:"distinct_categories"`
}

type ProfessionalGlosaReport []ProfessionalGlosaRow

func (r ProfessionalGlosaReport) Table() Table {
	t := Table{Headers: []string{"Profissional", "Total de Glosas", "Quantidade Total", "Tipos de Glosa", "Tipos Diferentes"}}
	for _, row := range r {
		t.Rows = append(t.Rows, []any{row.Professional, row.Total, row.Quantity, row.Categories, row.DistinctCategories})
	}
	return t
}

func glosasByProfessional(db *gorm.DB, f scopeFilter) (ProfessionalGlosaReport, error) {
	rows := ProfessionalGlosaReport{}
	err := activeGlosas(db, f).
		Select("glosas.professional AS professional, COUNT(*) AS total, SUM(glosas.quantity) AS quantity, " +
			"GROUP_CONCAT(DISTINCT glosas.category) AS categories, COUNT(DISTINCT glosas.category) AS distinct_categories").
		Group("glosas.professional").
		Order("total DESC, professional ASC").
		Scan(&rows).Error
	return rows, err
}

type ProfessionalRecordsRow struct {
	Professional string `json:"professional"`
	Specialty    string `json:"specialty"`
	Records      int64  `json:"records"`
	Movements    int64  `json:"movements"`
}

type ProfessionalRecordsReport []ProfessionalRecordsRow

func (r ProfessionalRecordsReport) Table() Table {
	t := Table{Headers: []string{"Profissional", "Especialidade", "AIHs Auditadas", "Movimentações"}}
	for _, row := range r {
		t.Rows = append(t.Rows, []any{row.Professional, row.Specialty, row.Records, row.Movements})
	}
	return t
}

// recordsByProfessional credits every named professional of a movement,
// one row per (name, specialty).
func recordsByProfessional(db *gorm.DB, f scopeFilter) (ProfessionalRecordsReport, error) {
	var moves []models.Movement
	err := f.movements(db.Model(&models.Movement{})).
		Select("aih_id, prof_medicine, prof_nursing, prof_physio, prof_maxillo").
		Where("professional_key <> ''").
		Find(&moves).Error
	if err != nil {
		return nil, err
	}

	type key struct{ name, specialty string }
	type acc struct {
		records   map[uint]struct{}
		movements int64
	}
	byKey := make(map[key]*acc)
	for _, m := range moves {
		named := map[string]string{
			"medicine":      m.ProfMedicine,
			"nursing":       m.ProfNursing,
			"physiotherapy": m.ProfPhysio,
			"maxillofacial": m.ProfMaxillo,
		}
		for specialty, name := range named {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			k := key{name, specialty}
			a, ok := byKey[k]
			if !ok {
				a = &acc{records: make(map[uint]struct{})}
				byKey[k] = a
			}
			a.records[m.AIHID] = struct{}{}
			a.movements++
		}
	}

	rows := ProfessionalRecordsReport{}
	for k, a := range byKey {
		rows = append(rows, ProfessionalRecordsRow{
			Professional: k.name,
			Specialty:    k.specialty,
			Records:      int64(len(a.records)),
			Movements:    a.movements,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Records != rows[j].Records {
			return rows[i].Records > rows[j].Records
		}
		if rows[i].Professional != rows[j].Professional {
			return rows[i].Professional < rows[j].Professional
		}
		return rows[i].Specialty < rows[j].Specialty
	})
	return rows, nil
}

// GlosaValueReport compares records holding active glosas with every record in scope.
type GlosaValueReport struct {
	RecordsWithGlosas int64           `json:"records_with_glosas"`
	InitialTotal      decimal.Decimal `json:"initial_total"`
	CurrentTotal      decimal.Decimal `json:"current_total"`
	GlosaTotal        decimal.Decimal `json:"glosa_total"`
	AverageGlosa      decimal.Decimal `json:"average_glosa"`
	MinGlosa          decimal.Decimal `json:"min_glosa"`
	MaxGlosa          decimal.Decimal `json:"max_glosa"`
	PeriodRecords     int64           `json:"period_records"`
	PeriodInitial     decimal.Decimal `json:"period_initial"`
	PeriodCurrent     decimal.Decimal `json:"period_current"`
	PercentWithGlosas decimal.Decimal `json:"percent_with_glosas"`
}

func (r *GlosaValueReport) Table() Table {
	return Table{
		Headers: []string{"Indicador", "Valor"},
		Rows: [][]any{
			{"AIHs com glosas", r.RecordsWithGlosas},
			{"Valor inicial total", r.InitialTotal.StringFixed(2)},
			{"Valor atual total", r.CurrentTotal.StringFixed(2)},
			{"Total glosado", r.GlosaTotal.StringFixed(2)},
			{"Média de glosa por AIH", r.AverageGlosa.StringFixed(2)},
			{"Menor glosa", r.MinGlosa.StringFixed(2)},
			{"Maior glosa", r.MaxGlosa.StringFixed(2)},
			{"AIHs no período", r.PeriodRecords},
			{"Valor inicial do período", r.PeriodInitial.StringFixed(2)},
			{"Valor atual do período", r.PeriodCurrent.StringFixed(2)},
			{"% AIHs com glosas", r.PercentWithGlosas.StringFixed(2)},
		},
	}
}

func glosaValues(db *gorm.DB, f scopeFilter) (*GlosaValueReport, error) {
	var withGlosas []models.AIH
	err := f.records(db.Model(&models.AIH{})).
		Select("id, initial_value, current_value").
		Where("EXISTS (SELECT 1 FROM glosas WHERE glosas.aih_id = aihs.id AND glosas.active = ?)", true).
		Find(&withGlosas).Error
	if err != nil {
		return nil, err
	}
	var all []models.AIH
	if err := f.records(db.Model(&models.AIH{})).Select("id, initial_value, current_value").Find(&all).Error; err != nil {
		return nil, err
	}

	r := &GlosaValueReport{RecordsWithGlosas: int64(len(withGlosas)), PeriodRecords: int64(len(all))}
	for i, a := range withGlosas {
		delta := a.InitialValue.Sub(a.CurrentValue)
		r.InitialTotal = r.InitialTotal.Add(a.InitialValue)
		r.CurrentTotal = r.CurrentTotal.Add(a.CurrentValue)
		if i == 0 || delta.LessThan(r.MinGlosa) {
			r.MinGlosa = delta
		}
		if i == 0 || delta.GreaterThan(r.MaxGlosa) {
			r.MaxGlosa = delta
		}
	}
	r.GlosaTotal = r.InitialTotal.Sub(r.CurrentTotal)
	if r.RecordsWithGlosas > 0 {
		r.AverageGlosa = r.GlosaTotal.Div(decimal.NewFromInt(r.RecordsWithGlosas)).Round(2)
	}
	for _, a := range all {
		r.PeriodInitial = r.PeriodInitial.Add(a.InitialValue)
		r.PeriodCurrent = r.PeriodCurrent.Add(a.CurrentValue)
	}
	r.PercentWithGlosas = percent(r.RecordsWithGlosas, r.PeriodRecords)
	return r, nil
}

func percent(part, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part * 100).Div(decimal.NewFromInt(total)).Round(2)
}

type statusCount struct {
	Status models.Status
	N      int64
}

func countByStatus(db *gorm.DB, f scopeFilter) (map[models.Status]int64, int64, error) {
	var rows []statusCount
	err := f.records(db.Model(&models.AIH{})).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	out := make(map[models.Status]int64, len(rows))
	var total int64
	for _, r := range rows {
		out[r.Status] = r.N
		total += r.N
	}
	return out, total, nil
}

// ApprovalReport counts records per status.
type ApprovalReport struct {
	ApprovedDirect           int64 `json:"approved_direct"`
	ApprovedIndirect         int64 `json:"approved_indirect"`
	InDiscussion             int64 `json:"in_discussion"`
	FinalizedAfterDiscussion int64 `json:"finalized_after_discussion"`
	Total                    int64 `json:"total"`
}

func (r *ApprovalReport) Table() Table {
	return Table{
		Headers: []string{"Status", "Quantidade"},
		Rows: [][]any{
			{models.StatusApprovedDirect.Label(), r.ApprovedDirect},
			{models.StatusApprovedIndirect.Label(), r.ApprovedIndirect},
			{models.StatusInDiscussion.Label(), r.InDiscussion},
			{models.StatusFinalizedAfterDiscussion.Label(), r.FinalizedAfterDiscussion},
			{"Total", r.Total},
		},
	}
}

func approvals(db *gorm.DB, f scopeFilter) (*ApprovalReport, error) {
	counts, total, err := countByStatus(db, f)
	if err != nil {
		return nil, err
	}
	return &ApprovalReport{
		ApprovedDirect:           counts[models.StatusApprovedDirect],
		ApprovedIndirect:         counts[models.StatusApprovedIndirect],
		InDiscussion:             counts[models.StatusInDiscussion],
		FinalizedAfterDiscussion: counts[models.StatusFinalizedAfterDiscussion],
		Total:                    total,
	}, nil
}

type PeriodStatsReport struct {
	ApprovalReport
	AverageInitial    decimal.Decimal `json:"average_initial"`
	AverageCurrent    decimal.Decimal `json:"average_current"`
	InitialTotal      decimal.Decimal `json:"initial_total"`
	CurrentTotal      decimal.Decimal `json:"current_total"`
	ValueDifference   decimal.Decimal `json:"value_difference"`
	ActiveGlosas      int64           `json:"active_glosas"`
	RecordsWithGlosas int64           `json:"records_with_glosas"`
	PercentWithGlosas decimal.Decimal `json:"percent_with_glosas"`
	Movements         int64           `json:"movements"`
	Entries           int64           `json:"entries"`
	Exits             int64           `json:"exits"`
}

func (r *PeriodStatsReport) Table() Table {
	t := r.ApprovalReport.Table()
	t.Headers = []string{"Indicador", "Valor"}
	t.Rows = append(t.Rows,
		[]any{"Valor médio inicial", r.AverageInitial.StringFixed(2)},
		[]any{"Valor médio atual", r.AverageCurrent.StringFixed(2)},
		[]any{"Valor total inicial", r.InitialTotal.StringFixed(2)},
		[]any{"Valor total atual", r.CurrentTotal.StringFixed(2)},
		[]any{"Diferença de valores", r.ValueDifference.StringFixed(2)},
		[]any{"Glosas ativas", r.ActiveGlosas},
		[]any{"AIHs com glosas", r.RecordsWithGlosas},
		[]any{"% AIHs com glosas", r.PercentWithGlosas.StringFixed(2)},
		[]any{"Movimentações", r.Movements},
		[]any{"Entradas SUS", r.Entries},
		[]any{"Saídas Hospital", r.Exits},
	)
	return t
}

func periodStats(db *gorm.DB, f scopeFilter) (*PeriodStatsReport, error) {
	ap, err := approvals(db, f)
	if err != nil {
		return nil, err
	}
	r := &PeriodStatsReport{ApprovalReport: *ap}

	var values struct {
		InitialTotal decimal.NullDecimal
		CurrentTotal decimal.NullDecimal
	}
	err = f.records(db.Model(&models.AIH{})).
		Select("SUM(initial_value) AS initial_total, SUM(current_value) AS current_total").
		Scan(&values).Error
	if err != nil {
		return nil, err
	}
	r.InitialTotal = values.InitialTotal.Decimal.Round(2)
	r.CurrentTotal = values.CurrentTotal.Decimal.Round(2)
	r.ValueDifference = r.InitialTotal.Sub(r.CurrentTotal)
	if r.Total > 0 {
		n := decimal.NewFromInt(r.Total)
		r.AverageInitial = r.InitialTotal.Div(n).Round(2)
		r.AverageCurrent = r.CurrentTotal.Div(n).Round(2)
	}

	var glosas struct {
		Total   int64
		Records int64
	}
	err = activeGlosas(db, f).
		Select("COUNT(*) AS total, COUNT(DISTINCT glosas.aih_id) AS records").
		Scan(&glosas).Error
	if err != nil {
		return nil, err
	}
	r.ActiveGlosas = glosas.Total
	r.RecordsWithGlosas = glosas.Records
	r.PercentWithGlosas = percent(glosas.Records, r.Total)

	var moves struct {
		Total   int64
		Entries int64
		Exits   int64
	}
	err = f.movements(db.Model(&models.Movement{})).
		Select("COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END), 0) AS entries, "+
			"COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END), 0) AS exits",
			models.KindEntry, models.KindExit).
		Scan(&moves).Error
	if err != nil {
		return nil, err
	}
	r.Movements = moves.Total
	r.Entries = moves.Entries
	r.Exits = moves.Exits
	return r, nil
}

type AccessRow struct {
	Username   string    `json:"username"`
	Logins     int64     `json:"logins"`
	LastAccess time.Time `json:"last_access"`
}

type AccessReport []AccessRow

func (r AccessReport) Table() Table {
	t := Table{Headers: []string{"Usuário", "Total de Acessos", "Último Acesso"}}
	for _, row := range r {
		t.Rows = append(t.Rows, []any{row.Username, row.Logins, row.LastAccess.Format("02/01/2006 15:04")})
	}
	return t
}

// accessReport counts logins per user. The latest login is looked up by id
// so no aggregate time value has to be parsed back from sqlite.
func accessReport(db *gorm.DB) (AccessReport, error) {
	var rows []struct {
		UserID   uint
		Username string
		Logins   int64
		LastID   uint
	}
	err := db.Table("access_logs").
		Select("access_logs.user_id AS user_id, users.username AS username, COUNT(*) AS logins, MAX(access_logs.id) AS last_id").
		Joins("JOIN users ON users.id = access_logs.user_id").
		Where("access_logs.action = ?", models.ActionLogin).
		Group("access_logs.user_id, users.username").
		Order("logins DESC, username ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := AccessReport{}
	for _, r := range rows {
		var last models.AccessLog
		if err := db.Select("created_at").First(&last, r.LastID).Error; err != nil {
			return nil, err
		}
		out = append(out, AccessRow{Username: r.Username, Logins: r.Logins, LastAccess: last.CreatedAt})
	}
	return out, nil
}
