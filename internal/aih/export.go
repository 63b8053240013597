package aih

import (
	"context"

	"github.com/guscambraia/aih-v3.5/internal/models"
)

// ExportRow is a record with its attendance numbers, as written by exports.
type ExportRow struct {
	RecordSummary
	Attendances []string `json:"attendances"`
}

// ExportRecords lists every record, newest first, with active glosa counts.
func (s *Service) ExportRecords(ctx context.Context) ([]ExportRow, error) {
	res, err := s.Search(ctx, SearchFilters{})
	if err != nil {
		return nil, err
	}

	var attendances []models.Attendance
	if err := s.db.WithContext(ctx).Order("aih_id ASC, id ASC").Find(&attendances).Error; err != nil {
		return nil, wrapStorage("list attendances", err)
	}
	byRecord := make(map[uint][]string)
	for _, a := range attendances {
		byRecord[a.AIHID] = append(byRecord[a.AIHID], a.Number)
	}

	rows := make([]ExportRow, 0, len(res.Items))
	for _, item := range res.Items {
		att := byRecord[item.ID]
		if att == nil {
			att = []string{}
		}
		rows = append(rows, ExportRow{RecordSummary: item, Attendances: att})
	}
	return rows, nil
}

// HistoryEntry is a movement with the username of whoever submitted it.
type HistoryEntry struct {
	models.Movement
	Username string
}

// HistoryWithUsers is History joined with usernames; unknown users are left blank.
func (s *Service) HistoryWithUsers(ctx context.Context, recordID uint) (*models.AIH, []HistoryEntry, error) {
	rec, history, err := s.History(ctx, recordID)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uint, 0, len(history))
	for _, m := range history {
		ids = append(ids, m.UserID)
	}
	var users []models.User
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, nil, wrapStorage("load users", err)
		}
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}

	out := make([]HistoryEntry, 0, len(history))
	for _, m := range history {
		out = append(out, HistoryEntry{Movement: m, Username: names[m.UserID]})
	}
	return rec, out, nil
}
