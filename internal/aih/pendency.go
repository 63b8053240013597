package aih

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/guscambraia/aih-v3.5/internal/models"
)

// AddPendency attaches an active glosa to the record. Duplicates are allowed;
// every call is an independent finding.
func (s *Service) AddPendency(ctx context.Context, recordID uint, in PendencyInput) (uint, error) {
	in.sanitize()
	if err := checkStruct(&in); err != nil {
		return 0, err
	}
	if _, err := s.recordByID(ctx, recordID); err != nil {
		return 0, err
	}

	g := models.Glosa{
		AIHID:        recordID,
		Line:         in.Line,
		Category:     in.Category,
		Professional: in.Professional,
		Quantity:     in.Quantity,
		Active:       true,
		CreatedAt:    s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&g).Error; err != nil {
		return 0, wrapStorage("add pendency", err)
	}

	s.logger.WithFields(logrus.Fields{"aih_id": recordID, "glosa_id": g.ID}).Info("glosa added")
	return g.ID, nil
}

// RetirePendency marks the glosa inactive. Retiring an already inactive
// glosa succeeds.
func (s *Service) RetirePendency(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Glosa
		if err := tx.First(&g, id).Error; err != nil {
			return notFoundOr(err, "glosa", id)
		}
		if !g.Active {
			return nil
		}
		return tx.Model(&g).Update("active", false).Error
	})
	if err != nil {
		return wrapStorage("retire pendency", err)
	}
	return nil
}

// ListPendencies returns the record's active glosas in insertion order.
func (s *Service) ListPendencies(ctx context.Context, recordID uint) ([]models.Glosa, error) {
	if _, err := s.recordByID(ctx, recordID); err != nil {
		return nil, err
	}
	var list []models.Glosa
	err := s.db.WithContext(ctx).
		Where("aih_id = ? AND active = ?", recordID, true).
		Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, wrapStorage("list pendencies", err)
	}
	return list, nil
}

// PendencyHistory returns every glosa of the record, retired ones included.
func (s *Service) PendencyHistory(ctx context.Context, recordID uint) ([]models.Glosa, error) {
	var list []models.Glosa
	err := s.db.WithContext(ctx).Where("aih_id = ?", recordID).Order("id ASC").Find(&list).Error
	if err != nil {
		return nil, wrapStorage("pendency history", err)
	}
	return list, nil
}

func notFoundOr(err error, entity string, key any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, Key: key}
	}
	return err
}
