package aih

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/guscambraia/aih-v3.5/internal/config"
	"github.com/guscambraia/aih-v3.5/internal/models"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

const moduleName = "aih"

// Clock supplies timestamps and the default competence.
type Clock func() time.Time

// Service applies movements and pendency changes to AIH records and answers
// the dashboard, search and report queries.
type Service struct {
	db     *gorm.DB
	locker Locker
	now    Clock
	logger *logrus.Logger
}

type Option func(*Service)

func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithClock(c Clock) Option {
	return func(s *Service) { s.now = c }
}

func NewService(db *gorm.DB, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		db:     db,
		locker: NewMemoryLocker(),
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	return s
}

// CurrentCompetence is the clock's month as MM/YYYY.
func (s *Service) CurrentCompetence() string {
	return util.CompetenceOf(s.now())
}

// CreateRecord registers a new AIH together with its attendances and the
// initial entry movement, all in one transaction.
func (s *Service) CreateRecord(ctx context.Context, in CreateRecordInput, actor Actor) (*models.AIH, error) {
	in.sanitize()
	if err := checkStruct(&in); err != nil {
		return nil, err
	}
	if err := util.ValidateAmount(*in.InitialValue); err != nil {
		return nil, &ValidationError{Field: "initial_value", Reason: err.Error()}
	}
	if in.Competence == "" {
		in.Competence = s.CurrentCompetence()
	}

	now := s.now()
	rec := models.AIH{
		Number:       in.Number,
		InitialValue: *in.InitialValue,
		CurrentValue: *in.InitialValue,
		Status:       models.StatusInDiscussion,
		Competence:   in.Competence,
		CreatedByID:  actor.UserID,
		CreatedAt:    now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.AIH{}).Where("number = ?", in.Number).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateRecord
		}
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateRecord
			}
			return err
		}

		for _, number := range in.Attendances {
			a := models.Attendance{AIHID: rec.ID, Number: number}
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
			rec.Attendances = append(rec.Attendances, a)
		}

		first := MovementInput{
			Kind:       models.KindEntry,
			Status:     models.StatusInDiscussion,
			Value:      in.InitialValue,
			Competence: in.Competence,
			Note:       InitialMovementNote,
		}
		return s.apply(tx, &rec, nil, first, actor, now)
	})
	if err != nil {
		if !errors.Is(err, ErrDuplicateRecord) {
			config.LogError(s.logger, moduleName, "CreateRecord", "create aih", in.Number, err)
		}
		return nil, wrapStorage("create record", err)
	}

	s.logger.WithFields(logrus.Fields{"aih_id": rec.ID, "number": rec.Number, "user_id": actor.UserID}).Info("aih created")
	return &rec, nil
}

// SubmitMovement validates in against the record's current history and
// appends it, updating the record's status and current value. Nothing is
// written when any check fails.
func (s *Service) SubmitMovement(ctx context.Context, recordID uint, in MovementInput, actor Actor) (*models.AIH, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	if in.Competence == "" {
		in.Competence = s.CurrentCompetence()
	}

	unlock, err := s.locker.Lock(ctx, recordKey(recordID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var rec models.AIH
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "aih", Key: recordID}
			}
			return err
		}
		history, err := loadHistory(tx, rec.ID)
		if err != nil {
			return err
		}
		return s.apply(tx, &rec, history, in, actor, s.now())
	})
	if err != nil {
		return nil, wrapStorage("submit movement", err)
	}

	s.logger.WithFields(logrus.Fields{
		"aih_id":  rec.ID,
		"kind":    in.Kind,
		"status":  rec.Status.String(),
		"user_id": actor.UserID,
	}).Info("movement recorded")
	return &rec, nil
}

// apply is the single write path for movements. It must run inside tx.
func (s *Service) apply(tx *gorm.DB, rec *models.AIH, history []models.Movement, in MovementInput, actor Actor, at time.Time) error {
	if err := Validate(history, in.Kind); err != nil {
		return err
	}
	// never sort before the current last movement, even if the clock stepped back
	if last := LastMovement(history); last != nil && at.Before(last.MovedAt) {
		at = last.MovedAt
	}

	m := models.Movement{
		AIHID:           rec.ID,
		Kind:            in.Kind,
		MovedAt:         at,
		UserID:          actor.UserID,
		Value:           *in.Value,
		Competence:      in.Competence,
		ProfMedicine:    in.ProfMedicine,
		ProfNursing:     in.ProfNursing,
		ProfPhysio:      in.ProfPhysio,
		ProfMaxillo:     in.ProfMaxillo,
		ResultingStatus: in.Status,
		Note:            in.Note,
	}
	m.ProfessionalKey = professionalKey(&m)
	if err := tx.Create(&m).Error; err != nil {
		return err
	}

	err := tx.Model(&models.AIH{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
		"status":        m.ResultingStatus,
		"current_value": m.Value,
	}).Error
	if err != nil {
		return err
	}
	rec.Status = m.ResultingStatus
	rec.CurrentValue = m.Value
	rec.Movements = append(rec.Movements, m)
	return nil
}

func loadHistory(db *gorm.DB, recordID uint) ([]models.Movement, error) {
	var history []models.Movement
	err := db.Where("aih_id = ?", recordID).Order("moved_at ASC, id ASC").Find(&history).Error
	return history, err
}

// NextMovement reports the only movement kind the record accepts next.
func (s *Service) NextMovement(ctx context.Context, recordID uint) (*NextMovement, error) {
	if _, err := s.recordByID(ctx, recordID); err != nil {
		return nil, err
	}
	history, err := loadHistory(s.db.WithContext(ctx), recordID)
	if err != nil {
		return nil, wrapStorage("load history", err)
	}
	next := Explain(history)
	return &next, nil
}

// GetRecord loads an AIH by number with its attendances, movements (newest
// first) and active glosas.
func (s *Service) GetRecord(ctx context.Context, number string) (*models.AIH, error) {
	var rec models.AIH
	err := s.db.WithContext(ctx).
		Preload("Attendances").
		Preload("Movements", func(db *gorm.DB) *gorm.DB {
			return db.Order("moved_at DESC, id DESC")
		}).
		Preload("Glosas", "active = ?", true).
		Where("number = ?", strings.TrimSpace(number)).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "aih", Key: number}
		}
		return nil, wrapStorage("get record", err)
	}
	return &rec, nil
}

// History returns the record and its movements, newest first.
func (s *Service) History(ctx context.Context, recordID uint) (*models.AIH, []models.Movement, error) {
	rec, err := s.recordByID(ctx, recordID)
	if err != nil {
		return nil, nil, err
	}
	history, err := loadHistory(s.db.WithContext(ctx), recordID)
	if err != nil {
		return nil, nil, wrapStorage("load history", err)
	}
	sortHistory(history, true)
	return rec, history, nil
}

func (s *Service) recordByID(ctx context.Context, id uint) (*models.AIH, error) {
	var rec models.AIH
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "aih", Key: id}
		}
		return nil, wrapStorage("get record", err)
	}
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
