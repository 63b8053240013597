package aih

import (
	"context"
	"slices"

	"github.com/guscambraia/aih-v3.5/internal/models"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

func (s *Service) ListGlosaTypes(ctx context.Context) ([]models.GlosaType, error) {
	var list []models.GlosaType
	if err := s.db.WithContext(ctx).Order("description ASC").Find(&list).Error; err != nil {
		return nil, wrapStorage("list glosa types", err)
	}
	return list, nil
}

func (s *Service) CreateGlosaType(ctx context.Context, description string) (*models.GlosaType, error) {
	description = util.SanitizeString(description)
	if description == "" {
		return nil, &ValidationError{Field: "description", Reason: "is required"}
	}
	t := models.GlosaType{Description: description}
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ValidationError{Field: "description", Reason: "already exists"}
		}
		return nil, wrapStorage("create glosa type", err)
	}
	return &t, nil
}

func (s *Service) DeleteGlosaType(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.GlosaType{}, id)
	if res.Error != nil {
		return wrapStorage("delete glosa type", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "glosa type", Key: id}
	}
	return nil
}

func (s *Service) ListProfessionals(ctx context.Context) ([]models.Professional, error) {
	var list []models.Professional
	if err := s.db.WithContext(ctx).Order("specialty ASC, name ASC").Find(&list).Error; err != nil {
		return nil, wrapStorage("list professionals", err)
	}
	return list, nil
}

func (s *Service) CreateProfessional(ctx context.Context, name, specialty string) (*models.Professional, error) {
	name = util.SanitizeString(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	}
	if !slices.Contains(models.Specialties, specialty) {
		return nil, &ValidationError{Field: "specialty", Reason: "unknown specialty"}
	}
	p := models.Professional{Name: name, Specialty: specialty}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, wrapStorage("create professional", err)
	}
	return &p, nil
}

func (s *Service) DeleteProfessional(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Professional{}, id)
	if res.Error != nil {
		return wrapStorage("delete professional", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "professional", Key: id}
	}
	return nil
}
