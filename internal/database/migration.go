package database

import (
	"fmt"

	"github.com/guscambraia/aih-v3.5/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AutoMigrate runs database schema migrations for all models and seeds
// the default glosa types.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.AIH{},
		&models.Attendance{},
		&models.Movement{},
		&models.Glosa{},
		&models.GlosaType{},
		&models.Professional{},
		&models.AccessLog{},
		&models.Backup{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := seedGlosaTypes(db); err != nil {
		return fmt.Errorf("seed glosa types: %w", err)
	}
	return nil
}

func seedGlosaTypes(db *gorm.DB) error {
	types := make([]models.GlosaType, 0, len(models.DefaultGlosaTypes))
	for _, d := range models.DefaultGlosaTypes {
		types = append(types, models.GlosaType{Description: d})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&types).Error
}
