package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AIH is a hospital billing authorization under audit.
// CurrentValue and Status mirror the latest Movement and are never edited directly.
type AIH struct {
	ID           uint            `gorm:"primaryKey"`
	Number       string          `gorm:"size:20;uniqueIndex;not null"`
	InitialValue decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	CurrentValue decimal.Decimal `gorm:"type:decimal(15,2);index;not null"`
	Status       Status          `gorm:"index;not null;default:3"`
	Competence   string          `gorm:"size:7;index;not null"` // MM/YYYY
	CreatedByID  uint            `gorm:"index"`
	CreatedAt    time.Time       `gorm:"index"`

	Attendances []Attendance `gorm:"constraint:OnDelete:CASCADE"`
	Movements   []Movement   `gorm:"constraint:OnDelete:CASCADE"`
	Glosas      []Glosa      `gorm:"constraint:OnDelete:CASCADE"`
}

// Attendance is a service-encounter number linked to an AIH at creation.
type Attendance struct {
	ID     uint   `gorm:"primaryKey"`
	AIHID  uint   `gorm:"index;not null"`
	Number string `gorm:"size:64;not null"`
}
