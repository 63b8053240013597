package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement is one append-only custody transfer of an AIH.
// History order is (MovedAt, ID); rows are never updated.
type Movement struct {
	ID              uint            `gorm:"primaryKey"`
	AIHID           uint            `gorm:"index;not null"`
	Kind            MovementKind    `gorm:"size:16;index;not null"`
	MovedAt         time.Time       `gorm:"index;not null"`
	UserID          uint            `gorm:"index;not null"`
	Value           decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Competence      string          `gorm:"size:7;index"`
	ProfMedicine    string          `gorm:"size:128"`
	ProfNursing     string          `gorm:"size:128"`
	ProfPhysio      string          `gorm:"size:128"`
	ProfMaxillo     string          `gorm:"size:128"`
	ProfessionalKey string          `gorm:"size:600;index"` // normalized names, for search
	ResultingStatus Status          `gorm:"not null"`
	Note            string          `gorm:"type:text"`
}
