package models

import "time"

// Glosa is a billing discrepancy (pendency) flagged on an AIH.
// Removal only clears Active; the row stays for history and reports.
type Glosa struct {
	ID           uint   `gorm:"primaryKey"`
	AIHID        uint   `gorm:"index;not null"`
	Line         string `gorm:"size:128;not null"`
	Category     string `gorm:"size:128;index;not null"`
	Professional string `gorm:"size:128;index;not null"`
	Quantity     int    `gorm:"not null;default:1"`
	Active       bool   `gorm:"index;not null"`
	CreatedAt    time.Time
}

// GlosaType is an entry of the managed glosa category list.
type GlosaType struct {
	ID          uint   `gorm:"primaryKey"`
	Description string `gorm:"size:128;uniqueIndex;not null"`
}

// DefaultGlosaTypes are seeded on migration.
var DefaultGlosaTypes = []string{
	"Material não autorizado",
	"Quantidade excedente",
	"Procedimento não autorizado",
	"Falta de documentação",
	"Divergência de valores",
}

// Professional is an auditor registered for a specialty.
type Professional struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:128;not null"`
	Specialty string `gorm:"size:32;index;not null"` // medicine / nursing / physiotherapy / maxillofacial
}

// Specialties accepted for professionals.
var Specialties = []string{"medicine", "nursing", "physiotherapy", "maxillofacial"}
