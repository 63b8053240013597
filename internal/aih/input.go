package aih

import (
	"github.com/shopspring/decimal"

	"github.com/guscambraia/aih-v3.5/internal/models"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

// Actor is the authenticated user behind a mutating call.
type Actor struct {
	UserID   uint
	Username string
}

type CreateRecordInput struct {
	Number       string           `json:"number" validate:"required,aihnumber"`
	InitialValue *decimal.Decimal `json:"initial_value" validate:"required"`
	Competence   string           `json:"competence" validate:"omitempty,competence"` // current month when empty
	Attendances  []string         `json:"attendances" validate:"dive,required,max=64"`
}

func (in *CreateRecordInput) sanitize() {
	in.Number = util.SanitizeString(in.Number)
	in.Competence = util.SanitizeString(in.Competence)
	kept := in.Attendances[:0]
	for _, a := range in.Attendances {
		if a = util.SanitizeString(a); a != "" {
			kept = append(kept, a)
		}
	}
	in.Attendances = kept
}

type MovementInput struct {
	Kind         models.MovementKind `json:"kind" validate:"required,oneof=entry exit"`
	Status       models.Status       `json:"status" validate:"required"`
	Value        *decimal.Decimal    `json:"value" validate:"required"`
	Competence   string              `json:"competence" validate:"omitempty,competence"`
	ProfMedicine string              `json:"prof_medicine" validate:"max=128"`
	ProfNursing  string              `json:"prof_nursing" validate:"max=128"`
	ProfPhysio   string              `json:"prof_physiotherapy" validate:"max=128"`
	ProfMaxillo  string              `json:"prof_maxillofacial" validate:"max=128"`
	Note         string              `json:"note" validate:"max=2000"`
}

func (in *MovementInput) sanitize() {
	in.Competence = util.SanitizeString(in.Competence)
	in.ProfMedicine = util.SanitizeString(in.ProfMedicine)
	in.ProfNursing = util.SanitizeString(in.ProfNursing)
	in.ProfPhysio = util.SanitizeString(in.ProfPhysio)
	in.ProfMaxillo = util.SanitizeString(in.ProfMaxillo)
	in.Note = util.SanitizeString(in.Note)
}

func (in *MovementInput) check() error {
	in.sanitize()
	if err := checkStruct(in); err != nil {
		return err
	}
	if !in.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "must be 1, 2, 3 or 4"}
	}
	if err := util.ValidateAmount(*in.Value); err != nil {
		return &ValidationError{Field: "value", Reason: err.Error()}
	}
	return nil
}

type PendencyInput struct {
	Line         string `json:"line" validate:"required,max=128"`
	Category     string `json:"category" validate:"required,max=128"`
	Professional string `json:"professional" validate:"required,max=128"`
	Quantity     int    `json:"quantity" validate:"gte=1"` // 0 is read as 1
}

func (in *PendencyInput) sanitize() {
	in.Line = util.SanitizeString(in.Line)
	in.Category = util.SanitizeString(in.Category)
	in.Professional = util.SanitizeString(in.Professional)
	if in.Quantity == 0 {
		in.Quantity = 1
	}
}
