package model

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	PlanStatusPlanned    = "PLANNED"
	PlanStatusInProgress = "IN_PROGRESS"
	PlanStatusCompleted  = "COMPLETED"
	PlanStatusCancelled  = "CANCELLED"
)

// TreatmentPlan is a doctor-authored proposal attached to a case.
type TreatmentPlan struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid"`
	CaseID        string    `json:"caseId" gorm:"type:uuid;index;not null"`
	DoctorID      string    `json:"doctorId" gorm:"type:uuid;index;not null"`
	Summary       string    `json:"summary" gorm:"type:text;not null"`
	Medication    string    `json:"medication,omitempty" gorm:"type:text"`
	EstimatedCost float64   `json:"estimatedCost" gorm:"not null"`
	Status        string    `json:"status" gorm:"type:text;not null;default:PLANNED;index"`
	CreatedAt     time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
	Payments      []Payment `json:"payments,omitempty" gorm:"foreignKey:TreatmentPlanID"`
}

func (TreatmentPlan) TableName(namer schema.Namer) string {
	return namer.TableName("treatment_plans")
}

func (t *TreatmentPlan) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	if t.Status == "" {
		t.Status = PlanStatusPlanned
	}
	return nil
}

const (
	PaymentMethodCash = "CASH"
	PaymentMethodCard = "CARD"
	PaymentMethodUPI  = "UPI"

	PaymentStatusPending  = "PENDING"
	PaymentStatusSuccess  = "SUCCESS"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)

// Payment records money received against a treatment plan.
type Payment struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid"`
	TreatmentPlanID string     `json:"treatmentPlanId" gorm:"type:uuid;index;not null"`
	Amount          float64    `json:"amount" gorm:"not null"`
	Method          string     `json:"method" gorm:"type:text;not null"`
	Status          string     `json:"status" gorm:"type:text;not null;default:PENDING"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Payment) TableName(namer schema.Namer) string {
	return namer.TableName("payments")
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
