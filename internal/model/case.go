package model

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// CaseStatus is the lifecycle state of a case.
type CaseStatus string

const (
	CaseStatusNew              CaseStatus = "NEW"
	CaseStatusInReview         CaseStatus = "IN_REVIEW"
	CaseStatusDoctorAssigned   CaseStatus = "DOCTOR_ASSIGNED"
	CaseStatusTreatmentPlanned CaseStatus = "TREATMENT_PLANNED"
	CaseStatusCostApproved     CaseStatus = "COST_APPROVED"
	CaseStatusCompleted        CaseStatus = "COMPLETED"
	CaseStatusDeactivated      CaseStatus = "DEACTIVATED"
)

// PendingCaseStatuses are the statuses counted as open work on the dashboard.
var PendingCaseStatuses = []CaseStatus{
	CaseStatusNew,
	CaseStatusInReview,
	CaseStatusDoctorAssigned,
	CaseStatusTreatmentPlanned,
}

// IsPending reports whether s is one of PendingCaseStatuses.
func (s CaseStatus) IsPending() bool {
	for _, p := range PendingCaseStatuses {
		if s == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s CaseStatus) IsTerminal() bool {
	return s == CaseStatusCompleted || s == CaseStatusDeactivated
}

// CanTransitionTo enforces the case lifecycle:
// NEW -> IN_REVIEW -> DOCTOR_ASSIGNED -> TREATMENT_PLANNED -> COST_APPROVED -> COMPLETED.
// Doctor assignment and planning may be repeated before cost approval, and
// any open case may be deactivated.
func (s CaseStatus) CanTransitionTo(next CaseStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case CaseStatusInReview:
		return s == CaseStatusNew
	case CaseStatusDoctorAssigned, CaseStatusTreatmentPlanned:
		return s.IsPending()
	case CaseStatusCostApproved:
		return s == CaseStatusTreatmentPlanned
	case CaseStatusCompleted:
		return s == CaseStatusCostApproved
	case CaseStatusDeactivated:
		return true
	default:
		return false
	}
}

// Case is a patient's medical request tied to one franchise and the QR code
// that originated it.
type Case struct {
	ID             string          `json:"id" gorm:"primaryKey;type:uuid"`
	QRCodeID       string          `json:"qrCodeId" gorm:"column:qr_code_id;type:uuid;index;not null"`
	FranchiseID    string          `json:"franchiseId" gorm:"type:uuid;index;not null"`
	PatientID      *string         `json:"patientId" gorm:"type:uuid;index"`
	DoctorID       *string         `json:"doctorId" gorm:"type:uuid;index"`
	Description    string          `json:"description" gorm:"type:text"`
	Status         CaseStatus      `json:"status" gorm:"type:text;not null;default:NEW;index"`
	DoctorNotes    string          `json:"doctorNotes,omitempty" gorm:"type:text"`
	MedicationCost float64         `json:"medicationCost" gorm:"not null;default:0"`
	FollowUpDate   *time.Time      `json:"followUpDate,omitempty"`
	CreatedAt      time.Time       `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
	Franchise      *Franchise      `json:"franchise,omitempty" gorm:"foreignKey:FranchiseID"`
	QRCode         *QRCode         `json:"qrCode,omitempty" gorm:"foreignKey:QRCodeID"`
	Patient        *Patient        `json:"patient,omitempty" gorm:"foreignKey:PatientID"`
	Doctor         *Doctor         `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`
	TreatmentPlans []TreatmentPlan `json:"treatmentPlans,omitempty" gorm:"foreignKey:CaseID"`
	Medias         []Media         `json:"medias,omitempty" gorm:"foreignKey:CaseID"`
}

func (Case) TableName(namer schema.Namer) string {
	return namer.TableName("cases")
}

func (c *Case) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	if c.Status == "" {
		c.Status = CaseStatusNew
	}
	return nil
}
