package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Genders accepted on patient updates.
var Genders = []string{"male", "female", "non_binary", "other", "undisclosed"}

// Patient is identified by phone number, which is unique across the table.
type Patient struct {
	ID             string           `json:"id" gorm:"primaryKey;type:uuid"`
	Firstname      string           `json:"firstname" gorm:"type:text"`
	Lastname       string           `json:"lastname" gorm:"type:text"`
	Fullname       string           `json:"fullname" gorm:"type:text;index"`
	Phone          string           `json:"phone" gorm:"type:text;uniqueIndex;not null"`
	Email          string           `json:"email,omitempty" gorm:"type:text"`
	Age            int              `json:"age" gorm:"not null;default:0"`
	Gender         string           `json:"gender,omitempty" gorm:"type:text"`
	FranchiseID    string           `json:"franchiseId" gorm:"type:uuid;index;not null"`
	IsActive       bool             `json:"isActive" gorm:"not null;default:true"`
	CreatedAt      time.Time        `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time        `json:"updatedAt" gorm:"autoUpdateTime"`
	Franchise      *Franchise       `json:"franchise,omitempty" gorm:"foreignKey:FranchiseID"`
	Cases          []Case           `json:"cases,omitempty" gorm:"foreignKey:PatientID"`
	Messages       []Message        `json:"messages,omitempty" gorm:"foreignKey:PatientID"`
	MedicalHistory []MedicalHistory `json:"medicalHistory,omitempty" gorm:"foreignKey:PatientID"`
}

func (Patient) TableName(namer schema.Namer) string {
	return namer.TableName("patients")
}

func (p *Patient) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ComposeFullname joins first and last name, ignoring blanks.
func ComposeFullname(firstname, lastname string) string {
	return strings.TrimSpace(strings.TrimSpace(firstname) + " " + strings.TrimSpace(lastname))
}

// MedicalHistory is a past condition recorded for a patient.
type MedicalHistory struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid"`
	PatientID   string     `json:"patientId" gorm:"type:uuid;index;not null"`
	Condition   string     `json:"condition" gorm:"type:text;not null"`
	Notes       string     `json:"notes,omitempty" gorm:"type:text"`
	DiagnosedAt *time.Time `json:"diagnosedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (MedicalHistory) TableName(namer schema.Namer) string {
	return namer.TableName("medical_histories")
}

func (m *MedicalHistory) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
