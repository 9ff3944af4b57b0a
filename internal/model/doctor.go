package model

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Doctor is the clinical profile of a User with role doctor.
type Doctor struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    string    `json:"userId" gorm:"type:uuid;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	Specialty string    `json:"specialty" gorm:"type:text;index"`
	Phone     string    `json:"phone" gorm:"type:text"`
	IsActive  bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Doctor) TableName(namer schema.Namer) string {
	return namer.TableName("doctors")
}

func (d *Doctor) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
