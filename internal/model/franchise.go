package model

import (
	"time"

	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Franchise is a clinic location. Its UUID is embedded in the text of its
// QR codes so that inbound WhatsApp messages can be attributed to it.
type Franchise struct {
	ID         string     `json:"id" gorm:"primaryKey;type:uuid"`
	Name       string     `json:"name" gorm:"type:text;not null;index"`
	Address    string     `json:"address" gorm:"type:text"`
	City       string     `json:"city" gorm:"type:text;index"`
	State      string     `json:"state" gorm:"type:text;index"`
	PostalCode string     `json:"postalCode" gorm:"type:text"`
	Country    string     `json:"country" gorm:"type:text"`
	Phone      string     `json:"phone" gorm:"type:text"`
	Email      string     `json:"email" gorm:"type:text"`
	IsActive   bool       `json:"isActive" gorm:"not null;default:true"`
	CreatedAt  time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
	QRCodes    []QRCode   `json:"qrCodes,omitempty" gorm:"foreignKey:FranchiseID"`
}

func (Franchise) TableName(namer schema.Namer) string {
	return namer.TableName("franchises")
}

func (f *Franchise) BeforeCreate(*gorm.DB) error {
	ensureID(&f.ID)
	return nil
}

// FullAddress joins the non-empty address parts with ", ".
func (f *Franchise) FullAddress() string {
	return utils.JoinNonEmpty(", ", f.Address, f.City, f.State, f.PostalCode, f.Country)
}

// QRCode is a printed code encoding a WhatsApp deep link for one franchise.
type QRCode struct {
	ID           string     `json:"id" gorm:"primaryKey;type:uuid"`
	Code         string     `json:"code" gorm:"type:text;uniqueIndex;not null"`
	FranchiseID  string     `json:"franchiseId" gorm:"type:uuid;index;not null"`
	WhatsappLink string     `json:"whatsappLink" gorm:"type:text"`
	QRImage      string     `json:"qrImage,omitempty" gorm:"type:text"`
	IsActive     bool       `json:"isActive" gorm:"not null;default:true"`
	CreatedAt    time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
	Franchise    *Franchise `json:"franchise,omitempty" gorm:"foreignKey:FranchiseID"`
}

func (QRCode) TableName(namer schema.Namer) string {
	return namer.TableName("qr_codes")
}

func (q *QRCode) BeforeCreate(*gorm.DB) error {
	ensureID(&q.ID)
	return nil
}
