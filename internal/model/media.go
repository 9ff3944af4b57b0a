package model

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// AllowedMediaTypes lists the MIME types accepted by the upload endpoint.
var AllowedMediaTypes = map[string]string{
	"image/jpeg":      "image",
	"image/png":       "image",
	"image/gif":       "image",
	"image/webp":      "image",
	"application/pdf": "document",
}

// Media is an uploaded file, optionally attached to a case.
type Media struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	OwnerID   string    `json:"ownerId" gorm:"type:uuid;index;not null"`
	CaseID    *string   `json:"caseId,omitempty" gorm:"type:uuid;index"`
	Kind      string    `json:"kind" gorm:"type:text"`
	Fieldname string    `json:"fieldname" gorm:"type:text"`
	Filename  string    `json:"filename" gorm:"type:text;not null"`
	Path      string    `json:"-" gorm:"type:text;not null"`
	URL       string    `json:"url" gorm:"type:text"`
	MimeType  string    `json:"mimeType" gorm:"type:text"`
	Size      int64     `json:"size"`
	Title     string    `json:"title,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Media) TableName(namer schema.Namer) string {
	return namer.TableName("medias")
}

func (m *Media) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
