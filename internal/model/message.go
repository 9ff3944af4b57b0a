package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	MessageTypeIncoming = "INCOMING"
	MessageTypeOutgoing = "OUTGOING"
)

// Message is the append-only log of WhatsApp traffic. MessageID is the
// provider identifier; it is indexed so replays can be detected but is not
// unique.
type Message struct {
	ID           string         `json:"id" gorm:"primaryKey;type:uuid"`
	MessageID    string         `json:"messageId" gorm:"column:message_id;type:text;index"`
	From         string         `json:"from" gorm:"column:from_phone;type:text;index"`
	To           string         `json:"to" gorm:"column:to_phone;type:text"`
	ProfileName  string         `json:"profileName,omitempty" gorm:"type:text"`
	ContentType  string         `json:"contentType,omitempty" gorm:"type:text"`
	MessageType  string         `json:"messageType,omitempty" gorm:"type:text"`
	// ProviderType is the gateway's own messageType; MessageType holds the direction.
	ProviderType string         `json:"providerMessageType,omitempty" gorm:"column:provider_message_type;type:text"`
	Body         string         `json:"body" gorm:"type:text"`
	FranchiseID  *string        `json:"franchiseId" gorm:"type:uuid;index"`
	Location     string         `json:"location,omitempty" gorm:"type:text"`
	PatientID    *string        `json:"patientId" gorm:"type:uuid;index"`
	CaseID       *string        `json:"caseId" gorm:"type:uuid;index"`
	RawPayload   datatypes.JSON `json:"-" gorm:"type:jsonb"`
	CreatedAt    time.Time      `json:"createdAt" gorm:"autoCreateTime"`
}

func (Message) TableName(namer schema.Namer) string {
	return namer.TableName("messages")
}

func (m *Message) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
