package model

import (
	"encoding/json"
	"strings"
	"time"
)

// WebhookEventType is the provider-assigned events.eventType of an inbound payload.
type WebhookEventType string

const (
	WebhookEventMessage  WebhookEventType = "message"
	WebhookEventStatus   WebhookEventType = "status"
	WebhookEventDelivery WebhookEventType = "delivery"
	WebhookEventUnknown  WebhookEventType = "unknown"
)

// MapWebhookEventType normalises a provider event type onto a known
// WebhookEventType. Providers send variants such as "MoMessage",
// "DELIVERY_REPORT" or "status.read"; anything unrecognised maps to
// WebhookEventUnknown and false.
func MapWebhookEventType(input string) (WebhookEventType, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return WebhookEventUnknown, false
	}

	switch WebhookEventType(s) {
	case WebhookEventMessage, WebhookEventStatus, WebhookEventDelivery:
		return WebhookEventType(s), true
	}

	if i := strings.IndexAny(s, "._"); i > 0 {
		if t, ok := MapWebhookEventType(s[:i]); ok {
			return t, true
		}
	}

	switch {
	case strings.HasSuffix(s, "message"):
		return WebhookEventMessage, true
	case strings.HasPrefix(s, "deliver"):
		return WebhookEventDelivery, true
	}
	return WebhookEventUnknown, false
}

// Subjects published on the domain-event stream.
const (
	SubjectPatientProvisioned = "clinic.patient.provisioned"
	SubjectMessageLogged      = "clinic.message.logged"
	SubjectCaseCreated        = "clinic.case.created"
)

// DomainEvent is the envelope written to JetStream.
type DomainEvent struct {
	ID         string          `json:"id"`
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type PatientProvisionedEvent struct {
	PatientID   string  `json:"patient_id"`
	FranchiseID string  `json:"franchise_id"`
	CaseID      *string `json:"case_id,omitempty"`
	Phone       string  `json:"phone"`
	Location    string  `json:"location,omitempty"`
}

type MessageLoggedEvent struct {
	ID          string  `json:"id"`
	MessageID   string  `json:"message_id"`
	PatientID   *string `json:"patient_id,omitempty"`
	CaseID      *string `json:"case_id,omitempty"`
	FranchiseID *string `json:"franchise_id,omitempty"`
}

type CaseCreatedEvent struct {
	CaseID      string  `json:"case_id"`
	FranchiseID string  `json:"franchise_id"`
	QRCodeID    string  `json:"qr_code_id"`
	PatientID   *string `json:"patient_id,omitempty"`
	Source      string  `json:"source"`
}
