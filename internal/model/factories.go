package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

// RandomJSONB generates random JSON data for testing.
func RandomJSONB() datatypes.JSON {
	jsonData := map[string]interface{}{
		"channel": "whatsapp",
		"aCode":   gofakeit.LetterN(6),
	}
	bytes, _ := json.Marshal(jsonData)
	return datatypes.JSON(bytes)
}

// IndianStates is the state list the factories draw from so fixtures land
// in every dashboard region.
var IndianStates = []string{
	"Delhi", "Punjab", "Tamil Nadu", "Kerala", "West Bengal", "Odisha",
	"Gujarat", "Maharashtra", "Madhya Pradesh", "Assam", "Sikkim",
}

// NewIndianPhone returns a 12 digit phone number with the 91 prefix.
func NewIndianPhone() string {
	return fmt.Sprintf("91%d%s", gofakeit.Number(6, 9), gofakeit.DigitN(9))
}

// NewFranchise creates a new Franchise instance with default fake data.
func NewFranchise(overrideDefaults ...*Franchise) *Franchise {
	base := &Franchise{
		ID:         gofakeit.UUID(),
		Name:       gofakeit.Company() + " Clinic",
		Address:    gofakeit.Street(),
		City:       gofakeit.City(),
		State:      gofakeit.RandomString(IndianStates),
		PostalCode: gofakeit.DigitN(6),
		Country:    "India",
		Phone:      "+" + NewIndianPhone(),
		Email:      gofakeit.Email(),
		IsActive:   true,
		CreatedAt:  utils.Now().Add(-time.Duration(gofakeit.Number(1, 2000)) * time.Hour),
		UpdatedAt:  utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.Name != "" {
			base.Name = ovr.Name
		}
		if ovr.State != "" {
			base.State = ovr.State
		}
		if ovr.Country != "" {
			base.Country = ovr.Country
		}
		if ovr.Phone != "" {
			base.Phone = ovr.Phone
		}
		if ovr.Email != "" {
			base.Email = ovr.Email
		}
		if !ovr.CreatedAt.IsZero() {
			base.CreatedAt = ovr.CreatedAt
		}
	}
	return base
}

// NewQRCode creates a QRCode for the given franchise.
func NewQRCode(franchiseID string) *QRCode {
	code := fmt.Sprintf("FRAN-%s-%d", franchiseID, utils.Now().UnixMilli())
	return &QRCode{
		ID:           gofakeit.UUID(),
		Code:         code,
		FranchiseID:  franchiseID,
		WhatsappLink: "https://wa.me/" + NewIndianPhone() + "?text=QRCODE:" + code,
		IsActive:     true,
		CreatedAt:    utils.Now(),
		UpdatedAt:    utils.Now(),
	}
}

// NewPatient creates a new Patient instance with default fake data.
func NewPatient(overrideDefaults ...*Patient) *Patient {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	base := &Patient{
		ID:          gofakeit.UUID(),
		Firstname:   first,
		Lastname:    last,
		Fullname:    ComposeFullname(first, last),
		Phone:       NewIndianPhone(),
		Email:       gofakeit.Email(),
		Age:         gofakeit.Number(1, 90),
		Gender:      gofakeit.RandomString(Genders),
		FranchiseID: gofakeit.UUID(),
		IsActive:    true,
		CreatedAt:   utils.Now().Add(-time.Duration(gofakeit.Number(1, 2000)) * time.Hour),
		UpdatedAt:   utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.Phone != "" {
			base.Phone = ovr.Phone
		}
		if ovr.FranchiseID != "" {
			base.FranchiseID = ovr.FranchiseID
		}
		if ovr.Firstname != "" {
			base.Firstname = ovr.Firstname
			base.Fullname = ComposeFullname(ovr.Firstname, ovr.Lastname)
			base.Lastname = ovr.Lastname
		}
		if !ovr.CreatedAt.IsZero() {
			base.CreatedAt = ovr.CreatedAt
		}
	}
	return base
}

// NewCase creates a NEW case under the given QR code and franchise.
func NewCase(qrCodeID, franchiseID string, patientID *string) *Case {
	followUp := utils.Now()
	return &Case{
		ID:           gofakeit.UUID(),
		QRCodeID:     qrCodeID,
		FranchiseID:  franchiseID,
		PatientID:    patientID,
		Description:  gofakeit.Sentence(8),
		Status:       CaseStatusNew,
		FollowUpDate: &followUp,
		CreatedAt:    utils.Now(),
		UpdatedAt:    utils.Now(),
	}
}

// NewUser creates a User with the given role and a placeholder hash.
func NewUser(role string) *User {
	return &User{
		ID:        gofakeit.UUID(),
		Username:  gofakeit.Username() + gofakeit.DigitN(4),
		Email:     gofakeit.Email(),
		Phone:     NewIndianPhone(),
		Password:  "$2a$10$" + gofakeit.LetterN(53),
		Role:      role,
		Status:    UserStatusRegistered,
		CreatedAt: utils.Now(),
		UpdatedAt: utils.Now(),
	}
}

// NewDoctor creates a Doctor profile for userID.
func NewDoctor(userID string) *Doctor {
	return &Doctor{
		ID:        gofakeit.UUID(),
		UserID:    userID,
		Name:      "Dr. " + gofakeit.Name(),
		Specialty: gofakeit.RandomString([]string{"dermatology", "orthopedics", "pediatrics", "general"}),
		Phone:     NewIndianPhone(),
		IsActive:  true,
		CreatedAt: utils.Now(),
		UpdatedAt: utils.Now(),
	}
}

// NewTreatmentPlan creates a PLANNED plan for the case.
func NewTreatmentPlan(caseID, doctorID string) *TreatmentPlan {
	return &TreatmentPlan{
		ID:            gofakeit.UUID(),
		CaseID:        caseID,
		DoctorID:      doctorID,
		Summary:       gofakeit.Sentence(10),
		Medication:    gofakeit.Word(),
		EstimatedCost: gofakeit.Price(500, 50000),
		Status:        PlanStatusPlanned,
		CreatedAt:     utils.Now(),
		UpdatedAt:     utils.Now(),
	}
}

// NewWebhookPayload builds an inbound text message payload from phone.
func NewWebhookPayload(from, body string) *WebhookPayload {
	return &WebhookPayload{
		Channel:    "whatsapp",
		AppDetails: WebhookAppDetails{Type: "LIVE"},
		Recipient:  NewIndianPhone(),
		Events: WebhookEvents{
			EventType: "MoMessage",
			Timestamp: fmt.Sprintf("%d", utils.Now().Unix()),
			Date:      utils.Now().Format("2006-01-02"),
		},
		EventContent: &WebhookEventContent{
			Message: &WebhookMessage{
				From:        from,
				ID:          "wamid." + gofakeit.LetterN(24),
				Text:        WebhookText{Body: body},
				To:          NewIndianPhone(),
				ContentType: "text",
				MessageType: "text",
				ProfileName: gofakeit.FirstName(),
			},
		},
		ACode: gofakeit.LetterN(6),
	}
}

// NewMessage creates an incoming Message row.
func NewMessage(overrideDefaults ...*Message) *Message {
	base := &Message{
		ID:          gofakeit.UUID(),
		MessageID:   "wamid." + gofakeit.LetterN(24),
		From:        NewIndianPhone(),
		To:          NewIndianPhone(),
		ProfileName: gofakeit.FirstName(),
		ContentType: "text",
		MessageType: MessageTypeIncoming,
		Body:        gofakeit.Sentence(6),
		RawPayload:  RandomJSONB(),
		CreatedAt:   utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.MessageID != "" {
			base.MessageID = ovr.MessageID
		}
		if ovr.From != "" {
			base.From = ovr.From
		}
		base.FranchiseID = ovr.FranchiseID
		base.PatientID = ovr.PatientID
		base.CaseID = ovr.CaseID
	}
	return base
}
