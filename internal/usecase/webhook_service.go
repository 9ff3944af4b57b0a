package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/ingestion"
	"gitlab.com/timkado/api/clinic-case-service/internal/jetstream"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/observer"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/internal/whatsapp"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

const unknownProfileName = "Unknown"

// Webhook outcomes, used as the metric label and in logs.
const (
	outcomeNoMessage        = "no_message"
	outcomeDuplicate        = "duplicate"
	outcomeNoFranchiseRef   = "dropped_no_franchise_ref"
	outcomeUnknownFranchise = "dropped_unknown_franchise"
	outcomeProvisioned      = "provisioned"
	outcomeLogged           = "logged"
	outcomeFailed           = "failed"
)

// IntakeTemplateConfig describes the template sent to a newly provisioned patient.
type IntakeTemplateConfig struct {
	TemplateName     string
	TemplateImageURL string
	FrontendBaseURL  string
}

// UpdateInfoURL is the deep link a new patient follows to complete their details.
func (c IntakeTemplateConfig) UpdateInfoURL(patientID, caseID string) string {
	return fmt.Sprintf("%s/patient/update-info/%s/%s", strings.TrimRight(c.FrontendBaseURL, "/"), patientID, caseID)
}

// WebhookService turns inbound WhatsApp messages into patients, cases and
// message log rows.
type WebhookService struct {
	patients   storage.PatientRepo
	franchises storage.FranchiseRepo
	cases      storage.CaseRepo
	messages   storage.MessageRepo
	notifier   INotificationWorker
	events     jetstream.EventPublisher
	template   IntakeTemplateConfig
}

func NewWebhookService(
	patients storage.PatientRepo,
	franchises storage.FranchiseRepo,
	cases storage.CaseRepo,
	messages storage.MessageRepo,
	notifier INotificationWorker,
	events jetstream.EventPublisher,
	template IntakeTemplateConfig,
) *WebhookService {
	if events == nil {
		events = jetstream.NopPublisher{}
	}
	return &WebhookService{
		patients:   patients,
		franchises: franchises,
		cases:      cases,
		messages:   messages,
		notifier:   notifier,
		events:     events,
		template:   template,
	}
}

// RegisterRoutes wires the service into a webhook router. Message events
// and anything unrecognised go through HandleMessage; a payload without a
// message is a no-op there.
func (s *WebhookService) RegisterRoutes(router ingestion.RouterInterface) {
	router.Register(model.WebhookEventMessage, s.HandleMessage)
	router.Register(model.WebhookEventStatus, s.HandleReceipt)
	router.Register(model.WebhookEventDelivery, s.HandleReceipt)
	router.RegisterDefault(s.HandleMessage)
}

// HandleReceipt acknowledges status and delivery reports.
func (s *WebhookService) HandleReceipt(ctx context.Context, eventType model.WebhookEventType, payload *model.WebhookPayload) error {
	logger.FromContext(ctx).Debug("Acknowledged webhook receipt",
		zap.String("recipient", payload.Recipient),
		zap.String("timestamp", payload.Events.Timestamp),
	)
	observer.IncWebhookOutcome("acknowledged_"+string(eventType), nil)
	return nil
}

// HandleMessage resolves the sender to a patient, provisioning one from the
// franchise id in the message body when needed, and logs the message. It
// never returns an error: failures are logged and counted.
func (s *WebhookService) HandleMessage(ctx context.Context, _ model.WebhookEventType, payload *model.WebhookPayload) error {
	start := time.Now()
	outcome, err := s.handleMessage(ctx, payload)
	observer.ObserveWebhookProcessingDuration(time.Since(start))
	observer.IncWebhookOutcome(outcome, err)

	log := logger.FromContext(ctx).With(zap.String("outcome", outcome), zap.Duration("duration", time.Since(start)))
	if err != nil {
		log.Error("Failed to process inbound WhatsApp message", zap.Error(err))
	} else {
		log.Info("Processed inbound WhatsApp message")
	}
	return nil
}

func (s *WebhookService) handleMessage(ctx context.Context, payload *model.WebhookPayload) (string, error) {
	msg := payload.InboundMessage()
	if msg == nil {
		return outcomeNoMessage, nil
	}
	log := logger.FromContext(ctx)

	if msg.ID != "" {
		exists, err := s.messages.MessageExists(ctx, msg.ID)
		if err != nil {
			log.Warn("Could not check for a replayed message, continuing", zap.Error(err))
		} else if exists {
			log.Info("Skipping replayed message", zap.String("wa_message_id", msg.ID))
			return outcomeDuplicate, nil
		}
	}

	patient, err := s.patients.FindPatientByPhone(ctx, msg.From)
	if err != nil {
		return outcomeFailed, fmt.Errorf("find patient by phone: %w", err)
	}

	outcome := outcomeLogged
	if patient == nil {
		var dropped string
		patient, dropped, err = s.provision(ctx, msg)
		if err != nil {
			return outcomeFailed, err
		}
		if patient == nil {
			return dropped, nil
		}
		outcome = outcomeProvisioned
	}

	if err := s.logMessage(ctx, payload, msg, patient); err != nil {
		return outcomeFailed, err
	}
	return outcome, nil
}

// provision creates the patient (and case) for a first-time sender. A nil
// patient with no error means the message was dropped for the returned reason.
func (s *WebhookService) provision(ctx context.Context, msg *model.WebhookMessage) (*model.Patient, string, error) {
	log := logger.FromContext(ctx)

	franchiseID, location := ExtractFranchiseAndLocation(msg.Text.Body)
	if franchiseID == "" {
		log.Info("Dropping message from unknown sender without a franchise reference")
		return nil, outcomeNoFranchiseRef, nil
	}

	franchise, err := s.franchises.FindFranchiseByID(ctx, franchiseID)
	if errors.Is(err, apperrors.ErrNotFound) {
		log.Info("Dropping message referencing an unknown franchise", zap.String("franchise_id", franchiseID))
		return nil, outcomeUnknownFranchise, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("find franchise %s: %w", franchiseID, err)
	}

	name := strings.TrimSpace(msg.ProfileName)
	if name == "" {
		name = unknownProfileName
	}
	result, err := s.patients.ProvisionPatient(ctx, &model.Patient{
		Phone:       msg.From,
		Firstname:   name,
		Fullname:    name,
		Age:         0,
		FranchiseID: franchise.ID,
	})
	if err != nil {
		return nil, "", fmt.Errorf("provision patient: %w", err)
	}
	if !result.Created {
		// Lost the race to a concurrent delivery from the same phone.
		log.Info("Patient was provisioned concurrently", zap.String("patient_id", result.Patient.ID))
		return result.Patient, "", nil
	}

	log.Info("Provisioned patient from WhatsApp",
		zap.String("patient_id", result.Patient.ID),
		zap.String("franchise_id", franchise.ID),
		zap.Bool("case_created", result.Case != nil),
	)

	var caseID *string
	if result.Case != nil {
		caseID = &result.Case.ID
	}
	s.events.Publish(ctx, model.SubjectPatientProvisioned, model.PatientProvisionedEvent{
		PatientID:   result.Patient.ID,
		FranchiseID: franchise.ID,
		CaseID:      caseID,
		Phone:       result.Patient.Phone,
		Location:    location,
	})

	if result.Case != nil {
		s.events.Publish(ctx, model.SubjectCaseCreated, model.CaseCreatedEvent{
			CaseID:      result.Case.ID,
			FranchiseID: result.Case.FranchiseID,
			QRCodeID:    result.Case.QRCodeID,
			PatientID:   result.Case.PatientID,
			Source:      "whatsapp",
		})
		s.sendIntakeTemplate(ctx, msg.From, result.Patient.ID, result.Case.ID)
	}

	return result.Patient, "", nil
}

func (s *WebhookService) sendIntakeTemplate(ctx context.Context, to, patientID, caseID string) {
	components := []whatsapp.TemplateComponent{
		whatsapp.ImageHeader(s.template.TemplateImageURL),
		whatsapp.URLButton(0, s.template.UpdateInfoURL(patientID, caseID)),
	}
	err := s.notifier.Submit(NotificationTask{
		Ctx:          ctx,
		Kind:         NotificationTemplate,
		To:           to,
		TemplateName: s.template.TemplateName,
		Components:   components,
	})
	if err != nil {
		logger.FromContext(ctx).Error("Failed to queue intake template", zap.String("patient_id", patientID), zap.Error(err))
	}
}

func (s *WebhookService) logMessage(ctx context.Context, payload *model.WebhookPayload, msg *model.WebhookMessage, patient *model.Patient) error {
	_, location := ExtractFranchiseAndLocation(msg.Text.Body)

	franchiseID := patient.FranchiseID
	patientID := patient.ID
	var caseID *string
	firstCase, err := s.cases.FindFirstCase(ctx, patient.ID, franchiseID)
	if err != nil {
		logger.FromContext(ctx).Warn("Could not resolve case for message, logging without one", zap.Error(err))
	} else if firstCase != nil {
		caseID = &firstCase.ID
	}

	record := &model.Message{
		MessageID:    msg.ID,
		From:         msg.From,
		To:           msg.To,
		ProfileName:  msg.ProfileName,
		ContentType:  msg.ContentType,
		MessageType:  model.MessageTypeIncoming,
		ProviderType: msg.MessageType,
		Body:         msg.Text.Body,
		FranchiseID:  &franchiseID,
		Location:     location,
		PatientID:    &patientID,
		CaseID:       caseID,
		RawPayload:   datatypes.JSON(utils.MustMarshalJSON(payload)),
	}
	if record.ContentType == "" {
		record.ContentType = msg.MessageType
	}
	if err := s.messages.SaveMessage(ctx, record); err != nil {
		return fmt.Errorf("save message: %w", err)
	}

	s.events.Publish(ctx, model.SubjectMessageLogged, model.MessageLoggedEvent{
		ID:          record.ID,
		MessageID:   record.MessageID,
		PatientID:   record.PatientID,
		CaseID:      record.CaseID,
		FranchiseID: record.FranchiseID,
	})
	return nil
}
