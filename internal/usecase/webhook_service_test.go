package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	jsmock "gitlab.com/timkado/api/clinic-case-service/internal/jetstream/mock"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	storagemock "gitlab.com/timkado/api/clinic-case-service/internal/storage/mock"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
)

const (
	testFranchiseID = "3f2b9c1e-8a4d-4e2f-9b6a-1c2d3e4f5a6b"
	testPhone       = "919812345678"
)

type webhookFixture struct {
	service    *WebhookService
	patients   *storagemock.PatientRepoMock
	franchises *storagemock.FranchiseRepoMock
	cases      *storagemock.CaseRepoMock
	messages   *storagemock.MessageRepoMock
	notifier   *MockNotificationWorker
	events     *jsmock.PublisherMock
	logs       *observer.ObservedLogs
	ctx        context.Context
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	core, logs := observer.New(zapcore.DebugLevel)
	f := &webhookFixture{
		patients:   new(storagemock.PatientRepoMock),
		franchises: new(storagemock.FranchiseRepoMock),
		cases:      new(storagemock.CaseRepoMock),
		messages:   new(storagemock.MessageRepoMock),
		notifier:   new(MockNotificationWorker),
		events:     new(jsmock.PublisherMock),
		logs:       logs,
		ctx:        logger.WithLogger(context.Background(), zap.New(core)),
	}
	f.service = NewWebhookService(f.patients, f.franchises, f.cases, f.messages, f.notifier, f.events, IntakeTemplateConfig{
		TemplateName:     "patient_intake",
		TemplateImageURL: "https://cdn.example.com/intake.png",
		FrontendBaseURL:  "https://app.example.com/",
	})
	t.Cleanup(func() {
		f.patients.AssertExpectations(t)
		f.franchises.AssertExpectations(t)
		f.cases.AssertExpectations(t)
		f.messages.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})
	return f
}

func (f *webhookFixture) handle(payload *model.WebhookPayload) error {
	return f.service.HandleMessage(f.ctx, model.WebhookEventMessage, payload)
}

func firstMessageBody() string {
	return "Hello, I have an issue at Franchise ID: " + testFranchiseID + ", Location: Indore, MP. Here is my problem: knee pain"
}

func TestHandleMessage_NoMessageIsNoop(t *testing.T) {
	f := newWebhookFixture(t)

	payload := &model.WebhookPayload{Events: model.WebhookEvents{EventType: "MoMessage"}}
	assert.NoError(t, f.handle(payload))
	assert.NoError(t, f.service.HandleMessage(f.ctx, model.WebhookEventMessage, nil))
	// No repository expectations registered: any call would fail the mocks.
}

func TestHandleMessage_ProvisionsPatientAndCase(t *testing.T) {
	f := newWebhookFixture(t)
	payload := model.NewWebhookPayload(testPhone, firstMessageBody())
	payload.EventContent.Message.ProfileName = "Asha"
	msg := payload.InboundMessage()

	franchise := &model.Franchise{ID: testFranchiseID, Name: "Indore Central"}
	patientID := "0b4f6c8e-1111-4a2b-9c3d-5e6f7a8b9c0d"
	caseID := "7c1d2e3f-2222-4a2b-9c3d-5e6f7a8b9c0d"
	newCase := &model.Case{ID: caseID, FranchiseID: testFranchiseID, QRCodeID: "qr-1", PatientID: &patientID, Status: model.CaseStatusNew}

	f.messages.On("MessageExists", mock.Anything, msg.ID).Return(false, nil).Once()
	f.patients.On("FindPatientByPhone", mock.Anything, testPhone).Return(nil, nil).Once()
	f.franchises.On("FindFranchiseByID", mock.Anything, testFranchiseID).Return(franchise, nil).Once()
	f.patients.On("ProvisionPatient", mock.Anything, mock.MatchedBy(func(p *model.Patient) bool {
		return p.Phone == testPhone && p.Firstname == "Asha" && p.Fullname == "Asha" &&
			p.Age == 0 && p.FranchiseID == testFranchiseID
	})).Return(&storage.ProvisionResult{
		Patient: &model.Patient{ID: patientID, Phone: testPhone, FranchiseID: testFranchiseID},
		Case:    newCase,
		Created: true,
	}, nil).Once()

	f.events.On("Publish", mock.Anything, model.SubjectPatientProvisioned, mock.MatchedBy(func(e model.PatientProvisionedEvent) bool {
		return e.PatientID == patientID && e.CaseID != nil && *e.CaseID == caseID && e.Location == "Indore"
	})).Once()
	f.events.On("Publish", mock.Anything, model.SubjectCaseCreated, mock.MatchedBy(func(e model.CaseCreatedEvent) bool {
		return e.CaseID == caseID && e.Source == "whatsapp"
	})).Once()
	f.notifier.On("Submit", mock.MatchedBy(func(task NotificationTask) bool {
		if task.Kind != NotificationTemplate || task.To != testPhone || task.TemplateName != "patient_intake" || len(task.Components) != 2 {
			return false
		}
		header, button := task.Components[0], task.Components[1]
		return header.Type == "header" &&
			header.Parameters[0].Image.Link == "https://cdn.example.com/intake.png" &&
			button.Type == "button" && button.SubType == "url" && button.Index == "0" &&
			button.Parameters[0].Text == "https://app.example.com/patient/update-info/"+patientID+"/"+caseID
	})).Return(nil).Once()

	f.cases.On("FindFirstCase", mock.Anything, patientID, testFranchiseID).Return(newCase, nil).Once()
	f.messages.On("SaveMessage", mock.Anything, mock.MatchedBy(func(m *model.Message) bool {
		return m.MessageID == msg.ID && m.From == testPhone &&
			m.PatientID != nil && *m.PatientID == patientID &&
			m.FranchiseID != nil && *m.FranchiseID == testFranchiseID &&
			m.CaseID != nil && *m.CaseID == caseID &&
			m.Location == "Indore" && m.MessageType == model.MessageTypeIncoming &&
			m.ProviderType == msg.MessageType && msg.MessageType != "" &&
			len(m.RawPayload) > 0
	})).Return(nil).Once()
	f.events.On("Publish", mock.Anything, model.SubjectMessageLogged, mock.Anything).Once()

	require.NoError(t, f.handle(payload))
	assert.Equal(t, 1, f.logs.FilterMessage("Provisioned patient from WhatsApp").Len())
	assert.Equal(t, 1, f.logs.FilterField(zap.String("outcome", outcomeProvisioned)).Len())
}

func TestHandleMessage_UnknownProfileName(t *testing.T) {
	f := newWebhookFixture(t)
	payload := model.NewWebhookPayload(testPhone, firstMessageBody())
	payload.EventContent.Message.ProfileName = "  "
	payload.EventContent.Message.ID = ""

	patient := &model.Patient{ID: "p-1", Phone: testPhone, FranchiseID: testFranchiseID}
	f.patients.On("FindPatientByPhone", mock.Anything, testPhone).Return(nil, nil).Once()
	f.franchises.On("FindFranchiseByID", mock.Anything, testFranchiseID).Return(&model.Franchise{ID: testFranchiseID}, nil).Once()
	f.patients.On("ProvisionPatient", mock.Anything, mock.MatchedBy(func(p *model.Patient) bool {
		return p.Firstname == "Unknown" && p.Fullname == "Unknown"
	})).Return(&storage.ProvisionResult{Patient: patient, Created: true}, nil).Once()
	f.events.On("Publish", mock.Anything, model.SubjectPatientProvisioned, mock.MatchedBy(func(e model.PatientProvisionedEvent) bool {
		return e.CaseID == nil
	})).Once()
	f.cases.On("FindFirstCase", mock.Anything, "p-1", testFranchiseID).Return(nil, nil).Once()
	f.messages.On("SaveMessage", mock.Anything, mock.MatchedBy(func(m *model.Message) bool {
		return m.CaseID == nil && m.PatientID != nil
	})).Return(nil).Once()
	f.events.On("Publish", mock.Anything, model.SubjectMessageLogged, mock.Anything).Once()

	require.NoError(t, f.handle(payload))
	// Franchise without a QR code: no case, so no template.
	f.notifier.AssertNotCalled(t, "Submit", mock.Anything)
}

func TestHandleMessage_ExistingPatientLogsMessage(t *testing.T) {
	f := newWebhookFixture(t)
	payload := model.NewWebhookPayload(testPhone, "Still in pain, Location: Pune")
	msg := payload.InboundMessage()

	patient := &model.Patient{ID: "p-9", Phone: testPhone, FranchiseID: testFranchiseID}
	existingCase := &model.Case{ID: "c-9"}
	f.messages.On("MessageExists", mock.Anything, msg.ID).Return(false, nil).Once()
	f.patients.On("FindPatientByPhone", mock.Anything, testPhone).Return(patient, nil).Once()
	f.cases.On("FindFirstCase", mock.Anything, "p-9", testFranchiseID).Return(existingCase, nil).Once()
	f.messages.On("SaveMessage", mock.Anything, mock.MatchedBy(func(m *model.Message) bool {
		return *m.PatientID == "p-9" && *m.FranchiseID == testFranchiseID && *m.CaseID == "c-9" &&
			m.Location == "Pune" && m.Body == "Still in pain, Location: Pune"
	})).Return(nil).Once()
	f.events.On("Publish", mock.Anything, model.SubjectMessageLogged, mock.Anything).Once()

	require.NoError(t, f.handle(payload))
	f.franchises.AssertNotCalled(t, "FindFranchiseByID", mock.Anything, mock.Anything)
	f.patients.AssertNotCalled(t, "ProvisionPatient", mock.Anything, mock.Anything)
}

func TestHandleMessage_DropsWithoutFranchiseReference(t *testing.T) {
	f := newWebhookFixture(t)
	payload := model.NewWebhookPayload(testPhone, "hi, can someone call me?")

	f.messages.On("MessageExists", mock.Anything, mock.Anything).Return(false, nil).Once()
	f.patients.On("FindPatientByPhone", mock.Anything, testPhone).Return(nil, nil).Once()

	require.NoError(t, f.handle(payload))
	f.messages.AssertNotCalled(t, "SaveMessage", mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.logs.FilterField(zap.String("outcome", outcomeNoFranchiseRef)).Len())
}

func TestHandleMessage_DropsUnknownFranchise(t *testing.T) {
	f := newWebhookFixture(t)
	payload := model.NewWebhookPayload(testPhone, firstMessageBody())

	f.messages.On("MessageExists", mock.Anything, mock.Anything).Return(false, nil).Once()
	f.patients.On("FindPatientByPhone", mock.Anything, testPhone).Return(nil, nil).Once()
	f.franchises.On("FindFranchiseByID", mock.Anything, testFranchiseID).
		Return(nil, apperrors.ErrNotFound).Once()

	require.NoError(t, f.handle(payload))
	f.patients.AssertNotCalled(t, "ProvisionPatient", mock.Anything, mock.Anything)
	f.messages.AssertNotCalled(t, "SaveMessage", mock.Anything, mock.Anything)
}

func TestHandleMessage_SkipsReplayedMessage(t *testing.T) {
	f := newWebhookFixture(t)
	payload := model.NewWebhookPayload(testPhone, "again")

	f.messages.On("MessageExists", mock.Anything, payload.InboundMessage().ID).Return(true, nil).Once()

	require.NoError(t, f.handle(payload))
	f.patients.AssertNotCalled(t, "FindPatientByPhone", mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.logs.FilterMessage("Skipping replayed message").Len())
}

func TestHandleMessage_LostProvisionRaceDoesNotSendTemplate(t *testing.T) {
	f := newWebhookFixture(t)
	payload := model.NewWebhookPayload(testPhone, firstMessageBody())

	existing := &model.Patient{ID: "p-first", Phone: testPhone, FranchiseID: testFranchiseID}
	f.messages.On("MessageExists", mock.Anything, mock.Anything).Return(false, nil).Once()
	f.patients.On("FindPatientByPhone", mock.Anything, testPhone).Return(nil, nil).Once()
	f.franchises.On("FindFranchiseByID", mock.Anything, testFranchiseID).Return(&model.Franchise{ID: testFranchiseID}, nil).Once()
	f.patients.On("ProvisionPatient", mock.Anything, mock.Anything).
		Return(&storage.ProvisionResult{Patient: existing, Created: false}, nil).Once()
	f.cases.On("FindFirstCase", mock.Anything, "p-first", testFranchiseID).Return(&model.Case{ID: "c-first"}, nil).Once()
	f.messages.On("SaveMessage", mock.Anything, mock.MatchedBy(func(m *model.Message) bool {
		return *m.PatientID == "p-first" && *m.CaseID == "c-first"
	})).Return(nil).Once()
	f.events.On("Publish", mock.Anything, model.SubjectMessageLogged, mock.Anything).Once()

	require.NoError(t, f.handle(payload))
	f.notifier.AssertNotCalled(t, "Submit", mock.Anything)
}

func TestHandleMessage_FailuresAreSwallowed(t *testing.T) {
	t.Run("patient lookup", func(t *testing.T) {
		f := newWebhookFixture(t)
		payload := model.NewWebhookPayload(testPhone, firstMessageBody())
		f.messages.On("MessageExists", mock.Anything, mock.Anything).Return(false, nil).Once()
		f.patients.On("FindPatientByPhone", mock.Anything, testPhone).Return(nil, apperrors.ErrDatabase).Once()

		assert.NoError(t, f.handle(payload))
		assert.Equal(t, 1, f.logs.FilterMessage("Failed to process inbound WhatsApp message").Len())
	})

	t.Run("provision", func(t *testing.T) {
		f := newWebhookFixture(t)
		payload := model.NewWebhookPayload(testPhone, firstMessageBody())
		f.messages.On("MessageExists", mock.Anything, mock.Anything).Return(false, errors.New("conn reset")).Once()
		f.patients.On("FindPatientByPhone", mock.Anything, testPhone).Return(nil, nil).Once()
		f.franchises.On("FindFranchiseByID", mock.Anything, testFranchiseID).Return(&model.Franchise{ID: testFranchiseID}, nil).Once()
		f.patients.On("ProvisionPatient", mock.Anything, mock.Anything).Return(nil, apperrors.ErrDatabase).Once()

		assert.NoError(t, f.handle(payload))
		assert.Equal(t, 1, f.logs.FilterMessage("Could not check for a replayed message, continuing").Len())
		f.messages.AssertNotCalled(t, "SaveMessage", mock.Anything, mock.Anything)
	})

	t.Run("queue full", func(t *testing.T) {
		f := newWebhookFixture(t)
		payload := model.NewWebhookPayload(testPhone, firstMessageBody())
		patient := &model.Patient{ID: "p-2", Phone: testPhone, FranchiseID: testFranchiseID}
		c := &model.Case{ID: "c-2", FranchiseID: testFranchiseID}
		f.messages.On("MessageExists", mock.Anything, mock.Anything).Return(false, nil).Once()
		f.patients.On("FindPatientByPhone", mock.Anything, testPhone).Return(nil, nil).Once()
		f.franchises.On("FindFranchiseByID", mock.Anything, testFranchiseID).Return(&model.Franchise{ID: testFranchiseID}, nil).Once()
		f.patients.On("ProvisionPatient", mock.Anything, mock.Anything).
			Return(&storage.ProvisionResult{Patient: patient, Case: c, Created: true}, nil).Once()
		f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything)
		f.notifier.On("Submit", mock.Anything).Return(ErrPoolOverload).Once()
		f.cases.On("FindFirstCase", mock.Anything, "p-2", testFranchiseID).Return(c, nil).Once()
		f.messages.On("SaveMessage", mock.Anything, mock.Anything).Return(nil).Once()

		assert.NoError(t, f.handle(payload))
		assert.Equal(t, 1, f.logs.FilterMessage("Failed to queue intake template").Len())
	})
}

func TestHandleReceipt(t *testing.T) {
	f := newWebhookFixture(t)
	payload := &model.WebhookPayload{Recipient: testPhone, Events: model.WebhookEvents{EventType: "status.read"}}

	assert.NoError(t, f.service.HandleReceipt(f.ctx, model.WebhookEventStatus, payload))
	assert.Equal(t, 1, f.logs.FilterMessage("Acknowledged webhook receipt").Len())
}

func TestIntakeTemplateConfig_UpdateInfoURL(t *testing.T) {
	cfg := IntakeTemplateConfig{FrontendBaseURL: "http://localhost:3000/"}
	assert.Equal(t, "http://localhost:3000/patient/update-info/p/c", cfg.UpdateInfoURL("p", "c"))
}
