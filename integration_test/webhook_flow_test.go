package integration_test

import (
	"encoding/json"
	"fmt"
	"sync"

	"gitlab.com/timkado/api/clinic-case-service/internal/ingestion"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/qrcode"
	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
)

// recordingNotifier keeps submitted notifications instead of sending them.
type recordingNotifier struct {
	mu    sync.Mutex
	tasks []usecase.NotificationTask
}

func (n *recordingNotifier) Submit(task usecase.NotificationTask) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tasks = append(n.tasks, task)
	return nil
}

func (n *recordingNotifier) Stop() {}

func (n *recordingNotifier) Tasks() []usecase.NotificationTask {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]usecase.NotificationTask(nil), n.tasks...)
}

func (s *ClinicIntegrationSuite) createFranchise() *model.Franchise {
	demo := model.NewFranchise()
	franchises := usecase.NewFranchiseService(s.Repos.Franchises, qrcode.NewGenerator("919800000000"))
	franchise, err := franchises.Create(s.Ctx, usecase.FranchiseInput{
		Name:    demo.Name,
		City:    demo.City,
		State:   "Karnataka",
		Country: "India",
		Phone:   demo.Phone,
		Email:   demo.Email,
	})
	s.Require().NoError(err)
	return franchise
}

func (s *ClinicIntegrationSuite) webhookRouter(notifier usecase.INotificationWorker) *ingestion.Router {
	service := usecase.NewWebhookService(s.Repos.Patients, s.Repos.Franchises, s.Repos.Cases, s.Repos.Messages,
		notifier, nil, usecase.IntakeTemplateConfig{
			TemplateName:     "patient_intake",
			TemplateImageURL: "https://cdn.example.com/intake.png",
			FrontendBaseURL:  "http://localhost:3000",
		})
	router := ingestion.NewRouter()
	service.RegisterRoutes(router)
	return router
}

func (s *ClinicIntegrationSuite) deliver(router *ingestion.Router, payload *model.WebhookPayload) {
	body, err := json.Marshal(payload)
	s.Require().NoError(err)
	s.Require().NoError(router.Route(s.Ctx, body))
}

func (s *ClinicIntegrationSuite) TestWebhookProvisionsPatientAndCase() {
	franchise := s.createFranchise()
	notifier := &recordingNotifier{}
	router := s.webhookRouter(notifier)

	phone := model.NewIndianPhone()
	first := model.NewWebhookPayload(phone, fmt.Sprintf("Hi, Franchise ID: %s Location: Bangalore, thanks", franchise.ID))
	s.deliver(router, first)

	s.Equal(1, s.CountRows("SELECT COUNT(*) FROM patients WHERE phone = $1", phone))
	s.Equal(1, s.CountRows(
		"SELECT COUNT(*) FROM cases c JOIN patients p ON p.id = c.patient_id WHERE p.phone = $1 AND c.status = 'NEW' AND c.franchise_id = $2",
		phone, franchise.ID))
	s.Equal(1, s.CountRows(
		"SELECT COUNT(*) FROM messages WHERE message_id = $1 AND case_id IS NOT NULL AND location = 'Bangalore' AND message_type = 'INCOMING' AND provider_message_type = 'text'",
		first.EventContent.Message.ID))

	tasks := notifier.Tasks()
	s.Require().Len(tasks, 1)
	s.Equal(phone, tasks[0].To)
	s.Equal("patient_intake", tasks[0].TemplateName)

	s.Run("replayed message is ignored", func() {
		s.deliver(router, first)
		s.Equal(1, s.CountRows("SELECT COUNT(*) FROM messages WHERE message_id = $1", first.EventContent.Message.ID))
	})

	s.Run("follow-up is logged against the existing case", func() {
		followUp := model.NewWebhookPayload(phone, "When can I visit?")
		s.deliver(router, followUp)

		s.Equal(1, s.CountRows("SELECT COUNT(*) FROM patients WHERE phone = $1", phone))
		s.Equal(2, s.CountRows(
			"SELECT COUNT(*) FROM messages m JOIN patients p ON p.id = m.patient_id WHERE p.phone = $1 AND m.case_id IS NOT NULL",
			phone))
		s.Len(notifier.Tasks(), 1, "no second intake template")
	})
}

func (s *ClinicIntegrationSuite) TestWebhookDropsUnreferencedSenders() {
	s.createFranchise()
	notifier := &recordingNotifier{}
	router := s.webhookRouter(notifier)

	s.deliver(router, model.NewWebhookPayload(model.NewIndianPhone(), "Hello, I need an appointment"))
	s.deliver(router, model.NewWebhookPayload(model.NewIndianPhone(),
		"Franchise ID: 7d4a0c1e-9b2f-4c3d-8e5f-6a7b8c9d0e1f"))

	s.Equal(0, s.CountRows("SELECT COUNT(*) FROM patients"))
	s.Equal(0, s.CountRows("SELECT COUNT(*) FROM messages"))
	s.Empty(notifier.Tasks())
}

func (s *ClinicIntegrationSuite) TestWebhookConcurrentFirstMessages() {
	franchise := s.createFranchise()
	router := s.webhookRouter(&recordingNotifier{})

	phone := model.NewIndianPhone()
	bodies := make([][]byte, 5)
	for i := range bodies {
		body, err := json.Marshal(model.NewWebhookPayload(phone, "Franchise ID: "+franchise.ID))
		s.Require().NoError(err)
		bodies[i] = body
	}

	var wg sync.WaitGroup
	for _, body := range bodies {
		wg.Add(1)
		go func(body []byte) {
			defer wg.Done()
			_ = router.Route(s.Ctx, body)
		}(body)
	}
	wg.Wait()

	s.Equal(1, s.CountRows("SELECT COUNT(*) FROM patients WHERE phone = $1", phone))
	s.Equal(1, s.CountRows("SELECT COUNT(*) FROM cases c JOIN patients p ON p.id = c.patient_id WHERE p.phone = $1", phone))
	s.Equal(5, s.CountRows("SELECT COUNT(*) FROM messages WHERE from_phone = $1", phone))
}
