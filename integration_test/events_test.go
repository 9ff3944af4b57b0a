package integration_test

import (
	"encoding/json"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"gitlab.com/timkado/api/clinic-case-service/internal/ingestion"
	"gitlab.com/timkado/api/clinic-case-service/internal/jetstream"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
)

func (s *ClinicIntegrationSuite) TestWebhookPublishesDomainEvents() {
	client, err := jetstream.NewClient(s.NATSURL)
	s.Require().NoError(err)
	defer client.Close()

	publisher := jetstream.NewPublisher(client, "CLINIC_EVENTS_IT", logger.Log)
	s.Require().NoError(publisher.EnsureStream(s.Ctx))
	s.Require().NoError(publisher.EnsureStream(s.Ctx), "ensuring the stream twice is a no-op")

	nc, err := natsgo.Connect(s.NATSURL, natsgo.Name("integration event reader"))
	s.Require().NoError(err)
	defer nc.Close()
	js, err := nc.JetStream()
	s.Require().NoError(err)
	sub, err := js.SubscribeSync(jetstream.SubjectWildcard, natsgo.BindStream("CLINIC_EVENTS_IT"), natsgo.DeliverNew())
	s.Require().NoError(err)
	defer func() { _ = sub.Unsubscribe() }()

	franchise := s.createFranchise()
	service := usecase.NewWebhookService(s.Repos.Patients, s.Repos.Franchises, s.Repos.Cases, s.Repos.Messages,
		&recordingNotifier{}, publisher, usecase.IntakeTemplateConfig{TemplateName: "patient_intake"})
	router := ingestion.NewRouter()
	service.RegisterRoutes(router)

	phone := model.NewIndianPhone()
	body, err := json.Marshal(model.NewWebhookPayload(phone, "Franchise ID: "+franchise.ID))
	s.Require().NoError(err)
	s.Require().NoError(router.Route(s.Ctx, body))

	subjects := map[string]model.DomainEvent{}
	for i := 0; i < 3; i++ {
		msg, err := sub.NextMsg(5 * time.Second)
		s.Require().NoError(err, "expected three events")
		var event model.DomainEvent
		s.Require().NoError(json.Unmarshal(msg.Data, &event))
		s.Equal(msg.Subject, event.Subject)
		s.Equal(event.ID, msg.Header.Get(natsgo.MsgIdHdr))
		subjects[event.Subject] = event
	}

	s.Contains(subjects, model.SubjectPatientProvisioned)
	s.Contains(subjects, model.SubjectCaseCreated)
	s.Contains(subjects, model.SubjectMessageLogged)

	var provisioned model.PatientProvisionedEvent
	s.Require().NoError(json.Unmarshal(subjects[model.SubjectPatientProvisioned].Payload, &provisioned))
	s.Equal(phone, provisioned.Phone)
	s.Equal(franchise.ID, provisioned.FranchiseID)
	s.NotNil(provisioned.CaseID)
}
