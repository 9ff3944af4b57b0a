package integration_test

import (
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
)

func (s *ClinicIntegrationSuite) TestMessageRepositoryStoresRawPayload() {
	msg := model.NewMessage()
	s.Require().NoError(s.Repos.Messages.SaveMessage(s.Ctx, msg))

	exists, err := s.Repos.Messages.MessageExists(s.Ctx, msg.MessageID)
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.Repos.Messages.MessageExists(s.Ctx, "wamid.unknown")
	s.Require().NoError(err)
	s.False(exists)

	s.Equal(1, s.CountRows(
		"SELECT COUNT(*) FROM messages WHERE message_id = $1 AND raw_payload->>'channel' = 'whatsapp' AND case_id IS NULL",
		msg.MessageID))
}
