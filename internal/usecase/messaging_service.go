package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/internal/validator"
	"gitlab.com/timkado/api/clinic-case-service/internal/whatsapp"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
)

type SendTextInput struct {
	To   string `json:"to" validate:"required,phone"`
	Text string `json:"text" validate:"required,max=4096"`
}

type SendTemplateInput struct {
	To           string                       `json:"to" validate:"required,phone"`
	TemplateName string                       `json:"templateName" validate:"required,max=512"`
	Components   []whatsapp.TemplateComponent `json:"components"`
}

// MessagingService sends ad-hoc WhatsApp messages for admins. Sends are
// synchronous so the gateway answer can be returned to the caller.
type MessagingService struct {
	sender   whatsapp.Sender
	messages storage.MessageRepo
	from     string
}

// NewMessagingService logs successful sends as OUTGOING messages when
// messages is not nil.
func NewMessagingService(sender whatsapp.Sender, messages storage.MessageRepo, from string) *MessagingService {
	return &MessagingService{sender: sender, messages: messages, from: from}
}

func (s *MessagingService) SendText(ctx context.Context, in SendTextInput) (whatsapp.Response, error) {
	in.To = strings.TrimSpace(in.To)
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	resp := s.sender.SendText(ctx, in.To, in.Text)
	if resp == nil {
		return nil, apperrors.ErrUpstream
	}
	s.record(ctx, in.To, "text", in.Text)
	return resp, nil
}

func (s *MessagingService) SendTemplate(ctx context.Context, in SendTemplateInput) (whatsapp.Response, error) {
	in.To = strings.TrimSpace(in.To)
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	resp := s.sender.SendTemplate(ctx, in.To, in.TemplateName, in.Components)
	if resp == nil {
		return nil, apperrors.ErrUpstream
	}
	s.record(ctx, in.To, "template", in.TemplateName)
	return resp, nil
}

func (s *MessagingService) record(ctx context.Context, to, contentType, body string) {
	if s.messages == nil {
		return
	}
	err := s.messages.SaveMessage(ctx, &model.Message{
		From:        s.from,
		To:          to,
		ContentType: contentType,
		MessageType: model.MessageTypeOutgoing,
		Body:        body,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to log outgoing message", zap.String("to", to), zap.Error(err))
	}
}
