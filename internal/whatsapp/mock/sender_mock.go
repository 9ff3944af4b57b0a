package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/timkado/api/clinic-case-service/internal/whatsapp"
)

// SenderMock is a mock implementation of whatsapp.Sender
type SenderMock struct {
	mock.Mock
}

var _ whatsapp.Sender = (*SenderMock)(nil)

func (m *SenderMock) SendText(ctx context.Context, to, text string) whatsapp.Response {
	args := m.Called(ctx, to, text)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(whatsapp.Response)
}

func (m *SenderMock) SendTemplate(ctx context.Context, to, name string, components []whatsapp.TemplateComponent) whatsapp.Response {
	args := m.Called(ctx, to, name, components)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(whatsapp.Response)
}
