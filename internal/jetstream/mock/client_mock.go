package mock

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/mock"

	"gitlab.com/timkado/api/clinic-case-service/internal/jetstream"
)

// ClientMock is a mock implementation of the JetStream Client
type ClientMock struct {
	mock.Mock
}

// Ensure ClientMock implements jetstream.ClientInterface
var _ jetstream.ClientInterface = (*ClientMock)(nil)

func (m *ClientMock) SetupStream(ctx context.Context, streamConfig *nats.StreamConfig) error {
	args := m.Called(ctx, streamConfig)
	return args.Error(0)
}

func (m *ClientMock) Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error {
	args := m.Called(ctx, subject, data, headers)
	return args.Error(0)
}

func (m *ClientMock) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *ClientMock) Close() {
	m.Called()
}

// PublisherMock records published domain events.
type PublisherMock struct {
	mock.Mock
}

var _ jetstream.EventPublisher = (*PublisherMock)(nil)

func (m *PublisherMock) Publish(ctx context.Context, subject string, payload interface{}) {
	m.Called(ctx, subject, payload)
}
