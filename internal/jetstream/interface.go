package jetstream

import (
	"context"

	"github.com/nats-io/nats.go"
)

// ClientInterface is the slice of JetStream the service uses. Consumers
// live elsewhere; this process only publishes.
type ClientInterface interface {
	// SetupStream creates the stream or updates it when its core settings drifted.
	SetupStream(ctx context.Context, streamConfig *nats.StreamConfig) error

	// Publish publishes data to subject with optional headers.
	Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error

	IsConnected() bool

	Close()
}
