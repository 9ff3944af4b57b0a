package jetstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
)

// Client wraps NATS JetStream functionality
type Client struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new NATS JetStream client
func NewClient(url string) (*Client, error) {
	nc, err := nats.Connect(url,
		nats.Name("clinic-case-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, s *nats.Subscription, err error) {
			logger.Log.Error("NATS error", zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Client{
		nc: nc,
		js: js,
	}, nil
}

// SetupStream ensures the stream exists with the given configuration
func (c *Client) SetupStream(ctx context.Context, streamConfig *nats.StreamConfig) error {
	log := logger.FromContext(ctx).With(zap.String("stream", streamConfig.Name))

	stream, err := c.js.StreamInfo(streamConfig.Name, nats.Context(ctx))
	if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to get stream info for '%s': %w", streamConfig.Name, err)
	}

	if stream == nil {
		if _, err = c.js.AddStream(streamConfig, nats.Context(ctx)); err != nil {
			return fmt.Errorf("failed to add stream '%s': %w", streamConfig.Name, err)
		}
		log.Info("Created stream", zap.Strings("subjects", streamConfig.Subjects))
		return nil
	}

	if streamConfigEqual(stream.Config, *streamConfig) {
		log.Debug("Stream up to date")
		return nil
	}

	if _, err = c.js.UpdateStream(streamConfig, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to update stream '%s': %w", streamConfig.Name, err)
	}
	log.Info("Updated stream",
		zap.Strings("subjects", streamConfig.Subjects),
		zap.String("previous_cfg", fmt.Sprintf("%+v", stream.Config)),
	)
	return nil
}

// Publish publishes a message to a subject with optional headers
func (c *Client) Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error {
	msg := nats.NewMsg(subject)
	msg.Data = data
	for k, v := range headers {
		msg.Header.Add(k, v)
	}

	if _, err := c.js.PublishMsg(msg, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// Close drains pending publishes and closes the NATS connection
func (c *Client) Close() {
	if c.nc == nil {
		return
	}
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
	}
}

// streamConfigEqual compares the settings SetupStream manages.
func streamConfigEqual(a, b nats.StreamConfig) bool {
	if a.Name != b.Name ||
		a.Retention != b.Retention ||
		a.MaxAge != b.MaxAge ||
		a.Storage != b.Storage ||
		a.Duplicates != b.Duplicates {
		return false
	}
	if len(a.Subjects) != len(b.Subjects) {
		return false
	}
	for i, subject := range a.Subjects {
		if subject != b.Subjects[i] {
			return false
		}
	}
	return true
}
