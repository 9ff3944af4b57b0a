package jetstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/observer"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

const (
	// SubjectWildcard captures every domain event subject.
	SubjectWildcard = "clinic.>"

	publishTimeout = 5 * time.Second
	streamMaxAge   = 7 * 24 * time.Hour
	dedupWindow    = 2 * time.Minute
)

// EventPublisher emits domain events. Implementations never fail the caller.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{})
}

// Publisher wraps payloads in a model.DomainEvent envelope and publishes them
// on the configured stream. The event ID doubles as the Nats-Msg-Id header
// so JetStream drops redeliveries inside the dedup window.
type Publisher struct {
	client     ClientInterface
	streamName string
	logger     *zap.Logger
}

var _ EventPublisher = (*Publisher)(nil)

func NewPublisher(client ClientInterface, streamName string, baseLogger *zap.Logger) *Publisher {
	if baseLogger == nil {
		baseLogger = logger.Log
	}
	return &Publisher{
		client:     client,
		streamName: streamName,
		logger:     baseLogger.Named("event_publisher"),
	}
}

// StreamConfig is the stream the publisher writes to.
func (p *Publisher) StreamConfig() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:       p.streamName,
		Subjects:   []string{SubjectWildcard},
		Retention:  nats.LimitsPolicy,
		Storage:    nats.FileStorage,
		MaxAge:     streamMaxAge,
		Duplicates: dedupWindow,
	}
}

// EnsureStream creates or updates the stream.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	if err := p.client.SetupStream(ctx, p.StreamConfig()); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrNATS, err)
	}
	return nil
}

// Publish marshals payload into an envelope and sends it. Failures are
// logged and counted only.
func (p *Publisher) Publish(ctx context.Context, subject string, payload interface{}) {
	log := logger.FromContextOr(ctx, p.logger).With(zap.String("subject", subject))

	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error("Failed to marshal domain event payload", zap.Error(err))
		observer.IncDomainEventPublished(subject, err)
		return
	}

	event := model.DomainEvent{
		ID:         uuid.NewString(),
		Subject:    subject,
		OccurredAt: utils.Now(),
		Payload:    raw,
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Error("Failed to marshal domain event", zap.Error(err))
		observer.IncDomainEventPublished(subject, err)
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err = p.client.Publish(pubCtx, subject, data, map[string]string{
		nats.MsgIdHdr: event.ID,
	})
	observer.IncDomainEventPublished(subject, err)
	if err != nil {
		log.Warn("Failed to publish domain event", zap.String("event_id", event.ID), zap.Error(err))
		return
	}
	log.Debug("Published domain event", zap.String("event_id", event.ID))
}

// NopPublisher drops every event. It is used when NATS is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) {}
