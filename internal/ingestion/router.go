package ingestion

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/observer"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

// EventHandler processes one decoded webhook payload
type EventHandler func(ctx context.Context, eventType model.WebhookEventType, payload *model.WebhookPayload) error

// Router routes webhook payloads to the handler registered for their
// events.eventType.
type Router struct {
	handlers map[model.WebhookEventType]EventHandler
	// Default handler for unknown event types
	defaultHandler EventHandler
}

// NewRouter creates a new event router
func NewRouter() *Router {
	return &Router{
		handlers: make(map[model.WebhookEventType]EventHandler),
	}
}

// Register registers a handler for an event type
func (r *Router) Register(eventType model.WebhookEventType, handler EventHandler) {
	r.handlers[eventType] = handler
}

// RegisterDefault registers a default handler for unknown event types
func (r *Router) RegisterDefault(handler EventHandler) {
	r.defaultHandler = handler
}

// Route decodes rawEvent and dispatches it. A body that is not a webhook
// payload is a bad request; everything after decoding belongs to the handler.
func (r *Router) Route(ctx context.Context, rawEvent []byte) error {
	log := logger.FromContext(ctx)

	var payload model.WebhookPayload
	if err := json.Unmarshal(rawEvent, &payload); err != nil {
		log.Warn("Failed to unmarshal webhook payload",
			zap.String("payload_size", utils.ByteCountSI(int64(len(rawEvent)))),
			zap.Error(err),
		)
		observer.IncWebhookEventReceived("malformed")
		return fmt.Errorf("%w: unmarshal webhook payload: %v", apperrors.ErrBadRequest, err)
	}

	eventType, found := model.MapWebhookEventType(payload.Events.EventType)
	if !found {
		log.Warn("Could not map webhook event type", zap.String("raw_event_type", payload.Events.EventType))
	}

	fields := []zap.Field{
		zap.String("event_type", string(eventType)),
		zap.String("channel", payload.Channel),
	}
	if msg := payload.InboundMessage(); msg != nil {
		fields = append(fields, zap.String("wa_message_id", msg.ID))
	}
	log = log.With(fields...)
	ctx = logger.WithLogger(ctx, log)

	observer.IncWebhookEventReceived(string(eventType))
	log.Info("Webhook received", zap.String("payload_size", utils.ByteCountSI(int64(len(rawEvent)))))

	handler, ok := r.handlers[eventType]
	if !ok && r.defaultHandler != nil {
		log.Debug("No specific handler for event type, using default")
		handler = r.defaultHandler
	} else if !ok {
		log.Error("No handler registered for event type")
		return nil
	}

	return utils.WrapWithContextRecovery(func(ctx context.Context) error {
		return handler(ctx, eventType, &payload)
	})(ctx)
}
