package ingestion

import (
	"context"

	"gitlab.com/timkado/api/clinic-case-service/internal/model"
)

// RouterInterface defines the interface for a webhook event router
type RouterInterface interface {
	// Register registers a handler for an event type
	Register(eventType model.WebhookEventType, handler EventHandler)

	// RegisterDefault registers a default handler for unknown event types
	RegisterDefault(handler EventHandler)

	// Route decodes a raw webhook body and hands it to the matching handler
	Route(ctx context.Context, rawEvent []byte) error
}

// Ensure Router implements RouterInterface
var _ RouterInterface = (*Router)(nil)
