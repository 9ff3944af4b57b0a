package model

// WebhookPayload is the body the WhatsApp provider posts to /webhooks.
type WebhookPayload struct {
	Channel      string               `json:"channel"`
	AppDetails   WebhookAppDetails    `json:"appDetails"`
	Recipient    string               `json:"recipient"`
	Events       WebhookEvents        `json:"events"`
	EventContent *WebhookEventContent `json:"eventContent,omitempty"`
	ACode        string               `json:"aCode"`
}

type WebhookAppDetails struct {
	Type string `json:"type"`
}

type WebhookEvents struct {
	EventType string `json:"eventType"`
	Timestamp string `json:"timestamp"`
	Date      string `json:"date"`
}

type WebhookEventContent struct {
	Message *WebhookMessage `json:"message,omitempty"`
}

type WebhookMessage struct {
	From        string      `json:"from"`
	ID          string      `json:"id"`
	Text        WebhookText `json:"text"`
	To          string      `json:"to"`
	ContentType string      `json:"contentType"`
	MessageType string      `json:"messageType"`
	ProfileName string      `json:"profileName"`
}

type WebhookText struct {
	Body string `json:"body"`
}

// InboundMessage returns the carried message, or nil when the payload has none.
func (p *WebhookPayload) InboundMessage() *WebhookMessage {
	if p == nil || p.EventContent == nil {
		return nil
	}
	return p.EventContent.Message
}
