// Package whatsapp is a thin client for the WhatsApp Business API gateway.
// Sends never return errors: a failed call is logged, counted and reported
// as a nil response.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/config"
	"gitlab.com/timkado/api/clinic-case-service/internal/observer"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

const (
	defaultTimeout   = 10 * time.Second
	channelPrefix    = "91"
	templateLanguage = "en"
)

// MessageType selects the send-* endpoint.
type MessageType string

const (
	TypeText     MessageType = "text"
	TypeAudio    MessageType = "audio"
	TypeVideo    MessageType = "video"
	TypeDocument MessageType = "document"
	TypeImage    MessageType = "image"
	TypeLocation MessageType = "location"
	TypeContact  MessageType = "contact"
)

var endpoints = map[MessageType]string{
	TypeText:     "send-text",
	TypeAudio:    "send-audio",
	TypeVideo:    "send-video",
	TypeDocument: "send-document",
	TypeImage:    "send-image",
	TypeLocation: "send-location",
	TypeContact:  "send-contact",
}

// Sender is what the rest of the service depends on.
type Sender interface {
	SendText(ctx context.Context, to, text string) Response
	SendTemplate(ctx context.Context, to, name string, components []TemplateComponent) Response
}

// Response is the decoded gateway answer. It is nil when the send failed.
type Response map[string]interface{}

type TextContent struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type TemplateParameter struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	Image *TemplateImage `json:"image,omitempty"`
}

type TemplateImage struct {
	Link string `json:"link"`
}

// TemplateComponent covers header, body, footer and button components.
type TemplateComponent struct {
	Type       string              `json:"type"`
	SubType    string              `json:"sub_type,omitempty"`
	Index      string              `json:"index,omitempty"`
	Text       string              `json:"text,omitempty"`
	Parameters []TemplateParameter `json:"parameters,omitempty"`
}

// ImageHeader is a header component carrying one image.
func ImageHeader(link string) TemplateComponent {
	return TemplateComponent{
		Type:       "header",
		Parameters: []TemplateParameter{{Type: "image", Image: &TemplateImage{Link: link}}},
	}
}

// URLButton is a dynamic URL button whose suffix parameter is text.
func URLButton(index int, text string) TemplateComponent {
	return TemplateComponent{
		Type:       "button",
		SubType:    "url",
		Index:      fmt.Sprintf("%d", index),
		Parameters: []TemplateParameter{{Type: "text", Text: text}},
	}
}

type template struct {
	Name       string              `json:"name"`
	Language   templateLang        `json:"language"`
	Components []TemplateComponent `json:"components"`
}

type templateLang struct {
	Code string `json:"code"`
}

// Client posts to {apiURL}/api/{version}/messages/{endpoint}/{channel}.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiVersion string
	apiKey     string
	channel    string
	logger     *zap.Logger
}

var _ Sender = (*Client)(nil)

// NewClient builds a client from config. The channel number is the
// configured number prefixed with the country code.
func NewClient(cfg config.WhatsAppConfig, baseLogger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if baseLogger == nil {
		baseLogger = logger.Log
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		apiVersion: cfg.APIVersion,
		apiKey:     cfg.APIKey,
		channel:    channelPrefix + strings.TrimSpace(cfg.Number),
		logger:     baseLogger.Named("whatsapp"),
	}
}

// SendMessage posts a session message of the given type. Formatting
// characters in to are stripped.
func (c *Client) SendMessage(ctx context.Context, to string, msgType MessageType, content interface{}) Response {
	to = utils.DigitsOnly(to)
	endpoint, ok := endpoints[msgType]
	if to == "" || !ok || content == nil {
		c.logger.Warn("Refusing to send WhatsApp message",
			zap.String("to", to), zap.String("type", string(msgType)))
		observer.ObserveWhatsAppSend(string(msgType), 0, fmt.Errorf("invalid message request"))
		return nil
	}

	body := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              msgType,
		string(msgType):     content,
	}
	return c.post(ctx, string(msgType), endpoint, body)
}

func (c *Client) SendText(ctx context.Context, to, text string) Response {
	return c.SendMessage(ctx, to, TypeText, TextContent{Body: text})
}

func (c *Client) SendTemplate(ctx context.Context, to, name string, components []TemplateComponent) Response {
	to = utils.DigitsOnly(to)
	if to == "" || strings.TrimSpace(name) == "" {
		c.logger.Warn("Refusing to send WhatsApp template",
			zap.String("to", to), zap.String("template", name))
		observer.ObserveWhatsAppSend("template", 0, fmt.Errorf("invalid template request"))
		return nil
	}
	if components == nil {
		components = []TemplateComponent{}
	}
	body := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "template",
		"template": template{
			Name:       name,
			Language:   templateLang{Code: templateLanguage},
			Components: components,
		},
	}
	return c.post(ctx, "template", "send-template", body)
}

func (c *Client) post(ctx context.Context, kind, endpoint string, body interface{}) Response {
	start := time.Now()
	resp, err := c.do(ctx, endpoint, body)
	observer.ObserveWhatsAppSend(kind, time.Since(start), err)
	if err != nil {
		logger.FromContextOr(ctx, c.logger).Error("WhatsApp send failed",
			zap.String("kind", kind),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil
	}
	return resp
}

func (c *Client) do(ctx context.Context, endpoint string, body interface{}) (Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/%s/messages/%s/%s", c.baseURL, c.apiVersion, endpoint, c.channel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned %d: %s", res.StatusCode, strings.TrimSpace(string(raw)))
	}

	out := Response{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
