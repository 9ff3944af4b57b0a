package httpapi

import (
	"crypto/subtle"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
)

const maxWebhookBytes = 1 << 20

// verifyWebhook answers the provider's subscription handshake.
func (h *Handler) verifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && h.verifyToken != "" &&
		subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) == 1 {
		c.String(http.StatusOK, challenge)
		return
	}
	logger.FromContext(c.Request.Context()).Warn("Webhook verification rejected", zap.String("mode", mode))
	c.Status(http.StatusForbidden)
}

// receiveWebhook always answers 200; the provider retries anything else
// and processing failures are logged by the router.
func (h *Handler) receiveWebhook(c *gin.Context) {
	log := logger.FromContext(c.Request.Context())
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		log.Warn("Failed to read webhook body", zap.Error(err))
		c.Status(http.StatusOK)
		return
	}
	if err := h.svc.Webhooks.Route(c.Request.Context(), body); err != nil {
		log.Warn("Webhook payload rejected", zap.Error(err))
	}
	c.Status(http.StatusOK)
}

func (h *Handler) sendMessage(c *gin.Context) error {
	var in usecase.SendTextInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	resp, err := h.svc.Messaging.SendText(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeOK(c, resp)
	return nil
}

func (h *Handler) sendTemplate(c *gin.Context) error {
	var in usecase.SendTemplateInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	resp, err := h.svc.Messaging.SendTemplate(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeOK(c, resp)
	return nil
}
