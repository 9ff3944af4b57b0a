package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
)

const maxReportBytes = 64 << 10

func (h *Handler) status(c *gin.Context) {
	writeOK(c, gin.H{"status": "OK"})
}

func (h *Handler) overview(c *gin.Context) {
	overview, err := h.svc.Dashboard.Overview(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}
	writeOK(c, overview)
}

// reportViolation logs a browser CSP report.
func (h *Handler) reportViolation(c *gin.Context) {
	body, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxReportBytes))
	log := logger.FromContext(c.Request.Context())
	if len(body) == 0 {
		log.Error("CSP Violation")
	} else {
		log.Error("CSP Violation", zap.ByteString("report", body))
	}
	c.Status(http.StatusNoContent)
}
