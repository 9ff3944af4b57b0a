package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
)

var errNoRoute = fmt.Errorf("%w: route not found", apperrors.ErrNotFound)

// ErrorBody is the envelope for every non-2xx API response.
type ErrorBody struct {
	StatusCode int      `json:"statusCode"`
	StatusText string   `json:"statusText"`
	Errors     []string `json:"errors"`
}

// WriteError maps err onto a status code and writes the error envelope.
// 5xx responses are logged with the full error and never echo it.
func WriteError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	log := logger.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}

	c.AbortWithStatusJSON(status, ErrorBody{
		StatusCode: status,
		StatusText: http.StatusText(status),
		Errors:     apperrors.Messages(err),
	})
}

func writeOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func writeCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// bindJSON decodes the request body into dst. An empty body decodes to the
// zero value so services can report the missing fields themselves.
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: malformed JSON body", apperrors.ErrBadRequest)
	}
	return nil
}

func bindQuery(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		return fmt.Errorf("%w: invalid query parameters", apperrors.ErrBadRequest)
	}
	return nil
}

// handle adapts fn so its error goes through WriteError.
func handle(fn func(c *gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c); err != nil {
			WriteError(c, err)
		}
	}
}
