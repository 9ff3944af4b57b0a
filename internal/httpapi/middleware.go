package httpapi

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/auth"
	"gitlab.com/timkado/api/clinic-case-service/internal/cache"
	"gitlab.com/timkado/api/clinic-case-service/internal/observer"
	"gitlab.com/timkado/api/clinic-case-service/internal/reqctx"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or mints one, and stores it in
// the request context for the logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, id)
		c.Request = c.Request.WithContext(reqctx.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// AccessLog logs one line per request and records the HTTP metrics.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		observer.ObserveHTTPRequest(c.Request.Method, c.FullPath(), status, duration)

		log := logger.FromContext(c.Request.Context())
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()),
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// Recovery turns a handler panic into a 500 error envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(c.Request.Context()).Error("Panic while serving request",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				WriteError(c, fmt.Errorf("panic: %v", r))
			}
		}()
		c.Next()
	}
}

// CORS allows the configured origins. "*" allows any origin.
func CORS(origins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok || allowAll {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID, X-Requested-With")
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Max-Age", "86400")
				h.Add("Vary", "Origin")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Authenticate verifies the bearer access token and stores the principal.
func Authenticate(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			WriteError(c, fmt.Errorf("%w: missing bearer token", apperrors.ErrUnauthorized))
			return
		}
		claims, err := tokens.ParseAccessToken(header)
		if err != nil {
			WriteError(c, err)
			return
		}

		ctx := reqctx.WithPrincipal(c.Request.Context(), reqctx.Principal{
			UserID: claims.Subject,
			Role:   claims.Role,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole rejects principals whose role is not listed. It must run
// after Authenticate.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := reqctx.PrincipalFromContext(c.Request.Context())
		if err != nil {
			WriteError(c, fmt.Errorf("%w: not authenticated", apperrors.ErrUnauthorized))
			return
		}
		for _, role := range roles {
			if p.Role == role {
				c.Next()
				return
			}
		}
		WriteError(c, fmt.Errorf("%w: role %q may not access this resource", apperrors.ErrForbidden, p.Role))
	}
}

// RateLimit counts requests per path and client IP. A limiter failure lets
// the request through.
func RateLimit(limiter *cache.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		allowed, err := limiter.Allow(c.Request.Context(), path, c.ClientIP())
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn("Rate limit check failed, allowing request",
				zap.String("path", path),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !allowed {
			observer.IncRateLimitRejection(c.FullPath())
			WriteError(c, fmt.Errorf("%w: too many requests, please try again later", apperrors.ErrRateLimited))
			return
		}
		c.Next()
	}
}
