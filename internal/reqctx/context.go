// Package reqctx carries per-request values (request ID and the authenticated
// principal) through context.Context.
package reqctx

import (
	"context"
	"errors"
)

type contextKey string

const (
	requestIDKey contextKey = "requestID"
	principalKey contextKey = "principal"
)

var (
	ErrNoRequestIDInContext = errors.New("no request ID found in context")
	ErrNoPrincipalInContext = errors.New("no principal found in context")
)

// Principal is the caller identified by a verified access token.
type Principal struct {
	UserID string
	Role   string
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from the context
func RequestIDFromContext(ctx context.Context) (string, error) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "", ErrNoRequestIDInContext
	}
	return requestID, nil
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated caller.
func PrincipalFromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(principalKey).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, ErrNoPrincipalInContext
	}
	return p, nil
}

// MustPrincipal extracts the principal or panics. Only call it behind the
// auth middleware.
func MustPrincipal(ctx context.Context) Principal {
	p, err := PrincipalFromContext(ctx)
	if err != nil {
		panic(err)
	}
	return p
}
