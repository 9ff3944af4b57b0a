package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/config"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

const accessTokenType = "access"

// Claims are the access token claims. Subject carries the user id.
type Claims struct {
	Role string `json:"role"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is handed to clients on register, login and refresh.
type TokenPair struct {
	TokenType    string    `json:"tokenType"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    time.Time `json:"expiresIn"`
}

// TokenManager signs and verifies HS256 access tokens and mints opaque
// refresh tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(cfg config.JWTConfig) *TokenManager {
	return &TokenManager{
		secret:     []byte(cfg.AccessTokenSecret),
		accessTTL:  cfg.AccessTTL(),
		refreshTTL: cfg.RefreshTTL(),
		now:        utils.Now,
	}
}

// RefreshTTL is how long a freshly minted refresh token stays valid.
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// IssueAccessToken signs an access token for the user.
func (m *TokenManager) IssueAccessToken(userID, role string) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.accessTTL)
	claims := Claims{
		Role: role,
		Type: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expires, nil
}

// ParseAccessToken verifies signature, expiry and token type. Every failure
// wraps ErrUnauthorized.
func (m *TokenManager) ParseAccessToken(raw string) (*Claims, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if raw == "" {
		return nil, fmt.Errorf("%w: missing token", apperrors.ErrUnauthorized)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid or expired token", apperrors.ErrUnauthorized)
	}
	if claims.Type != accessTokenType || claims.Subject == "" {
		return nil, fmt.Errorf("%w: invalid token type", apperrors.ErrUnauthorized)
	}
	return claims, nil
}

// NewRefreshToken returns an opaque random token with its expiry.
func (m *TokenManager) NewRefreshToken() (string, time.Time) {
	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	return token, m.now().Add(m.refreshTTL)
}
