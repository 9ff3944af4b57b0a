package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(now time.Time) *TokenManager {
	m := NewTokenManager(config.JWTConfig{
		AccessTokenSecret:    testSecret,
		AccessTokenDuration:  60,
		RefreshTokenDuration: 30,
		RefreshTokenUnit:     "days",
	})
	m.now = func() time.Time { return now }
	return m
}

func TestAccessToken_RoundTrip(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(now)

	token, expires, err := m.IssueAccessToken("user-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expires)

	claims, err := m.ParseAccessToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "access", claims.Type)
}

func TestAccessToken_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	token, _, err := newTestManager(now).IssueAccessToken("user-1", "user")
	require.NoError(t, err)

	_, err = newTestManager(now.Add(2 * time.Hour)).ParseAccessToken(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAccessToken_Rejections(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(now)

	t.Run("empty", func(t *testing.T) {
		_, err := m.ParseAccessToken("")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager(config.JWTConfig{AccessTokenSecret: strings.Repeat("x", 32), AccessTokenDuration: 60})
		other.now = m.now
		token, _, err := other.IssueAccessToken("user-1", "admin")
		require.NoError(t, err)
		_, err = m.ParseAccessToken(token)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("wrong type", func(t *testing.T) {
		claims := Claims{
			Type: "refresh",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = m.ParseAccessToken(token)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ParseAccessToken("not.a.jwt")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestNewRefreshToken(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(now)

	a, expires := m.NewRefreshToken()
	b, _ := m.NewRefreshToken()

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, now.Add(30*24*time.Hour), expires)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.NoError(t, ComparePassword(hash, "s3cret-pass"))
	assert.ErrorIs(t, ComparePassword(hash, "wrong"), apperrors.ErrUnauthorized)
	assert.ErrorIs(t, ComparePassword("not-a-hash", "wrong"), apperrors.ErrUnauthorized)
}
