package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/clinic-case-service/internal/config"
)

func TestRateLimiter_Allow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	limiter := NewRateLimiter(db, config.RateLimitConfig{Limit: 2, Window: time.Minute})
	key := RateLimitKey("/api/v1/auth/login", "10.0.0.1")
	assert.Equal(t, "ratelimit:/api/v1/auth/login:10.0.0.1", key)

	mock.ExpectIncr(key).SetVal(2)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	allowed, err := limiter.Allow(context.Background(), "/api/v1/auth/login", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	mock.ExpectIncr(key).SetVal(3)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	allowed, err = limiter.Allow(context.Background(), "/api/v1/auth/login", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	limiter := NewRateLimiter(db, config.RateLimitConfig{})
	key := RateLimitKey("/p", "ip")
	mock.ExpectIncr(key).SetErr(errors.New("connection refused"))
	mock.ExpectExpire(key, defaultRateWindow).SetVal(true)

	allowed, err := limiter.Allow(context.Background(), "/p", "ip")
	assert.Error(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_NilClient(t *testing.T) {
	limiter := NewRateLimiter(nil, config.RateLimitConfig{})
	allowed, err := limiter.Allow(context.Background(), "/p", "ip")
	assert.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, limiter.Reset(context.Background(), "/p", "ip"))
}

func TestSessionStore_AddRemove(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store := NewSessionStore(db)
	key := SessionSetKey("user-1")
	assert.Equal(t, "user_sessions:user-1", key)

	mock.ExpectSAdd(key, "tok").SetVal(1)
	mock.ExpectPersist(key).SetVal(true)
	require.NoError(t, store.Add(context.Background(), "user-1", "tok"))

	mock.ExpectEval(removeSessionScript, []string{key}, "tok").SetVal(int64(1))
	require.NoError(t, store.Remove(context.Background(), "user-1", "tok"))

	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, store.InvalidateUser(context.Background(), "user-1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_AddError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store := NewSessionStore(db)
	mock.ExpectSAdd(SessionSetKey("u"), "tok").SetErr(errors.New("redis connection error"))

	assert.Error(t, store.Add(context.Background(), "u", "tok"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_Disabled(t *testing.T) {
	var store *SessionStore
	assert.NoError(t, store.Add(context.Background(), "u", "t"))
	assert.NoError(t, store.Remove(context.Background(), "u", "t"))
	assert.NoError(t, store.InvalidateUser(context.Background(), "u"))
}
