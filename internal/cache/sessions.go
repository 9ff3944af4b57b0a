package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// removeSessionScript drops one token and deletes the set once it is empty.
const removeSessionScript = `
local removed = redis.call('SREM', KEYS[1], ARGV[1])
if removed > 0 then
	if redis.call('SCARD', KEYS[1]) == 0 then
		redis.call('DEL', KEYS[1])
	end
end
return removed
`

// SessionStore mirrors each user's live refresh tokens in a redis set. The
// database stays authoritative; a nil store or client turns every call
// into a no-op.
type SessionStore struct {
	rdb redis.Cmdable
}

func NewSessionStore(rdb redis.Cmdable) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func SessionSetKey(userID string) string {
	return fmt.Sprintf("user_sessions:%s", userID)
}

func (s *SessionStore) enabled() bool {
	return s != nil && s.rdb != nil
}

// Add records token in the user's set. The set carries no TTL.
func (s *SessionStore) Add(ctx context.Context, userID, token string) error {
	if !s.enabled() {
		return nil
	}
	key := SessionSetKey(userID)
	if err := s.rdb.SAdd(ctx, key, token).Err(); err != nil {
		return err
	}
	return s.rdb.Persist(ctx, key).Err()
}

// Remove drops one token from the user's set.
func (s *SessionStore) Remove(ctx context.Context, userID, token string) error {
	if !s.enabled() {
		return nil
	}
	return s.rdb.Eval(ctx, removeSessionScript, []string{SessionSetKey(userID)}, token).Err()
}

// InvalidateUser deletes the user's set.
func (s *SessionStore) InvalidateUser(ctx context.Context, userID string) error {
	if !s.enabled() {
		return nil
	}
	return s.rdb.Del(ctx, SessionSetKey(userID)).Err()
}
