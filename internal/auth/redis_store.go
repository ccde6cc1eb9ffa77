package auth

import (
	"context"
	"errors"
	"time"

	"github.com/Marga-Ghale/ora-training-backend/internal/db"
)

// RedisSessionStore keeps login sessions under session:<id> with a TTL
// matching the session expiry.
type RedisSessionStore struct {
	redis *db.RedisDB
}

func NewRedisSessionStore(redis *db.RedisDB) *RedisSessionStore {
	return &RedisSessionStore{redis: redis}
}

func (s *RedisSessionStore) Save(ctx context.Context, session *Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	return s.redis.SetSession(ctx, session.ID, session, ttl)
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	var session Session
	found, err := s.redis.GetSession(ctx, id, &session)
	if err != nil {
		return nil, err
	}
	if !found || time.Now().After(session.ExpiresAt) {
		return nil, nil
	}
	session.Source = SourceCookie
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.redis.DeleteSession(ctx, id)
}
