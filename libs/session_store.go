package libs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps per-browser-session values in one Redis hash per session.
// Every write slides the session expiry forward.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Get decodes the value under field into dst. It reports false when the field is absent.
func (s *SessionStore) Get(ctx context.Context, sessionID, field string, dst any) (bool, error) {
	raw, err := s.client.HGet(ctx, sessionKey(sessionID), field).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session get %s: %w", field, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("session decode %s: %w", field, err)
	}
	return true, nil
}

func (s *SessionStore) Set(ctx context.Context, sessionID, field string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session encode %s: %w", field, err)
	}
	key := sessionKey(sessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, field, raw)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session set %s: %w", field, err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID, field string) error {
	if err := s.client.HDel(ctx, sessionKey(sessionID), field).Err(); err != nil {
		return fmt.Errorf("session delete %s: %w", field, err)
	}
	return nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
