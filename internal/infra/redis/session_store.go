package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-backed implementation of app.SessionStore.
// Every attempt key is stored as: SET quiz:attempt:{attemptID}:{key} {json} EX ttl
// The TTL bounds an abandoned attempt the way closing a browser tab would.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *SessionStore) Get(ctx context.Context, attemptID, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.key(attemptID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SessionStore) Set(ctx context.Context, attemptID, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(attemptID, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Clear deletes every key of the attempt. Pattern characters in attemptID match literally.
func (s *SessionStore) Clear(ctx context.Context, attemptID string) error {
	iter := s.client.Scan(ctx, 0, escapeGlob(s.prefix(attemptID))+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan attempt %s: %w", attemptID, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear attempt %s: %w", attemptID, err)
	}
	return nil
}

func (s *SessionStore) prefix(attemptID string) string {
	return "quiz:attempt:" + attemptID + ":"
}

func (s *SessionStore) key(attemptID, key string) string {
	return s.prefix(attemptID) + key
}

// escapeGlob quotes the characters SCAN MATCH treats as patterns.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
