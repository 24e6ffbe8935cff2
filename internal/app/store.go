package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// SessionStore abstracts where attempt-scoped state is kept (in-memory, Redis, etc).
// Values are JSON blobs; every key lives inside exactly one attempt.
type SessionStore interface {
	Get(ctx context.Context, attemptID, key string) ([]byte, bool, error)
	Set(ctx context.Context, attemptID, key string, value []byte) error
	Clear(ctx context.Context, attemptID string) error
}

// KeyValue is a SessionStore bound to a single attempt.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context) error
}

const (
	profileKey = "profile"
	resultKey  = "result"
)

func timerKey(questionID int) string {
	return "timer:" + strconv.Itoa(questionID)
}

// Scope binds store to attemptID.
func Scope(store SessionStore, attemptID string) KeyValue {
	return scopedStore{store: store, attemptID: attemptID}
}

type scopedStore struct {
	store     SessionStore
	attemptID string
}

func (s scopedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.store.Get(ctx, s.attemptID, key)
}

func (s scopedStore) Set(ctx context.Context, key string, value []byte) error {
	return s.store.Set(ctx, s.attemptID, key, value)
}

func (s scopedStore) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, s.attemptID)
}

func getJSON(ctx context.Context, kv KeyValue, key string, dst any) (bool, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, kv KeyValue, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, raw)
}
