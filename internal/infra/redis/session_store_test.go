package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), time.Minute)

	if err := store.Set(ctx, "a1", "profile", []byte(`{"name":"Ann"}`)); err != nil {
		t.Fatalf("set profile: %v", err)
	}
	_ = store.Set(ctx, "a1", "timer:1", []byte("12"))
	_ = store.Set(ctx, "a2", "timer:1", []byte("30"))

	if !mr.Exists("quiz:attempt:a1:timer:1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("quiz:attempt:a1:profile"); ttl != time.Minute {
		t.Fatalf("expected ttl of one minute, got %v", ttl)
	}

	value, ok, err := store.Get(ctx, "a1", "timer:1")
	if err != nil || !ok || string(value) != "12" {
		t.Fatalf("expected stored progress, got %q ok=%v err=%v", value, ok, err)
	}

	if err := store.Clear(ctx, "a1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("quiz:attempt:a1:profile") || mr.Exists("quiz:attempt:a1:timer:1") {
		t.Fatalf("expected attempt keys to be removed")
	}
	if !mr.Exists("quiz:attempt:a2:timer:1") {
		t.Fatalf("expected other attempt untouched")
	}
}

func TestSessionStoreMissingKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	_, ok, err := store.Get(context.Background(), "a1", "result")
	if err != nil || ok {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
	if err := store.Clear(context.Background(), "a1"); err != nil {
		t.Fatalf("clear empty attempt: %v", err)
	}
}

func TestSessionStoreClearMatchesAttemptLiterally(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), time.Minute)
	_ = store.Set(ctx, "victim", "result", []byte(`{}`))
	_ = store.Set(ctx, "ab", "profile", []byte(`{}`))
	_ = store.Set(ctx, "a?", "profile", []byte(`{}`))

	for _, id := range []string{"*", "a?", "[v]ictim", `\`} {
		if err := store.Clear(ctx, id); err != nil {
			t.Fatalf("clear %q: %v", id, err)
		}
	}
	if !mr.Exists("quiz:attempt:victim:result") || !mr.Exists("quiz:attempt:ab:profile") {
		t.Fatalf("expected other attempts to survive pattern-like ids")
	}
	if mr.Exists("quiz:attempt:a?:profile") {
		t.Fatalf("expected the literal attempt a? to be cleared")
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
