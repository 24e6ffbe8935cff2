package memory

import (
	"errors"
	"testing"

	"tech-quiz-service/internal/app"
)

func TestSessionRepositoryCreatesOnce(t *testing.T) {
	repo := NewSessionRepository()
	session := &app.Session{}
	calls := 0
	create := func() (*app.Session, error) {
		calls++
		return session, nil
	}

	first, err := repo.GetOrCreate("a1", create)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	second, _ := repo.GetOrCreate("a1", create)
	if first != session || second != session || calls != 1 {
		t.Fatalf("expected a single build, calls=%d", calls)
	}

	if _, ok := repo.Delete("a1"); !ok {
		t.Fatalf("expected delete to find session")
	}
	if _, ok := repo.Get("a1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionRepositoryDoesNotStoreFailures(t *testing.T) {
	repo := NewSessionRepository()
	boom := errors.New("boom")

	if _, err := repo.GetOrCreate("a1", func() (*app.Session, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected build error, got %v", err)
	}
	if _, ok := repo.Get("a1"); ok {
		t.Fatalf("expected nothing stored after failure")
	}
}
