package memory

import (
	"context"
	"testing"
	"time"

	"tech-quiz-service/internal/domain"
)

func TestCatalogRepositoryCaches(t *testing.T) {
	loader := &countingLoader{CatalogLoader: NewStaticCatalogLoader(sampleCatalog())}
	repo := NewCatalogRepository(loader, time.Minute)

	if _, err := repo.GetCatalog(context.Background()); err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	c, err := repo.GetCatalog(context.Background())
	if err != nil {
		t.Fatalf("get catalog 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if len(c.ForTechnology("Go")) != 1 {
		t.Fatalf("unexpected catalog %+v", c)
	}
}

func TestCatalogRepositoryReloadsAfterTTL(t *testing.T) {
	loader := &countingLoader{CatalogLoader: NewStaticCatalogLoader(sampleCatalog())}
	repo := NewCatalogRepository(loader, time.Minute)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetCatalog(context.Background())
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetCatalog(context.Background())

	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}
}

type countingLoader struct {
	CatalogLoader
	calls int
}

func (l *countingLoader) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	l.calls++
	return l.CatalogLoader.LoadCatalog(ctx)
}

func sampleCatalog() domain.Catalog {
	return domain.Catalog{
		Technologies: []string{"Go"},
		Questions: []domain.Question{
			{
				ID:               1,
				Technology:       "Go",
				Prompt:           "Which package provides Mutex?",
				Type:             domain.AnswerSingleChoice,
				Options:          []string{"sync", "context"},
				CorrectAnswer:    domain.AnswerKey{"sync"},
				TimeLimitSeconds: 30,
			},
		},
	}
}
