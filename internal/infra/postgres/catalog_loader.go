package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"tech-quiz-service/internal/catalog"
	"tech-quiz-service/internal/domain"
)

// CatalogLoader loads the technology list and question JSONB rows from Postgres.
type CatalogLoader struct {
	pool         *pgxpool.Pool
	defaultLimit int
}

func NewCatalogLoader(pool *pgxpool.Pool, defaultLimit int) *CatalogLoader {
	if defaultLimit <= 0 {
		defaultLimit = domain.DefaultTimeLimitSeconds
	}
	return &CatalogLoader{pool: pool, defaultLimit: defaultLimit}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	var out domain.Catalog

	rows, err := l.pool.Query(ctx, `SELECT name FROM technologies ORDER BY position, name`)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load technologies: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return domain.Catalog{}, fmt.Errorf("scan technology: %w", err)
		}
		out.Technologies = append(out.Technologies, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("load technologies: %w", err)
	}

	rows, err = l.pool.Query(ctx, `SELECT data FROM questions ORDER BY position, id`)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return domain.Catalog{}, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return domain.Catalog{}, fmt.Errorf("unmarshal question: %w", err)
		}
		out.Questions = append(out.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("load questions: %w", err)
	}

	out = catalog.Normalize(out, l.defaultLimit)
	if err := catalog.Validate(out); err != nil {
		return domain.Catalog{}, err
	}
	return out, nil
}
