package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"tech-quiz-service/internal/domain"
)

type technologyRow struct {
	bun.BaseModel `bun:"table:technologies"`

	Name     string `bun:"name,pk"`
	Position int    `bun:"position,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID         int             `bun:"id,pk"`
	Position   int             `bun:"position,notnull"`
	Technology string          `bun:"technology,notnull"`
	Data       domain.Question `bun:"data,type:jsonb,notnull"`
}

// SeedCatalog replaces the stored catalog with c, keeping its order.
func SeedCatalog(ctx context.Context, db *bun.DB, c domain.Catalog) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*questionRow)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("clear questions: %w", err)
		}
		if _, err := tx.NewDelete().Model((*technologyRow)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("clear technologies: %w", err)
		}

		if len(c.Technologies) > 0 {
			techs := make([]technologyRow, 0, len(c.Technologies))
			for i, name := range c.Technologies {
				techs = append(techs, technologyRow{Name: name, Position: i})
			}
			if _, err := tx.NewInsert().Model(&techs).Exec(ctx); err != nil {
				return fmt.Errorf("insert technologies: %w", err)
			}
		}

		if len(c.Questions) > 0 {
			questions := make([]questionRow, 0, len(c.Questions))
			for i, q := range c.Questions {
				questions = append(questions, questionRow{
					ID:         q.ID,
					Position:   i,
					Technology: q.Technology,
					Data:       q,
				})
			}
			if _, err := tx.NewInsert().Model(&questions).Exec(ctx); err != nil {
				return fmt.Errorf("insert questions: %w", err)
			}
		}
		return nil
	})
}
