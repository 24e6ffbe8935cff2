package cli

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"tech-quiz-service/internal/config"
	pgloader "tech-quiz-service/internal/infra/postgres"
)

// NewSeedCmd loads a catalog file (or the built-in one) into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the Postgres question catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, catalogPath)
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "JSON or YAML catalog file (default: quiz.catalogPath, then built-in)")
	return cmd
}

func runSeed(ctx context.Context, configPath, catalogPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if catalogPath != "" {
		cfg.Quiz.CatalogPath = catalogPath
	}
	catalog, err := fileCatalog(cfg)
	if err != nil {
		return err
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	db, err := openBunDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := pgloader.SeedCatalog(ctx, db, catalog); err != nil {
		return err
	}
	log.Printf("seeded %d technologies and %d questions", len(catalog.Technologies), len(catalog.Questions))
	return nil
}
