package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"tech-quiz-service/internal/catalog"
	"tech-quiz-service/internal/config"
	"tech-quiz-service/internal/domain"
)

// NewCatalogCmd prints the technologies and question counts of the file catalog.
func NewCatalogCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List technologies and their question counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			c, err := fileCatalog(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, tech := range c.Technologies {
				fmt.Fprintf(out, "%s\t%d questions\n", tech, len(c.ForTechnology(tech)))
			}
			return nil
		},
	}
}

// fileCatalog loads quiz.catalogPath, or the embedded catalog when unset.
func fileCatalog(cfg config.Config) (domain.Catalog, error) {
	if cfg.Quiz.CatalogPath != "" {
		return catalog.LoadFile(cfg.Quiz.CatalogPath, cfg.Quiz.DefaultTimeLimit)
	}
	return catalog.Default(cfg.Quiz.DefaultTimeLimit)
}
