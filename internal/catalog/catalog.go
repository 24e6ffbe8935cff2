// Package catalog loads and checks question catalogs.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"tech-quiz-service/internal/domain"
)

//go:embed questions.json
var defaultCatalogJSON []byte

// Default returns the catalog shipped with the service. Questions without a
// time limit get defaultLimit seconds (domain.DefaultTimeLimitSeconds when <= 0).
func Default(defaultLimit int) (domain.Catalog, error) {
	return Parse(defaultCatalogJSON, ".json", defaultLimit)
}

// LoadFile reads a JSON or YAML catalog from path.
func LoadFile(path string, defaultLimit int) (domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Catalog{}, err
	}
	return Parse(data, filepath.Ext(path), defaultLimit)
}

// Parse decodes data according to ext (".json", ".yaml" or ".yml"), then
// normalizes and validates the result.
func Parse(data []byte, ext string, defaultLimit int) (domain.Catalog, error) {
	var catalog domain.Catalog
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return domain.Catalog{}, fmt.Errorf("decode catalog: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&catalog); err != nil {
			return domain.Catalog{}, fmt.Errorf("decode catalog: %w", err)
		}
	}
	catalog = Normalize(catalog, defaultLimit)
	if err := Validate(catalog); err != nil {
		return domain.Catalog{}, err
	}
	return catalog, nil
}

// Normalize fills in missing time limits and trims names.
func Normalize(catalog domain.Catalog, defaultLimit int) domain.Catalog {
	if defaultLimit <= 0 {
		defaultLimit = domain.DefaultTimeLimitSeconds
	}
	out := domain.Catalog{
		Technologies: make([]string, 0, len(catalog.Technologies)),
		Questions:    make([]domain.Question, 0, len(catalog.Questions)),
	}
	for _, t := range catalog.Technologies {
		out.Technologies = append(out.Technologies, strings.TrimSpace(t))
	}
	for _, q := range catalog.Questions {
		q.Technology = strings.TrimSpace(q.Technology)
		if q.TimeLimitSeconds <= 0 {
			q.TimeLimitSeconds = defaultLimit
		}
		out.Questions = append(out.Questions, q)
	}
	return out
}

// Validate checks the rules every catalog entry must satisfy.
func Validate(catalog domain.Catalog) error {
	seen := make(map[int]struct{}, len(catalog.Questions))
	for _, q := range catalog.Questions {
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("question %d: duplicate id", q.ID)
		}
		seen[q.ID] = struct{}{}

		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("question %d: empty prompt", q.ID)
		}
		if q.TimeLimitSeconds <= 0 {
			return fmt.Errorf("question %d: time limit must be positive", q.ID)
		}
		switch q.Type {
		case domain.AnswerFreeText:
			if len(q.Options) > 0 {
				return fmt.Errorf("question %d: free-text questions take no options", q.ID)
			}
			if len(q.CorrectAnswer) != 1 {
				return fmt.Errorf("question %d: expected exactly one correct answer", q.ID)
			}
		case domain.AnswerSingleChoice:
			if len(q.Options) == 0 {
				return fmt.Errorf("question %d: choice questions need options", q.ID)
			}
			if len(q.CorrectAnswer) != 1 || !q.HasOption(q.CorrectAnswer[0]) {
				return fmt.Errorf("question %d: correct answer must be one of the options", q.ID)
			}
		case domain.AnswerMultiChoice:
			if len(q.Options) == 0 {
				return fmt.Errorf("question %d: choice questions need options", q.ID)
			}
			if len(q.CorrectAnswer) == 0 {
				return fmt.Errorf("question %d: expected at least one correct answer", q.ID)
			}
			for _, c := range q.CorrectAnswer {
				if !q.HasOption(c) {
					return fmt.Errorf("question %d: correct answer %q is not an option", q.ID, c)
				}
			}
		default:
			return fmt.Errorf("question %d: unknown type %q", q.ID, q.Type)
		}
	}
	return nil
}
