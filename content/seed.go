package content

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML document accepted by LoadSeed.
//
//	categories:
//	  - {name: AI, slug: ai, description: Machine learning and friends}
//	posts:
//	  - {title: Hello, slug: hello, category_slug: ai, published_at: 2024-01-01T00:00:00Z}
type Seed struct {
	Categories []Category `yaml:"categories"`
	Posts      []Post     `yaml:"posts"`
}

// ParseSeed decodes a seed document.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	return seed, nil
}

// LoadSeed reads the YAML file at path and upserts its categories and
// posts. It returns the number of categories and posts written.
func (s *Store) LoadSeed(ctx context.Context, path string) (int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read seed: %w", err)
	}
	seed, err := ParseSeed(data)
	if err != nil {
		return 0, 0, err
	}
	return s.Apply(ctx, seed)
}

// Apply upserts every entry of seed, categories first.
func (s *Store) Apply(ctx context.Context, seed Seed) (int, int, error) {
	for _, c := range seed.Categories {
		if err := s.SaveCategory(ctx, c); err != nil {
			return 0, 0, fmt.Errorf("save category %q: %w", c.Slug, err)
		}
	}
	for _, p := range seed.Posts {
		if err := s.SavePost(ctx, p); err != nil {
			return len(seed.Categories), 0, fmt.Errorf("save post %q: %w", p.Slug, err)
		}
	}
	return len(seed.Categories), len(seed.Posts), nil
}
