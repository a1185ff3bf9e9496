package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding categories and published posts.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the API serve reads while a seed runs; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    excerpt TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    featured_image TEXT NOT NULL DEFAULT '',
    published_at TEXT NOT NULL,
    author_name TEXT NOT NULL DEFAULT '',
    category_slug TEXT NOT NULL DEFAULT '',
    meta_title TEXT NOT NULL DEFAULT '',
    meta_description TEXT NOT NULL DEFAULT '',
    og_title TEXT NOT NULL DEFAULT '',
    og_description TEXT NOT NULL DEFAULT '',
    twitter_title TEXT NOT NULL DEFAULT '',
    twitter_description TEXT NOT NULL DEFAULT '',
    published INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_posts_category ON posts(category_slug, published_at);
`)
	return err
}

const postColumns = `p.id, p.slug, p.title, p.excerpt, p.content, p.featured_image, p.published_at,
	p.author_name, p.category_slug, COALESCE(c.name, ''), p.meta_title, p.meta_description,
	p.og_title, p.og_description, p.twitter_title, p.twitter_description`

const postFrom = ` FROM posts p LEFT JOIN categories c ON c.slug = p.category_slug`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.Content, &p.FeaturedImage, &p.PublishedAt,
		&p.AuthorName, &p.CategorySlug, &p.CategoryName, &p.MetaTitle, &p.MetaDescription,
		&p.OGTitle, &p.OGDescription, &p.TwitterTitle, &p.TwitterDescription)
	return p, err
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPosts returns published posts, newest first. A limit <= 0 returns all.
func (s *Store) ListPosts(ctx context.Context, limit int) ([]Post, error) {
	q := `SELECT ` + postColumns + postFrom + ` WHERE p.published = 1 ORDER BY p.published_at DESC, p.id DESC`
	if limit > 0 {
		return s.queryPosts(ctx, q+` LIMIT ?`, limit)
	}
	return s.queryPosts(ctx, q)
}

// ListPostsByCategory returns the published posts of one category, newest first.
func (s *Store) ListPostsByCategory(ctx context.Context, slug string) ([]Post, error) {
	return s.queryPosts(ctx, `SELECT `+postColumns+postFrom+
		` WHERE p.published = 1 AND p.category_slug = ? ORDER BY p.published_at DESC, p.id DESC`,
		normalizeSlug(slug))
}

// GetPost returns a single published post by slug.
func (s *Store) GetPost(ctx context.Context, slug string) (Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+postFrom+` WHERE p.published = 1 AND p.slug = ?`, normalizeSlug(slug))
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	return p, err
}

// GetCategory returns a category by slug with its published post count.
func (s *Store) GetCategory(ctx context.Context, slug string) (Category, error) {
	var c Category
	err := s.db.QueryRowContext(ctx, `
SELECT c.id, c.name, c.slug, c.description,
       (SELECT COUNT(*) FROM posts p WHERE p.category_slug = c.slug AND p.published = 1)
FROM categories c WHERE c.slug = ?`, normalizeSlug(slug)).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.PostCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

// ListCategories returns every category ordered by name, with post counts.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.name, c.slug, c.description, COUNT(p.id)
FROM categories c
LEFT JOIN posts p ON p.category_slug = c.slug AND p.published = 1
GROUP BY c.id
ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.PostCount); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// SaveCategory upserts a category by slug.
func (s *Store) SaveCategory(ctx context.Context, c Category) error {
	slug := normalizeSlug(c.Slug)
	if slug == "" || strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("content: category needs a slug and a name")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO categories (slug, name, description) VALUES (?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET name = excluded.name, description = excluded.description`,
		slug, c.Name, c.Description)
	return err
}

// SavePost upserts a published post by slug.
func (s *Store) SavePost(ctx context.Context, p Post) error {
	p.Slug = normalizeSlug(p.Slug)
	if p.Slug == "" || strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("content: post needs a slug and a title")
	}
	if _, ok := p.PublishedTime(); !ok {
		return fmt.Errorf("content: post %q has invalid published_at %q", p.Slug, p.PublishedAt)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO posts (slug, title, excerpt, content, featured_image, published_at, author_name, category_slug,
                   meta_title, meta_description, og_title, og_description, twitter_title, twitter_description, published)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
ON CONFLICT(slug) DO UPDATE SET
    title = excluded.title, excerpt = excluded.excerpt, content = excluded.content,
    featured_image = excluded.featured_image, published_at = excluded.published_at,
    author_name = excluded.author_name, category_slug = excluded.category_slug,
    meta_title = excluded.meta_title, meta_description = excluded.meta_description,
    og_title = excluded.og_title, og_description = excluded.og_description,
    twitter_title = excluded.twitter_title, twitter_description = excluded.twitter_description,
    published = 1`,
		p.Slug, p.Title, p.Excerpt, p.Content, p.FeaturedImage, p.PublishedAt, p.AuthorName, normalizeSlug(p.CategorySlug),
		p.MetaTitle, p.MetaDescription, p.OGTitle, p.OGDescription, p.TwitterTitle, p.TwitterDescription)
	return err
}

// DeletePost removes a post by slug.
func (s *Store) DeletePost(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, normalizeSlug(slug))
	return err
}

func normalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
