package content

import (
	"context"
	"path/filepath"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "content.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedStore(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	cats := []Category{
		{Name: "AI", Slug: "ai", Description: "Artificial intelligence"},
		{Name: "Go", Slug: "go", Description: "The Go language"},
		{Name: "Empty", Slug: "empty", Description: "Nothing here yet"},
	}
	for _, c := range cats {
		if err := s.SaveCategory(ctx, c); err != nil {
			t.Fatalf("SaveCategory(%s) failed: %v", c.Slug, err)
		}
	}
	posts := []Post{
		{Title: "Old AI", Slug: "old-ai", Excerpt: "old", PublishedAt: "2023-01-01T00:00:00Z", CategorySlug: "ai"},
		{Title: "New AI", Slug: "new-ai", Excerpt: "new", Content: "<p>body</p>", PublishedAt: "2024-05-01T00:00:00Z", CategorySlug: "ai", MetaTitle: "New AI | Blog"},
		{Title: "Go Tips", Slug: "go-tips", Excerpt: "tips", PublishedAt: "2024-03-01T00:00:00Z", CategorySlug: "go"},
	}
	for _, p := range posts {
		if err := s.SavePost(ctx, p); err != nil {
			t.Fatalf("SavePost(%s) failed: %v", p.Slug, err)
		}
	}
}

func TestListPostsNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	seedStore(t, s)

	posts, err := s.ListPosts(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("len(posts) = %d, want 3", len(posts))
	}
	want := []string{"new-ai", "go-tips", "old-ai"}
	for i, slug := range want {
		if posts[i].Slug != slug {
			t.Errorf("posts[%d].Slug = %q, want %q", i, posts[i].Slug, slug)
		}
	}
	if posts[0].CategoryName != "AI" {
		t.Errorf("CategoryName = %q, want AI", posts[0].CategoryName)
	}

	limited, err := s.ListPosts(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListPosts(limit) failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("len(limited) = %d, want 1", len(limited))
	}
}

func TestListPostsEmptyIsNotNil(t *testing.T) {
	s := setupTestStore(t)
	posts, err := s.ListPosts(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if posts == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestGetPost(t *testing.T) {
	s := setupTestStore(t)
	seedStore(t, s)

	got, err := s.GetPost(context.Background(), "new-ai")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "New AI" || got.Content != "<p>body</p>" || got.MetaTitle != "New AI | Blog" {
		t.Errorf("unexpected post: %+v", got)
	}
	if _, err := s.GetPost(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostSlugsAreLowerCased(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.SavePost(ctx, Post{Title: "Hello", Slug: " Hello-World ", PublishedAt: "2024-01-01T00:00:00Z"})
	if err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	got, err := s.GetPost(ctx, "hello-world")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Slug != "hello-world" {
		t.Errorf("expected stored slug hello-world, got %q", got.Slug)
	}
	if _, err := s.GetPost(ctx, "Hello-World"); err != nil {
		t.Errorf("mixed-case lookup failed: %v", err)
	}
}

func TestSavePostUpdate(t *testing.T) {
	s := setupTestStore(t)
	seedStore(t, s)
	ctx := context.Background()

	post, err := s.GetPost(ctx, "go-tips")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	post.Title = "Updated Go Tips"
	if err := s.SavePost(ctx, post); err != nil {
		t.Fatalf("SavePost update failed: %v", err)
	}
	got, _ := s.GetPost(ctx, "go-tips")
	if got.Title != "Updated Go Tips" {
		t.Errorf("Title = %q, want %q", got.Title, "Updated Go Tips")
	}
}

func TestSavePostValidation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.SavePost(ctx, Post{Slug: "x"}); err == nil {
		t.Error("expected error for missing title")
	}
	if err := s.SavePost(ctx, Post{Slug: "x", Title: "X", PublishedAt: "yesterday"}); err == nil {
		t.Error("expected error for invalid published_at")
	}
}

func TestCategories(t *testing.T) {
	s := setupTestStore(t)
	seedStore(t, s)
	ctx := context.Background()

	cats, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	counts := map[string]int{}
	for _, c := range cats {
		counts[c.Slug] = c.PostCount
	}
	if counts["ai"] != 2 || counts["go"] != 1 || counts["empty"] != 0 {
		t.Errorf("unexpected post counts: %v", counts)
	}

	cat, err := s.GetCategory(ctx, "AI")
	if err != nil {
		t.Fatalf("GetCategory failed: %v", err)
	}
	if cat.Name != "AI" || cat.PostCount != 2 {
		t.Errorf("unexpected category: %+v", cat)
	}
	if _, err := s.GetCategory(ctx, "nope"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	posts, err := s.ListPostsByCategory(ctx, "ai")
	if err != nil {
		t.Fatalf("ListPostsByCategory failed: %v", err)
	}
	if len(posts) != 2 || posts[0].Slug != "new-ai" {
		t.Errorf("unexpected category posts: %+v", posts)
	}
}

func TestDeletePost(t *testing.T) {
	s := setupTestStore(t)
	seedStore(t, s)
	ctx := context.Background()
	if err := s.DeletePost(ctx, "old-ai"); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.GetPost(ctx, "old-ai"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestApplySeed(t *testing.T) {
	s := setupTestStore(t)
	seed, err := ParseSeed([]byte(`
categories:
  - name: Rust
    slug: rust
    description: Systems programming
posts:
  - title: "C++ & Rust"
    slug: cpp-and-rust
    excerpt: A comparison
    category_slug: rust
    published_at: "2024-02-02T10:00:00Z"
`))
	if err != nil {
		t.Fatalf("ParseSeed failed: %v", err)
	}
	nc, np, err := s.Apply(context.Background(), seed)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if nc != 1 || np != 1 {
		t.Errorf("Apply wrote %d categories and %d posts, want 1 and 1", nc, np)
	}
	got, err := s.GetPost(context.Background(), "cpp-and-rust")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "C++ & Rust" || got.CategoryName != "Rust" {
		t.Errorf("unexpected post: %+v", got)
	}
}

func TestFallbackCategory(t *testing.T) {
	c := FallbackCategory("machine-learning")
	if c.Name != "Machine Learning" {
		t.Errorf("Name = %q, want %q", c.Name, "Machine Learning")
	}
	if c.Slug != "machine-learning" {
		t.Errorf("Slug = %q", c.Slug)
	}
	if c.Description == "" {
		t.Error("expected synthesized description")
	}
}

func TestPublishedTime(t *testing.T) {
	for _, raw := range []string{"2024-01-01T00:00:00Z", "2024-01-01", "2024-01-01 08:30:00"} {
		if _, ok := (Post{PublishedAt: raw}).PublishedTime(); !ok {
			t.Errorf("PublishedTime(%q) not ok", raw)
		}
	}
	if _, ok := (Post{PublishedAt: "soon"}).PublishedTime(); ok {
		t.Error("expected invalid date to fail")
	}
}
