package content

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Reader is the read side of the content store consumed by the API.
type Reader interface {
	ListPosts(ctx context.Context, limit int) ([]Post, error)
	ListPostsByCategory(ctx context.Context, slug string) ([]Post, error)
	GetPost(ctx context.Context, slug string) (Post, error)
	GetCategory(ctx context.Context, slug string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

const maxListLimit = 100

// API serves the read-only Content API consumed by the SSR dispatchers
// and the client application.
type API struct {
	store  Reader
	logger *zap.Logger
}

// NewAPI creates an API over store.
func NewAPI(store Reader, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{store: store, logger: logger}
}

// RegisterRoutes mounts the API under /api on e.
func (a *API) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/posts", a.handleListPosts)
	g.GET("/posts/category/:slug", a.handleCategoryPosts)
	g.GET("/posts/:slug/meta", a.handlePostMeta)
	g.GET("/posts/:slug", a.handlePost)
	g.GET("/categories", a.handleCategories)
}

type errorBody struct {
	Error string `json:"error"`
}

func (a *API) handleListPosts(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, errorBody{Error: "limit must be a non-negative integer"})
		}
		limit = min(n, maxListLimit)
	}
	posts, err := a.store.ListPosts(c.Request().Context(), limit)
	if err != nil {
		a.logger.Error("list posts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "failed to load posts"})
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *API) handlePost(c echo.Context) error {
	post, err := a.store.GetPost(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return a.postError(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

// handlePostMeta returns the post without its body: crawlers that only
// need head metadata should not pay for the full article.
func (a *API) handlePostMeta(c echo.Context) error {
	post, err := a.store.GetPost(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return a.postError(c, err)
	}
	post.Content = ""
	return c.JSON(http.StatusOK, post)
}

func (a *API) postError(c echo.Context, err error) error {
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorBody{Error: "post not found"})
	}
	a.logger.Error("get post", zap.String("slug", c.Param("slug")), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, errorBody{Error: "failed to load post"})
}

// handleCategoryPosts keeps strict status codes: this route is consumed by
// the dispatchers, not by crawlers. On internal failure it still carries a
// synthesized category so callers can render something useful.
func (a *API) handleCategoryPosts(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")
	cat, err := a.store.GetCategory(ctx, slug)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorBody{Error: "category not found"})
	}
	if err != nil {
		return a.categoryFailure(c, slug, err)
	}
	posts, err := a.store.ListPostsByCategory(ctx, slug)
	if err != nil {
		return a.categoryFailure(c, slug, err)
	}
	return c.JSON(http.StatusOK, CategoryPosts{Category: cat, Posts: posts})
}

func (a *API) categoryFailure(c echo.Context, slug string, err error) error {
	a.logger.Error("category posts", zap.String("slug", slug), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, CategoryPosts{
		Category: FallbackCategory(slug),
		Posts:    []Post{},
		Error:    "failed to load category",
	})
}

func (a *API) handleCategories(c echo.Context) error {
	cats, err := a.store.ListCategories(c.Request().Context())
	if err != nil {
		a.logger.Error("list categories", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "failed to load categories"})
	}
	return c.JSON(http.StatusOK, cats)
}
