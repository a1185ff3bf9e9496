package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/eringen/seoedge"
	"github.com/eringen/seoedge/cache"
	"github.com/eringen/seoedge/content"
	"github.com/eringen/seoedge/metrics"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the SSR edge",
		Long: `Runs the edge server. With --content-db the Content API is mounted
under /api on the same server and used as the upstream.`,
		PreRunE: bindFlags(v, map[string]string{
			"server.addr":  "addr",
			"content.db":   "content-db",
			"content.seed": "seed",
		}),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}
	cmd.Flags().String("addr", ":3000", "listen address")
	cmd.Flags().String("content-db", "", "sqlite Content API database to serve in-process")
	cmd.Flags().String("seed", "", "YAML seed loaded into --content-db at startup")
	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	logger, err := newLogger(v)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg := siteConfig(v)
	opts := []seoedge.Option{seoedge.WithLogger(logger)}

	if path := v.GetString("content.db"); path != "" {
		store, err := openContentStore(ctx, path, v.GetString("content.seed"), logger)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, seoedge.WithContentAPI(store))
		if cfg.UpstreamURL == "" {
			cfg.UpstreamURL = loopbackURL(cfg.Addr)
		}
	}

	if rc := redisConfig(v); rc.Address != "" {
		redisCache, err := cache.NewRedis(rc)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisCache.Close()
		opts = append(opts, seoedge.WithCache(redisCache))
		logger.Info("using redis cache", zap.String("addr", rc.Address))
	}

	app, err := seoedge.New(cfg, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start() }()

	select {
	case err := <-errCh:
		return errors.Join(err, app.Close())
	case <-ctx.Done():
	}

	logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func openContentStore(ctx context.Context, path, seed string, logger *zap.Logger) (*content.Store, error) {
	store, err := content.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("open content store: %w", err)
	}
	if seed == "" {
		return store, nil
	}
	cats, posts, err := store.LoadSeed(ctx, seed)
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.Info("seed loaded", zap.String("path", seed), zap.Int("categories", cats), zap.Int("posts", posts))
	return store, nil
}

func newAPICmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Run only the Content API",
		PreRunE: bindFlags(v, map[string]string{
			"content.addr": "addr",
			"content.db":   "content-db",
			"content.seed": "seed",
		}),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAPI(cmd.Context(), v)
		},
	}
	cmd.Flags().String("addr", ":4000", "listen address")
	cmd.Flags().String("content-db", "content.db", "sqlite database")
	cmd.Flags().String("seed", "", "YAML seed loaded at startup")
	return cmd
}

func runAPI(ctx context.Context, v *viper.Viper) error {
	logger, err := newLogger(v)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := openContentStore(ctx, v.GetString("content.db"), v.GetString("content.seed"), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	content.NewAPI(store, logger).RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := v.GetString("content.addr")
	errCh := make(chan error, 1)
	go func() {
		logger.Info("content api listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newSeedCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "seed <file.yaml>",
		Short:   "Load categories and posts into the Content API database",
		Args:    cobra.ExactArgs(1),
		PreRunE: bindFlags(v, map[string]string{"content.db": "content-db"}),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := content.NewStore(v.GetString("content.db"))
			if err != nil {
				return fmt.Errorf("open content store: %w", err)
			}
			defer store.Close()
			cats, posts, err := store.LoadSeed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories and %d posts\n", cats, posts)
			return nil
		},
	}
	cmd.Flags().String("content-db", "content.db", "sqlite database")
	return cmd
}
