package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/webarch-grader/internal/cache/memory"
	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/httpserver"
	"github.com/kitbuilder587/webarch-grader/internal/metrics"
	"github.com/kitbuilder587/webarch-grader/internal/ratelimit"
	"github.com/kitbuilder587/webarch-grader/internal/repository"
	"github.com/kitbuilder587/webarch-grader/internal/repository/postgres"
	"github.com/kitbuilder587/webarch-grader/internal/rubric"
	"github.com/kitbuilder587/webarch-grader/internal/service"
	"github.com/kitbuilder587/webarch-grader/internal/validator"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the grading HTTP API",
	Long: `Serve the JSON API:

  POST /v1/validate                       grade and record one submission
  POST /v1/regrade                        re-grade a batch without recording
  GET  /v1/exercises                      exercise ids with a rubric
  GET  /v1/learners/{id}/history          recorded submissions
  GET  /v1/learners/{id}/progress         best score per exercise
  GET  /healthz, /metrics

With DATABASE_URL set, rubrics are read from postgres (seeded from the
catalog on first start) and every submission is recorded.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	m := metrics.New()

	catalog, catalogPath, err := loadCatalog(cfg.Rubric.File)
	if err != nil {
		return err
	}

	var (
		rubricRepo repository.RubricRepository
		subRepo    repository.SubmissionRepository
	)
	if cfg.Database.URL != "" {
		db, err := postgres.New(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return err
		}
		repo := postgres.NewRubricRepo(db)
		seeded, err := service.SeedRubrics(ctx, repo, catalog.All())
		if err != nil {
			return err
		}
		logger.Info("rubric store ready", zap.Int("seeded", seeded))

		rubricRepo = repo
		subRepo = postgres.NewSubmissionRepo(db)
	} else {
		logger.Warn("DATABASE_URL is not set, submissions will not be recorded")
	}

	rubricCache := memory.NewWithContext[*domain.Rubric](ctx, memory.Options{})
	defer rubricCache.Stop()

	resolver := service.NewRubricResolver(service.RubricResolverDeps{
		Repo:     rubricRepo,
		Catalog:  catalog,
		Cache:    rubricCache,
		CacheTTL: cfg.Rubric.CacheTTL,
		Logger:   logger,
		Metrics:  m,
	})

	engine := validator.New(validator.Deps{
		Rubrics: resolver,
		Browser: newLauncher(cfg, logger),
		Logger:  logger,
		Metrics: m,
		Config: validator.Config{
			ViewportWidth:  cfg.Browser.ViewportWidth,
			ViewportHeight: cfg.Browser.ViewportHeight,
		},
	})

	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: cfg.RateLimit.RequestsPerMinute})
	defer limiter.Stop()

	grading := service.NewGradingService(service.GradingServiceDeps{
		Validator:   engine,
		Submissions: subRepo,
		Limiter:     limiter,
		Logger:      logger,
		Metrics:     m,
		Config:      service.GradingConfig{MaxParallel: cfg.MaxParallelSessions},
	})

	srv := httpserver.New(httpserver.Deps{
		Grading:         grading,
		Exercises:       resolver,
		Logger:          logger,
		MetricsHandler:  metrics.Handler(),
		RequestTimeout:  cfg.Browser.SessionTimeout + cfg.Browser.PageLoadTimeout,
		RegradeParallel: cfg.MaxParallelSessions,
	})

	addr := serveAddr
	if addr == "" {
		addr = cfg.HTTP.Addr
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, addr)
	})
	if cfg.Rubric.Watch && catalogPath != "" {
		w := rubric.NewWatcher(rubric.WatcherDeps{
			Path:    catalogPath,
			Catalog: catalog,
			Logger:  logger,
			Metrics: m,
		})
		g.Go(func() error {
			err := w.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
