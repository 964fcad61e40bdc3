package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golazo/internal/cache"
	"golazo/internal/config"
	"golazo/internal/enrich"
	"golazo/internal/feed"
	"golazo/internal/logging"
	"golazo/internal/ports"
	"golazo/internal/rewrite"
	"golazo/internal/scraper"
	"golazo/internal/storage"
	"golazo/internal/translate"
	"golazo/internal/transport/rest"
	"golazo/internal/usecase"
)

// Application wires configuration to adapters, the pipeline and the HTTP
// server, and owns their lifecycle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	router    http.Handler
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	repository := storage.NewPostgresRepository(db)

	var listingCache ports.ListingCache
	if cfg.Redis.Addr != "" {
		listingCache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, 10*time.Minute)
		baseLogger.Info("listing cache enabled", "addr", cfg.Redis.Addr)
	}

	fetcher := feed.NewFetcher(cfg.Feeds, nil, baseLogger.With("component", "feed"))
	translator := translate.NewClient(cfg.Translate, baseLogger.With("component", "translate"))

	standings := enrich.NewStandingsClient(cfg.Standings,
		enrich.NewTTLCache(cfg.Standings.CacheTTL),
		baseLogger.With("component", "standings"))
	search := enrich.NewSearchChain(cfg.Search, nil, baseLogger.With("component", "websearch"))
	enricher := enrich.NewEnricher(standings, search)

	generator := rewrite.NewGenerator(rewrite.NewChatClient(cfg.Chat, baseLogger.With("component", "chat")))
	pages := scraper.New(nil, baseLogger.With("component", "scraper"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:         fetcher,
		Repository:     repository,
		Translator:     translator,
		Enricher:       enricher,
		Generator:      generator,
		Scraper:        pages,
		Cache:          listingCache,
		Logger:         baseLogger.With("component", "pipeline"),
		MaxCandidates:  cfg.Pipeline.MaxCandidates,
		ScrapeLimit:    cfg.Pipeline.ScrapeLimit,
		Concurrency:    cfg.Pipeline.Concurrency,
		TargetLanguage: cfg.Pipeline.TargetLanguage,
	})

	api := rest.New(pipeline, repository, listingCache,
		cfg.Cron.APIKey, cfg.Admin.APIKey, baseLogger.With("component", "rest"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		pipeline:  pipeline,
		scheduler: usecase.NewScheduler(pipeline, baseLogger.With("component", "scheduler")),
		router:    rest.NewRouter(api),
	}, nil
}

// Run starts the scheduler and the HTTP server and blocks until the
// context is cancelled or a termination signal arrives.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.Cron.Expression != "" {
		if err := a.scheduler.Start(ctx, a.cfg.Cron.Expression); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	server := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "port", a.cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	a.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
