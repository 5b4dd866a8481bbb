// Package app wires configuration into a ready pipeline.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abdulachik/postcraft/internal/api"
	"github.com/abdulachik/postcraft/internal/composer"
	"github.com/abdulachik/postcraft/internal/config"
	"github.com/abdulachik/postcraft/internal/db"
	"github.com/abdulachik/postcraft/internal/health"
	"github.com/abdulachik/postcraft/internal/imagegen"
	"github.com/abdulachik/postcraft/internal/llm"
	"github.com/abdulachik/postcraft/internal/matcher"
	"github.com/abdulachik/postcraft/internal/pipeline"
	"github.com/abdulachik/postcraft/internal/vectorstore"
)

// Options adjusts what New wires.
type Options struct {
	DisableLLM   bool // Analyze locally even when a key is configured
	DisableCards bool // Return raw image URLs instead of composed cards
}

// App is the main application container holding all dependencies.
type App struct {
	Config   *config.Config
	Store    *db.Store
	Archive  *vectorstore.SegmentStore
	Health   *health.Tracker
	Matcher  *matcher.Matcher
	Hub      *api.Hub
	Pipeline *pipeline.Pipeline
}

// New creates a new application instance with all dependencies wired up.
// The store is required; the archive is opened only when configured and
// a failure to open it is logged, not returned.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	tracker := health.NewTracker()

	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if version, err := store.Ping(ctx); err != nil {
		tracker.SetUnhealthy(health.Database, err)
	} else {
		tracker.SetHealthy(health.Database, "schema "+version)
	}

	m, err := matcher.New(matcher.Config{})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create matcher: %w", err)
	}

	a := &App{
		Config:  cfg,
		Store:   store,
		Health:  tracker,
		Matcher: m,
		Hub:     api.NewHub(),
	}

	gen := imagegen.New(imagegen.Config{
		Service:      cfg.ImageService,
		ArkAPIKey:    cfg.ArkAPIKey,
		ArkBaseURL:   cfg.ArkBaseURL,
		VolcanoModel: cfg.VolcanoImageModel,
		VolcanoSize:  cfg.VolcanoImageSize,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModel:  cfg.OpenAIImageModel,
		OpenAISize:   cfg.OpenAIImageSize,
		RemoteOptions: imagegen.RemoteConfig{
			Timeout:  cfg.ImageTimeout,
			Attempts: cfg.RetryAttempts,
		},
	}, m)

	pcfg := pipeline.Config{
		Generator:     gen,
		Matcher:       m,
		Store:         store,
		Notifier:      a.Hub,
		Health:        tracker,
		MaxTextLength: cfg.MaxTextLength,
		Concurrency:   cfg.ImageConcurrency,
		RateInterval:  cfg.ImageRateInterval,
		CacheTTL:      cfg.CacheTTL,
	}

	if cfg.LLMEnabled() && !opts.DisableLLM {
		pcfg.Analyzer = llm.NewAnalyzer(llm.NewClient(llm.Config{
			APIKey:      cfg.ArkAPIKey,
			BaseURL:     cfg.ArkBaseURL,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			Timeout:     cfg.LLMTimeout,
			Attempts:    cfg.RetryAttempts,
		}))
	} else {
		slog.Info("model analysis disabled, using local prompt generation")
	}

	if !opts.DisableCards {
		comp, err := composer.New(composer.Config{FontPath: cfg.FontPath, Timeout: cfg.ImageTimeout})
		if err != nil {
			slog.Warn("card composer unavailable, returning raw images", "error", err)
		} else {
			pcfg.Compositor = comp
		}
	}

	if cfg.ArchiveEnabled() {
		archive, err := vectorstore.New(vectorstore.Config{Path: cfg.VecLitePath, ConfigPath: cfg.VecLiteConfig})
		if err != nil {
			slog.Warn("failed to open prompt archive", "path", cfg.VecLitePath, "error", err)
			tracker.SetUnhealthy(health.Archive, err)
		} else {
			a.Archive = archive
			pcfg.Archive = archive
			tracker.SetHealthy(health.Archive, fmt.Sprintf("%d segments", archive.Count()))
		}
	}

	p, err := pipeline.New(pcfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create pipeline: %w", err)
	}
	a.Pipeline = p

	slog.Info("application ready",
		"image_backend", p.Backend(),
		"llm", pcfg.Analyzer != nil,
		"archive", a.Archive != nil,
	)
	return a, nil
}

// Router builds the HTTP handler for serve mode.
func (a *App) Router(accessLog bool) *gin.Engine {
	return api.NewRouter(api.Config{
		Pipeline:     a.Pipeline,
		Hub:          a.Hub,
		Health:       a.Health,
		CORSOrigins:  a.Config.CORSOrigins,
		DefaultStyle: a.Config.DefaultStyle,
		AccessLog:    accessLog,
	})
}

// Close closes all resources.
func (a *App) Close() error {
	var firstErr error
	if a.Archive != nil {
		if err := a.Archive.Close(); err != nil {
			firstErr = fmt.Errorf("close archive: %w", err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close database: %w", err)
		}
	}
	return firstErr
}

// PingLoop refreshes database health every interval until ctx is done.
func (a *App) PingLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := a.Store.Ping(ctx)
			a.Health.Record(health.Database, err)
		}
	}
}
