// Package api exposes the pipeline over HTTP and websockets.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abdulachik/postcraft/internal/health"
	"github.com/abdulachik/postcraft/internal/pipeline"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Config holds the router's dependencies.
type Config struct {
	Pipeline     *pipeline.Pipeline
	Hub          *Hub
	Health       *health.Tracker // defaults to the pipeline's tracker
	CORSOrigins  []string        // "*" allows any origin (default: *)
	DefaultStyle string
	AccessLog    bool
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.Hub == nil {
		cfg.Hub = NewHub()
	}
	if cfg.Health == nil {
		cfg.Health = cfg.Pipeline.Health()
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	h := &Handler{
		pipeline:     cfg.Pipeline,
		hub:          cfg.Hub,
		health:       cfg.Health,
		defaultStyle: cfg.DefaultStyle,
		version:      Version,
	}

	r := gin.New()
	if cfg.AccessLog {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.CORSOrigins))

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/ws/batch/:batch_id", h.BatchWebSocket)

	api := r.Group("/api")
	{
		api.POST("/analyze-text", h.AnalyzeText)
		api.POST("/generate-images", h.GenerateImages)
		api.GET("/batch-status/:batch_id", h.BatchStatus)
		api.GET("/batches", h.ListBatches)
		api.GET("/prompts/search", h.SearchPrompts)
	}

	r.NoRoute(func(c *gin.Context) {
		abortWithDetail(c, http.StatusNotFound, "Not Found")
	})

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := slices.Contains(origins, "*")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(origins, origin):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Serve runs handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
