package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/abdulachik/postcraft/internal/api"
	"github.com/abdulachik/postcraft/internal/app"
	"github.com/abdulachik/postcraft/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API serving text analysis, image generation, batch status
and websocket progress streams.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ValidateForServe(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	slog.Info("connecting to database", "path", cfg.DatabasePath)
	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	go a.PingLoop(ctx, time.Minute)

	slog.Info("starting postcraft API",
		"addr", cfg.HTTPAddr,
		"image_backend", a.Pipeline.Backend(),
		"concurrency", cfg.ImageConcurrency,
	)

	if err := api.Serve(ctx, cfg.HTTPAddr, a.Router(true)); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	slog.Info("shut down cleanly")
	return nil
}
