package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abdulachik/postcraft/internal/config"
	"github.com/abdulachik/postcraft/internal/db"
	"github.com/abdulachik/postcraft/internal/vectorstore"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long:  `Display statistics about batches, images and the prompt archive.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	// Ensure migrations are run
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, err := store.Ping(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	totalBatches, err := store.CountBatches(ctx)
	if err != nil {
		return fmt.Errorf("count batches: %w", err)
	}

	imagesByStatus, err := store.CountImagesByStatus(ctx)
	if err != nil {
		return fmt.Errorf("count images by status: %w", err)
	}

	recent, err := store.ListRecentBatches(ctx, 5)
	if err != nil {
		slog.Warn("failed to list recent batches", "error", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Postcraft Statistics ===")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Database: %s (schema %s)\n", cfg.DatabasePath, version)
	fmt.Fprintf(out, "Image backend: %s\n", cfg.ImageService)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Batches:")
	fmt.Fprintf(out, "  Total: %d\n", totalBatches)
	fmt.Fprintln(out)

	if len(imagesByStatus) > 0 {
		fmt.Fprintln(out, "Images by status:")
		for _, row := range imagesByStatus {
			fmt.Fprintf(out, "  %s: %d\n", row.Status, row.Count)
		}
		fmt.Fprintln(out)
	}

	if len(recent) > 0 {
		fmt.Fprintln(out, "Recent batches:")
		for _, b := range recent {
			fmt.Fprintf(out, "  %s  %-10s %d/%d  %s\n", b.ID, b.Status, b.CompletedCount, b.TotalCount, b.CreatedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintln(out)
	}

	// Check VecLite stats if configured
	if cfg.ArchiveEnabled() {
		archive, err := vectorstore.New(vectorstore.Config{
			Path:       cfg.VecLitePath,
			ConfigPath: cfg.VecLiteConfig,
		})
		if err != nil {
			slog.Warn("failed to open VecLite", "error", err)
		} else {
			defer archive.Close()
			stats := archive.Stats()
			fmt.Fprintln(out, "Prompt archive:")
			fmt.Fprintf(out, "  Path: %s\n", cfg.VecLitePath)
			fmt.Fprintf(out, "  Segments: %d\n", stats.Count)
			fmt.Fprintf(out, "  Dimension: %d\n", stats.Dimension)
			fmt.Fprintf(out, "  Distance: %s\n", stats.DistanceType)
			fmt.Fprintf(out, "  Index: %s\n", stats.IndexType)
			fmt.Fprintln(out)
		}
	}

	return nil
}
