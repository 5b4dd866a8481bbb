package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdulachik/postcraft/internal/app"
	"github.com/abdulachik/postcraft/internal/config"
	"github.com/abdulachik/postcraft/internal/pipeline"
)

var (
	generateStyle       string
	generateMaxSegments int
	generateSize        string
	generateOut         string
	generateLocal       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [file]",
	Short: "Analyze text and render image cards",
	Long: `Analyze a text file (or stdin), generate an image per segment and
render each into a card.

With --out, composed cards are written as segment-N.jpg together with a
batch.json manifest.

Examples:
  postcraft generate essay.txt --out cards/
  postcraft generate essay.txt --style "科技未来风格" --size 16:9`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateStyle, "style", "", "Style prompt (default: DEFAULT_STYLE)")
	generateCmd.Flags().IntVar(&generateMaxSegments, "max-segments", 0, "Maximum number of segments (default: 10)")
	generateCmd.Flags().StringVar(&generateSize, "size", "3:4", "Image size as a ratio or WxH")
	generateCmd.Flags().StringVar(&generateOut, "out", "", "Directory for cards and batch.json")
	generateCmd.Flags().BoolVar(&generateLocal, "local", false, "Skip the language model")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	text, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if err := cfg.ValidateForImages(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg, app.Options{DisableLLM: generateLocal})
	if err != nil {
		return err
	}
	defer a.Close()

	style := styleOrDefault(generateStyle, cfg)
	analysis, err := a.Pipeline.Analyze(ctx, pipeline.AnalyzeRequest{
		Text:        text,
		StylePrompt: style,
		MaxSegments: generateMaxSegments,
	})
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	slog.Info("generating images",
		"segments", analysis.TotalCount,
		"backend", a.Pipeline.Backend(),
		"estimated_seconds", analysis.EstimatedTime,
	)

	res, err := a.Pipeline.Generate(ctx, pipeline.GenerateRequest{
		Segments:    analysis.Segments,
		StylePrompt: style,
		ImageSize:   generateSize,
	})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Batch: %s\n", res.BatchID)
	for _, img := range res.Images {
		fmt.Fprintf(out, "  [%d] %s\n", img.SegmentID, img.Status)
	}

	if generateOut == "" {
		return nil
	}
	if err := writeCards(generateOut, style, analysis.Segments, res); err != nil {
		return err
	}
	fmt.Fprintf(out, "Cards written to %s\n", generateOut)
	return nil
}
