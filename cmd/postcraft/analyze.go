package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdulachik/postcraft/internal/app"
	"github.com/abdulachik/postcraft/internal/config"
	"github.com/abdulachik/postcraft/internal/pipeline"
)

var (
	analyzeStyle       string
	analyzeMaxSegments int
	analyzeLocal       bool
	analyzeJSON        bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Split text into segments with image prompts",
	Long: `Analyze a text file (or stdin) and print its segments with summaries
and image prompts.

Examples:
  postcraft analyze essay.txt
  cat essay.txt | postcraft analyze --style "温馨治愈风格" --json
  postcraft analyze essay.txt --local --max-segments 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeStyle, "style", "", "Style prompt (default: DEFAULT_STYLE)")
	analyzeCmd.Flags().IntVar(&analyzeMaxSegments, "max-segments", 0, "Maximum number of segments (default: 10)")
	analyzeCmd.Flags().BoolVar(&analyzeLocal, "local", false, "Skip the language model")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

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

	a, err := app.New(ctx, cfg, app.Options{DisableLLM: analyzeLocal, DisableCards: true})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Pipeline.Analyze(ctx, pipeline.AnalyzeRequest{
		Text:        text,
		StylePrompt: styleOrDefault(analyzeStyle, cfg),
		MaxSegments: analyzeMaxSegments,
	})
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		return printJSON(out, res)
	}

	fmt.Fprintln(out, "=== Analysis ===")
	fmt.Fprintf(out, "Text type: %s\n", res.TextType)
	fmt.Fprintf(out, "Style: %s\n", res.Style)
	fmt.Fprintf(out, "Source: %s\n", res.Source)
	fmt.Fprintf(out, "Segments: %d (about %ds to generate)\n", res.TotalCount, res.EstimatedTime)
	for _, s := range res.Segments {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "[%d] %s\n", s.ID, s.Summary)
		fmt.Fprintf(out, "    %s\n", oneLine(s.Content, 80))
		fmt.Fprintf(out, "    prompt: %s\n", s.ImagePrompt)
	}
	return nil
}

func styleOrDefault(style string, cfg *config.Config) string {
	if strings.TrimSpace(style) != "" {
		return style
	}
	return cfg.DefaultStyle
}

// oneLine flattens s and cuts it to n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
