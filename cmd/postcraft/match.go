package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/abdulachik/postcraft/internal/matcher"
)

var (
	matchSegment int
	matchTop     int
)

var matchCmd = &cobra.Command{
	Use:   "match [prompt]",
	Short: "Show stock image scores for a prompt",
	Long: `Score an image prompt against the stock theme table and show the image
that would be used when no backend can produce one.

Example:
  postcraft match "sunset over a quiet beach, warm light" --top 5`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().IntVar(&matchSegment, "segment", 1, "Segment id used to pick within the theme")
	matchCmd.Flags().IntVar(&matchTop, "top", 5, "Number of themes to show")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	m, err := matcher.New(matcher.Config{})
	if err != nil {
		return fmt.Errorf("create matcher: %w", err)
	}

	prompt := args[0]
	scores := m.Scores(prompt)
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Total > scores[j].Total
	})
	if matchTop > 0 && len(scores) > matchTop {
		scores = scores[:matchTop]
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Theme Scores ===")
	fmt.Fprintf(out, "%-20s %8s %8s %8s %8s %8s\n", "theme", "keyword", "semantic", "emotion", "desc", "total")
	for _, s := range scores {
		fmt.Fprintf(out, "%-20s %8d %8d %8d %8d %8.1f\n", s.Theme, s.Keyword, s.Semantic, s.Emotion, s.Description, s.Total)
	}

	match := m.Match(prompt, matchSegment)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Selected Image ===")
	fmt.Fprintf(out, "Theme: %s (score %.1f)\n", match.Theme, match.Score)
	fmt.Fprintf(out, "Index: %d\n", match.Index)
	fmt.Fprintf(out, "URL: %s\n", match.URL)
	return nil
}
