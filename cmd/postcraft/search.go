package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdulachik/postcraft/internal/config"
	"github.com/abdulachik/postcraft/internal/vectorstore"
)

var (
	searchK    int
	searchText bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search archived segments and prompts",
	Long: `Search the prompt archive for segments similar to a query. By default
the query is matched by meaning; --text uses keyword (BM25) search.

Example:
  postcraft search "海边日落" --k 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchK, "k", 5, "Number of results")
	searchCmd.Flags().BoolVar(&searchText, "text", false, "Use keyword search")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ValidateForArchive(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	archive, err := vectorstore.New(vectorstore.Config{Path: cfg.VecLitePath, ConfigPath: cfg.VecLiteConfig})
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	var results []vectorstore.SearchResult
	if searchText {
		results, err = archive.TextSearch(ctx, query, searchK)
	} else {
		results, err = archive.Search(ctx, query, searchK)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No matching segments found.")
		return nil
	}

	fmt.Fprintf(out, "=== %d results ===\n", len(results))
	for i, r := range results {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%d. %s (%.3f)\n", i+1, r.Summary, r.Similarity)
		fmt.Fprintf(out, "   style: %s, type: %s\n", r.Style, r.TextType)
		fmt.Fprintf(out, "   %s\n", oneLine(r.Content, 80))
		fmt.Fprintf(out, "   prompt: %s\n", r.Prompt)
	}
	return nil
}
