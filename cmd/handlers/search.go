package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ceres/internal/query"
)

// NewSearchCmd creates the search command: embed a natural-language query
// and print its nearest datasets by cosine similarity.
func NewSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Semantic search over harvested datasets",
		Long: `Embed QUERY and return the datasets whose title/description embedding is
closest to it by cosine similarity.

Example:
  ceres search "air quality monitoring stations" --limit 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), strings.Join(args, " "), limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "maximum number of results")

	return cmd
}

func runSearch(ctx context.Context, text string, limit int) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	embedder := newEmbeddingClient(cfg)

	fmt.Printf("🔍 Searching for: %q\n", text)
	results, err := query.Search(ctx, embedder, repo, text, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("❌ No matching datasets found")
		return nil
	}

	fmt.Printf("✨ Found %d dataset(s):\n\n", len(results))
	for i, r := range results {
		fmt.Printf("[%d] %s %s\n", i+1, similarityBar(r.Similarity), r.Dataset.Title)
		fmt.Printf("    similarity: %.3f  portal: %s\n", r.Similarity, r.Dataset.SourcePortal)
		if r.Dataset.Description != "" {
			fmt.Printf("    %s\n", truncate(r.Dataset.Description, 120))
		}
		fmt.Printf("    %s\n\n", r.Dataset.URL)
	}

	return nil
}

const similarityBarWidth = 10

// similarityBar renders score (expected in [0, 1]) as a fixed-width bar of
// filled/empty blocks, clamping out-of-range scores rather than panicking.
func similarityBar(score float64) string {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	filled := int(score*similarityBarWidth + 0.5)
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", similarityBarWidth-filled) + "]"
}

// truncate cuts s to at most maxRunes runes, appending an ellipsis, operating
// on runes rather than bytes so a multi-byte UTF-8 sequence is never split.
func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "…"
}
