package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command: print the global dataset store
// aggregate counts.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dataset store statistics",
		Long:  `Print the total dataset count, how many carry an embedding, and how many distinct portals have been harvested.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context())
		},
	}
}

func runStats(ctx context.Context) error {
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	stats, err := repo.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	fmt.Println("📊 Dataset store statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Total datasets:     %d\n", stats.TotalDatasets)
	fmt.Printf("With embeddings:    %d\n", stats.EmbeddedDatasets)
	fmt.Printf("Distinct portals:   %d\n", stats.DistinctPortals)
	if stats.LastUpdatedAt != nil {
		fmt.Printf("Last updated:       %s\n", stats.LastUpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
	} else {
		fmt.Println("Last updated:       never")
	}

	return nil
}
