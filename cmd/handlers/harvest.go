package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ceres/internal/catalog"
	"ceres/internal/config"
	"ceres/internal/core"
	"ceres/internal/harvest"
	"ceres/internal/logger"
	"ceres/internal/repository"
)

// NewHarvestCmd creates the harvest command: sync one portal given directly
// by URL, one named portal from the portal catalog file, or every enabled
// portal in the catalog file, sequentially.
func NewHarvestCmd() *cobra.Command {
	var (
		portalName  string
		portalsPath string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "harvest [URL]",
		Short: "Harvest datasets from a catalog portal into the dataset store",
		Long: `Harvest crawls a CKAN-compatible open-data portal, embeds each dataset's
title and description, and upserts the result into the dataset store.

Pass a portal URL to harvest it directly, --portal NAME to harvest one
portal from the portal catalog file, or give neither to harvest every
enabled portal in the catalog file, one after another.

Examples:
  ceres harvest https://catalog.data.gov
  ceres harvest --portal "City Open Data"
  ceres harvest --config ./portals.toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && portalName != "" {
				return fmt.Errorf("pass a portal URL or --portal, not both")
			}
			switch {
			case len(args) == 1:
				return runHarvestURL(cmd.Context(), args[0], concurrency)
			case portalName != "":
				return runHarvestNamedPortal(cmd.Context(), portalName, portalsPath, concurrency)
			default:
				return runHarvestBatch(cmd.Context(), portalsPath, concurrency)
			}
		},
	}

	cmd.Flags().StringVar(&portalName, "portal", "", "name of a portal from the portal catalog file")
	cmd.Flags().StringVar(&portalsPath, "config", "", "path to the portal catalog TOML file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "in-flight record tasks per portal (default from config)")

	return cmd
}

func runHarvestURL(ctx context.Context, portalURL string, concurrency int) error {
	if err := catalog.ValidatePortalURL(portalURL); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	fmt.Printf("🌐 Harvesting %s...\n", portalURL)
	stats, err := runOnePortal(ctx, cfg, repo, portalURL, concurrency)
	if err != nil {
		return fmt.Errorf("harvest failed: %w", err)
	}
	printPortalStats(portalURL, stats)
	return nil
}

func runHarvestNamedPortal(ctx context.Context, name, portalsPath string, concurrency int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	portals, err := config.LoadPortals(portalsPath)
	if err != nil {
		return err
	}
	portal, ok := config.FindPortal(portals, name)
	if !ok {
		return fmt.Errorf("no portal named %q in the portal catalog", name)
	}

	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	fmt.Printf("🌐 Harvesting %s (%s)...\n", portal.Name, portal.URL)
	stats, err := runOnePortal(ctx, cfg, repo, portal.URL, concurrency)
	if err != nil {
		return fmt.Errorf("harvest failed: %w", err)
	}
	printPortalStats(portal.Name, stats)
	return nil
}

func runHarvestBatch(ctx context.Context, portalsPath string, concurrency int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	portals, err := config.LoadPortals(portalsPath)
	if err != nil {
		return err
	}
	enabled := config.EnabledPortals(portals)
	if len(enabled) == 0 {
		fmt.Println("No enabled portals found in the portal catalog; nothing to do.")
		return nil
	}

	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	embedder := newEmbeddingClient(cfg)
	if concurrency <= 0 {
		concurrency = cfg.Harvest.Concurrency
	}

	nameByURL := make(map[string]string, len(enabled))
	urls := make([]string, len(enabled))
	for i, p := range enabled {
		urls[i] = p.URL
		nameByURL[p.URL] = p.Name
	}

	fmt.Printf("🌐 Harvesting %d enabled portal(s) sequentially...\n\n", len(urls))
	summary := harvest.RunBatch(ctx, func(portalURL string) harvest.CatalogClient {
		return catalog.New(portalURL)
	}, embedder, repo, urls, concurrency, logger.Get())

	var failed int
	var totalDatasets int64
	for _, result := range summary.Results {
		name := nameByURL[result.PortalURL]
		if result.Err != nil {
			failed++
			fmt.Printf("❌ %s: %v\n", name, result.Err)
			continue
		}
		snap := result.Stats.Snapshot()
		totalDatasets += snap.Total()
		fmt.Printf("✅ %s: %s\n", name, formatStats(snap))
	}

	fmt.Printf("\nBatch complete: %d/%d portals succeeded, %d datasets processed\n",
		len(summary.Results)-failed, len(summary.Results), totalDatasets)
	if failed > 0 {
		return fmt.Errorf("%d of %d portals failed during batch harvest", failed, len(summary.Results))
	}
	return nil
}

func runOnePortal(ctx context.Context, cfg *config.Config, repo repository.DatasetRepository, portalURL string, concurrency int) (core.SyncStats, error) {
	if concurrency <= 0 {
		concurrency = cfg.Harvest.Concurrency
	}
	cat := catalog.New(portalURL)
	embedder := newEmbeddingClient(cfg)
	return harvest.SyncPortal(ctx, cat, embedder, repo, portalURL, concurrency, logger.Get())
}

func formatStats(snap core.SyncStatsSnapshot) string {
	return fmt.Sprintf("created=%d updated=%d unchanged=%d failed=%d (total=%d)",
		snap.Created, snap.Updated, snap.Unchanged, snap.Failed, snap.Total())
}

func printPortalStats(label string, stats core.SyncStats) {
	fmt.Printf("\n✨ %s: %s\n", label, formatStats(stats.Snapshot()))
}
