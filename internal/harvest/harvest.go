// Package harvest drives the sync of one catalog portal's datasets into the
// repository, and the sequential batch sweep across many portals.
package harvest

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"ceres/internal/apperrors"
	"ceres/internal/catalog"
	"ceres/internal/core"
	"ceres/internal/repository"
)

// Embedder is the subset of the embedding client the orchestrator needs,
// narrowed to an interface so tests can substitute a fake.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// CatalogClient is the subset of the catalog client the orchestrator needs.
type CatalogClient interface {
	ListPackageIDs(ctx context.Context) ([]string, error)
	ShowPackage(ctx context.Context, id string) (catalog.Dataset, error)
}

// DefaultConcurrency is the default number of in-flight record tasks per
// portal, matching this stack's historical default.
const DefaultConcurrency = 10

// SyncPortal fans out over every dataset id the portal reports, bounded to
// concurrency in-flight record tasks at a time, and returns the accumulated
// outcome counts. A failure listing package ids fails the whole portal; a
// failure on any individual record is isolated and recorded as Failed.
func SyncPortal(ctx context.Context, cat CatalogClient, embedder Embedder, repo repository.DatasetRepository, portalURL string, concurrency int, log *slog.Logger) (core.SyncStats, error) {
	var stats core.SyncStats

	ids, err := cat.ListPackageIDs(ctx)
	if err != nil {
		return stats, err
	}

	existingHashes, err := repo.GetHashesForPortal(ctx, portalURL)
	if err != nil {
		return stats, err
	}

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, id := range ids {
		select {
		case <-ctx.Done():
		default:
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(index int, datasetID string) {
			defer wg.Done()
			defer func() { <-sem }()

			existing := core.ExistingHash{}
			if hash, ok := existingHashes[datasetID]; ok {
				existing.Found = true
				existing.Hash = hash
			}

			syncRecord(ctx, cat, embedder, repo, portalURL, datasetID, existing, &stats, log)
			log.Debug("processed record", "index", index+1, "total", len(ids), "portal", portalURL, "dataset_id", datasetID)
		}(i, id)
	}
	wg.Wait()

	return stats, nil
}

// syncRecord implements one record task: fetch, decide, embed if needed,
// upsert. Every step that can fail is isolated here and recorded as Failed
// rather than propagated, per the per-record failure isolation boundary.
func syncRecord(ctx context.Context, cat CatalogClient, embedder Embedder, repo repository.DatasetRepository, portalURL, datasetID string, existing core.ExistingHash, stats *core.SyncStats, log *slog.Logger) {
	ds, err := cat.ShowPackage(ctx, datasetID)
	if err != nil {
		log.Warn("failed to fetch dataset", "portal", portalURL, "dataset_id", datasetID, "error", err)
		stats.Record(core.Failed)
		return
	}

	nd := catalog.IntoNewDataset(portalURL, ds)
	hash := core.ContentHash(nd.Title, nd.Description)
	decision := core.DecideSync(existing, hash)

	if decision.Outcome == core.Unchanged {
		if _, err := repo.UpdateTimestampOnly(ctx, portalURL, nd.OriginalID); err != nil {
			log.Warn("failed to touch unchanged dataset", "portal", portalURL, "dataset_id", datasetID, "error", err)
			stats.Record(core.Failed)
			return
		}
		stats.Record(core.Unchanged)
		return
	}

	combined := strings.TrimSpace(nd.Title + " " + nd.Description)
	var embedding []float32
	recordOutcome := true

	if decision.NeedsEmbedding {
		if combined == "" {
			// Empty combined text: skip the embedding call and do not record
			// an outcome for this record at all, preserving the historical
			// contract (see TestSyncPortalEmptyTextSkipsEmbeddingAndIsNotCounted).
			recordOutcome = false
		} else {
			emb, err := embedder.GetEmbedding(ctx, combined)
			if err != nil {
				if appErr, ok := apperrors.As(err); ok {
					log.Warn("embedding call failed", "portal", portalURL, "dataset_id", datasetID, "retryable", appErr.IsRetryable(), "error", err)
				} else {
					log.Warn("embedding call failed", "portal", portalURL, "dataset_id", datasetID, "error", err)
				}
				if _, upsertErr := repo.Upsert(ctx, nd, hash, nil); upsertErr != nil {
					log.Warn("failed to upsert after embedding failure", "portal", portalURL, "dataset_id", datasetID, "error", upsertErr)
				}
				stats.Record(core.Failed)
				return
			}
			embedding = emb
		}
	}

	if _, err := repo.Upsert(ctx, nd, hash, embedding); err != nil {
		log.Warn("failed to upsert dataset", "portal", portalURL, "dataset_id", datasetID, "error", err)
		stats.Record(core.Failed)
		return
	}
	if recordOutcome {
		stats.Record(decision.Outcome)
	}
}

// RunBatch processes every portal in portalURLs strictly sequentially,
// isolating a portal-level failure into its PortalHarvestResult rather than
// aborting the remaining portals.
func RunBatch(ctx context.Context, cat func(portalURL string) CatalogClient, embedder Embedder, repo repository.DatasetRepository, portalURLs []string, concurrency int, log *slog.Logger) core.BatchHarvestSummary {
	var summary core.BatchHarvestSummary
	for _, portalURL := range portalURLs {
		stats, err := SyncPortal(ctx, cat(portalURL), embedder, repo, portalURL, concurrency, log)
		summary.Results = append(summary.Results, core.PortalHarvestResult{
			PortalURL: portalURL,
			Stats:     stats,
			Err:       err,
		})
	}
	return summary
}
