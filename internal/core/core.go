// Package core holds the domain types shared across Ceres: the dataset
// record, the content-hash/delta decision used by the harvest orchestrator,
// and the lock-free counters it reports back.
package core

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Dataset is a single catalog entry as stored in Postgres. A search query
// pairs it with a similarity score in SearchResult.
type Dataset struct {
	ID            uuid.UUID      `json:"id"`                  // Primary key, generated on first insert
	SourcePortal  string         `json:"source_portal"`       // Base URL of the CKAN portal this record came from
	OriginalID    string         `json:"original_id"`         // Portal-assigned package id (CKAN "id" field)
	Title         string         `json:"title"`               // Dataset title as published by the portal
	Description   string         `json:"description"`         // Dataset notes/description as published by the portal
	URL           string         `json:"url"`                 // Canonical dataset landing page on the portal
	Metadata      map[string]any `json:"metadata,omitempty"`  // Opaque catalog fields not otherwise interpreted
	ContentHash   string         `json:"content_hash"`        // SHA-256 of title+description, see ContentHash
	Embedding     []float32      `json:"embedding,omitempty"` // Vector embedding; repository reads do not load it
	FirstSeenAt   time.Time      `json:"first_seen_at"`       // When this row was first inserted
	LastUpdatedAt time.Time      `json:"last_updated_at"`     // When this row was last written to
}

// SearchResult pairs a Dataset with its cosine similarity to a query vector.
type SearchResult struct {
	Dataset    Dataset `json:"dataset"`
	Similarity float64 `json:"similarity"` // 1 - cosine distance, in [-1, 1] but practically [0, 1]
}

// NewDataset is the shape a catalog client assembles for one record. The
// harvest orchestrator hashes it and passes it, with that hash, to the
// repository for upserting.
type NewDataset struct {
	SourcePortal string
	OriginalID   string
	Title        string
	Description  string
	URL          string
	Metadata     map[string]any
}

// ContentHash returns the lowercase hex SHA-256 digest of title and
// description joined by a single NUL separator byte. No whitespace or case
// normalization is applied: the hash is sensitive to the exact bytes the
// portal returned, so a portal-side edit always produces a new hash even if
// the edit is "just" casing.
func ContentHash(title, description string) string {
	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte{0x00})
	h.Write([]byte(description))
	return hex.EncodeToString(h.Sum(nil))
}

// SyncOutcome classifies what happened to one dataset during a harvest run.
type SyncOutcome int

const (
	// Unchanged means the content hash matched the stored hash; only the
	// last_updated_at timestamp was touched, no embedding call was made.
	Unchanged SyncOutcome = iota
	// Updated means an existing row's hash changed and it was re-embedded.
	Updated
	// Created means no row existed for this (portal, original_id) pair.
	Created
	// Failed means the catalog fetch, embedding call, or upsert errored out.
	Failed
)

func (o SyncOutcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Updated:
		return "updated"
	case Created:
		return "created"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ExistingHash models the lookup of a prior content hash for a dataset. A
// record with no row yet has Found=false. A legacy row written before
// content hashing existed has Found=true and Hash=nil.
type ExistingHash struct {
	Found bool
	Hash  *string
}

// ReprocessingDecision is the outcome of comparing a freshly computed content
// hash against whatever was stored for this dataset before.
type ReprocessingDecision struct {
	NeedsEmbedding bool
	Outcome        SyncOutcome
	Reason         string
}

// DecideSync implements the delta decision table: given what was previously
// stored for a (portal, original_id) pair and the hash just computed from
// the freshly fetched record, decide whether the record needs a new
// embedding and what outcome to report.
func DecideSync(existing ExistingHash, newHash string) ReprocessingDecision {
	if !existing.Found {
		return ReprocessingDecision{
			NeedsEmbedding: true,
			Outcome:        Created,
			Reason:         "no prior record for this dataset",
		}
	}
	if existing.Hash == nil {
		return ReprocessingDecision{
			NeedsEmbedding: true,
			Outcome:        Updated,
			Reason:         "existing record has no stored content hash",
		}
	}
	if *existing.Hash == newHash {
		return ReprocessingDecision{
			NeedsEmbedding: false,
			Outcome:        Unchanged,
			Reason:         "content hash unchanged",
		}
	}
	return ReprocessingDecision{
		NeedsEmbedding: true,
		Outcome:        Updated,
		Reason:         "content hash changed",
	}
}

// PortalHarvestResult is the summary returned for one portal by the
// single-portal orchestrator.
type PortalHarvestResult struct {
	PortalURL string
	Stats     SyncStats
	Err       error
}

// BatchHarvestSummary aggregates the per-portal results of a batch run.
type BatchHarvestSummary struct {
	Results []PortalHarvestResult
}

// Totals sums the per-outcome counters across every portal in the batch.
func (b BatchHarvestSummary) Totals() SyncStatsSnapshot {
	var total SyncStatsSnapshot
	for _, r := range b.Results {
		s := r.Stats.Snapshot()
		total.Unchanged += s.Unchanged
		total.Updated += s.Updated
		total.Created += s.Created
		total.Failed += s.Failed
	}
	return total
}

// DatabaseStats is the global snapshot reported by the `stats` command.
type DatabaseStats struct {
	TotalDatasets    int64
	EmbeddedDatasets int64
	DistinctPortals  int64
	LastUpdatedAt    *time.Time
}
