// Package repository persists Dataset records to PostgreSQL and runs
// pgvector cosine-similarity search over their embeddings.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"ceres/internal/apperrors"
	"ceres/internal/core"
)

// DatasetRepository is the storage contract the harvest and query paths
// depend on. A fake implementing this interface backs the harvest
// orchestrator's tests without a live database.
type DatasetRepository interface {
	Upsert(ctx context.Context, nd core.NewDataset, contentHash string, embedding []float32) (uuid.UUID, error)
	GetHashesForPortal(ctx context.Context, portalURL string) (map[string]*string, error)
	UpdateTimestampOnly(ctx context.Context, portalURL, originalID string) (bool, error)
	Search(ctx context.Context, queryVector []float32, k int) ([]core.SearchResult, error)
	ListAll(ctx context.Context, portalFilter *string, limit *int) ([]core.Dataset, error)
	GetStats(ctx context.Context) (core.DatabaseStats, error)
}

// PostgresRepository is the pgvector-backed DatasetRepository.
type PostgresRepository struct {
	db *sql.DB
}

// Open connects to connStr, verifying the connection with a bounded ping,
// and caps the pool at maxConnections per the concurrency model's DB budget.
func Open(connStr string, maxConnections int) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, apperrors.NewDatabase("failed to open database connection", err)
	}
	db.SetMaxOpenConns(maxConnections)
	db.SetMaxIdleConns(maxConnections)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewDatabase("failed to connect to database", err)
	}
	return &PostgresRepository{db: db}, nil
}

// DB exposes the underlying pool, e.g. for the migration manager.
func (r *PostgresRepository) DB() *sql.DB { return r.db }

// Close releases the connection pool.
func (r *PostgresRepository) Close() error { return r.db.Close() }

// Upsert inserts a new dataset row or updates an existing one identified by
// (source_portal, original_id), always overwriting title/description/url/
// metadata/content_hash and bumping last_updated_at. The embedding column
// uses a COALESCE rule: a nil embedding leaves whatever was already stored
// untouched, so a record whose re-embed failed keeps its prior vector.
func (r *PostgresRepository) Upsert(ctx context.Context, nd core.NewDataset, contentHash string, embedding []float32) (uuid.UUID, error) {
	var embeddingArg any
	if embedding != nil {
		embeddingArg = formatVector(embedding)
	}

	metadataArg, err := marshalMetadata(nd.Metadata)
	if err != nil {
		return uuid.Nil, apperrors.New("failed to encode dataset metadata", err)
	}

	var id uuid.UUID
	query := `
		INSERT INTO datasets (id, source_portal, original_id, title, description, url, metadata, content_hash, embedding, last_updated_at, first_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9::vector, NOW(), NOW())
		ON CONFLICT (source_portal, original_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			url = EXCLUDED.url,
			metadata = EXCLUDED.metadata,
			content_hash = EXCLUDED.content_hash,
			embedding = COALESCE(EXCLUDED.embedding, datasets.embedding),
			last_updated_at = NOW()
		RETURNING id`
	err = r.db.QueryRowContext(ctx, query, uuid.New(), nd.SourcePortal, nd.OriginalID, nd.Title, nd.Description, nd.URL, metadataArg, contentHash, embeddingArg).Scan(&id)
	if err != nil {
		return uuid.Nil, apperrors.NewDatabase("failed to upsert dataset", err)
	}
	return id, nil
}

// GetHashesForPortal returns every stored content hash for a portal, keyed
// by original_id. A nil map value means the row predates content hashing.
func (r *PostgresRepository) GetHashesForPortal(ctx context.Context, portalURL string) (map[string]*string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT original_id, content_hash FROM datasets WHERE source_portal = $1`, portalURL)
	if err != nil {
		return nil, apperrors.NewDatabase("failed to query existing hashes", err)
	}
	defer rows.Close()

	result := make(map[string]*string)
	for rows.Next() {
		var originalID string
		var hash sql.NullString
		if err := rows.Scan(&originalID, &hash); err != nil {
			return nil, apperrors.NewDatabase("failed to scan hash row", err)
		}
		if hash.Valid {
			v := hash.String
			result[originalID] = &v
		} else {
			result[originalID] = nil
		}
	}
	return result, rows.Err()
}

// UpdateTimestampOnly bumps last_updated_at for an unchanged dataset without
// touching its embedding or content hash. Reports whether a row matched.
func (r *PostgresRepository) UpdateTimestampOnly(ctx context.Context, portalURL, originalID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE datasets SET last_updated_at = NOW() WHERE source_portal = $1 AND original_id = $2`,
		portalURL, originalID)
	if err != nil {
		return false, apperrors.NewDatabase("failed to touch dataset timestamp", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewDatabase("failed to read rows affected", err)
	}
	return n > 0, nil
}

// Search returns the k nearest datasets to queryVector by cosine similarity,
// ordered closest-first. Rows without an embedding are excluded.
func (r *PostgresRepository) Search(ctx context.Context, queryVector []float32, k int) ([]core.SearchResult, error) {
	literal := formatVector(queryVector)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_portal, original_id, title, description, url, metadata, content_hash, last_updated_at, first_seen_at,
		       1 - (embedding <=> $1::vector) AS similarity
		FROM datasets
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1::vector
		LIMIT $2`, literal, k)
	if err != nil {
		return nil, apperrors.NewDatabase("failed to search datasets", err)
	}
	defer rows.Close()

	var results []core.SearchResult
	for rows.Next() {
		var d core.Dataset
		var metadata []byte
		var similarity float64
		if err := rows.Scan(&d.ID, &d.SourcePortal, &d.OriginalID, &d.Title, &d.Description, &d.URL, &metadata, &d.ContentHash, &d.LastUpdatedAt, &d.FirstSeenAt, &similarity); err != nil {
			return nil, apperrors.NewDatabase("failed to scan search row", err)
		}
		if err := unmarshalMetadata(metadata, &d.Metadata); err != nil {
			return nil, apperrors.NewDatabase("failed to decode dataset metadata", err)
		}
		results = append(results, core.SearchResult{Dataset: d, Similarity: similarity})
	}
	return results, rows.Err()
}

// ListAll returns datasets ordered by most recently updated, optionally
// filtered to one portal and capped at limit.
func (r *PostgresRepository) ListAll(ctx context.Context, portalFilter *string, limit *int) ([]core.Dataset, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT id, source_portal, original_id, title, description, url, metadata, content_hash, last_updated_at, first_seen_at FROM datasets`)
	if portalFilter != nil {
		args = append(args, *portalFilter)
		sb.WriteString(" WHERE source_portal = $" + strconv.Itoa(len(args)))
	}
	sb.WriteString(" ORDER BY last_updated_at DESC")
	if limit != nil {
		args = append(args, *limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, apperrors.NewDatabase("failed to list datasets", err)
	}
	defer rows.Close()

	var out []core.Dataset
	for rows.Next() {
		var d core.Dataset
		var metadata []byte
		if err := rows.Scan(&d.ID, &d.SourcePortal, &d.OriginalID, &d.Title, &d.Description, &d.URL, &metadata, &d.ContentHash, &d.LastUpdatedAt, &d.FirstSeenAt); err != nil {
			return nil, apperrors.NewDatabase("failed to scan dataset row", err)
		}
		if err := unmarshalMetadata(metadata, &d.Metadata); err != nil {
			return nil, apperrors.NewDatabase("failed to decode dataset metadata", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetStats reports global counts used by the `stats` command.
func (r *PostgresRepository) GetStats(ctx context.Context) (core.DatabaseStats, error) {
	var stats core.DatabaseStats
	var lastUpdated sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(embedding), COUNT(DISTINCT source_portal), MAX(last_updated_at)
		FROM datasets`).Scan(&stats.TotalDatasets, &stats.EmbeddedDatasets, &stats.DistinctPortals, &lastUpdated)
	if err != nil {
		return core.DatabaseStats{}, apperrors.NewDatabase("failed to load stats", err)
	}
	if lastUpdated.Valid {
		stats.LastUpdatedAt = &lastUpdated.Time
	}
	return stats, nil
}

// formatVector renders a float32 slice as the pgvector text literal
// "[v1,v2,...]" that the `::vector` cast expects. No driver-level vector
// client exists in this stack, so the literal is built by hand exactly the
// way the rest of this codebase's pgvector call sites already do.
func formatVector(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

// marshalMetadata renders a dataset's opaque metadata map as a jsonb
// literal, or nil for an unset map so the column stays SQL NULL.
func marshalMetadata(metadata map[string]any) (any, error) {
	if metadata == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

// unmarshalMetadata decodes a jsonb column into dst, leaving dst nil for a
// NULL or empty column rather than an empty map.
func unmarshalMetadata(raw []byte, dst *map[string]any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

var _ DatasetRepository = (*PostgresRepository)(nil)
