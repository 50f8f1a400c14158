// Package query implements the semantic-search query path: embed a text
// query and ask the repository for its nearest neighbors.
package query

import (
	"context"

	"ceres/internal/core"
)

// Embedder is the subset of the embedding client the query path needs.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Repository is the subset of the dataset repository the query path needs.
type Repository interface {
	Search(ctx context.Context, queryVector []float32, k int) ([]core.SearchResult, error)
}

// Search embeds text and returns its k nearest datasets by cosine
// similarity. Presentation (similarity bars, text truncation) is the CLI's
// responsibility, not this package's.
func Search(ctx context.Context, embedder Embedder, repo Repository, text string, limit int) ([]core.SearchResult, error) {
	vector, err := embedder.GetEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	return repo.Search(ctx, vector, limit)
}
