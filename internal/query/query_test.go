package query

import (
	"context"
	"errors"
	"testing"

	"ceres/internal/core"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f fakeEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

type fakeRepo struct {
	results []core.SearchResult
	err     error
	gotK    int
}

func (f *fakeRepo) Search(ctx context.Context, queryVector []float32, k int) ([]core.SearchResult, error) {
	f.gotK = k
	return f.results, f.err
}

func TestSearchEmbedsThenQueries(t *testing.T) {
	embedder := fakeEmbedder{vector: []float32{1, 0, 0}}
	repo := &fakeRepo{results: []core.SearchResult{{Dataset: core.Dataset{Title: "Air Quality"}, Similarity: 0.98}}}

	results, err := Search(context.Background(), embedder, repo, "air pollution", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.gotK != 5 {
		t.Fatalf("expected limit 5 passed through, got %d", repo.gotK)
	}
	if len(results) != 1 || results[0].Dataset.Title != "Air Quality" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestSearchPropagatesEmbeddingError(t *testing.T) {
	embedder := fakeEmbedder{err: errors.New("embedding service down")}
	repo := &fakeRepo{}

	_, err := Search(context.Background(), embedder, repo, "text", 5)
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestSearchWithZeroLimit(t *testing.T) {
	embedder := fakeEmbedder{vector: []float32{1, 0, 0}}
	repo := &fakeRepo{results: nil}

	results, err := Search(context.Background(), embedder, repo, "text", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results for k=0, got %d", len(results))
	}
}
