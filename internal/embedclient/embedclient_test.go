package embedclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ceres/internal/apperrors"
)

func TestGetEmbeddingSendsKeyAsHeaderAndSanitizesNewlines(t *testing.T) {
	var gotKey string
	var gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		var req embedRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotText = req.Content.Parts[0].Text
		json.NewEncoder(w).Encode(embedResponse{Embedding: embedding{Values: []float32{0.1, 0.2, 0.3}}})
	}))
	defer srv.Close()

	c := New("secret-key")
	c.endpoint = srv.URL
	c.httpClient = srv.Client()

	vec, err := c.GetEmbedding(context.Background(), "line one\nline two")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 values, got %d", len(vec))
	}
	if gotKey != "secret-key" {
		t.Fatalf("expected api key in header, got %q", gotKey)
	}
	if gotText != "line one line two" {
		t.Fatalf("expected sanitized text, got %q", gotText)
	}
	if strings.Contains(gotText, "\n") {
		t.Fatal("expected no raw newlines in request body")
	}
}

func TestGetEmbeddingEmptyValuesIsEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{})
	}))
	defer srv.Close()

	c := New("secret-key")
	c.endpoint = srv.URL
	c.httpClient = srv.Client()

	_, err := c.GetEmbedding(context.Background(), "text")
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Kind != apperrors.EmptyResponse {
		t.Fatalf("expected EmptyResponse, got %v", err)
	}
}

func TestClassifyGeminiErrorAuthentication(t *testing.T) {
	err := classifyGeminiError(http.StatusUnauthorized, "API key not valid")
	if err.EmbeddingKind != apperrors.EmbeddingAuthentication {
		t.Fatalf("expected Authentication, got %v", err.EmbeddingKind)
	}
	if err.IsRetryable() {
		t.Fatal("authentication errors should not be retryable")
	}
}

func TestClassifyGeminiErrorQuotaVsRateLimit(t *testing.T) {
	quota := classifyGeminiError(http.StatusTooManyRequests, "Quota exceeded for this project")
	if quota.EmbeddingKind != apperrors.EmbeddingQuotaExceeded {
		t.Fatalf("expected QuotaExceeded, got %v", quota.EmbeddingKind)
	}
	rate := classifyGeminiError(http.StatusTooManyRequests, "Too many requests")
	if rate.EmbeddingKind != apperrors.EmbeddingRateLimit {
		t.Fatalf("expected RateLimit, got %v", rate.EmbeddingKind)
	}
	if !rate.IsRetryable() {
		t.Fatal("rate limit errors should be retryable")
	}
}

func TestClassifyGeminiErrorServerError(t *testing.T) {
	err := classifyGeminiError(http.StatusInternalServerError, "internal error")
	if err.EmbeddingKind != apperrors.EmbeddingServerError {
		t.Fatalf("expected ServerError, got %v", err.EmbeddingKind)
	}
	if !err.IsRetryable() {
		t.Fatal("server errors should be retryable")
	}
}
