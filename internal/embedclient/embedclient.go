// Package embedclient calls the Gemini embedding API to turn dataset text
// into vectors for storage and similarity search.
package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ceres/internal/apperrors"
)

const (
	endpoint       = "https://generativelanguage.googleapis.com/v1beta/models/text-embedding-004:embedContent"
	model          = "models/text-embedding-004"
	requestTimeout = 30 * time.Second
)

// Client calls the embedding endpoint with a fixed API key.
type Client struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

// New returns a Client authenticated with apiKey.
func New(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		apiKey:     apiKey,
		endpoint:   endpoint,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type embedRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type embedding struct {
	Values []float32 `json:"values"`
}

type embedResponse struct {
	Embedding embedding `json:"embedding"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GetEmbedding returns the embedding vector for text. Newlines are replaced
// with spaces before the request is sent, matching the historical contract:
// embeddings are stable across callers that pass text with different
// internal line breaks but otherwise identical content.
func (c *Client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	sanitized := strings.ReplaceAll(text, "\n", " ")

	reqBody := embedRequest{
		Model:   model,
		Content: content{Parts: []part{{Text: sanitized}}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperrors.New("failed to encode embedding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.New("failed to build embedding request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewEmbeddingService(apperrors.EmbeddingNetworkError, "failed to read embedding response body", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		var ae apiError
		_ = json.Unmarshal(body, &ae)
		return nil, classifyGeminiError(resp.StatusCode, ae.Error.Message)
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.New("failed to decode embedding response", err)
	}
	if len(parsed.Embedding.Values) == 0 {
		return nil, apperrors.NewEmptyResponse("embedding service returned no values")
	}
	return parsed.Embedding.Values, nil
}

// classifyGeminiError maps an HTTP status code and error message to the
// closed EmbeddingErrorKind set.
func classifyGeminiError(statusCode int, message string) *apperrors.Error {
	lower := strings.ToLower(message)
	switch {
	case statusCode == http.StatusUnauthorized:
		return apperrors.NewEmbeddingService(apperrors.EmbeddingAuthentication, message, statusCode, nil)
	case strings.Contains(lower, "api key") || strings.Contains(lower, "unauthorized"):
		return apperrors.NewEmbeddingService(apperrors.EmbeddingAuthentication, message, statusCode, nil)
	case statusCode == http.StatusTooManyRequests:
		if strings.Contains(lower, "quota") {
			return apperrors.NewEmbeddingService(apperrors.EmbeddingQuotaExceeded, message, statusCode, nil)
		}
		return apperrors.NewEmbeddingService(apperrors.EmbeddingRateLimit, message, statusCode, nil)
	case statusCode >= 500:
		return apperrors.NewEmbeddingService(apperrors.EmbeddingServerError, message, statusCode, nil)
	case strings.Contains(lower, "quota"):
		return apperrors.NewEmbeddingService(apperrors.EmbeddingQuotaExceeded, message, statusCode, nil)
	case strings.Contains(lower, "rate"):
		return apperrors.NewEmbeddingService(apperrors.EmbeddingRateLimit, message, statusCode, nil)
	default:
		return apperrors.NewEmbeddingService(apperrors.EmbeddingUnknown, fmt.Sprintf("unexpected embedding error (%d): %s", statusCode, message), statusCode, nil)
	}
}

func classifyTransportError(err error) *apperrors.Error {
	return apperrors.NewEmbeddingService(apperrors.EmbeddingNetworkError, "failed to reach embedding service", 0, err)
}
