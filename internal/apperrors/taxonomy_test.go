package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessageCoversEveryEmbeddingKind(t *testing.T) {
	cases := []struct {
		kind EmbeddingErrorKind
		want string
	}{
		{EmbeddingAuthentication, "rejected the API key"},
		{EmbeddingRateLimit, "rate-limiting"},
		{EmbeddingQuotaExceeded, "quota"},
		{EmbeddingServerError, "server error"},
		{EmbeddingNetworkError, "could not reach"},
		{EmbeddingUnknown, "unexpected error"},
	}
	for _, tc := range cases {
		err := NewEmbeddingService(tc.kind, "detail", 0, nil)
		assert.Contains(t, err.UserMessage(), tc.want)
	}
}

func TestUserMessageDatabaseConnectVsGeneric(t *testing.T) {
	connectErr := NewDatabase("failed", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"))
	assert.Contains(t, connectErr.UserMessage(), "is the store running")

	genericErr := NewDatabase("failed", assert.AnError)
	assert.NotContains(t, genericErr.UserMessage(), "is the store running")

	timeoutErr := NewTimeout(5)
	assert.Contains(t, timeoutErr.UserMessage(), "5 seconds")
}

func TestIsRetryableMatchesTaxonomy(t *testing.T) {
	assert.True(t, NewEmbeddingService(EmbeddingServerError, "boom", 500, nil).IsRetryable())
	assert.False(t, NewEmbeddingService(EmbeddingQuotaExceeded, "boom", 429, nil).IsRetryable())
	assert.True(t, NewCatalogClient(ClientNetworkError, "boom", nil).IsRetryable())
	assert.False(t, NewInvalidPortalURL("bad url").IsRetryable())
	assert.False(t, NewConfig("bad config", nil).IsRetryable())
}
