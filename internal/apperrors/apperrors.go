// Package apperrors defines Ceres's closed error taxonomy: every failure
// that crosses a component boundary (catalog client, embedding client,
// repository) is wrapped into an Error carrying a Kind so callers can decide
// whether to retry and so the CLI can print something a human can act on
// without leaking internal detail.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed set of error categories Ceres distinguishes.
type Kind int

const (
	Database Kind = iota
	CatalogClient
	EmbeddingService
	InvalidPortalURL
	InvalidURL
	DatasetNotFound
	EmptyResponse
	Timeout
	RateLimitExceeded
	Config
	Generic
)

// ClientKind further classifies a CatalogClient error, mirroring the retry
// policy the catalog client applies per status class.
type ClientKind int

const (
	ClientTimeout ClientKind = iota
	ClientNetworkError
	ClientRateLimit
	ClientOther
)

// EmbeddingErrorKind further classifies an EmbeddingService error.
type EmbeddingErrorKind int

const (
	EmbeddingAuthentication EmbeddingErrorKind = iota
	EmbeddingRateLimit
	EmbeddingQuotaExceeded
	EmbeddingServerError
	EmbeddingNetworkError
	EmbeddingUnknown
)

// Error is the single error type Ceres's components return. Cause carries
// the underlying error for errors.Unwrap/errors.Is/errors.As chains; the
// other fields carry enough structure to classify the failure without
// string-matching the message again.
type Error struct {
	Kind               Kind
	ClientKind         ClientKind
	EmbeddingKind      EmbeddingErrorKind
	Message            string
	StatusCode         int
	TimeoutSeconds      uint64
	Cause              error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the operation that produced this error is
// worth retrying at a higher level (e.g. the next harvest run), as opposed
// to a structural failure that will not heal on its own.
func (e *Error) IsRetryable() bool {
	switch e.Kind {
	case Database:
		return false
	case CatalogClient:
		switch e.ClientKind {
		case ClientTimeout, ClientNetworkError, ClientRateLimit:
			return true
		default:
			return false
		}
	case EmbeddingService:
		switch e.EmbeddingKind {
		case EmbeddingRateLimit, EmbeddingServerError, EmbeddingNetworkError:
			return true
		default:
			return false
		}
	case Timeout, RateLimitExceeded:
		return true
	case InvalidPortalURL, InvalidURL, DatasetNotFound, EmptyResponse, Config:
		return false
	default:
		return false
	}
}

// UserMessage renders a short, non-technical description suitable for CLI
// output. It never includes the wrapped Cause, which may contain internal
// detail (connection strings, raw response bodies).
func (e *Error) UserMessage() string {
	switch e.Kind {
	case Database:
		if e.Cause != nil && strings.Contains(strings.ToLower(e.Cause.Error()), "connect") {
			return "could not reach the database — is the store running?"
		}
		return "a database error occurred while storing or retrieving data"
	case CatalogClient:
		switch e.ClientKind {
		case ClientTimeout:
			return "the catalog portal took too long to respond"
		case ClientNetworkError:
			return "could not reach the catalog portal"
		case ClientRateLimit:
			return "the catalog portal is rate-limiting requests"
		default:
			return "the catalog portal returned an error"
		}
	case EmbeddingService:
		switch e.EmbeddingKind {
		case EmbeddingAuthentication:
			return "the embedding service rejected the API key"
		case EmbeddingRateLimit:
			return "the embedding service is rate-limiting requests"
		case EmbeddingQuotaExceeded:
			return "the embedding service quota has been exceeded"
		case EmbeddingServerError:
			return "the embedding service returned a server error"
		case EmbeddingNetworkError:
			return "could not reach the embedding service"
		default:
			return "the embedding service returned an unexpected error"
		}
	case InvalidPortalURL:
		return "the portal URL is not valid"
	case InvalidURL:
		return "a URL in the response was not valid"
	case DatasetNotFound:
		return "no dataset was found with that identifier"
	case EmptyResponse:
		return "the service returned an empty response"
	case Timeout:
		return fmt.Sprintf("the operation timed out after %d seconds", e.TimeoutSeconds)
	case RateLimitExceeded:
		return "rate limit exceeded"
	case Config:
		return "a configuration error occurred"
	default:
		return e.Message
	}
}

// New builds a Generic-kind error wrapping cause. Use the Kind-specific
// constructors below wherever a more precise classification is known.
func New(message string, cause error) *Error {
	return &Error{Kind: Generic, Message: message, Cause: cause}
}

func NewDatabase(message string, cause error) *Error {
	return &Error{Kind: Database, Message: message, Cause: cause}
}

func NewCatalogClient(kind ClientKind, message string, cause error) *Error {
	return &Error{Kind: CatalogClient, ClientKind: kind, Message: message, Cause: cause}
}

func NewEmbeddingService(kind EmbeddingErrorKind, message string, statusCode int, cause error) *Error {
	return &Error{Kind: EmbeddingService, EmbeddingKind: kind, Message: message, StatusCode: statusCode, Cause: cause}
}

func NewInvalidPortalURL(message string) *Error {
	return &Error{Kind: InvalidPortalURL, Message: message}
}

func NewInvalidURL(message string, cause error) *Error {
	return &Error{Kind: InvalidURL, Message: message, Cause: cause}
}

func NewDatasetNotFound(id string) *Error {
	return &Error{Kind: DatasetNotFound, Message: fmt.Sprintf("dataset not found: %s", id)}
}

func NewEmptyResponse(message string) *Error {
	return &Error{Kind: EmptyResponse, Message: message}
}

func NewTimeout(seconds uint64) *Error {
	return &Error{Kind: Timeout, Message: "operation timed out", TimeoutSeconds: seconds}
}

func NewRateLimitExceeded(message string) *Error {
	return &Error{Kind: RateLimitExceeded, Message: message}
}

func NewConfig(message string, cause error) *Error {
	return &Error{Kind: Config, Message: message, Cause: cause}
}

// As is a thin convenience wrapper over errors.As for the common case of
// recovering the *Error from an error chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
