// Package catalog talks to CKAN-compatible open-data portals: listing
// package ids and fetching the fields Ceres cares about for each one.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ceres/internal/apperrors"
	"ceres/internal/core"
)

const (
	userAgent      = "Ceres/1.0 (+semantic-search-indexer)"
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	retryBaseDelay = 500 * time.Millisecond
)

// Client is a CKAN API client bound to one portal's base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New returns a Client for the given portal base URL (e.g.
// "https://catalog.data.gov"), trimmed of any trailing slash.
func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// ValidatePortalURL reports whether raw is an absolute http(s) URL, the
// fail-fast check an orchestrator runs before doing any network I/O.
func ValidatePortalURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.NewInvalidPortalURL(fmt.Sprintf("invalid portal URL: %q", raw))
	}
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

// Dataset is the subset of a CKAN package_show response Ceres consumes. Any
// field beyond id/name/title/notes is preserved verbatim in Extras so it can
// flow into the dataset's opaque metadata without Ceres having to know the
// shape of every portal's custom fields.
type Dataset struct {
	ID     string                      `json:"id"`
	Name   string                      `json:"name"`
	Title  string                      `json:"title"`
	Notes  string                      `json:"notes"`
	Extras map[string]json.RawMessage  `json:"-"`
}

var knownPackageFields = map[string]bool{
	"id": true, "name": true, "title": true, "notes": true,
}

// UnmarshalJSON decodes the known package_show fields and collects every
// other top-level key into Extras.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	type knownFields struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Title string `json:"title"`
		Notes string `json:"notes"`
	}
	var known knownFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	extras := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		if knownPackageFields[key] {
			continue
		}
		extras[key] = value
	}

	d.ID, d.Name, d.Title, d.Notes, d.Extras = known.ID, known.Name, known.Title, known.Notes, extras
	return nil
}

// ListPackageIDs calls CKAN's package_list action and returns every dataset
// id published by the portal.
func (c *Client) ListPackageIDs(ctx context.Context) ([]string, error) {
	raw, err := c.requestWithRetry(ctx, c.baseURL+"/api/3/action/package_list")
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, apperrors.New("failed to decode package_list result", err)
	}
	return ids, nil
}

// ShowPackage calls CKAN's package_show action for one dataset id.
func (c *Client) ShowPackage(ctx context.Context, id string) (Dataset, error) {
	u := fmt.Sprintf("%s/api/3/action/package_show?id=%s", c.baseURL, url.QueryEscape(id))
	raw, err := c.requestWithRetry(ctx, u)
	if err != nil {
		return Dataset{}, err
	}
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return Dataset{}, apperrors.New("failed to decode package_show result", err)
	}
	return ds, nil
}

// requestWithRetry issues a GET request and retries according to the
// policy: 429 backs off exponentially, 5xx backs off linearly, any other
// non-2xx fails immediately, and a transport-level failure backs off
// linearly and is classified as a timeout or network error.
func (c *Client) requestWithRetry(ctx context.Context, requestURL string) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, apperrors.NewInvalidURL("invalid catalog request URL", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = classifyTransportError(err)
			sleep(ctx, retryBaseDelay*time.Duration(attempt+1))
			continue
		}

		body, readErr := readAndClose(resp)
		if readErr != nil {
			lastErr = apperrors.NewCatalogClient(apperrors.ClientNetworkError, "failed to read catalog response body", readErr)
			sleep(ctx, retryBaseDelay*time.Duration(attempt+1))
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = apperrors.NewCatalogClient(apperrors.ClientRateLimit, "catalog rate limit exceeded", nil)
			backoff := time.Duration(float64(retryBaseDelay) * math.Pow(2, float64(attempt)))
			sleep(ctx, backoff)
			continue
		case resp.StatusCode >= 500:
			lastErr = apperrors.NewCatalogClient(apperrors.ClientOther, fmt.Sprintf("catalog server error: %d", resp.StatusCode), nil)
			sleep(ctx, retryBaseDelay*time.Duration(attempt+1))
			continue
		case resp.StatusCode >= 400:
			return nil, apperrors.NewCatalogClient(apperrors.ClientOther, fmt.Sprintf("catalog request failed: %d", resp.StatusCode), nil)
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, apperrors.New("failed to decode catalog envelope", err)
		}
		if !env.Success {
			return nil, apperrors.New("catalog reported success=false", nil)
		}
		return env.Result, nil
	}
	return nil, lastErr
}

func classifyTransportError(err error) *apperrors.Error {
	if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
		return apperrors.NewCatalogClient(apperrors.ClientTimeout, "catalog request timed out", err)
	}
	return apperrors.NewCatalogClient(apperrors.ClientNetworkError, "catalog request failed", err)
}

func readAndClose(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// IntoNewDataset converts a CKAN package into the form the repository
// expects, deriving the canonical landing-page URL from the portal base and
// the package's name (slug), not its id.
func IntoNewDataset(portalBaseURL string, d Dataset) core.NewDataset {
	trimmedBase := strings.TrimSuffix(portalBaseURL, "/")
	return core.NewDataset{
		SourcePortal: portalBaseURL,
		OriginalID:   d.ID,
		Title:        d.Title,
		Description:  d.Notes,
		URL:          fmt.Sprintf("%s/dataset/%s", trimmedBase, d.Name),
		Metadata:     extrasToMetadata(d.Extras),
	}
}

// extrasToMetadata decodes each captured raw field into a plain Go value so
// it can be marshaled straight into the metadata jsonb column. A field that
// fails to decode (should not happen for well-formed JSON) is dropped
// rather than aborting the whole conversion.
func extrasToMetadata(extras map[string]json.RawMessage) map[string]any {
	if len(extras) == 0 {
		return nil
	}
	metadata := make(map[string]any, len(extras))
	for key, raw := range extras {
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		metadata[key] = value
	}
	return metadata
}
