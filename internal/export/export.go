// Package export renders Dataset records to the on-disk formats the `export`
// command supports: JSON Lines, pretty-printed JSON, and RFC 4180 CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"ceres/internal/core"
)

// record is the export wire shape: every export format carries the same
// fields regardless of serialization, and deliberately excludes embedding
// and content_hash — neither is meant for a human or downstream consumer
// reading an export file.
type record struct {
	ID            uuid.UUID      `json:"id"`
	OriginalID    string         `json:"original_id"`
	SourcePortal  string         `json:"source_portal"`
	URL           string         `json:"url"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	FirstSeenAt   time.Time      `json:"first_seen_at"`
	LastUpdatedAt time.Time      `json:"last_updated_at"`
}

func toRecord(d core.Dataset) record {
	return record{
		ID:            d.ID,
		OriginalID:    d.OriginalID,
		SourcePortal:  d.SourcePortal,
		URL:           d.URL,
		Title:         d.Title,
		Description:   d.Description,
		Metadata:      d.Metadata,
		FirstSeenAt:   d.FirstSeenAt,
		LastUpdatedAt: d.LastUpdatedAt,
	}
}

// Format is the closed set of export formats.
type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSONL, FormatJSON, FormatCSV:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown export format %q: expected jsonl, json, or csv", s)
	}
}

// Write renders datasets to w in the given format.
func Write(w io.Writer, format Format, datasets []core.Dataset) error {
	switch format {
	case FormatJSONL:
		return writeJSONL(w, datasets)
	case FormatJSON:
		return writeJSON(w, datasets)
	case FormatCSV:
		return writeCSV(w, datasets)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func writeJSONL(w io.Writer, datasets []core.Dataset) error {
	enc := json.NewEncoder(w)
	for _, d := range datasets {
		if err := enc.Encode(toRecord(d)); err != nil {
			return fmt.Errorf("failed to encode dataset %s as JSONL: %w", d.OriginalID, err)
		}
	}
	return nil
}

func writeJSON(w io.Writer, datasets []core.Dataset) error {
	records := make([]record, len(datasets))
	for i, d := range datasets {
		records[i] = toRecord(d)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode datasets as JSON: %w", err)
	}
	return nil
}

var csvHeader = []string{"id", "original_id", "source_portal", "url", "title", "description", "first_seen_at", "last_updated_at"}

func writeCSV(w io.Writer, datasets []core.Dataset) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, d := range datasets {
		row := []string{
			d.ID.String(),
			d.OriginalID,
			d.SourcePortal,
			d.URL,
			d.Title,
			d.Description,
			d.FirstSeenAt.Format(timeLayout),
			d.LastUpdatedAt.Format(timeLayout),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", d.OriginalID, err)
		}
	}
	return writer.Error()
}

const timeLayout = "2006-01-02T15:04:05Z07:00"
