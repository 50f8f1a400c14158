package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"ceres/internal/core"
)

func sampleDatasets() []core.Dataset {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []core.Dataset{
		{
			ID:            uuid.New(),
			SourcePortal:  "https://catalog.example.gov",
			OriginalID:    "a",
			Title:         "Air Quality, Index",
			Description:   "Readings with \"quotes\" and a\nnewline",
			URL:           "https://catalog.example.gov/dataset/a",
			ContentHash:   core.ContentHash("Air Quality, Index", "Readings"),
			Metadata:      map[string]any{"license": "cc-by"},
			LastUpdatedAt: now,
			FirstSeenAt:   now,
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"jsonl", "json", "csv"} {
		if _, err := ParseFormat(valid); err != nil {
			t.Errorf("expected %q to be valid, got %v", valid, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected xml to be rejected")
	}
}

func TestWriteJSONLOneLinePerDataset(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSONL, sampleDatasets()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	var d core.Dataset
	if err := json.Unmarshal([]byte(lines[0]), &d); err != nil {
		t.Fatalf("line is not valid JSON: %v", err)
	}
}

func TestWriteJSONIsAnArray(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, sampleDatasets()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out []core.Dataset
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("expected a JSON array, got error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 dataset, got %d", len(out))
	}
}

func TestWriteCSVQuotesEmbeddedCommasQuotesAndNewlines(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, sampleDatasets()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reader := csv.NewReader(strings.NewReader(buf.String()))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("output is not valid RFC 4180 CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d records", len(records))
	}
	if records[0][0] != "id" {
		t.Fatalf("expected header row, got %v", records[0])
	}
	if records[1][4] != "Air Quality, Index" {
		t.Fatalf("expected comma preserved inside quoted field, got %q", records[1][4])
	}
	if !strings.Contains(records[1][5], "\n") {
		t.Fatalf("expected embedded newline preserved, got %q", records[1][5])
	}
}

func TestWriteEmptyDatasetsProducesHeaderOnlyCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reader := csv.NewReader(strings.NewReader(buf.String()))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected only the header row, got %d", len(records))
	}
}
