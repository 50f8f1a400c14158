package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListPackageIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/3/action/package_list" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result":  []string{"alpha", "beta"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	ids, err := c.ListPackageIDs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "beta" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestShowPackageRetriesOn429ThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result": Dataset{
				ID:    "abc-123",
				Name:  "air-quality",
				Title: "Air Quality",
				Notes: "Hourly readings",
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	ds, err := c.ShowPackage(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Title != "Air Quality" {
		t.Fatalf("unexpected dataset: %+v", ds)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestShowPackageFailsFastOn404(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ShowPackage(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected fail-fast on 4xx, got %d attempts", attempts)
	}
}

func TestIntoNewDatasetBuildsURLFromName(t *testing.T) {
	d := Dataset{ID: "abc-123", Name: "air-quality", Title: "Air Quality", Notes: "Hourly readings"}
	nd := IntoNewDataset("https://catalog.example.gov/", d)
	want := "https://catalog.example.gov/dataset/air-quality"
	if nd.URL != want {
		t.Fatalf("expected URL %q, got %q", want, nd.URL)
	}
	if nd.OriginalID != "abc-123" {
		t.Fatalf("expected original id abc-123, got %s", nd.OriginalID)
	}
}
