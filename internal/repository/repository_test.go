package repository

import "testing"

func TestFormatVector(t *testing.T) {
	got := formatVector([]float32{0.1, -0.25, 3})
	want := "[0.1,-0.25,3]"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatVectorEmpty(t *testing.T) {
	if got := formatVector(nil); got != "[]" {
		t.Fatalf("expected empty literal, got %q", got)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	version, desc, err := parseMigrationFilename("0002_create_embedding_index.sql")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != 2 || desc != "create_embedding_index" {
		t.Fatalf("got version=%d desc=%q", version, desc)
	}
}

func TestParseMigrationFilenameRejectsMalformedName(t *testing.T) {
	if _, _, err := parseMigrationFilename("not-a-migration.sql"); err == nil {
		t.Fatal("expected error for filename without version prefix")
	}
}
