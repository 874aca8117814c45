package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSnapshotRoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	when := time.Date(2020, 4, 18, 0, 21, 26, 0, time.UTC)

	gs, err := NewGraphStorage(dataDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	if err := gs.CreateUniqueIndex("document", "key"); err != nil {
		t.Fatal(err)
	}
	doc, _ := gs.CreateNode([]string{"document"}, map[string]any{
		"key":            "1251317834453372929",
		"date_processed": when,
		"tags":           []string{"nike", "kobe"},
		"score":          0.5,
	})
	src, _ := gs.CreateNode([]string{"source"}, map[string]any{"key": "415859364", "hydrated": true})
	if _, err := gs.CreateEdge(src.ID, doc.ID, "authored", map[string]any{"time": when}); err != nil {
		t.Fatal(err)
	}
	if err := gs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dataDir, "graph.snapshot")); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}

	reopened, err := NewGraphStorage(dataDir)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer reopened.Close()

	stats := reopened.GetStatistics()
	if stats.NodeCount != 2 || stats.EdgeCount != 1 {
		t.Fatalf("Expected 2 nodes and 1 edge, got %d and %d", stats.NodeCount, stats.EdgeCount)
	}

	got, err := reopened.GetNode(doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ts, ok := got.Properties["date_processed"].(time.Time); !ok || !ts.Equal(when) {
		t.Errorf("time property did not survive: %#v", got.Properties["date_processed"])
	}
	if tags, ok := got.Properties["tags"].([]string); !ok || len(tags) != 2 {
		t.Errorf("list property did not survive: %#v", got.Properties["tags"])
	}

	out, _ := reopened.GetOutgoingEdges(src.ID)
	if len(out) != 1 || out[0].ToNodeID != doc.ID {
		t.Errorf("adjacency not rebuilt: %v", out)
	}

	if !reopened.HasUniqueIndex("document", "key") {
		t.Fatal("unique index not restored")
	}
	if _, err := reopened.CreateNode([]string{"document"}, map[string]any{"key": "1251317834453372929"}); !IsUniqueViolation(err) {
		t.Errorf("restored index should reject duplicates, got %v", err)
	}

	n, _ := reopened.CreateNode([]string{"entity"}, nil)
	if n.ID != 3 {
		t.Errorf("ID allocation should continue after snapshot, got %d", n.ID)
	}
}

func TestLoadRejectsCorruptSnapshot(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "graph.snapshot"), []byte("not snappy"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewGraphStorage(dataDir); err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
}

func TestInMemorySnapshotIsNoop(t *testing.T) {
	gs := newTestStorage(t)
	if err := gs.Snapshot(); err != nil {
		t.Fatalf("Snapshot on in-memory store should be a no-op, got %v", err)
	}
}
