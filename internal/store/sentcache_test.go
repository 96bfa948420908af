package store

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadSentCacheMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent.json")

	c := LoadSentCache(path, discardLogger())
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
	if !c.IsNew("anything") {
		t.Error("expected unknown identity to be new")
	}
}

func TestLoadSentCacheCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	c := LoadSentCache(path, discardLogger())
	if c.Len() != 0 {
		t.Errorf("expected empty cache after corrupt load, got %d entries", c.Len())
	}
}

func TestRecordThenIsNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent.json")
	c := LoadSentCache(path, discardLogger())

	c.Record([]string{"https://example.com/j/1"}, time.Now())

	if c.IsNew("https://example.com/j/1") {
		t.Error("recorded identity still reported as new")
	}
	if !c.IsNew("https://example.com/j/2") {
		t.Error("unrecorded identity reported as seen")
	}
}

func TestSentCacheSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent.json")
	sentAt := time.Date(2026, 8, 23, 7, 30, 0, 0, time.UTC)

	c := LoadSentCache(path, discardLogger())
	c.Record([]string{"id-a", "id-b"}, sentAt)
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}

	reloaded := LoadSentCache(path, discardLogger())
	if reloaded.Len() != 2 {
		t.Fatalf("expected 2 entries after reload, got %d", reloaded.Len())
	}
	if reloaded.IsNew("id-a") || reloaded.IsNew("id-b") {
		t.Error("saved identities reported as new after reload")
	}
}

func TestSentCachePruneDropsOldKeepsFresh(t *testing.T) {
	now := time.Date(2026, 8, 23, 7, 30, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "sent.json")

	c := LoadSentCache(path, discardLogger())
	c.Record([]string{"old-id"}, now.Add(-20*24*time.Hour))
	c.Record([]string{"fresh-id"}, now.Add(-2*24*time.Hour))

	removed := c.Prune(14*24*time.Hour, now)
	if removed != 1 {
		t.Errorf("Prune removed %d entries, want 1", removed)
	}
	if !c.IsNew("old-id") {
		t.Error("pruned identity still reported as seen")
	}
	if c.IsNew("fresh-id") {
		t.Error("fresh identity pruned")
	}
}

func TestRecordSkipsEmptyIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent.json")
	c := LoadSentCache(path, discardLogger())

	c.Record([]string{"", "id-a"}, time.Now())
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}
