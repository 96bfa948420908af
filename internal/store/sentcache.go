package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rolecall/rolecall/internal/model"
)

// FileSentCache tracks sent posting identities in a JSON file mapping
// identity to the RFC3339 time its digest went out. A missing or corrupt
// file loads as an empty cache.
type FileSentCache struct {
	path    string
	entries map[string]time.Time
	logger  *slog.Logger
}

var _ model.SentCache = (*FileSentCache)(nil)

// LoadSentCache reads the cache at path. Load failures degrade to an
// empty cache and are logged, never returned.
func LoadSentCache(path string, logger *slog.Logger) *FileSentCache {
	c := &FileSentCache{
		path:    path,
		entries: make(map[string]time.Time),
		logger:  logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("sent cache unreadable, starting empty", "path", path, "error", err)
		}
		return c
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("sent cache corrupt, starting empty", "path", path, "error", err)
		return c
	}

	for identity, stamp := range raw {
		t, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			// still known, just pruned on the next cycle
			t = time.Time{}
		}
		c.entries[identity] = t
	}
	return c
}

// IsNew reports whether the identity has never been sent.
func (c *FileSentCache) IsNew(identity string) bool {
	_, seen := c.entries[identity]
	return !seen
}

// Record adds the identities with the given sent time. In-memory only,
// call Save to persist.
func (c *FileSentCache) Record(identities []string, sentAt time.Time) {
	for _, id := range identities {
		if id == "" {
			continue
		}
		c.entries[id] = sentAt
	}
}

// Prune drops entries older than the retention period and returns how
// many were removed.
func (c *FileSentCache) Prune(olderThan time.Duration, now time.Time) int {
	cutoff := now.Add(-olderThan)
	removed := 0
	for id, sentAt := range c.entries {
		if sentAt.Before(cutoff) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of cached identities.
func (c *FileSentCache) Len() int { return len(c.entries) }

// Save writes the cache to a temp file beside the target and renames it
// into place.
func (c *FileSentCache) Save() error {
	raw := make(map[string]string, len(c.entries))
	for id, sentAt := range c.entries {
		raw[id] = sentAt.UTC().Format(time.RFC3339)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sent cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing sent cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replacing sent cache: %w", err)
	}
	return nil
}
