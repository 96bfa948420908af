package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rolecall/rolecall/internal/model"
)

// FileRunState remembers the last digest date in a small JSON file.
type FileRunState struct {
	path     string
	lastSent string
	logger   *slog.Logger
}

type runStateFile struct {
	LastSentDate string `json:"last_sent_date"`
}

var _ model.DigestState = (*FileRunState)(nil)

// LoadRunState reads the state at path. Load failures degrade to a
// never-sent state and are logged, never returned.
func LoadRunState(path string, logger *slog.Logger) *FileRunState {
	s := &FileRunState{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("run state unreadable, assuming never sent", "path", path, "error", err)
		}
		return s
	}

	var raw runStateFile
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("run state corrupt, assuming never sent", "path", path, "error", err)
		return s
	}
	s.lastSent = raw.LastSentDate
	return s
}

// LastSentDate returns the "2006-01-02" date of the last successful
// send, empty if none.
func (s *FileRunState) LastSentDate() string { return s.lastSent }

// MarkSent records date as the last send day and persists immediately
// via temp file and rename.
func (s *FileRunState) MarkSent(date string) error {
	s.lastSent = date

	data, err := json.MarshalIndent(runStateFile{LastSentDate: date}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing run state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing run state: %w", err)
	}
	return nil
}
