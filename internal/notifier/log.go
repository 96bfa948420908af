package notifier

import (
	"log/slog"

	"github.com/rolecall/rolecall/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes the digest to the given logger as structured
// messages instead of sending it anywhere.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each posting via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each posting with company, title, score, and URL.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(postings []model.Posting) error {
	if len(postings) == 0 {
		n.logger.Info("digest empty, nothing matched")
		return nil
	}
	for _, p := range postings {
		args := []any{
			"source", p.Source,
			"company", p.Company,
			"title", p.Title,
			"location", p.Location,
			"fit", p.Score,
			"url", p.URL,
		}
		if p.PostedAt != nil {
			args = append(args, "posted_at", *p.PostedAt)
		}
		n.logger.Info("digest posting", args...)
	}
	return nil
}
