package digest

import (
	"context"

	"github.com/rolecall/rolecall/internal/model"
)

// PostingAnalyzer enriches a Posting with an AI fit score and summary.
// Returns the original posting unchanged when enrichment is unavailable or disabled.
type PostingAnalyzer interface {
	Analyze(ctx context.Context, p model.Posting) (model.Posting, error)
}
