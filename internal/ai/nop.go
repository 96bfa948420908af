package ai

import (
	"context"

	"github.com/rolecall/rolecall/internal/model"
)

// NopPostingAnalyzer is a no-op analyzer used when ai.enabled is false.
// It returns the posting unchanged with no LLM calls.
type NopPostingAnalyzer struct{}

// NewNopPostingAnalyzer returns a NopPostingAnalyzer.
func NewNopPostingAnalyzer() *NopPostingAnalyzer {
	return &NopPostingAnalyzer{}
}

// Analyze returns the posting unchanged.
func (n *NopPostingAnalyzer) Analyze(_ context.Context, p model.Posting) (model.Posting, error) {
	return p, nil
}
