package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/rolecall/rolecall/internal/model"
)

// LLMPostingAnalyzer implements digest.PostingAnalyzer using an LLM.
type LLMPostingAnalyzer struct {
	provider LLMProvider
	tmpl     *template.Template
	profile  string
	logger   *slog.Logger
}

// NewLLMPostingAnalyzer creates an analyzer that re-scores postings against
// the given candidate profile and attaches an LLM-generated summary.
func NewLLMPostingAnalyzer(provider LLMProvider, tmpl *template.Template, profile string, logger *slog.Logger) *LLMPostingAnalyzer {
	return &LLMPostingAnalyzer{
		provider: provider,
		tmpl:     tmpl,
		profile:  profile,
		logger:   logger,
	}
}

// Analyze enriches p with an LLM fit score, summary, and strength tags.
// Returns the original posting unchanged when the description is
// unavailable or the LLM call fails.
func (a *LLMPostingAnalyzer) Analyze(ctx context.Context, p model.Posting) (model.Posting, error) {
	if p.Description == "" {
		return p, nil
	}

	var promptBuf bytes.Buffer
	err := a.tmpl.Execute(&promptBuf, struct {
		Profile     string
		Title       string
		Company     string
		Location    string
		Description string
	}{
		Profile:     a.profile,
		Title:       p.Title,
		Company:     p.Company,
		Location:    p.Location,
		Description: p.Description,
	})
	if err != nil {
		return p, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := a.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		return p, fmt.Errorf("llm complete: %w", err)
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		return p, fmt.Errorf("parse analysis: %w", err)
	}

	p.Score = analysis.FitScore
	if analysis.Summary != "" {
		p.Summary = analysis.Summary
	}
	p.Tags = appendStrengths(p.Tags, analysis.Strengths)
	return p, nil
}

// rawAnalysis is the JSON shape returned by the LLM (matches postingAnalysisSchema).
type rawAnalysis struct {
	FitScore  int      `json:"fit_score"`
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths"`
}

// parseAnalysis deserializes the LLM response.
// OpenAI structured outputs guarantees valid JSON conforming to
// postingAnalysisSchema, so no code-fence stripping or defensive trimming
// is needed.
func parseAnalysis(raw string) (rawAnalysis, error) {
	var ra rawAnalysis
	if err := json.Unmarshal([]byte(raw), &ra); err != nil {
		return rawAnalysis{}, fmt.Errorf("unmarshal analysis JSON: %w", err)
	}

	// Schema bounds fit_score to 0-100; stray values clamp to the scale.
	if ra.FitScore < 0 {
		ra.FitScore = 0
	}
	if ra.FitScore > 100 {
		ra.FitScore = 100
	}

	// Schema enforces maxItems: 3.
	if len(ra.Strengths) > 3 {
		ra.Strengths = ra.Strengths[:3]
	}

	return ra, nil
}

// appendStrengths merges LLM strengths into the existing tag list,
// skipping case-insensitive duplicates and blanks.
func appendStrengths(tags, strengths []string) []string {
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		seen[strings.ToLower(t)] = true
	}
	for _, s := range strengths {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		tags = append(tags, s)
	}
	return tags
}
