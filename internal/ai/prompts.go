package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/posting_analysis.md
var postingAnalysisPromptRaw string

// PostingAnalysisTemplate is the parsed prompt template for posting analysis.
// Parsed once at package init; reused on every Analyze call.
var PostingAnalysisTemplate = template.Must(template.New("posting_analysis").Parse(postingAnalysisPromptRaw))
