// Package rank scores how well a posting fits the configured profile.
package rank

import (
	"strings"

	"github.com/rolecall/rolecall/internal/model"
)

// Scorer assigns a 0-100 fit score to a posting, plus the preference
// facets that contributed to it.
type Scorer interface {
	Score(p model.Posting) (score int, tags []string)
}

const (
	baseScore = 60
	maxScore  = 90
)

// KeywordScorer scores postings from keyword and company-tier lists.
// Domain keyword hits add 4 points each (capped at 20), secondary
// keywords 2 each (capped at 10), company tiers stack, and the result
// is capped at 90. Tags collect the matched keywords.
type KeywordScorer struct {
	DomainTerms []string
	ExtraTerms  []string
	Vendors     []string
	Fintechs    []string
	Banks       []string
	Tech        []string
}

var _ Scorer = KeywordScorer{}

func (s KeywordScorer) Score(p model.Posting) (int, []string) {
	text := strings.ToLower(p.Title + " " + p.Description)

	score := baseScore
	var tags []string

	domainHits := 0
	for _, term := range s.DomainTerms {
		if term != "" && strings.Contains(text, strings.ToLower(term)) {
			domainHits++
			tags = append(tags, term)
		}
	}
	if domainHits > 0 {
		score += min(20, 4*domainHits)
	}

	extraHits := 0
	for _, term := range s.ExtraTerms {
		if term != "" && strings.Contains(text, strings.ToLower(term)) {
			extraHits++
			tags = append(tags, term)
		}
	}
	if extraHits > 0 {
		score += min(10, 2*extraHits)
	}

	company := strings.ToLower(p.Company)
	if containsAny(company, s.Vendors) {
		score += 12
	}
	if containsAny(company, s.Fintechs) {
		score += 8
	}
	if containsAny(company, s.Banks) {
		score += 6
	}
	if containsAny(company, s.Tech) {
		score += 4
	}

	if strings.Contains(text, "onboarding") || strings.Contains(text, "kyc") {
		score += 3
	}
	if strings.Contains(text, "api") {
		score += 3
	}

	if score > maxScore {
		score = maxScore
	}
	return score, uniq(tags)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
