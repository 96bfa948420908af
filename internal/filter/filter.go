package filter

import (
	"strings"
	"time"

	"github.com/rolecall/rolecall/internal/model"
)

// ProfileFilter matches postings against a keyword profile. A posting
// matches when its title plus description contains at least one domain
// keyword and at least one role keyword, and none of the exclude keywords.
// Matching is case-insensitive substring. Empty keyword lists pass all.
type ProfileFilter struct {
	domainKeywords  []string
	roleKeywords    []string
	excludeKeywords []string
	locations       []string
}

// NewProfileFilter returns a filter over the given keyword classes. The
// optional locations list additionally requires a location match when
// non-empty; postings whose source reported no location pass it.
func NewProfileFilter(domain, role, exclude, locations []string) *ProfileFilter {
	return &ProfileFilter{
		domainKeywords:  domain,
		roleKeywords:    role,
		excludeKeywords: exclude,
		locations:       locations,
	}
}

var _ model.PostingFilter = (*ProfileFilter)(nil)

// Match reports whether the posting fits the profile.
func (f *ProfileFilter) Match(p model.Posting) bool {
	text := strings.ToLower(p.Title + " " + p.Description)

	if len(f.domainKeywords) > 0 && !containsAny(text, f.domainKeywords) {
		return false
	}
	if len(f.roleKeywords) > 0 && !containsAny(text, f.roleKeywords) {
		return false
	}
	if containsAny(text, f.excludeKeywords) {
		return false
	}
	if len(f.locations) > 0 && p.Location != model.Unknown &&
		!containsAny(strings.ToLower(p.Location), f.locations) {
		return false
	}
	return true
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// WithinWindow reports whether a posting falls inside the recency window.
// Postings with no usable timestamp pass.
func WithinWindow(p model.Posting, window time.Duration, now time.Time) bool {
	if p.PostedAt == nil {
		return true
	}
	return now.Sub(*p.PostedAt) <= window
}
