package model

import (
	"context"
	"time"
)

// Unknown is the placeholder for listing fields a source did not supply.
const Unknown = "Unknown"

// RawPosting is a job listing exactly as an adapter saw it, before
// normalization. Adapters fill what their source provides and leave the
// rest zero.
type RawPosting struct {
	Title       string
	Company     string
	Location    string
	URL         string
	Description string
	DateText    string     // raw date text ("3 days ago", RFC3339, epoch)
	PostedAt    *time.Time // set when the source supplies a structured timestamp
}

// Posting is the canonical representation of a job listing.
type Posting struct {
	Identity    string // canonical URL, or content hash when no URL survives
	Title       string
	Company     string
	Location    string
	URL         string     // canonical form
	Source      string     // adapter tag ("greenhouse:acme", "remotive")
	PostedAt    *time.Time // nil when the source gave no usable date
	Description string
	Score       int      // fit score 0-100
	Tags        []string // matched preference facets ("fintech", "api")
	Summary     string   // optional AI one-liner
}

// SourceFetcher fetches raw listings from one configured source.
type SourceFetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]RawPosting, error)
}

// SentCache tracks which posting identities have already been emailed.
type SentCache interface {
	IsNew(identity string) bool
	Record(identities []string, sentAt time.Time)
	Prune(olderThan time.Duration, now time.Time) int
	Save() error
}

// DigestState remembers the last calendar day a digest went out.
type DigestState interface {
	LastSentDate() string // "2006-01-02", empty if never sent
	MarkSent(date string) error
}

// Notifier composes and delivers a digest for the given postings.
type Notifier interface {
	Notify(postings []Posting) error
}

// PostingFilter decides whether a posting matches the user's profile.
type PostingFilter interface {
	Match(p Posting) bool
}
