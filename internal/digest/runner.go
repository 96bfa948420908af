// Package digest owns the daily digest pipeline: fan out over every
// configured source, normalize and filter what came back, drop what was
// already sent, and deliver one email. State only advances after a
// successful send, so a failed day retries cleanly.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rolecall/rolecall/internal/filter"
	"github.com/rolecall/rolecall/internal/model"
	"github.com/rolecall/rolecall/internal/normalize"
	"github.com/rolecall/rolecall/internal/rank"
)

// Archiver records the postings of a sent digest.
type Archiver interface {
	RecordDigest(postings []model.Posting, sentAt time.Time) error
}

// Config wires a Runner's collaborators and run policy.
type Config struct {
	Fetchers []model.SourceFetcher
	Filter   model.PostingFilter
	Scorer   rank.Scorer
	Cache    model.SentCache
	State    model.DigestState
	Notifier model.Notifier
	Analyzer PostingAnalyzer
	Archive  Archiver // nil when archiving is disabled

	Location       *time.Location
	Window         time.Duration
	MinScore       int
	MaxPostings    int
	SkipWhenEmpty  bool
	FetchTimeout   time.Duration
	Parallel       bool
	CacheRetention time.Duration

	Logger *slog.Logger
}

// Runner executes one digest cycle end to end:
// fetch → normalize → filter → dedup → subtract sent → enrich → send → record.
type Runner struct {
	cfg Config
}

// NewRunner creates a runner from cfg, filling in safe defaults for
// zero-valued policy fields.
func NewRunner(cfg Config) *Runner {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &Runner{cfg: cfg}
}

// Run executes one digest cycle against the current clock.
func (r *Runner) Run(ctx context.Context) error {
	return r.run(ctx, time.Now())
}

func (r *Runner) run(ctx context.Context, now time.Time) error {
	results := r.fetchAll(ctx)

	fetched := 0
	for _, res := range results {
		fetched += len(res.raws)
	}

	candidates := r.selectCandidates(results, now)
	candidates = dedupe(candidates)

	var fresh []model.Posting
	for _, p := range candidates {
		if r.cfg.Cache.IsNew(p.Identity) {
			fresh = append(fresh, p)
		}
	}

	fresh = r.enrich(ctx, fresh)

	sortPostings(fresh)
	sent := fresh
	if r.cfg.MaxPostings > 0 && len(sent) > r.cfg.MaxPostings {
		sent = sent[:r.cfg.MaxPostings]
	}

	today := now.In(r.cfg.Location).Format("2006-01-02")

	if len(sent) == 0 && r.cfg.SkipWhenEmpty {
		r.cfg.Logger.Info("no new postings, skipping digest",
			"fetched", fetched,
			"candidates", len(candidates),
		)
		if err := r.cfg.State.MarkSent(today); err != nil {
			return fmt.Errorf("marking empty day sent: %w", err)
		}
		return nil
	}

	if err := r.cfg.Notifier.Notify(sent); err != nil {
		return fmt.Errorf("digest run: %w", err)
	}

	identities := make([]string, len(sent))
	for i, p := range sent {
		identities[i] = p.Identity
	}
	r.cfg.Cache.Record(identities, now)
	pruned := r.cfg.Cache.Prune(r.cfg.CacheRetention, now)

	var errs []error
	if err := r.cfg.Cache.Save(); err != nil {
		errs = append(errs, fmt.Errorf("saving sent cache: %w", err))
	}
	if err := r.cfg.State.MarkSent(today); err != nil {
		errs = append(errs, fmt.Errorf("marking sent: %w", err))
	}

	if r.cfg.Archive != nil {
		if err := r.cfg.Archive.RecordDigest(sent, now); err != nil {
			r.cfg.Logger.Warn("archive record failed", "error", err)
		}
	}

	r.cfg.Logger.Info("digest run complete",
		"fetched", fetched,
		"candidates", len(candidates),
		"new", len(fresh),
		"sent", len(sent),
		"pruned", pruned,
	)

	return errors.Join(errs...)
}

type sourceResult struct {
	source string
	raws   []model.RawPosting
}

// fetchAll queries every source with its own timeout. A source that
// fails or times out contributes nothing; the digest still goes out
// with whatever the rest returned.
func (r *Runner) fetchAll(ctx context.Context) []sourceResult {
	if !r.cfg.Parallel {
		var out []sourceResult
		for _, f := range r.cfg.Fetchers {
			if res, ok := r.fetchOne(ctx, f); ok {
				out = append(out, res)
			}
		}
		return out
	}

	var g errgroup.Group
	results := make(chan sourceResult, len(r.cfg.Fetchers))

	for _, f := range r.cfg.Fetchers {
		g.Go(func() error {
			if res, ok := r.fetchOne(ctx, f); ok {
				results <- res
			}
			return nil
		})
	}

	_ = g.Wait()
	close(results)

	var out []sourceResult
	for res := range results {
		out = append(out, res)
	}
	return out
}

func (r *Runner) fetchOne(ctx context.Context, f model.SourceFetcher) (sourceResult, bool) {
	fctx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()

	raws, err := f.Fetch(fctx)
	if err != nil {
		r.cfg.Logger.Warn("source fetch failed", "source", f.Name(), "error", err)
		return sourceResult{}, false
	}
	r.cfg.Logger.Debug("source fetched", "source", f.Name(), "postings", len(raws))
	return sourceResult{source: f.Name(), raws: raws}, true
}

// selectCandidates normalizes every raw listing and keeps the ones that
// match the profile, fall inside the recency window, and score at least
// the configured minimum. Undated postings pass the window check.
func (r *Runner) selectCandidates(results []sourceResult, now time.Time) []model.Posting {
	var candidates []model.Posting
	for _, res := range results {
		for _, raw := range res.raws {
			p := normalize.Posting(raw, res.source, now)
			if !r.cfg.Filter.Match(p) {
				continue
			}
			if !filter.WithinWindow(p, r.cfg.Window, now) {
				continue
			}
			p.Score, p.Tags = r.cfg.Scorer.Score(p)
			if p.Score < r.cfg.MinScore {
				continue
			}
			candidates = append(candidates, p)
		}
	}
	return candidates
}

// enrich lets the analyzer re-score and summarize each posting. A failed
// analysis keeps the posting as scored by keywords.
func (r *Runner) enrich(ctx context.Context, postings []model.Posting) []model.Posting {
	if r.cfg.Analyzer == nil {
		return postings
	}
	for i, p := range postings {
		enriched, err := r.cfg.Analyzer.Analyze(ctx, p)
		if err != nil {
			r.cfg.Logger.Warn("posting analysis failed", "identity", p.Identity, "error", err)
			continue
		}
		postings[i] = enriched
	}
	return postings
}

// dedupe collapses duplicate identities across sources. The slice is
// sorted first so the best-scoring duplicate is the one that survives.
func dedupe(postings []model.Posting) []model.Posting {
	sortPostings(postings)
	seen := make(map[string]bool, len(postings))
	var out []model.Posting
	for _, p := range postings {
		if seen[p.Identity] {
			continue
		}
		seen[p.Identity] = true
		out = append(out, p)
	}
	return out
}

// sortPostings orders by score desc, then posted date desc with undated
// postings last, then identity, giving every run a stable total order.
func sortPostings(postings []model.Posting) {
	sort.Slice(postings, func(i, j int) bool {
		a, b := postings[i], postings[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		switch {
		case a.PostedAt != nil && b.PostedAt != nil && !a.PostedAt.Equal(*b.PostedAt):
			return a.PostedAt.After(*b.PostedAt)
		case a.PostedAt != nil && b.PostedAt == nil:
			return true
		case a.PostedAt == nil && b.PostedAt != nil:
			return false
		}
		return a.Identity < b.Identity
	})
}
