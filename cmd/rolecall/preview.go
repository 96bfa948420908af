package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rolecall/rolecall/internal/audit"
	"github.com/rolecall/rolecall/internal/config"
	"github.com/rolecall/rolecall/internal/digest"
	"github.com/rolecall/rolecall/internal/filter"
	"github.com/rolecall/rolecall/internal/model"
	"github.com/rolecall/rolecall/internal/normalize"
	"github.com/rolecall/rolecall/internal/store"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Browse postings interactively (TUI)",
	Long:  "Shows the source picker TUI, then launches the split-pane preview of fetched postings and digest candidates. Nothing is sent or recorded.",
	RunE:  runPreviewCmd,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreviewCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		logger.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	// The TUI owns the terminal, so fetchers and the analyzer get a
	// discard logger; any stray log line corrupts the alt screen.
	silent := slog.New(slog.NewTextHandler(io.Discard, nil))
	fetchers := buildFetchers(cfg, newHTTPClient(cfg), silent)
	if len(fetchers) == 0 {
		fmt.Println("No sources configured.")
		return nil
	}
	analyzer := setupAnalyzer(cfg, silent)

	runPreview(cfg, fetchers, analyzer, loc)
	return nil
}

func runPreview(cfg *config.Config, fetchers []model.SourceFetcher, analyzer digest.PostingAnalyzer, loc *time.Location) {
	names := sourceNames(fetchers)
	entries := append([]string{"All sources"}, names...)

	jobFilter := buildFilter(cfg)
	scorer := buildScorer(cfg)
	cache := store.NewNopSentCache()

	for {
		choice, err := audit.RunSourcePicker(entries)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}

		selected := fetchers
		label := "all sources"
		if choice > 0 {
			selected = fetchers[choice-1 : choice]
			label = names[choice-1]
		}

		fetched, err := audit.RunLoader(label, func(ctx context.Context) ([]model.Posting, error) {
			return fetchAndNormalize(ctx, selected)
		})
		if err != nil {
			fmt.Printf("Error fetching postings: %v\n", err)
			continue
		}

		now := time.Now()
		var candidates []model.Posting
		for _, p := range fetched {
			if !jobFilter.Match(p) || !filter.WithinWindow(p, cfg.Profile.Window, now) {
				continue
			}
			if !cache.IsNew(p.Identity) {
				continue
			}
			p.Score, p.Tags = scorer.Score(p)
			if p.Score < cfg.Profile.MinScore {
				continue
			}
			candidates = append(candidates, p)
		}

		wantQuit, err := audit.RunPreviewTUI(fetched, candidates, loc, analyzer)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop back to the picker
	}
}

// fetchAndNormalize fetches every selected source and returns the
// normalized postings. Individual source failures are skipped unless
// nothing succeeds.
func fetchAndNormalize(ctx context.Context, fetchers []model.SourceFetcher) ([]model.Posting, error) {
	now := time.Now()
	var postings []model.Posting
	var firstErr error
	ok := false
	for _, f := range fetchers {
		raws, err := f.Fetch(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", f.Name(), err)
			}
			continue
		}
		ok = true
		for _, raw := range raws {
			postings = append(postings, normalize.Posting(raw, f.Name(), now))
		}
	}
	if !ok && firstErr != nil {
		return nil, firstErr
	}
	return postings, nil
}
