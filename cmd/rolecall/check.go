package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rolecall/rolecall/internal/filter"
	"github.com/rolecall/rolecall/internal/model"
	"github.com/rolecall/rolecall/internal/normalize"
	"github.com/rolecall/rolecall/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch each source once, print matches, exit",
	Long:  "One-shot smoke test: fetches every configured source, reports per-source counts and the top candidates. Nothing is sent or recorded.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("check mode: nothing will be sent or recorded")

	httpClient := newHTTPClient(cfg)
	fetchers := buildFetchers(cfg, httpClient, logger)
	if len(fetchers) == 0 {
		logger.Error("no sources configured")
		os.Exit(1)
	}

	jobFilter := buildFilter(cfg)
	scorer := buildScorer(cfg)
	// Same selection steps as a real run, with a nop cache so every
	// match stays visible.
	cache := store.NewNopSentCache()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	now := time.Now()
	var candidates []model.Posting
	for _, f := range fetchers {
		fctx, cancel := context.WithTimeout(ctx, cfg.Fetch.Timeout)
		raws, err := f.Fetch(fctx)
		cancel()
		if err != nil {
			logger.Error("source fetch failed", "source", f.Name(), "error", err)
			continue
		}

		matched := 0
		for _, raw := range raws {
			p := normalize.Posting(raw, f.Name(), now)
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
			matched++
			candidates = append(candidates, p)
		}
		logger.Info("source ok", "source", f.Name(), "fetched", len(raws), "candidates", matched)
	}

	if len(candidates) == 0 {
		fmt.Println("\nNo candidates matched the profile.")
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	fmt.Printf("\nTop candidates (%d total):\n", len(candidates))
	for _, p := range candidates[:min(10, len(candidates))] {
		fmt.Printf("  %3d  %-50s %-24s %s\n", p.Score, truncate(p.Title, 50), truncate(p.Company, 24), p.Source)
	}

	logger.Info("check complete")
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
