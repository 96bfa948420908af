package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rolecall/rolecall/internal/adapter"
	"github.com/rolecall/rolecall/internal/ai"
	"github.com/rolecall/rolecall/internal/config"
	"github.com/rolecall/rolecall/internal/digest"
	"github.com/rolecall/rolecall/internal/filter"
	"github.com/rolecall/rolecall/internal/model"
	"github.com/rolecall/rolecall/internal/notifier"
	"github.com/rolecall/rolecall/internal/rank"
	"github.com/rolecall/rolecall/internal/ratelimit"
	"github.com/rolecall/rolecall/internal/retry"
	"github.com/rolecall/rolecall/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "rolecall",
	Short: "Daily job digest for a targeted search",
	Long:  "Rolecall fetches postings from your configured job sources, filters them against your profile, and emails at most one digest per day.",
	// Default to `run` so a cron job or systemd timer can invoke the
	// binary directly.
	RunE: runRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: ROLECALL_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > ROLECALL_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("ROLECALL_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// newHTTPClient returns the shared client every adapter uses. Its
// transport waits on a per-host rate limit before each request.
func newHTTPClient(cfg *config.Config) *http.Client {
	limiter := ratelimit.NewHostLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	return &http.Client{
		Timeout:   cfg.Fetch.Timeout,
		Transport: ratelimit.NewTransport(limiter, nil),
	}
}

// buildFetchers constructs one fetcher per configured source, each
// wrapped with retries.
func buildFetchers(cfg *config.Config, client *http.Client, logger *slog.Logger) []model.SourceFetcher {
	var fetchers []model.SourceFetcher
	add := func(f model.SourceFetcher) {
		logger.Debug("registered source", "name", f.Name())
		fetchers = append(fetchers, retry.NewFetcher(f, 2, 5*time.Second, logger))
	}

	for _, board := range cfg.Sources.Greenhouse.Boards {
		add(adapter.NewGreenhouseAdapter(board, client))
	}
	for _, board := range cfg.Sources.Lever.Boards {
		add(adapter.NewLeverAdapter(board, client))
	}
	for _, board := range cfg.Sources.Ashby.Boards {
		add(adapter.NewAshbyAdapter(board, client))
	}
	for _, company := range cfg.Sources.SmartRecruiters.Companies {
		add(adapter.NewSmartRecruitersAdapter(company, cfg.Sources.SmartRecruiters.Query, client))
	}
	if cfg.Sources.Remotive.Enabled {
		add(adapter.NewRemotiveAdapter(cfg.Sources.Remotive.Search, client))
	}
	if cfg.Sources.RemoteOK.Enabled {
		add(adapter.NewRemoteOKAdapter(client))
	}
	if cfg.Sources.Jobicy.Enabled {
		add(adapter.NewJobicyAdapter(cfg.Sources.Jobicy.Tag, cfg.Sources.Jobicy.Geo, client))
	}
	for _, feed := range cfg.Sources.RSS.Feeds {
		add(adapter.NewRSSAdapter(feed.Name, feed.URL, client))
	}
	if cfg.Sources.LinkedIn.Enabled {
		add(adapter.NewLinkedInAdapter(cfg.Sources.LinkedIn.Keywords, cfg.Sources.LinkedIn.Locations, client))
	}
	return fetchers
}

func sourceNames(fetchers []model.SourceFetcher) []string {
	names := make([]string, len(fetchers))
	for i, f := range fetchers {
		names[i] = f.Name()
	}
	return names
}

func setupNotifier(cfg *config.Config, sources []string, logger *slog.Logger) model.Notifier {
	if !cfg.Email.Enabled {
		return notifier.NewLogNotifier(logger)
	}
	logger.Info("using email notifier", "recipients", len(cfg.Email.To))
	meta := notifier.Meta{
		Window:        cfg.Profile.Window,
		Preferences:   profileSummary(cfg),
		Sources:       sources,
		SubjectPrefix: cfg.Email.SubjectPrefix,
	}
	return notifier.NewEmailNotifier(notifier.EmailConfig{
		Host:     cfg.Email.SMTP.Host,
		Port:     cfg.Email.SMTP.Port,
		Username: cfg.Email.SMTP.Username,
		Password: cfg.Email.SMTP.Password,
		From:     cfg.Email.From,
		To:       cfg.Email.To,
	}, meta, logger)
}

func setupAnalyzer(cfg *config.Config, logger *slog.Logger) digest.PostingAnalyzer {
	if !cfg.AI.Enabled {
		return ai.NewNopPostingAnalyzer()
	}
	logger.Info("ai enrichment enabled", "model", cfg.AI.Model)
	client := &http.Client{Timeout: cfg.AI.Timeout}
	provider := ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, client)
	return ai.NewLLMPostingAnalyzer(provider, ai.PostingAnalysisTemplate, profileSummary(cfg), logger)
}

// profileSummary renders the keyword profile as a single line for the
// digest header and AI prompts.
func profileSummary(cfg *config.Config) string {
	parts := []string{
		"domains: " + strings.Join(cfg.Profile.DomainKeywords, ", "),
		"roles: " + strings.Join(cfg.Profile.RoleKeywords, ", "),
	}
	if len(cfg.Profile.Locations) > 0 {
		parts = append(parts, "locations: "+strings.Join(cfg.Profile.Locations, ", "))
	}
	return strings.Join(parts, "; ")
}

func buildFilter(cfg *config.Config) *filter.ProfileFilter {
	return filter.NewProfileFilter(
		cfg.Profile.DomainKeywords,
		cfg.Profile.RoleKeywords,
		cfg.Profile.ExcludeKeywords,
		cfg.Profile.Locations,
	)
}

func buildScorer(cfg *config.Config) rank.KeywordScorer {
	return rank.KeywordScorer{
		DomainTerms: cfg.Profile.DomainKeywords,
		ExtraTerms:  cfg.Profile.RoleKeywords,
		Vendors:     cfg.Companies.Vendors,
		Fintechs:    cfg.Companies.Fintechs,
		Banks:       cfg.Companies.Banks,
		Tech:        cfg.Companies.Tech,
	}
}

// openStores ensures the state directory exists and loads the sent
// cache and run state from it.
func openStores(cfg *config.Config, logger *slog.Logger) (*store.FileSentCache, *store.FileRunState, error) {
	if err := os.MkdirAll(cfg.State.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create state dir: %w", err)
	}
	cache := store.LoadSentCache(filepath.Join(cfg.State.Dir, "sent_cache.json"), logger)
	state := store.LoadRunState(filepath.Join(cfg.State.Dir, "run_state.json"), logger)
	return cache, state, nil
}

// buildRunner wires the full digest pipeline from config. The returned
// cleanup closes the archive and must be called once the runner is
// done.
func buildRunner(cfg *config.Config, cache model.SentCache, state model.DigestState, loc *time.Location, logger *slog.Logger) (*digest.Runner, func(), error) {
	httpClient := newHTTPClient(cfg)
	fetchers := buildFetchers(cfg, httpClient, logger)
	if len(fetchers) == 0 {
		return nil, nil, fmt.Errorf("no sources configured")
	}

	rcfg := digest.Config{
		Fetchers:       fetchers,
		Filter:         buildFilter(cfg),
		Scorer:         buildScorer(cfg),
		Cache:          cache,
		State:          state,
		Notifier:       setupNotifier(cfg, sourceNames(fetchers), logger),
		Analyzer:       setupAnalyzer(cfg, logger),
		Location:       loc,
		Window:         cfg.Profile.Window,
		MinScore:       cfg.Profile.MinScore,
		MaxPostings:    cfg.Email.MaxPostings,
		SkipWhenEmpty:  cfg.Email.SkipWhenEmpty,
		FetchTimeout:   cfg.Fetch.Timeout,
		Parallel:       cfg.Fetch.Parallel,
		CacheRetention: cfg.State.CacheRetention,
		Logger:         logger,
	}

	cleanup := func() {}
	if cfg.Archive.Enabled {
		arch, err := store.OpenArchive(cfg.Archive.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open archive: %w", err)
		}
		rcfg.Archive = arch
		cleanup = func() { arch.Close() }
	}

	return digest.NewRunner(rcfg), cleanup, nil
}
