package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the rolecall digest.
type Config struct {
	Schedule  ScheduleConfig
	Profile   ProfileConfig
	Companies CompanyTiers
	Sources   SourcesConfig
	Email     EmailConfig
	State     StateConfig
	Archive   ArchiveConfig
	AI        AIConfig
	Fetch     FetchConfig
	RateLimit RateLimitConfig
}

// ScheduleConfig controls when the daily digest fires.
type ScheduleConfig struct {
	SendAt   string        // target send time, "HH:MM" wall clock
	Window   time.Duration // tolerance around the send time
	Timezone string        // IANA name the calendar day is anchored to
	Tick     time.Duration // daemon gate-check interval
	CatchUp  bool          // send late when the window was missed
}

// ProfileConfig holds the keyword profile a posting must match.
type ProfileConfig struct {
	DomainKeywords  []string
	RoleKeywords    []string
	ExcludeKeywords []string
	Locations       []string
	Window          time.Duration // max age of a posting to be considered
	MinScore        int
}

// CompanyTiers lists companies by tier for fit scoring.
type CompanyTiers struct {
	Vendors  []string `yaml:"vendors"`
	Fintechs []string `yaml:"fintechs"`
	Banks    []string `yaml:"banks"`
	Tech     []string `yaml:"tech"`
}

// SourcesConfig wires the job sources. An empty section leaves that
// adapter out of the run.
type SourcesConfig struct {
	Greenhouse      BoardsConfig          `yaml:"greenhouse"`
	Lever           BoardsConfig          `yaml:"lever"`
	Ashby           BoardsConfig          `yaml:"ashby"`
	SmartRecruiters SmartRecruitersConfig `yaml:"smartrecruiters"`
	Remotive        RemotiveConfig        `yaml:"remotive"`
	RemoteOK        ToggleConfig          `yaml:"remoteok"`
	Jobicy          JobicyConfig          `yaml:"jobicy"`
	RSS             RSSConfig             `yaml:"rss"`
	LinkedIn        LinkedInConfig        `yaml:"linkedin"`
}

// BoardsConfig lists board slugs for an ATS adapter.
type BoardsConfig struct {
	Boards []string `yaml:"boards"`
}

type SmartRecruitersConfig struct {
	Companies []string `yaml:"companies"`
	Query     string   `yaml:"query"`
}

type RemotiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Search  string `yaml:"search"`
}

type ToggleConfig struct {
	Enabled bool `yaml:"enabled"`
}

type JobicyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Tag     string `yaml:"tag"`
	Geo     string `yaml:"geo"`
}

type RSSConfig struct {
	Feeds []RSSFeed `yaml:"feeds"`
}

type RSSFeed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type LinkedInConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Keywords  []string `yaml:"keywords"`
	Locations []string `yaml:"locations"`
}

// EmailConfig controls digest delivery.
type EmailConfig struct {
	Enabled       bool       `yaml:"enabled"`
	From          string     `yaml:"from"`
	To            []string   `yaml:"to"`
	SubjectPrefix string     `yaml:"subject_prefix"`
	SMTP          SMTPConfig `yaml:"smtp"`
	SkipWhenEmpty bool       `yaml:"skip_when_empty"`
	MaxPostings   int        `yaml:"max_postings"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"` // expanded from env var by Load
}

// StateConfig locates the sent cache and run state on disk.
type StateConfig struct {
	Dir            string
	CacheRetention time.Duration
}

// ArchiveConfig controls the SQLite digest archive.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// AIConfig controls the optional OpenAI enrichment layer.
type AIConfig struct {
	Enabled bool
	BaseURL string        // defaults to https://api.openai.com/v1
	Model   string        // OpenAI model identifier, e.g. "gpt-4o-mini"
	APIKey  string        // expanded from env var by Load
	Timeout time.Duration // per-request timeout
}

// FetchConfig bounds source fetches.
type FetchConfig struct {
	Timeout  time.Duration // per-source timeout
	Parallel bool
}

// RateLimitConfig controls per-host request throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultStateDir      = "~/.rolecall"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Schedule  rawScheduleConfig  `yaml:"schedule"`
	Profile   rawProfileConfig   `yaml:"profile"`
	Companies CompanyTiers       `yaml:"companies"`
	Sources   SourcesConfig      `yaml:"sources"`
	Email     EmailConfig        `yaml:"email"`
	State     rawStateConfig     `yaml:"state"`
	Archive   ArchiveConfig      `yaml:"archive"`
	AI        rawAIConfig        `yaml:"ai"`
	Fetch     rawFetchConfig     `yaml:"fetch"`
	RateLimit rawRateLimitConfig `yaml:"rate_limit"`
}

type rawScheduleConfig struct {
	SendAt   string `yaml:"send_at"`
	Window   string `yaml:"window"`
	Timezone string `yaml:"timezone"`
	Tick     string `yaml:"tick"`
	CatchUp  bool   `yaml:"catch_up"`
}

type rawProfileConfig struct {
	DomainKeywords  []string `yaml:"domain_keywords"`
	RoleKeywords    []string `yaml:"role_keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	Locations       []string `yaml:"locations"`
	Window          string   `yaml:"window"`
	MinScore        *int     `yaml:"min_score"`
}

type rawStateConfig struct {
	Dir            string `yaml:"dir"`
	CacheRetention string `yaml:"cache_retention"`
}

type rawAIConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type rawFetchConfig struct {
	Timeout  string `yaml:"timeout"`
	Parallel *bool  `yaml:"parallel"`
}

type rawRateLimitConfig struct {
	RequestsPerSecond *float64 `yaml:"requests_per_second"`
	Burst             *int     `yaml:"burst"`
}

// Load reads and parses the YAML config file at path, fills defaults,
// validates, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	scheduleWindow, err := durationOr(raw.Schedule.Window, "schedule.window", 20*time.Minute)
	if err != nil {
		return nil, err
	}
	tick, err := durationOr(raw.Schedule.Tick, "schedule.tick", time.Minute)
	if err != nil {
		return nil, err
	}
	profileWindow, err := durationOr(raw.Profile.Window, "profile.window", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	cacheRetention, err := durationOr(raw.State.CacheRetention, "state.cache_retention", 14*24*time.Hour)
	if err != nil {
		return nil, err
	}
	aiTimeout, err := durationOr(raw.AI.Timeout, "ai.timeout", 30*time.Second)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := durationOr(raw.Fetch.Timeout, "fetch.timeout", 30*time.Second)
	if err != nil {
		return nil, err
	}

	sendAt := raw.Schedule.SendAt
	if sendAt == "" {
		sendAt = "08:00"
	}
	timezone := raw.Schedule.Timezone
	if timezone == "" {
		timezone = "Europe/London"
	}

	minScore := 70
	if raw.Profile.MinScore != nil {
		minScore = *raw.Profile.MinScore
	}

	stateDir := raw.State.Dir
	if stateDir == "" {
		stateDir = defaultStateDir
	}
	stateDir, err = expandHome(stateDir)
	if err != nil {
		return nil, err
	}

	archive := raw.Archive
	if archive.Enabled && archive.Path == "" {
		archive.Path = filepath.Join(stateDir, "archive.db")
	} else if archive.Path != "" {
		if archive.Path, err = expandHome(archive.Path); err != nil {
			return nil, err
		}
	}

	email := raw.Email
	if email.MaxPostings <= 0 {
		email.MaxPostings = 12
	}

	aiBaseURL := raw.AI.BaseURL
	if aiBaseURL == "" {
		aiBaseURL = defaultOpenAIBaseURL
	}

	parallel := true
	if raw.Fetch.Parallel != nil {
		parallel = *raw.Fetch.Parallel
	}

	rps := 1.0
	if raw.RateLimit.RequestsPerSecond != nil {
		rps = *raw.RateLimit.RequestsPerSecond
	}
	burst := 2
	if raw.RateLimit.Burst != nil {
		burst = *raw.RateLimit.Burst
	}

	cfg := &Config{
		Schedule: ScheduleConfig{
			SendAt:   sendAt,
			Window:   scheduleWindow,
			Timezone: timezone,
			Tick:     tick,
			CatchUp:  raw.Schedule.CatchUp,
		},
		Profile: ProfileConfig{
			DomainKeywords:  raw.Profile.DomainKeywords,
			RoleKeywords:    raw.Profile.RoleKeywords,
			ExcludeKeywords: raw.Profile.ExcludeKeywords,
			Locations:       raw.Profile.Locations,
			Window:          profileWindow,
			MinScore:        minScore,
		},
		Companies: raw.Companies,
		Sources:   raw.Sources,
		Email:     email,
		State: StateConfig{
			Dir:            stateDir,
			CacheRetention: cacheRetention,
		},
		Archive: archive,
		AI: AIConfig{
			Enabled: raw.AI.Enabled,
			BaseURL: aiBaseURL,
			Model:   raw.AI.Model,
			APIKey:  raw.AI.APIKey,
			Timeout: aiTimeout,
		},
		Fetch: FetchConfig{
			Timeout:  fetchTimeout,
			Parallel: parallel,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: rps,
			Burst:             burst,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SourceCount reports how many job sources are configured.
func (s SourcesConfig) SourceCount() int {
	n := len(s.Greenhouse.Boards) + len(s.Lever.Boards) + len(s.Ashby.Boards) +
		len(s.SmartRecruiters.Companies) + len(s.RSS.Feeds)
	if s.Remotive.Enabled {
		n++
	}
	if s.RemoteOK.Enabled {
		n++
	}
	if s.Jobicy.Enabled {
		n++
	}
	if s.LinkedIn.Enabled {
		n++
	}
	return n
}

func durationOr(raw, field string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return d, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func validate(cfg *Config) error {
	if _, err := time.Parse("15:04", cfg.Schedule.SendAt); err != nil {
		return fmt.Errorf("schedule.send_at must be HH:MM, got %q", cfg.Schedule.SendAt)
	}
	if _, err := time.LoadLocation(cfg.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone %q: %w", cfg.Schedule.Timezone, err)
	}
	if cfg.Schedule.Window < time.Minute || cfg.Schedule.Window > 12*time.Hour {
		return fmt.Errorf("schedule.window must be between 1m and 12h, got %v", cfg.Schedule.Window)
	}
	if cfg.Schedule.Tick <= 0 {
		return fmt.Errorf("schedule.tick must be positive, got %v", cfg.Schedule.Tick)
	}

	if len(cfg.Profile.DomainKeywords) == 0 {
		return fmt.Errorf("profile.domain_keywords must not be empty")
	}
	if len(cfg.Profile.RoleKeywords) == 0 {
		return fmt.Errorf("profile.role_keywords must not be empty")
	}
	if cfg.Profile.MinScore < 0 || cfg.Profile.MinScore > 100 {
		return fmt.Errorf("profile.min_score must be between 0 and 100, got %d", cfg.Profile.MinScore)
	}
	if cfg.Profile.Window <= 0 {
		return fmt.Errorf("profile.window must be positive, got %v", cfg.Profile.Window)
	}

	if cfg.Sources.SourceCount() == 0 {
		return fmt.Errorf("at least one source must be configured")
	}

	if cfg.Email.Enabled {
		if cfg.Email.From == "" {
			return fmt.Errorf("email.from is required when email.enabled is true")
		}
		if len(cfg.Email.To) == 0 {
			return fmt.Errorf("email.to must not be empty when email.enabled is true")
		}
		if cfg.Email.SMTP.Host == "" || cfg.Email.SMTP.Port == 0 {
			return fmt.Errorf("email.smtp.host and email.smtp.port are required when email.enabled is true")
		}
		if cfg.Email.SMTP.Username == "" || cfg.Email.SMTP.Password == "" {
			return fmt.Errorf("email.smtp.username and email.smtp.password are required when email.enabled is true")
		}
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be positive, got %v", cfg.RateLimit.RequestsPerSecond)
	}
	if cfg.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1, got %d", cfg.RateLimit.Burst)
	}
	if cfg.State.CacheRetention <= 0 {
		return fmt.Errorf("state.cache_retention must be positive, got %v", cfg.State.CacheRetention)
	}

	return nil
}
