package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
schedule:
  send_at: "07:30"
  window: 45m
  timezone: Europe/London
  tick: 2m
  catch_up: true
profile:
  domain_keywords:
    - compliance
    - aml
  role_keywords:
    - manager
    - lead
  exclude_keywords:
    - intern
  locations:
    - London
    - Remote
  window: 48h
  min_score: 65
companies:
  fintechs:
    - monzo
  banks:
    - barclays
sources:
  greenhouse:
    boards:
      - monzo
  lever:
    boards:
      - wise
  smartrecruiters:
    companies:
      - revolut
    query: compliance
  remotive:
    enabled: true
    search: compliance
  remoteok:
    enabled: true
  jobicy:
    enabled: true
    tag: compliance
    geo: uk
  rss:
    feeds:
      - name: fca
        url: https://example.com/jobs.xml
  linkedin:
    enabled: true
    keywords:
      - compliance manager
    locations:
      - London
email:
  enabled: true
  from: digest@example.com
  to:
    - me@example.com
  subject_prefix: "[rolecall]"
  smtp:
    host: smtp.example.com
    port: 587
    username: digest@example.com
    password: secret
  skip_when_empty: true
  max_postings: 8
state:
  dir: /tmp/rolecall-test-state
  cache_retention: 240h
archive:
  enabled: true
  path: /tmp/rolecall-test-state/archive.db
ai:
  enabled: true
  model: gpt-4o-mini
  api_key: sk-test
  timeout: 20s
fetch:
  timeout: 15s
  parallel: false
rate_limit:
  requests_per_second: 0.5
  burst: 3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule.SendAt != "07:30" || cfg.Schedule.Window != 45*time.Minute {
		t.Errorf("Schedule = %+v", cfg.Schedule)
	}
	if cfg.Schedule.Tick != 2*time.Minute || !cfg.Schedule.CatchUp {
		t.Errorf("Schedule = %+v", cfg.Schedule)
	}
	if len(cfg.Profile.DomainKeywords) != 2 || cfg.Profile.DomainKeywords[1] != "aml" {
		t.Errorf("DomainKeywords = %v", cfg.Profile.DomainKeywords)
	}
	if cfg.Profile.MinScore != 65 || cfg.Profile.Window != 48*time.Hour {
		t.Errorf("Profile = %+v", cfg.Profile)
	}
	if len(cfg.Companies.Fintechs) != 1 || cfg.Companies.Fintechs[0] != "monzo" {
		t.Errorf("Companies = %+v", cfg.Companies)
	}
	if got := cfg.Sources.SourceCount(); got != 8 {
		t.Errorf("SourceCount = %d, want 8", got)
	}
	if cfg.Sources.SmartRecruiters.Query != "compliance" {
		t.Errorf("SmartRecruiters = %+v", cfg.Sources.SmartRecruiters)
	}
	if len(cfg.Sources.RSS.Feeds) != 1 || cfg.Sources.RSS.Feeds[0].Name != "fca" {
		t.Errorf("RSS = %+v", cfg.Sources.RSS)
	}
	if cfg.Email.SMTP.Host != "smtp.example.com" || cfg.Email.SMTP.Port != 587 {
		t.Errorf("SMTP = %+v", cfg.Email.SMTP)
	}
	if !cfg.Email.SkipWhenEmpty || cfg.Email.MaxPostings != 8 {
		t.Errorf("Email = %+v", cfg.Email)
	}
	if cfg.State.Dir != "/tmp/rolecall-test-state" || cfg.State.CacheRetention != 240*time.Hour {
		t.Errorf("State = %+v", cfg.State)
	}
	if !cfg.Archive.Enabled || cfg.Archive.Path != "/tmp/rolecall-test-state/archive.db" {
		t.Errorf("Archive = %+v", cfg.Archive)
	}
	if !cfg.AI.Enabled || cfg.AI.Model != "gpt-4o-mini" || cfg.AI.Timeout != 20*time.Second {
		t.Errorf("AI = %+v", cfg.AI)
	}
	if cfg.AI.BaseURL != defaultOpenAIBaseURL {
		t.Errorf("AI.BaseURL = %q, want default", cfg.AI.BaseURL)
	}
	if cfg.Fetch.Timeout != 15*time.Second || cfg.Fetch.Parallel {
		t.Errorf("Fetch = %+v", cfg.Fetch)
	}
	if cfg.RateLimit.RequestsPerSecond != 0.5 || cfg.RateLimit.Burst != 3 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
profile:
  domain_keywords:
    - compliance
  role_keywords:
    - manager
sources:
  greenhouse:
    boards:
      - acme
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule.SendAt != "08:00" || cfg.Schedule.Window != 20*time.Minute {
		t.Errorf("Schedule = %+v", cfg.Schedule)
	}
	if cfg.Schedule.Timezone != "Europe/London" || cfg.Schedule.Tick != time.Minute {
		t.Errorf("Schedule = %+v", cfg.Schedule)
	}
	if cfg.Profile.MinScore != 70 || cfg.Profile.Window != 24*time.Hour {
		t.Errorf("Profile = %+v", cfg.Profile)
	}
	if filepath.Base(cfg.State.Dir) != ".rolecall" {
		t.Errorf("State.Dir = %q, want ~/.rolecall expanded", cfg.State.Dir)
	}
	if cfg.State.CacheRetention != 14*24*time.Hour {
		t.Errorf("CacheRetention = %v, want 336h", cfg.State.CacheRetention)
	}
	if cfg.Email.MaxPostings != 12 {
		t.Errorf("MaxPostings = %d, want 12", cfg.Email.MaxPostings)
	}
	if cfg.AI.BaseURL != defaultOpenAIBaseURL || cfg.AI.Timeout != 30*time.Second {
		t.Errorf("AI = %+v", cfg.AI)
	}
	if cfg.Fetch.Timeout != 30*time.Second || !cfg.Fetch.Parallel {
		t.Errorf("Fetch = %+v", cfg.Fetch)
	}
	if cfg.RateLimit.RequestsPerSecond != 1 || cfg.RateLimit.Burst != 2 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("schedule: [broken"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("ROLECALL_TEST_KEY", "sk-from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
profile:
  domain_keywords: [compliance]
  role_keywords: [manager]
sources:
  greenhouse:
    boards: [acme]
ai:
  enabled: true
  model: gpt-4o-mini
  api_key: ${ROLECALL_TEST_KEY}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AI.APIKey != "sk-from-env" {
		t.Errorf("AI.APIKey = %q, want value from environment", cfg.AI.APIKey)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{
			name: "bad send_at",
			content: `
schedule:
  send_at: "25:99"
profile:
  domain_keywords: [compliance]
  role_keywords: [manager]
sources:
  greenhouse:
    boards: [acme]
`,
		},
		{
			name: "unknown timezone",
			content: `
schedule:
  timezone: Mars/Olympus
profile:
  domain_keywords: [compliance]
  role_keywords: [manager]
sources:
  greenhouse:
    boards: [acme]
`,
		},
		{
			name: "window too short",
			content: `
schedule:
  window: 10s
profile:
  domain_keywords: [compliance]
  role_keywords: [manager]
sources:
  greenhouse:
    boards: [acme]
`,
		},
		{
			name: "zero tick",
			content: `
schedule:
  tick: 0s
profile:
  domain_keywords: [compliance]
  role_keywords: [manager]
sources:
  greenhouse:
    boards: [acme]
`,
		},
		{
			name: "no domain keywords",
			content: `
profile:
  role_keywords: [manager]
sources:
  greenhouse:
    boards: [acme]
`,
		},
		{
			name: "no role keywords",
			content: `
profile:
  domain_keywords: [compliance]
sources:
  greenhouse:
    boards: [acme]
`,
		},
		{
			name: "min_score out of range",
			content: `
profile:
  domain_keywords: [compliance]
  role_keywords: [manager]
  min_score: 150
sources:
  greenhouse:
    boards: [acme]
`,
		},
		{
			name: "bad profile window",
			content: `
profile:
  domain_keywords: [compliance]
  role_keywords: [manager]
  window: soon
sources:
  greenhouse:
    boards: [acme]
`,
		},
		{
			name: "no sources",
			content: `
profile:
  domain_keywords: [compliance]
  role_keywords: [manager]
`,
		},
		{
			name: "email enabled without smtp",
			content: `
profile:
  domain_keywords: [compliance]
  role_keywords: [manager]
sources:
  greenhouse:
    boards: [acme]
email:
  enabled: true
  from: digest@example.com
  to: [me@example.com]
`,
		},
		{
			name: "ai enabled without api key",
			content: `
profile:
  domain_keywords: [compliance]
  role_keywords: [manager]
sources:
  greenhouse:
    boards: [acme]
ai:
  enabled: true
  model: gpt-4o-mini
`,
		},
		{
			name: "zero requests per second",
			content: `
profile:
  domain_keywords: [compliance]
  role_keywords: [manager]
sources:
  greenhouse:
    boards: [acme]
rate_limit:
  requests_per_second: 0
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("Load: expected validation error")
			}
		})
	}
}
