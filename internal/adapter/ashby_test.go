package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAshbyAdapter_Fetch_Success(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"title": "Payments Engineer",
				"companyName": "Flux",
				"location": "Remote - US",
				"jobUrl": "https://jobs.ashbyhq.com/flux/111",
				"applyUrl": "https://jobs.ashbyhq.com/flux/111/apply",
				"publishedAt": "2026-02-12T08:00:00Z",
				"isListed": true
			},
			{
				"title": "Hidden Role",
				"companyName": "Flux",
				"location": "Remote",
				"jobUrl": "https://jobs.ashbyhq.com/flux/222",
				"isListed": false
			}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posting-api/job-board/flux" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	adapter := newAshbyTestAdapter(srv, "flux")

	postings, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The unlisted posting is dropped.
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}

	p := postings[0]
	if p.Title != "Payments Engineer" {
		t.Errorf("expected title Payments Engineer, got %s", p.Title)
	}
	if p.Company != "Flux" {
		t.Errorf("expected company Flux, got %s", p.Company)
	}
	if p.Location != "Remote - US" {
		t.Errorf("unexpected location: %s", p.Location)
	}
	if p.URL != "https://jobs.ashbyhq.com/flux/111" {
		t.Errorf("expected jobUrl, got %s", p.URL)
	}
	if p.DateText != "2026-02-12T08:00:00Z" {
		t.Errorf("unexpected date text: %s", p.DateText)
	}
}

func TestAshbyAdapter_Fetch_PostingsShape(t *testing.T) {
	// Some boards respond with "postings" instead of "jobs" and omit
	// companyName, locationText instead of location, and createdAt
	// instead of publishedAt.
	payload := `{
		"postings": [
			{
				"title": "Fraud Analyst",
				"locationText": "London",
				"applyUrl": "https://jobs.ashbyhq.com/night-owl/333/apply",
				"createdAt": "2026-02-11T09:00:00Z"
			}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	adapter := newAshbyTestAdapter(srv, "night-owl")

	postings, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}

	p := postings[0]
	if p.Company != "Night Owl" {
		t.Errorf("expected company derived from slug, got %s", p.Company)
	}
	if p.Location != "London" {
		t.Errorf("expected locationText fallback, got %s", p.Location)
	}
	if p.URL != "https://jobs.ashbyhq.com/night-owl/333/apply" {
		t.Errorf("expected applyUrl fallback, got %s", p.URL)
	}
	if p.DateText != "2026-02-11T09:00:00Z" {
		t.Errorf("expected createdAt fallback, got %s", p.DateText)
	}
}

func TestAshbyAdapter_Fetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	adapter := newAshbyTestAdapter(srv, "missing-co")

	_, err := adapter.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for HTTP 404, got nil")
	}
}

// --- helpers ---

// newAshbyTestAdapter creates an AshbyAdapter wired to a test server.
func newAshbyTestAdapter(srv *httptest.Server, board string) *AshbyAdapter {
	return NewAshbyAdapter(board, testClient(srv))
}
