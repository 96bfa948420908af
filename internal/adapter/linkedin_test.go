package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const linkedinSearchFixture = `<ul class="jobs-search__results-list">
  <li>
    <div class="base-search-card base-search-card--link" data-entity-urn="urn:li:jobPosting:4111111111">
      <a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/payments-compliance-manager-4111111111">Payments Compliance Manager</a>
      <h3 class="base-search-card__title">
        Payments Compliance Manager
      </h3>
      <h4 class="base-search-card__subtitle">
        Nova Bank
      </h4>
      <span class="job-search-card__location">London, England, United Kingdom</span>
      <time class="job-search-card__listdate" datetime="2026-02-10">3 days ago</time>
    </div>
  </li>
  <li>
    <div class="base-search-card base-search-card--link" data-entity-urn="urn:li:jobPosting:4222222222">
      <a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/fraud-strategy-lead-4222222222">Fraud Strategy Lead</a>
      <h3 class="base-search-card__title">Fraud Strategy Lead</h3>
      <h4 class="base-search-card__subtitle">Atlas Pay</h4>
      <span class="job-search-card__location">Remote</span>
      <time>1 week ago</time>
    </div>
  </li>
  <li>
    <div class="base-search-card">
      <h3 class="base-search-card__title">No Urn Role</h3>
      <h4 class="base-search-card__subtitle">Some Co</h4>
    </div>
  </li>
  <li>
    <div class="base-search-card" data-entity-urn="urn:li:jobPosting:4333333333">
      <h3 class="base-search-card__title">No Company Role</h3>
      <h4 class="base-search-card__subtitle"></h4>
    </div>
  </li>
</ul>`

func TestLinkedInAdapter_Fetch(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Query().Get("f_TPR") != "r604800" {
			t.Errorf("expected f_TPR=r604800, got %s", r.URL.Query().Get("f_TPR"))
		}
		w.Write([]byte(linkedinSearchFixture))
	}))
	defer srv.Close()

	adapter := newLinkedInTestAdapter(srv, []string{"compliance manager"}, []string{"United Kingdom"})
	adapter.SetFetchDetails(false)

	postings, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Both result pages are requested and serve the same cards, which
	// collapse by job ID. Cards without an urn or company are dropped.
	if requests != 2 {
		t.Errorf("expected 2 page requests, got %d", requests)
	}
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}

	p := postings[0]
	if p.Title != "Payments Compliance Manager" {
		t.Errorf("unexpected title: %q", p.Title)
	}
	if p.Company != "Nova Bank" {
		t.Errorf("unexpected company: %q", p.Company)
	}
	if p.Location != "London, England, United Kingdom" {
		t.Errorf("unexpected location: %q", p.Location)
	}
	if p.URL != "https://www.linkedin.com/jobs/view/payments-compliance-manager-4111111111" {
		t.Errorf("unexpected URL: %s", p.URL)
	}
	// The datetime attribute wins over the element text.
	if p.DateText != "2026-02-10" {
		t.Errorf("unexpected date text: %q", p.DateText)
	}

	// The second card's time element has no datetime attribute.
	if postings[1].DateText != "1 week ago" {
		t.Errorf("expected text fallback, got %q", postings[1].DateText)
	}
}

func TestLinkedInAdapter_Fetch_DetailEnrichment(t *testing.T) {
	searchFixture := `<div class="base-search-card" data-entity-urn="urn:li:jobPosting:4444444444">
	  <h3 class="base-search-card__title">Onboarding Product Manager</h3>
	  <h4 class="base-search-card__subtitle">Canal</h4>
	  <a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/4444444444">view</a>
	</div>`
	detailFixture := `<section>
	  <div class="show-more-less-html__markup"><p>Build the onboarding flow for regulated customers.</p></div>
	  <span class="topcard__flavor--bullet">Amsterdam, North Holland, Netherlands</span>
	  <span class="posted-time-ago__text">2 weeks ago</span>
	</section>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "jobPosting") {
			if !strings.HasSuffix(r.URL.Path, "/4444444444") {
				t.Errorf("unexpected detail path: %s", r.URL.Path)
			}
			w.Write([]byte(detailFixture))
			return
		}
		w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	adapter := newLinkedInTestAdapter(srv, []string{"onboarding"}, []string{"Netherlands"})

	postings, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}

	p := postings[0]
	if p.Description != "Build the onboarding flow for regulated customers." {
		t.Errorf("expected description from detail page, got %q", p.Description)
	}
	if p.Location != "Amsterdam, North Holland, Netherlands" {
		t.Errorf("expected location from detail page, got %q", p.Location)
	}
	// The search card had no time element, so the detail page fills it.
	if p.DateText != "2 weeks ago" {
		t.Errorf("expected date text from detail page, got %q", p.DateText)
	}
}

func TestLinkedInAdapter_Fetch_AllPagesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := newLinkedInTestAdapter(srv, []string{"risk"}, []string{"Remote"})
	adapter.SetFetchDetails(false)

	if _, err := adapter.Fetch(context.Background()); err == nil {
		t.Fatal("expected error when every page fails, got nil")
	}
}

func TestLinkedInAdapter_Fetch_PartialPageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") != "0" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(linkedinSearchFixture))
	}))
	defer srv.Close()

	adapter := newLinkedInTestAdapter(srv, []string{"fraud"}, []string{"Remote"})
	adapter.SetFetchDetails(false)

	postings, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("expected partial results despite a failed page, got error: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}
}

// --- helpers ---

// newLinkedInTestAdapter creates a LinkedInAdapter wired to a test server.
func newLinkedInTestAdapter(srv *httptest.Server, keywords, locations []string) *LinkedInAdapter {
	return NewLinkedInAdapter(keywords, locations, testClient(srv))
}
