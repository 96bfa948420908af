package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSmartRecruitersAdapter_Fetch_Paginates(t *testing.T) {
	var offsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/companies/bolt/postings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "100" {
			t.Errorf("expected limit=100, got %s", r.URL.Query().Get("limit"))
		}
		if r.URL.Query().Get("q") != "compliance" {
			t.Errorf("expected q=compliance, got %s", r.URL.Query().Get("q"))
		}

		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)

		w.Header().Set("Content-Type", "application/json")
		if offset == "0" {
			w.Write([]byte(`{
				"totalFound": 150,
				"content": [
					{
						"id": "744000057",
						"name": "KYC Operations Lead",
						"releasedDate": "2026-02-10T12:00:00.000Z",
						"company": {"name": "Bolt", "identifier": "bolt"},
						"location": {"city": "Dublin", "country": "Ireland", "remote": false}
					},
					{
						"id": "744000058",
						"name": "Compliance Analyst",
						"releasedDate": "2026-02-11T12:00:00.000Z",
						"company": {"name": "Bolt", "identifier": "bolt"},
						"location": {"remote": true}
					}
				]
			}`))
			return
		}
		w.Write([]byte(`{
			"totalFound": 150,
			"content": [
				{
					"id": "744000059",
					"name": "Sanctions Specialist",
					"releasedDate": "2026-02-12T12:00:00.000Z",
					"company": {"name": "Bolt", "identifier": "bolt"},
					"location": {"city": "Tallinn", "region": "Harjumaa", "country": "Estonia", "remote": false}
				}
			]
		}`))
	}))
	defer srv.Close()

	adapter := newSmartRecruitersTestAdapter(srv, "bolt", "compliance")

	postings, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 3 {
		t.Fatalf("expected 3 postings, got %d", len(postings))
	}
	if fmt.Sprintf("%v", offsets) != "[0 100]" {
		t.Errorf("expected offsets [0 100], got %v", offsets)
	}

	p := postings[0]
	if p.Title != "KYC Operations Lead" {
		t.Errorf("unexpected title: %s", p.Title)
	}
	if p.Company != "Bolt" {
		t.Errorf("unexpected company: %s", p.Company)
	}
	if p.Location != "Dublin, Ireland" {
		t.Errorf("expected joined location, got %s", p.Location)
	}
	if p.URL != "https://jobs.smartrecruiters.com/bolt/744000057" {
		t.Errorf("unexpected URL: %s", p.URL)
	}
	if p.DateText != "2026-02-10T12:00:00.000Z" {
		t.Errorf("unexpected date text: %s", p.DateText)
	}

	if postings[1].Location != "Remote" {
		t.Errorf("expected Remote for remote posting, got %s", postings[1].Location)
	}
	if postings[2].Location != "Tallinn, Harjumaa, Estonia" {
		t.Errorf("expected three-part location, got %s", postings[2].Location)
	}
}

func TestSmartRecruitersAdapter_Fetch_StopsOnEmptyPage(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		// totalFound overstates what the API will actually return.
		w.Write([]byte(`{"totalFound": 900, "content": []}`))
	}))
	defer srv.Close()

	adapter := newSmartRecruitersTestAdapter(srv, "ghost", "")

	postings, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 0 {
		t.Fatalf("expected 0 postings, got %d", len(postings))
	}
	if requests != 1 {
		t.Errorf("expected 1 request, got %d", requests)
	}
}

func TestSmartRecruitersAdapter_Fetch_SkipsUnnamed(t *testing.T) {
	payload := `{
		"totalFound": 2,
		"content": [
			{"id": "1", "name": "", "company": {"name": "Acme"}},
			{"id": "2", "name": "Real Posting", "company": {"name": "Acme"}}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	adapter := newSmartRecruitersTestAdapter(srv, "acme", "")

	postings, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}
	if postings[0].Title != "Real Posting" {
		t.Errorf("unexpected title: %s", postings[0].Title)
	}
}

func TestSmartRecruitersAdapter_Fetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	adapter := newSmartRecruitersTestAdapter(srv, "down-co", "")

	_, err := adapter.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for HTTP 503, got nil")
	}
}

// --- helpers ---

// newSmartRecruitersTestAdapter creates an adapter wired to a test server.
func newSmartRecruitersTestAdapter(srv *httptest.Server, company, query string) *SmartRecruitersAdapter {
	return NewSmartRecruitersAdapter(company, query, testClient(srv))
}
