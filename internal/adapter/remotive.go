package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rolecall/rolecall/internal/model"
)

const (
	remotiveBaseURL = "https://remotive.com/api/remote-jobs"
	remotiveDescLen = 500
)

// remotiveJob represents a single job in the Remotive API response.
type remotiveJob struct {
	Title                     string `json:"title"`
	CompanyName               string `json:"company_name"`
	CandidateRequiredLocation string `json:"candidate_required_location"`
	URL                       string `json:"url"`
	PublicationDate           string `json:"publication_date"`
	Description               string `json:"description"`
}

// remotiveResponse is the top-level Remotive API response.
type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

// RemotiveAdapter fetches postings from the Remotive remote-jobs API.
type RemotiveAdapter struct {
	search string
	client *http.Client
}

var _ model.SourceFetcher = (*RemotiveAdapter)(nil)

// NewRemotiveAdapter creates the Remotive adapter. The search term
// narrows results server-side and may be empty.
func NewRemotiveAdapter(search string, client *http.Client) *RemotiveAdapter {
	return &RemotiveAdapter{
		search: search,
		client: client,
	}
}

func (a *RemotiveAdapter) Name() string { return "remotive" }

// Fetch retrieves the current remote-jobs listing.
func (a *RemotiveAdapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	u, _ := url.Parse(remotiveBaseURL)
	if a.search != "" {
		q := u.Query()
		q.Set("search", a.search)
		u.RawQuery = q.Encode()
	}

	req, err := newGetRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("remotive fetch: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remotive fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("remotive fetch: unexpected status %d", resp.StatusCode),
		}
	}

	var rResp remotiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&rResp); err != nil {
		return nil, fmt.Errorf("remotive fetch: %w", err)
	}

	out := make([]model.RawPosting, 0, len(rResp.Jobs))
	for _, rj := range rResp.Jobs {
		if rj.Title == "" {
			continue
		}
		out = append(out, model.RawPosting{
			Title:       rj.Title,
			Company:     rj.CompanyName,
			Location:    firstNonEmpty(rj.CandidateRequiredLocation, "Remote"),
			URL:         rj.URL,
			DateText:    rj.PublicationDate,
			Description: truncate(extractText(rj.Description), remotiveDescLen),
		})
	}
	return out, nil
}
