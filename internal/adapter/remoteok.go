package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rolecall/rolecall/internal/model"
)

const (
	remoteokBaseURL = "https://remoteok.com/api"
	remoteokDescLen = 500
)

// remoteokJob represents a single entry in the RemoteOK API response.
// The first array element is a legal notice without a position and is
// skipped by the empty-title check.
type remoteokJob struct {
	Position    string `json:"position"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	URL         string `json:"url"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// RemoteOKAdapter fetches postings from the RemoteOK API.
type RemoteOKAdapter struct {
	client *http.Client
}

var _ model.SourceFetcher = (*RemoteOKAdapter)(nil)

// NewRemoteOKAdapter creates the RemoteOK adapter.
func NewRemoteOKAdapter(client *http.Client) *RemoteOKAdapter {
	return &RemoteOKAdapter{client: client}
}

func (a *RemoteOKAdapter) Name() string { return "remoteok" }

// Fetch retrieves the current listing.
func (a *RemoteOKAdapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	req, err := newGetRequest(ctx, remoteokBaseURL)
	if err != nil {
		return nil, fmt.Errorf("remoteok fetch: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remoteok fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("remoteok fetch: unexpected status %d", resp.StatusCode),
		}
	}

	var rokJobs []remoteokJob
	if err := json.NewDecoder(resp.Body).Decode(&rokJobs); err != nil {
		return nil, fmt.Errorf("remoteok fetch: %w", err)
	}

	out := make([]model.RawPosting, 0, len(rokJobs))
	for _, rj := range rokJobs {
		if rj.Position == "" {
			continue
		}
		out = append(out, model.RawPosting{
			Title:       rj.Position,
			Company:     rj.Company,
			Location:    firstNonEmpty(rj.Location, "Remote"),
			URL:         rj.URL,
			DateText:    rj.Date,
			Description: truncate(extractText(rj.Description), remoteokDescLen),
		})
	}
	return out, nil
}
