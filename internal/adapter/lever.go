package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rolecall/rolecall/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever posting.
type leverCategories struct {
	Location     string   `json:"location"`
	AllLocations []string `json:"allLocations"`
}

// leverJob represents a single posting in the Lever API response.
type leverJob struct {
	Text             string          `json:"text"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Categories       leverCategories `json:"categories"`
	CreatedAt        int64           `json:"createdAt"`
	HostedURL        string          `json:"hostedUrl"`
	ApplyURL         string          `json:"applyUrl"`
}

// LeverAdapter fetches postings from the Lever public postings API.
type LeverAdapter struct {
	board   string
	company string
	client  *http.Client
}

var _ model.SourceFetcher = (*LeverAdapter)(nil)

// NewLeverAdapter creates an adapter for one Lever board.
func NewLeverAdapter(board string, client *http.Client) *LeverAdapter {
	return &LeverAdapter{
		board:   board,
		company: titleFromSlug(board),
		client:  client,
	}
}

func (a *LeverAdapter) Name() string { return "lever:" + a.board }

// Fetch retrieves the board's open postings.
func (a *LeverAdapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, a.board)

	req, err := newGetRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", a.board, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", a.board, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("lever fetch for %s: unexpected status %d", a.board, resp.StatusCode),
		}
	}

	var leverJobs []leverJob
	if err := json.NewDecoder(resp.Body).Decode(&leverJobs); err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", a.board, err)
	}

	out := make([]model.RawPosting, 0, len(leverJobs))
	for _, lj := range leverJobs {
		// Prefer allLocations when present, fall back to the single location.
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}

		var postedAt *time.Time
		if lj.CreatedAt > 0 {
			t := time.UnixMilli(lj.CreatedAt).UTC()
			postedAt = &t
		}

		out = append(out, model.RawPosting{
			Title:       lj.Text,
			Company:     a.company,
			Location:    location,
			URL:         firstNonEmpty(lj.HostedURL, lj.ApplyURL),
			Description: lj.DescriptionPlain,
			PostedAt:    postedAt,
		})
	}
	return out, nil
}
