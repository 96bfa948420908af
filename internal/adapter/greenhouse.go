package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rolecall/rolecall/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	UpdatedAt   string             `json:"updated_at"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches postings from the Greenhouse public boards API.
type GreenhouseAdapter struct {
	board   string
	company string
	client  *http.Client
}

var _ model.SourceFetcher = (*GreenhouseAdapter)(nil)

// NewGreenhouseAdapter creates an adapter for one Greenhouse board.
func NewGreenhouseAdapter(board string, client *http.Client) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		board:   board,
		company: titleFromSlug(board),
		client:  client,
	}
}

func (a *GreenhouseAdapter) Name() string { return "greenhouse:" + a.board }

// Fetch retrieves the board's open postings.
func (a *GreenhouseAdapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	url := fmt.Sprintf("%s/%s/jobs", greenhouseBaseURL, a.board)

	req, err := newGetRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.board, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.board, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("greenhouse fetch for %s: unexpected status %d", a.board, resp.StatusCode),
		}
	}

	var ghResp greenhouseResponse
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.board, err)
	}

	out := make([]model.RawPosting, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		out = append(out, model.RawPosting{
			Title:    gj.Title,
			Company:  a.company,
			Location: gj.Location.Name,
			URL:      gj.AbsoluteURL,
			DateText: gj.UpdatedAt,
		})
	}
	return out, nil
}
