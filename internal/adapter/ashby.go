package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rolecall/rolecall/internal/model"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

// ashbyJob represents a single job in the Ashby API response. Field
// names vary across board versions, hence the fallback pairs.
type ashbyJob struct {
	Title        string `json:"title"`
	CompanyName  string `json:"companyName"`
	Location     string `json:"location"`
	LocationText string `json:"locationText"`
	JobURL       string `json:"jobUrl"`
	ApplyURL     string `json:"applyUrl"`
	PublishedAt  string `json:"publishedAt"`
	CreatedAt    string `json:"createdAt"`
	IsListed     *bool  `json:"isListed"`
}

// ashbyResponse is the top-level Ashby job board API response.
type ashbyResponse struct {
	Jobs     []ashbyJob `json:"jobs"`
	Postings []ashbyJob `json:"postings"`
}

// AshbyAdapter fetches postings from the Ashby public job board API.
type AshbyAdapter struct {
	board  string
	client *http.Client
}

var _ model.SourceFetcher = (*AshbyAdapter)(nil)

// NewAshbyAdapter creates an adapter for one Ashby job board.
func NewAshbyAdapter(board string, client *http.Client) *AshbyAdapter {
	return &AshbyAdapter{
		board:  board,
		client: client,
	}
}

func (a *AshbyAdapter) Name() string { return "ashby:" + a.board }

// Fetch retrieves the board's listed postings.
func (a *AshbyAdapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	url := fmt.Sprintf("%s/%s", ashbyBaseURL, a.board)

	req, err := newGetRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("ashby fetch for %s: %w", a.board, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ashby fetch for %s: %w", a.board, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("ashby fetch for %s: unexpected status %d", a.board, resp.StatusCode),
		}
	}

	var ashbyResp ashbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&ashbyResp); err != nil {
		return nil, fmt.Errorf("ashby fetch for %s: %w", a.board, err)
	}

	jobs := ashbyResp.Jobs
	if len(jobs) == 0 {
		jobs = ashbyResp.Postings
	}

	out := make([]model.RawPosting, 0, len(jobs))
	for _, aj := range jobs {
		if aj.IsListed != nil && !*aj.IsListed {
			continue
		}
		out = append(out, model.RawPosting{
			Title:    aj.Title,
			Company:  firstNonEmpty(aj.CompanyName, titleFromSlug(a.board)),
			Location: firstNonEmpty(aj.Location, aj.LocationText),
			URL:      firstNonEmpty(aj.JobURL, aj.ApplyURL),
			DateText: firstNonEmpty(aj.PublishedAt, aj.CreatedAt),
		})
	}
	return out, nil
}
