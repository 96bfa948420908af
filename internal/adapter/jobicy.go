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
	jobicyBaseURL = "https://jobicy.com/api/v2/remote-jobs"
	jobicyDescLen = 500
)

// jobicyJob represents a single job in the Jobicy API response. The API
// has shipped both camelCase and plain field names, hence the pairs.
type jobicyJob struct {
	JobTitle    string `json:"jobTitle"`
	Title       string `json:"title"`
	CompanyName string `json:"companyName"`
	Company     string `json:"company"`
	JobGeo      string `json:"jobGeo"`
	Location    string `json:"location"`
	URL         string `json:"url"`
	JobURL      string `json:"jobUrl"`
	PubDate     string `json:"pubDate"`
	PostedDate  string `json:"postedDate"`
	Description string `json:"description"`
}

// jobicyResponse is the top-level Jobicy API response.
type jobicyResponse struct {
	Jobs []jobicyJob `json:"jobs"`
	Data []jobicyJob `json:"data"`
}

// JobicyAdapter fetches postings from the Jobicy remote-jobs API.
type JobicyAdapter struct {
	tag    string
	geo    string
	client *http.Client
}

var _ model.SourceFetcher = (*JobicyAdapter)(nil)

// NewJobicyAdapter creates the Jobicy adapter. Tag and geo narrow
// results server-side and may be empty.
func NewJobicyAdapter(tag, geo string, client *http.Client) *JobicyAdapter {
	return &JobicyAdapter{
		tag:    tag,
		geo:    geo,
		client: client,
	}
}

func (a *JobicyAdapter) Name() string { return "jobicy" }

// Fetch retrieves the current listing.
func (a *JobicyAdapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	u, _ := url.Parse(jobicyBaseURL)
	q := u.Query()
	if a.tag != "" {
		q.Set("tag", a.tag)
	}
	if a.geo != "" {
		q.Set("geo", a.geo)
	}
	u.RawQuery = q.Encode()

	req, err := newGetRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("jobicy fetch: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jobicy fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("jobicy fetch: unexpected status %d", resp.StatusCode),
		}
	}

	var jResp jobicyResponse
	if err := json.NewDecoder(resp.Body).Decode(&jResp); err != nil {
		return nil, fmt.Errorf("jobicy fetch: %w", err)
	}

	jobs := jResp.Jobs
	if len(jobs) == 0 {
		jobs = jResp.Data
	}

	out := make([]model.RawPosting, 0, len(jobs))
	for _, jj := range jobs {
		title := firstNonEmpty(jj.JobTitle, jj.Title)
		if title == "" {
			continue
		}
		out = append(out, model.RawPosting{
			Title:       title,
			Company:     firstNonEmpty(jj.CompanyName, jj.Company),
			Location:    firstNonEmpty(jj.JobGeo, jj.Location, "Remote"),
			URL:         firstNonEmpty(jj.URL, jj.JobURL),
			DateText:    firstNonEmpty(jj.PubDate, jj.PostedDate),
			Description: truncate(extractText(jj.Description), jobicyDescLen),
		})
	}
	return out, nil
}
