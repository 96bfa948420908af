package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rolecall/rolecall/internal/model"
)

const (
	smartRecruitersBaseURL   = "https://api.smartrecruiters.com/v1/companies"
	smartRecruitersPostings  = "https://jobs.smartrecruiters.com"
	smartRecruitersPageSize  = 100
	smartRecruitersMaxOffset = 5000 // hard cap on pagination depth
)

// smartRecruitersPosting represents a single posting in the
// SmartRecruiters API response.
type smartRecruitersPosting struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	ReleasedDate string                  `json:"releasedDate"`
	Company      smartRecruitersCompany  `json:"company"`
	Location     smartRecruitersLocation `json:"location"`
}

type smartRecruitersCompany struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
}

type smartRecruitersLocation struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Remote  bool   `json:"remote"`
}

// smartRecruitersResponse is the paginated postings API response.
type smartRecruitersResponse struct {
	Content    []smartRecruitersPosting `json:"content"`
	TotalFound int                      `json:"totalFound"`
}

// SmartRecruitersAdapter fetches postings from the SmartRecruiters
// public postings API.
type SmartRecruitersAdapter struct {
	company string
	query   string
	client  *http.Client
}

var _ model.SourceFetcher = (*SmartRecruitersAdapter)(nil)

// NewSmartRecruitersAdapter creates an adapter for one SmartRecruiters
// company. The query narrows results server-side and may be empty.
func NewSmartRecruitersAdapter(company, query string, client *http.Client) *SmartRecruitersAdapter {
	return &SmartRecruitersAdapter{
		company: company,
		query:   query,
		client:  client,
	}
}

func (a *SmartRecruitersAdapter) Name() string { return "smartrecruiters:" + a.company }

// Fetch pages through the company's postings until totalFound is reached
// or the offset cap is hit.
func (a *SmartRecruitersAdapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	var out []model.RawPosting
	offset := 0

	for {
		postings, totalFound, err := a.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		if len(postings) == 0 {
			break
		}

		for _, sp := range postings {
			if sp.Name == "" {
				continue
			}
			out = append(out, a.rawFromPosting(sp))
		}

		offset += smartRecruitersPageSize
		if offset >= totalFound || offset >= smartRecruitersMaxOffset {
			break
		}
	}
	return out, nil
}

// fetchPage fetches a single page of postings at the given offset.
func (a *SmartRecruitersAdapter) fetchPage(ctx context.Context, offset int) ([]smartRecruitersPosting, int, error) {
	u, _ := url.Parse(fmt.Sprintf("%s/%s/postings", smartRecruitersBaseURL, a.company))
	q := u.Query()
	q.Set("limit", fmt.Sprintf("%d", smartRecruitersPageSize))
	q.Set("offset", fmt.Sprintf("%d", offset))
	if a.query != "" {
		q.Set("q", a.query)
	}
	u.RawQuery = q.Encode()

	req, err := newGetRequest(ctx, u.String())
	if err != nil {
		return nil, 0, fmt.Errorf("smartrecruiters fetch for %s (offset=%d): %w", a.company, offset, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("smartrecruiters fetch for %s (offset=%d): %w", a.company, offset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("smartrecruiters fetch for %s (offset=%d): unexpected status %d", a.company, offset, resp.StatusCode),
		}
	}

	var srResp smartRecruitersResponse
	if err := json.NewDecoder(resp.Body).Decode(&srResp); err != nil {
		return nil, 0, fmt.Errorf("smartrecruiters fetch for %s (offset=%d): %w", a.company, offset, err)
	}

	return srResp.Content, srResp.TotalFound, nil
}

// rawFromPosting maps one API posting onto the raw model.
func (a *SmartRecruitersAdapter) rawFromPosting(sp smartRecruitersPosting) model.RawPosting {
	location := ""
	if sp.Location.Remote {
		location = "Remote"
	} else {
		parts := make([]string, 0, 3)
		for _, p := range []string{sp.Location.City, sp.Location.Region, sp.Location.Country} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		location = strings.Join(parts, ", ")
	}

	identifier := firstNonEmpty(sp.Company.Identifier, a.company)
	link := ""
	if sp.ID != "" {
		link = fmt.Sprintf("%s/%s/%s", smartRecruitersPostings, identifier, sp.ID)
	}

	return model.RawPosting{
		Title:    sp.Name,
		Company:  firstNonEmpty(sp.Company.Name, titleFromSlug(a.company)),
		Location: location,
		URL:      link,
		DateText: sp.ReleasedDate,
	}
}
