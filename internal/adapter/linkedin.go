package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rolecall/rolecall/internal/model"
)

const (
	linkedinSearchURL = "https://www.linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search"
	linkedinDetailURL = "https://www.linkedin.com/jobs-guest/jobs/api/jobPosting"
	linkedinPastWeek  = "r604800" // f_TPR filter: posted within 7 days
	linkedinDetailMax = 25
	linkedinDescLen   = 500
)

var linkedinPageStarts = []int{0, 25}

type linkedinCard struct {
	id      string
	posting model.RawPosting
}

// LinkedInAdapter scrapes the LinkedIn guest job search. Only the
// public guest endpoints, no login.
type LinkedInAdapter struct {
	keywords     []string
	locations    []string
	fetchDetails bool
	client       *http.Client
}

var _ model.SourceFetcher = (*LinkedInAdapter)(nil)

// NewLinkedInAdapter creates an adapter searching every keyword and
// location combination.
func NewLinkedInAdapter(keywords, locations []string, client *http.Client) *LinkedInAdapter {
	return &LinkedInAdapter{
		keywords:     keywords,
		locations:    locations,
		fetchDetails: true,
		client:       client,
	}
}

func (a *LinkedInAdapter) Name() string { return "linkedin" }

// SetFetchDetails toggles the per-posting detail requests that fill in
// descriptions.
func (a *LinkedInAdapter) SetFetchDetails(enabled bool) {
	a.fetchDetails = enabled
}

// Fetch runs all searches and merges the result cards by job ID. A page
// that fails is skipped; the fetch only errors when nothing loads at all.
func (a *LinkedInAdapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	var (
		out     []model.RawPosting
		ids     []string
		seen    = make(map[string]bool)
		lastErr error
	)

	for _, keywords := range a.keywords {
		for _, location := range a.locations {
			for _, start := range linkedinPageStarts {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				cards, err := a.fetchSearchPage(ctx, keywords, location, start)
				if err != nil {
					lastErr = err
					continue
				}
				for _, c := range cards {
					if seen[c.id] {
						continue
					}
					seen[c.id] = true
					ids = append(ids, c.id)
					out = append(out, c.posting)
				}
			}
		}
	}

	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}

	if a.fetchDetails {
		for i := range out {
			if i >= linkedinDetailMax {
				break
			}
			a.enrichDetail(ctx, ids[i], &out[i])
		}
	}
	return out, nil
}

// fetchSearchPage fetches one guest search result page and extracts its
// job cards.
func (a *LinkedInAdapter) fetchSearchPage(ctx context.Context, keywords, location string, start int) ([]linkedinCard, error) {
	u, _ := url.Parse(linkedinSearchURL)
	q := u.Query()
	q.Set("keywords", keywords)
	q.Set("location", location)
	q.Set("f_TPR", linkedinPastWeek)
	q.Set("start", fmt.Sprintf("%d", start))
	u.RawQuery = q.Encode()

	req, err := newGetRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("linkedin search %q in %q: %w", keywords, location, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("linkedin search %q in %q: %w", keywords, location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("linkedin search %q in %q: unexpected status %d", keywords, location, resp.StatusCode),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("linkedin search %q in %q: %w", keywords, location, err)
	}

	var cards []linkedinCard
	doc.Find("div.base-search-card").Each(func(_ int, card *goquery.Selection) {
		urn := card.AttrOr("data-entity-urn", "")
		parts := strings.Split(urn, ":")
		jobID := parts[len(parts)-1]
		if jobID == "" {
			return
		}

		title := cleanText(card.Find("h3.base-search-card__title").First().Text())
		company := cleanText(card.Find("h4.base-search-card__subtitle").First().Text())
		if title == "" || company == "" {
			return
		}

		timeEl := card.Find("time").First()
		dateText := firstNonEmpty(timeEl.AttrOr("datetime", ""), cleanText(timeEl.Text()))

		cards = append(cards, linkedinCard{
			id: jobID,
			posting: model.RawPosting{
				Title:    title,
				Company:  company,
				Location: cleanText(card.Find("span.job-search-card__location").First().Text()),
				URL:      card.Find("a.base-card__full-link").First().AttrOr("href", ""),
				DateText: dateText,
			},
		})
	})

	return cards, nil
}

// enrichDetail loads the posting's guest detail page for its description
// and a better location. Best effort, failures leave the card as-is.
func (a *LinkedInAdapter) enrichDetail(ctx context.Context, jobID string, p *model.RawPosting) {
	req, err := newGetRequest(ctx, fmt.Sprintf("%s/%s", linkedinDetailURL, jobID))
	if err != nil {
		return
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return
	}

	if desc := cleanText(doc.Find("div.show-more-less-html__markup").First().Text()); desc != "" {
		p.Description = truncate(desc, linkedinDescLen)
	}
	if loc := cleanText(doc.Find("span.topcard__flavor--bullet").First().Text()); loc != "" {
		p.Location = loc
	}
	if p.DateText == "" {
		p.DateText = cleanText(doc.Find("span.posted-time-ago__text").First().Text())
	}
}
