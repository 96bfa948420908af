package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/rolecall/rolecall/internal/model"
)

const rssDescLen = 500

// RSSAdapter fetches postings from an RSS or Atom job feed.
type RSSAdapter struct {
	name   string
	url    string
	client *http.Client
	parser *gofeed.Parser
}

var _ model.SourceFetcher = (*RSSAdapter)(nil)

// NewRSSAdapter creates an adapter for one feed. The name labels the
// source in logs and digests.
func NewRSSAdapter(name, url string, client *http.Client) *RSSAdapter {
	return &RSSAdapter{
		name:   name,
		url:    url,
		client: client,
		parser: gofeed.NewParser(),
	}
}

func (a *RSSAdapter) Name() string { return "rss:" + a.name }

// Fetch downloads and parses the feed.
func (a *RSSAdapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	req, err := newGetRequest(ctx, a.url)
	if err != nil {
		return nil, fmt.Errorf("rss fetch for %s: %w", a.name, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rss fetch for %s: %w", a.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("rss fetch for %s: unexpected status %d", a.name, resp.StatusCode),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rss fetch for %s: %w", a.name, err)
	}

	feed, err := a.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("rss parse for %s: %w", a.name, err)
	}

	out := make([]model.RawPosting, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || item.Title == "" {
			continue
		}

		title := item.Title
		company := itemAuthor(item)
		// Job feeds commonly format titles as "Role at Company".
		if company == "" && strings.Contains(title, " at ") {
			parts := strings.Split(title, " at ")
			if len(parts) == 2 {
				title = strings.TrimSpace(parts[0])
				company = strings.TrimSpace(parts[1])
			}
		}

		out = append(out, model.RawPosting{
			Title:       title,
			Company:     company,
			Location:    "Remote",
			URL:         item.Link,
			PostedAt:    itemPublished(item),
			Description: truncate(extractText(item.Description), rssDescLen),
		})
	}
	return out, nil
}

// itemAuthor returns the entry's author name, if any.
func itemAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return item.Authors[0].Name
	}
	if item.Author != nil {
		return item.Author.Name
	}
	return ""
}

// itemPublished prefers the published stamp, falling back to updated.
func itemPublished(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}
