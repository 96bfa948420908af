// Package normalize converts raw adapter output into canonical postings:
// trimmed fields with placeholder fills, canonical URLs, resolved
// timestamps, and a stable identity for deduplication.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rolecall/rolecall/internal/model"
)

// Posting converts a raw listing into its canonical form. Pure: no I/O,
// same input always yields the same posting.
func Posting(raw model.RawPosting, source string, now time.Time) model.Posting {
	p := model.Posting{
		Title:       orUnknown(raw.Title),
		Company:     orUnknown(raw.Company),
		Location:    orUnknown(raw.Location),
		URL:         CanonicalURL(raw.URL),
		Source:      source,
		PostedAt:    raw.PostedAt,
		Description: strings.TrimSpace(raw.Description),
	}
	if p.PostedAt == nil {
		p.PostedAt = PostedAt(raw.DateText, now)
	}
	p.Identity = Identity(p)
	return p
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Unknown
	}
	return s
}

// CanonicalURL lowercases scheme and host, drops the fragment, strips
// tracking parameters, and re-encodes the query deterministically so the
// same listing always yields the same URL. LinkedIn URLs keep only their
// currentJobId parameter. Unparseable input is returned as-is.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" {
			q.Del(k)
		}
	}

	if strings.Contains(u.Host, "linkedin.com") {
		keep := url.Values{}
		if v := q.Get("currentJobId"); v != "" {
			keep.Set("currentJobId", v)
		}
		q = keep
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Identity returns the stable dedup key for a posting: its canonical URL,
// or a content hash over title, company and source when no URL survived.
func Identity(p model.Posting) string {
	if p.URL != "" {
		return p.URL
	}
	content := fmt.Sprintf("%s|%s|%s",
		strings.ToLower(p.Title),
		strings.ToLower(p.Company),
		p.Source)
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

var relativeRe = regexp.MustCompile(`(\d+)\+?\s*(minute|min|hour|hr|day|week|month)s?\s+ago`)

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
}

// PostedAt resolves a source's date text to a concrete time. It handles
// the relative forms job boards emit ("just now", "3 days ago"), RFC3339
// and date-only stamps, email-style dates, and unix epochs in seconds or
// milliseconds. Returns nil when the text carries no usable date.
func PostedAt(text string, now time.Time) *time.Time {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return nil
	}

	switch s {
	case "just now", "today", "new", "recently posted":
		t := now
		return &t
	case "yesterday":
		t := now.Add(-24 * time.Hour)
		return &t
	}

	if m := relativeRe.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			var d time.Duration
			switch m[2] {
			case "minute", "min":
				d = time.Duration(n) * time.Minute
			case "hour", "hr":
				d = time.Duration(n) * time.Hour
			case "day":
				d = time.Duration(n) * 24 * time.Hour
			case "week":
				d = time.Duration(n) * 7 * 24 * time.Hour
			case "month":
				d = time.Duration(n) * 30 * 24 * time.Hour
			}
			t := now.Add(-d)
			return &t
		}
	}

	// bare numbers are unix epochs, milliseconds above 1e10
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		var t time.Time
		if n > 1e10 {
			t = time.UnixMilli(n).UTC()
		} else {
			t = time.Unix(n, 0).UTC()
		}
		return &t
	}

	orig := strings.TrimSpace(text)
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, orig); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
