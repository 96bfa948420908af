package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rolecall/rolecall/internal/model"
)

// Meta describes the run a digest reports on. Date is the local
// calendar date in the subject; leave it empty to have Notify fill it
// at send time.
type Meta struct {
	Date          string
	Window        time.Duration
	Preferences   string
	Sources       []string
	SubjectPrefix string
}

// Digest is a fully rendered email: subject plus text and HTML bodies.
type Digest struct {
	Subject string
	Text    string
	HTML    string
}

// Compose renders the digest for a set of postings. It is pure: the
// same postings and meta always produce the same digest. An empty set
// still renders a valid "nothing matched" message.
func Compose(postings []model.Posting, meta Meta) Digest {
	subject := fmt.Sprintf("Daily Job Digest - %s", meta.Date)
	if meta.SubjectPrefix != "" {
		subject = meta.SubjectPrefix + " " + subject
	}

	return Digest{
		Subject: subject,
		Text:    composeText(postings, meta),
		HTML:    composeHTML(postings, meta),
	}
}

// topPick returns the index of the highest-scored posting, first wins
// on ties. Returns -1 for an empty set.
func topPick(postings []model.Posting) int {
	best := -1
	for i, p := range postings {
		if best == -1 || p.Score > postings[best].Score {
			best = i
		}
	}
	return best
}

// postedText renders a posting's date for display.
func postedText(p model.Posting) string {
	if p.PostedAt == nil {
		return model.Unknown
	}
	return p.PostedAt.Format("2006-01-02")
}

func windowHours(meta Meta) int {
	return int(meta.Window.Hours())
}

func composeText(postings []model.Posting, meta Meta) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Daily job digest (last %d hours).\n", windowHours(meta))
	if meta.Preferences != "" {
		fmt.Fprintf(&b, "Preferences: %s\n", meta.Preferences)
	}
	if len(meta.Sources) > 0 {
		fmt.Fprintf(&b, "Sources checked: %s\n", strings.Join(meta.Sources, ", "))
	}
	fmt.Fprintf(&b, "Roles found: %d\n\n", len(postings))

	if len(postings) == 0 {
		b.WriteString("No roles matched in this window. The next update goes out tomorrow.\n")
		return b.String()
	}

	if best := topPick(postings); best >= 0 {
		b.WriteString("Top pick:\n")
		writeTextEntry(&b, postings[best])
	}

	for _, p := range postings {
		writeTextEntry(&b, p)
	}
	return b.String()
}

func writeTextEntry(b *strings.Builder, p model.Posting) {
	fmt.Fprintf(b, "- %s | %s | %s | Source %s | Fit %d%%\n",
		p.Title, p.Company, postedText(p), p.Source, p.Score)
	if len(p.Tags) > 0 {
		fmt.Fprintf(b, "  Preference match: %s\n", strings.Join(p.Tags, ", "))
	}
	if p.Summary != "" {
		fmt.Fprintf(b, "  Summary: %s\n", p.Summary)
	}
	fmt.Fprintf(b, "  Link: %s\n\n", p.URL)
}

// fitColor picks the badge color for a fit score.
func fitColor(score int) string {
	switch {
	case score >= 85:
		return "#1B7F5D"
	case score >= 75:
		return "#2B6CB0"
	default:
		return "#8A5A0B"
	}
}

func composeHTML(postings []model.Posting, meta Meta) string {
	var b strings.Builder

	header := fmt.Sprintf("Daily Job Digest · Last %d hours", windowHours(meta))

	if len(postings) == 0 {
		b.WriteString("<div style='font-family:Arial, sans-serif; max-width:900px; margin:0 auto;'>")
		fmt.Fprintf(&b, "<h2 style='color:#0B4F8A;'>%s</h2>", header)
		writeHTMLIntro(&b, meta)
		b.WriteString("<div style='background:#F7F9FC; padding:16px; border-radius:8px;'>")
		b.WriteString("<p style='margin:0;'>No roles matched in this window. The next update goes out tomorrow.</p>")
		b.WriteString("</div></div>")
		return b.String()
	}

	best := topPick(postings)

	b.WriteString("<div style='font-family:Arial, sans-serif; max-width:1000px; margin:0 auto;'>")
	fmt.Fprintf(&b, "<h2 style='color:#0B4F8A; margin-bottom:4px;'>%s</h2>", header)
	writeHTMLIntro(&b, meta)
	fmt.Fprintf(&b, "<p style='color:#333; font-weight:bold;'>Matches found: %d</p>", len(postings))

	writeTopPickBox(&b, postings[best])

	b.WriteString("<table style='width:100%; border-collapse:collapse; font-family:Arial, sans-serif; border:1px solid #E5E9F0;'>")
	b.WriteString("<thead style='background:#F0F4F8;'><tr>")
	for _, col := range []string{"Role", "Released", "Source", "Fit", "Preference Match"} {
		fmt.Fprintf(&b, "<th style='text-align:left; padding:10px;'>%s</th>", col)
	}
	b.WriteString("</tr></thead><tbody>")

	for i, p := range postings {
		rowBG := "#FFFFFF"
		if i%2 == 1 {
			rowBG = "#F9FBFD"
		}
		badge := ""
		if i == best {
			rowBG = "#FFF3D6"
			badge = "<span style='display:inline-block; margin-left:8px; padding:2px 6px; border-radius:10px; background:#F5A623; color:#fff; font-size:11px; font-weight:bold;'>Top Pick</span>"
		}

		fmt.Fprintf(&b, "<tr style='background:%s;'>", rowBG)
		fmt.Fprintf(&b, "<td style='padding:10px;'><a href='%s' style='color:#0B4F8A; text-decoration:none;'><strong>%s</strong></a>%s",
			html.EscapeString(p.URL), html.EscapeString(p.Title), badge)
		fmt.Fprintf(&b, "<div style='color:#666; font-size:12px; margin-top:4px;'>%s · %s</div>",
			html.EscapeString(p.Company), html.EscapeString(p.Location))
		if p.Summary != "" {
			fmt.Fprintf(&b, "<div style='color:#888; font-size:12px; margin-top:4px;'>%s</div>", html.EscapeString(p.Summary))
		}
		b.WriteString("</td>")
		fmt.Fprintf(&b, "<td style='padding:10px; white-space:nowrap;'>%s</td>", postedText(p))
		fmt.Fprintf(&b, "<td style='padding:10px; color:#333;'>%s</td>", html.EscapeString(p.Source))
		fmt.Fprintf(&b, "<td style='padding:10px;'><span style='display:inline-block; padding:4px 8px; border-radius:12px; background:%s; color:#fff; font-weight:bold;'>%d%%</span></td>",
			fitColor(p.Score), p.Score)
		fmt.Fprintf(&b, "<td style='padding:10px; color:#333;'>%s</td>", html.EscapeString(strings.Join(p.Tags, ", ")))
		b.WriteString("</tr>")
	}

	b.WriteString("</tbody></table></div>")
	return b.String()
}

func writeHTMLIntro(b *strings.Builder, meta Meta) {
	if meta.Preferences != "" {
		fmt.Fprintf(b, "<p style='color:#555; margin-top:0;'>Preferences: %s</p>", html.EscapeString(meta.Preferences))
	}
	if len(meta.Sources) > 0 {
		fmt.Fprintf(b, "<p style='color:#555; margin-top:0;'>Sources checked: %s</p>", html.EscapeString(strings.Join(meta.Sources, ", ")))
	}
}

func writeTopPickBox(b *strings.Builder, p model.Posting) {
	b.WriteString("<div style='border:1px solid #F3C969; border-left:6px solid #F5A623; background:#FFF8E6; padding:12px; border-radius:8px; margin-bottom:14px;'>")
	b.WriteString("<div style='font-weight:bold; color:#8A5A0B; margin-bottom:6px;'>Top Pick</div>")
	fmt.Fprintf(b, "<div style='font-size:16px; font-weight:bold; color:#0B4F8A;'><a href='%s' style='color:#0B4F8A; text-decoration:none;'>%s</a></div>",
		html.EscapeString(p.URL), html.EscapeString(p.Title))
	fmt.Fprintf(b, "<div style='color:#555; margin-top:4px;'>%s · %s</div>",
		html.EscapeString(p.Company), html.EscapeString(p.Location))
	fmt.Fprintf(b, "<div style='margin-top:8px; color:#333;'><strong>Released:</strong> %s · <strong>Source:</strong> %s · <strong>Fit:</strong> %d%%</div>",
		postedText(p), html.EscapeString(p.Source), p.Score)
	if len(p.Tags) > 0 {
		fmt.Fprintf(b, "<div style='margin-top:8px; color:#333;'><strong>Preference match:</strong> %s</div>",
			html.EscapeString(strings.Join(p.Tags, ", ")))
	}
	if p.Summary != "" {
		fmt.Fprintf(b, "<div style='margin-top:8px; color:#333;'><strong>Summary:</strong> %s</div>",
			html.EscapeString(p.Summary))
	}
	b.WriteString("</div>")
}
