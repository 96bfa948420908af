package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/rolecall/rolecall/internal/model"
)

// Ensure EmailNotifier implements model.Notifier.
var _ model.Notifier = (*EmailNotifier)(nil)

// EmailConfig holds the SMTP settings for sending digests.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Timeout  time.Duration
}

// EmailNotifier renders the digest and sends it over SMTP with
// STARTTLS. An empty posting set still sends the "nothing matched"
// digest; skipping empty days is the caller's decision.
type EmailNotifier struct {
	cfg    EmailConfig
	meta   Meta
	logger *slog.Logger
}

// NewEmailNotifier returns a notifier that emails the daily digest.
// meta carries the static run description (window, preferences,
// sources); the date is stamped at send time.
func NewEmailNotifier(cfg EmailConfig, meta Meta, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		meta:   meta,
		logger: logger,
	}
}

// Notify composes and sends the digest. Any failure to build or
// deliver the message comes back as a model.SendError so the caller
// knows nothing was delivered and state must not advance.
func (n *EmailNotifier) Notify(postings []model.Posting) error {
	meta := n.meta
	if meta.Date == "" {
		meta.Date = time.Now().Format("2006-01-02")
	}
	digest := Compose(postings, meta)

	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return &model.SendError{Err: fmt.Errorf("set from address: %w", err)}
	}
	if err := msg.To(n.cfg.To...); err != nil {
		return &model.SendError{Err: fmt.Errorf("set to addresses: %w", err)}
	}
	msg.Subject(digest.Subject)
	msg.SetBodyString(mail.TypeTextPlain, digest.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, digest.HTML)

	client, err := mail.NewClient(n.cfg.Host,
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return &model.SendError{Err: fmt.Errorf("smtp client: %w", err)}
	}

	timeout := n.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &model.SendError{Err: fmt.Errorf("send digest: %w", err)}
	}

	n.logger.Info("digest email sent",
		"subject", digest.Subject,
		"postings", len(postings),
		"to", strings.Join(n.cfg.To, ", "),
	)
	return nil
}

// SendTestMessage sends a one-posting digest to verify delivery works.
func SendTestMessage(n model.Notifier) error {
	now := time.Now()
	testPosting := model.Posting{
		Identity: "test-001",
		Title:    "Test Digest Entry",
		Company:  "Rolecall",
		Location: "Everywhere",
		URL:      "https://example.com/jobs/test",
		Source:   "test",
		PostedAt: &now,
		Score:    90,
		Tags:     []string{"delivery check"},
	}
	return n.Notify([]model.Posting{testPosting})
}
