package scheduler

import (
	"fmt"
	"time"
)

// Decision is the outcome of evaluating the daily send gate.
type Decision int

const (
	// Send means the window is open and no digest went out today.
	Send Decision = iota
	// AlreadySentToday means a digest was already recorded for today.
	AlreadySentToday
	// BeforeWindow means today's send time has not been reached yet.
	BeforeWindow
	// AfterWindow means today's window was missed and catch-up is off.
	AfterWindow
)

func (d Decision) String() string {
	switch d {
	case Send:
		return "send"
	case AlreadySentToday:
		return "already_sent_today"
	case BeforeWindow:
		return "before_window"
	case AfterWindow:
		return "after_window"
	default:
		return "unknown"
	}
}

// Gate decides whether a digest may go out right now. It fires at most
// once per calendar day in its timezone: within the window around the
// configured send time, and only if no digest was sent today.
type Gate struct {
	sendHour   int
	sendMinute int
	window     time.Duration
	loc        *time.Location
	catchUp    bool
}

// NewGate creates a gate firing around sendAt ("15:04" wall clock) in
// the given timezone. With catchUp enabled a missed window still sends
// later the same day.
func NewGate(sendAt string, window time.Duration, timezone string, catchUp bool) (*Gate, error) {
	at, err := time.Parse("15:04", sendAt)
	if err != nil {
		return nil, fmt.Errorf("parse send time %q: %w", sendAt, err)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Gate{
		sendHour:   at.Hour(),
		sendMinute: at.Minute(),
		window:     window,
		loc:        loc,
		catchUp:    catchUp,
	}, nil
}

// Location returns the gate's timezone.
func (g *Gate) Location() *time.Location { return g.loc }

// Today returns the calendar date at now in the gate's timezone.
func (g *Gate) Today(now time.Time) string {
	return now.In(g.loc).Format("2006-01-02")
}

// Evaluate maps the wall clock and the last sent date onto a Decision.
// The date comparison resets the gate naturally at local midnight.
func (g *Gate) Evaluate(now time.Time, lastSentDate string) Decision {
	if lastSentDate == g.Today(now) {
		return AlreadySentToday
	}

	local := now.In(g.loc)
	target := time.Date(local.Year(), local.Month(), local.Day(), g.sendHour, g.sendMinute, 0, 0, g.loc)

	diff := local.Sub(target)
	switch {
	case diff < -g.window:
		return BeforeWindow
	case diff > g.window:
		if g.catchUp {
			return Send
		}
		return AfterWindow
	default:
		return Send
	}
}
