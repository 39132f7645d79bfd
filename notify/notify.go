// Package notify renders a run report as a chat message and delivers it.
package notify

import (
	"context"
	"strings"

	"tirebot/models"
)

// Notifier delivers a rendered message to the configured destination.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Mode selects when a run report is sent.
type Mode string

const (
	// ModeAlways sends a status message even when nothing new was found.
	ModeAlways Mode = "always"
	// ModeHits sends only when the run produced alerts.
	ModeHits Mode = "hits"
)

// ParseMode maps a config value to a Mode, defaulting to ModeAlways.
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == ModeHits {
		return ModeHits
	}
	return ModeAlways
}

// ShouldSend reports whether report warrants a message under mode.
func ShouldSend(report *models.RunReport, mode Mode) bool {
	if mode == ModeHits {
		return report != nil && len(report.Alerts) > 0
	}
	return true
}
