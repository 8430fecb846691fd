// Package notify is the notification boundary. Notifications are
// fire-and-forget: sends are best-effort, failures are logged and never
// propagated, and an unconfigured notifier silently suppresses display
// without affecting in-app bubble state.
package notify

import (
	"context"
	"log/slog"
)

// Notification is one system notification request.
type Notification struct {
	// Title is the headline, usually carrying the character name.
	Title string
	// Body is the generated dialogue text.
	Body string
	// IconURL references the character image, when the sink can show one.
	IconURL string
}

// Notifier delivers notifications. Implementations MUST NOT block the caller
// beyond a short timeout and MUST NOT surface send failures.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NopNotifier drops every notification. Used when no sink is configured,
// mirroring a denied notification permission.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) {}

// LogNotifier writes notifications to the log. Useful in development and as
// a visible trace of what a real sink would have shown.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) {
	slog.Info("notification", "title", n.Title, "body", n.Body)
}
