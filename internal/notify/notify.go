// Package notify delivers user notifications.
//
// Delivery is best-effort. Callers use Send, which logs failures and never
// returns them, so a broken channel cannot abort the operation that
// triggered the notification.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oggyb/matchmaker/internal/metrics"
)

type Kind string

const (
	KindNewLike    Kind = "new_like"
	KindNewMatch   Kind = "new_match"
	KindNewMessage Kind = "new_message"
)

// Notification is addressed to a single user.
type Notification struct {
	UserID string
	Kind   Kind
	Title  string
	Body   string
	Data   map[string]string
}

// Dispatcher delivers a notification over one channel.
type Dispatcher interface {
	Notify(ctx context.Context, n Notification) error
}

// Send dispatches n and logs a failure instead of returning it.
func Send(ctx context.Context, d Dispatcher, log *slog.Logger, n Notification) {
	if d == nil {
		return
	}
	if err := d.Notify(ctx, n); err != nil {
		log.Warn("notification not delivered", "user", n.UserID, "kind", n.Kind, "err", err)
	}
}

// Multi fans a notification out to every dispatcher. All of them are tried;
// their errors are joined.
type Multi []Dispatcher

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, d := range m {
		if err := d.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) error { return nil }

func observe(channel string, n Notification, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.Notifications.WithLabelValues(channel, string(n.Kind), result).Inc()
}

// NewLike builds the "someone liked you" notification.
func NewLike(to, from string) Notification {
	return Notification{
		UserID: to,
		Kind:   KindNewLike,
		Title:  "New like",
		Body:   "Someone liked your profile",
		Data:   map[string]string{"fromUserId": from},
	}
}

// NewMatch builds the notification sent to user about a match with other.
func NewMatch(user, other, matchID string) Notification {
	return Notification{
		UserID: user,
		Kind:   KindNewMatch,
		Title:  "It's a match!",
		Body:   "You have a new match",
		Data:   map[string]string{"matchId": matchID, "userId": other},
	}
}

// NewMessage builds the notification for an incoming chat message.
func NewMessage(to, from, matchID, preview string) Notification {
	if r := []rune(preview); len(r) > 80 {
		preview = string(r[:80]) + "…"
	}
	return Notification{
		UserID: to,
		Kind:   KindNewMessage,
		Title:  "New message",
		Body:   preview,
		Data:   map[string]string{"matchId": matchID, "fromUserId": from},
	}
}
