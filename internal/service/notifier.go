package service

import "github.com/google/uuid"

// Notification is an advisory user alert. Losing one is acceptable; the
// persisted message is the primary effect of a send.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Link  string `json:"link"`
}

// Notifier pushes alerts to a user's live connections. Implementations are
// fire-and-forget: they must never block and never surface delivery errors
// to the caller.
type Notifier interface {
	Notify(userID uuid.UUID, n Notification)
}
