package ws

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CTNMhh/mpoint/internal/service"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
	log *zap.Logger
}

func NewHubNotifier(hub *Hub, log *zap.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, log: log}
}

func (n *HubNotifier) Notify(userID uuid.UUID, notification service.Notification) {
	evt, err := NewEvent(EventTypeNotification, NotificationPayload{
		Title: notification.Title,
		Body:  notification.Body,
		Link:  notification.Link,
	})
	if err != nil {
		n.log.Warn("ws notifier: marshal error", zap.Error(err))
		return
	}
	n.hub.SendToUser(userID, evt)
}
