package ws

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub manages the platform's notification connections, one per user. It is
// an alert sink only: chat delivery goes through the broker and the stream
// endpoint, never through here.
type Hub struct {
	// clients maps userID → client. Touched only by the Run goroutine.
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	direct     chan *directMsg

	log *zap.Logger
}

type directMsg struct {
	userID uuid.UUID
	data   []byte
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan *directMsg, 256),
		log:        log,
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.userID] = client
			h.log.Info("ws hub: user connected",
				zap.String("user", client.userID.String()), zap.Int("total", len(h.clients)))
			h.broadcastPresence(client.userID, "online")

		case client := <-h.unregister:
			if _, ok := h.clients[client.userID]; ok {
				delete(h.clients, client.userID)
				close(client.send)
				close(client.done)
				h.log.Info("ws hub: user disconnected",
					zap.String("user", client.userID.String()), zap.Int("total", len(h.clients)))
				h.broadcastPresence(client.userID, "offline")
			}

		case msg := <-h.direct:
			if client, ok := h.clients[msg.userID]; ok {
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					delete(h.clients, client.userID)
					close(client.send)
					close(client.done)
				}
			}
		}
	}
}

// SendToUser queues an event for one user's connection. Offline users and
// full buffers are silently skipped; alerts are advisory.
func (h *Hub) SendToUser(userID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Warn("ws hub: marshal error", zap.Error(err))
		return
	}
	select {
	case h.direct <- &directMsg{userID: userID, data: data}:
	default:
	}
}

// broadcastPresence sends online/offline to all connected clients.
func (h *Hub) broadcastPresence(userID uuid.UUID, status string) {
	evt, err := NewEvent(EventTypePresence, PresencePayload{
		UserID: userID,
		Status: status,
	})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	for _, client := range h.clients {
		if client.userID == userID {
			continue
		}
		select {
		case client.send <- data:
		default:
		}
	}
}
