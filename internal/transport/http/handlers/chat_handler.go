package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CTNMhh/mpoint/internal/domain"
	"github.com/CTNMhh/mpoint/internal/service"
	"github.com/CTNMhh/mpoint/internal/transport/http/middleware"
	"github.com/CTNMhh/mpoint/pkg/validator"
)

// heartbeatInterval paces the stream's comment heartbeats, independent of
// message traffic, so idle connections survive proxies and load balancers.
const heartbeatInterval = 25 * time.Second

type ChatHandler struct {
	chatService *service.ChatService
	log         *zap.Logger
}

func NewChatHandler(chatService *service.ChatService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, log: log}
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.SendInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateMessage(input.Content); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	msg, err := h.chatService.Send(r.Context(), userID, input)
	if err != nil {
		h.writeChatError(w, "send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	peerID, ok := h.peerParam(w, r)
	if !ok {
		return
	}

	channel, messages, err := h.chatService.History(r.Context(), userID, peerID)
	if err != nil {
		h.writeChatError(w, "fetch history", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"channel":  channel,
		"messages": messages,
	})
}

// streamEvent is the envelope written onto the event stream.
type streamEvent struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message,omitempty"`
}

// Stream holds the connection open and forwards every message published on
// the pair's channel, interleaved with comment heartbeats. The subscription
// is released exactly once: on client disconnect, on any write failure, or
// when the broker evicts us. Clients reconnect by calling again; they must
// dedupe live events against their history snapshot by message id.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	peerID, ok := h.peerParam(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Streaming unsupported")
		return
	}

	sub, channel, err := h.chatService.Stream(r.Context(), userID, peerID)
	if err != nil {
		h.writeChatError(w, "open stream", err)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeSSE(w, streamEvent{Type: "ready"}); err != nil {
		return
	}
	flusher.Flush()

	h.log.Debug("chat: stream opened",
		zap.String("user", userID.String()), zap.String("key", channel.Key()))

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case msg, open := <-sub.C():
			if !open {
				// Evicted by the broker; the client reconnects with a
				// fresh subscription.
				return
			}
			if err := writeSSE(w, streamEvent{Type: "message", Message: &msg}); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *ChatHandler) UserSummary(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("userId")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "userId is required")
		return
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid userId")
		return
	}

	summary, err := h.chatService.UserSummary(r.Context(), userID)
	if err != nil {
		h.writeChatError(w, "user summary", err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// peerParam parses the peerUserId query parameter, writing the 400 itself
// when the value is missing or malformed.
func (h *ChatHandler) peerParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.URL.Query().Get("peerUserId")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PEER", "peerUserId is required")
		return uuid.Nil, false
	}
	peerID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid peerUserId")
		return uuid.Nil, false
	}
	return peerID, true
}

func (h *ChatHandler) writeChatError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrMissingPeer):
		writeError(w, http.StatusBadRequest, "MISSING_PEER", "peerUserId is required")
	case errors.Is(err, service.ErrSelfChat):
		writeError(w, http.StatusBadRequest, "SELF_NOT_ALLOWED", "Cannot chat with yourself")
	case errors.Is(err, service.ErrEmptyContent):
		writeError(w, http.StatusBadRequest, "MISSING_CONTENT", "Message content is required")
	case errors.Is(err, service.ErrMatchNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Match not found")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
	default:
		h.log.Error("chat handler error", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

func writeSSE(w http.ResponseWriter, event streamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
