package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/CTNMhh/mpoint/internal/service"
	"github.com/CTNMhh/mpoint/internal/transport/http/middleware"
)

type ConversationHandler struct {
	conversationService *service.ConversationService
	log                 *zap.Logger
}

func NewConversationHandler(conversationService *service.ConversationService, log *zap.Logger) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService, log: log}
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	summaries, err := h.conversationService.Conversations(r.Context(), userID)
	if err != nil {
		h.log.Error("list conversations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}
