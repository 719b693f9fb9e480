package handlers

import (
	"net/http"

	"github.com/equilux/gridtalk/internal/service"
	"github.com/equilux/gridtalk/internal/transport/http/middleware"
)

type UserHandler struct {
	chatService *service.ChatService
}

func NewUserHandler(chatService *service.ChatService) *UserHandler {
	return &UserHandler{chatService: chatService}
}

// List returns every known user except the caller, for the chat sidebar.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	users, err := h.chatService.ListUsers(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "list users", err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}
