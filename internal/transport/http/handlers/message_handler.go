package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/equilux/gridtalk/internal/service"
	"github.com/equilux/gridtalk/internal/transport/http/middleware"
	"github.com/equilux/gridtalk/pkg/validator"
)

type MessageHandler struct {
	chatService *service.ChatService
}

func NewMessageHandler(chatService *service.ChatService) *MessageHandler {
	return &MessageHandler{chatService: chatService}
}

// Send handles POST /api/v1/messages/{id} where {id} is the receiver.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	receiverID := r.PathValue("id")
	if receiverID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Missing receiver ID")
		return
	}

	var input service.SendMessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateSendMessage(input.Text, input.TradeOffer != nil, tradeOfferFields(input)); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	msg, err := h.chatService.Send(r.Context(), userID, receiverID, input)
	if err != nil {
		writeDomainError(w, "send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func tradeOfferFields(input service.SendMessageInput) validator.TradeOfferFields {
	if input.TradeOffer == nil {
		return validator.TradeOfferFields{}
	}
	return validator.TradeOfferFields{
		PricePerUnit: input.TradeOffer.PricePerUnit,
		TotalAmount:  input.TradeOffer.TotalAmount,
		StartTime:    input.TradeOffer.StartTime,
		TradeType:    string(input.TradeOffer.TradeType),
	}
}

// Thread handles GET /api/v1/messages/{id} where {id} is the peer.
func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	otherUserID := r.PathValue("id")
	if otherUserID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Missing user ID")
		return
	}

	limit := parseLimit(r)
	cursor := r.URL.Query().Get("cursor")
	oldestFirst := r.URL.Query().Get("oldest_first") == "true"

	page, err := h.chatService.Between(r.Context(), userID, otherUserID, limit, cursor, oldestFirst)
	if err != nil {
		writeDomainError(w, "list thread", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *MessageHandler) Sent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	page, err := h.chatService.SentBy(r.Context(), userID, parseLimit(r), r.URL.Query().Get("cursor"))
	if err != nil {
		writeDomainError(w, "list sent", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *MessageHandler) Received(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	page, err := h.chatService.ReceivedBy(r.Context(), userID, parseLimit(r), r.URL.Query().Get("cursor"))
	if err != nil {
		writeDomainError(w, "list received", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	summaries, err := h.chatService.RecentConversations(r.Context(), userID, parseLimit(r))
	if err != nil {
		writeDomainError(w, "list conversations", err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

func parseLimit(r *http.Request) int {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return 0
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0
	}
	return limit
}
