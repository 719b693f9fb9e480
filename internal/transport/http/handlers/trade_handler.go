package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/equilux/gridtalk/internal/domain"
	"github.com/equilux/gridtalk/internal/repository"
	"github.com/equilux/gridtalk/internal/service"
	"github.com/equilux/gridtalk/internal/transport/http/middleware"
	"github.com/equilux/gridtalk/pkg/validator"
)

type TradeHandler struct {
	chatService  *service.ChatService
	tradeService *service.TradeService
}

func NewTradeHandler(chatService *service.ChatService, tradeService *service.TradeService) *TradeHandler {
	return &TradeHandler{chatService: chatService, tradeService: tradeService}
}

type respondInput struct {
	Action string `json:"action"`
	service.CounterInput
}

// Respond handles POST /api/v1/trade-offers/{id}/respond.
func (h *TradeHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID := r.PathValue("id")
	if messageID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Missing message ID")
		return
	}

	var input respondInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateTradeResponse(input.Action, input.PricePerUnit, input.TotalAmount); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	action, err := domain.ParseTradeAction(input.Action)
	if err != nil {
		writeDomainError(w, "respond to trade offer", err)
		return
	}

	msg, err := h.tradeService.Respond(r.Context(), messageID, userID, action, input.CounterInput)
	if err != nil {
		writeDomainError(w, "respond to trade offer", err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// List handles GET /api/v1/trade-offers?role=&status=&type=.
func (h *TradeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	q := r.URL.Query()

	role, err := domain.ParseTradeRole(q.Get("role"))
	if err != nil {
		writeDomainError(w, "list trade offers", err)
		return
	}

	filter := repository.TradeOfferFilter{Role: role}

	if statusStr := q.Get("status"); statusStr != "" {
		status, err := domain.ParseTradeStatus(statusStr)
		if err != nil {
			writeDomainError(w, "list trade offers", err)
			return
		}
		filter.Status = status
	}

	if kindStr := q.Get("type"); kindStr != "" {
		kind, err := domain.ParseTradeKind(kindStr)
		if err != nil {
			writeDomainError(w, "list trade offers", err)
			return
		}
		filter.Kind = kind
	}

	offers, err := h.chatService.TradeOffers(r.Context(), userID, filter)
	if err != nil {
		writeDomainError(w, "list trade offers", err)
		return
	}

	writeJSON(w, http.StatusOK, offers)
}
