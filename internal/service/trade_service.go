package service

import (
	"context"
	"fmt"
	"log"

	"github.com/equilux/gridtalk/internal/domain"
	"github.com/equilux/gridtalk/internal/repository"
)

// TradeService is the negotiation state machine over trade-offer messages.
// An offer starts pending; accept and reject move it to a terminal state,
// while counter moves it to negotiating, which re-enters on every further
// counter. Only the offer's receiver may respond; terminal states admit no
// further transition.
type TradeService struct {
	messages repository.ConversationRepository
	notifier Notifier
}

func NewTradeService(messages repository.ConversationRepository) *TradeService {
	return &TradeService{messages: messages}
}

func (s *TradeService) SetNotifier(n Notifier) {
	s.notifier = n
}

// CounterInput carries the new terms of a counter-offer. StartTime and
// TradeType default to the offer's start time and the inverted trade
// direction when omitted.
type CounterInput struct {
	PricePerUnit float64          `json:"pricePerUnit"`
	TotalAmount  float64          `json:"totalAmount"`
	StartTime    string           `json:"startTime,omitempty"`
	TradeType    domain.TradeKind `json:"tradeType,omitempty"`
}

// Respond applies the receiver's response to a trade offer and notifies the
// original sender. Rule order: existence, message kind, authorization,
// state, then the action itself.
func (s *TradeService) Respond(ctx context.Context, messageID, responderID string, action domain.TradeAction, payload CounterInput) (*domain.Message, error) {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if msg.Type != domain.MessageTypeTradeOffer {
		return nil, fmt.Errorf("%w: message %s is not a trade offer", domain.ErrWrongMessageType, messageID)
	}
	if msg.ReceiverID != responderID {
		return nil, fmt.Errorf("%w: only the offer recipient may respond", domain.ErrUnauthorized)
	}
	if !msg.Status.Actionable() {
		return nil, fmt.Errorf("%w: offer is already %s", domain.ErrInvalidTransition, msg.Status)
	}

	now := domain.NowISO()
	upd := repository.ResponseUpdate{
		UpdatedAt:         now,
		ResponseTimestamp: now,
	}

	switch action {
	case domain.ActionAccept:
		upd.Status = domain.StatusAccepted
		upd.AcceptedAt = now

	case domain.ActionReject:
		upd.Status = domain.StatusRejected
		upd.RejectedAt = now

	case domain.ActionCounter:
		proposal, err := buildCounterProposal(msg, responderID, now, payload)
		if err != nil {
			return nil, err
		}
		upd.Status = domain.StatusNegotiating
		upd.CurrentProposal = proposal
		upd.CounterOffer = proposal
		upd.HistoryEntry = proposal

	default:
		return nil, fmt.Errorf("%w: unknown trade action %q", domain.ErrInvalidPayload, action)
	}

	updated, err := s.messages.ApplyResponse(ctx, msg, upd)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if res := s.notifier.NotifyTradeResponse(msg.SenderID, updated); !res.Delivered {
			log.Printf("trade: tradeResponse to %s not delivered: %s", msg.SenderID, res.Reason)
		}
	}

	return updated, nil
}

func buildCounterProposal(msg *domain.Message, responderID, now string, payload CounterInput) (*domain.Proposal, error) {
	if payload.PricePerUnit <= 0 {
		return nil, fmt.Errorf("%w: counter offer requires a positive price per unit", domain.ErrInvalidPayload)
	}
	if payload.TotalAmount <= 0 {
		return nil, fmt.Errorf("%w: counter offer requires a positive total amount", domain.ErrInvalidPayload)
	}

	startTime := payload.StartTime
	if startTime == "" {
		startTime = msg.StartTime
	}

	tradeType := payload.TradeType
	if tradeType == "" {
		tradeType = msg.TradeType.Invert()
	} else if _, err := domain.ParseTradeKind(string(tradeType)); err != nil {
		return nil, err
	}

	return &domain.Proposal{
		ProposerID:   responderID,
		Timestamp:    now,
		PricePerUnit: payload.PricePerUnit,
		TotalAmount:  payload.TotalAmount,
		StartTime:    startTime,
		TradeType:    tradeType,
	}, nil
}
