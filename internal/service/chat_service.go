package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/equilux/gridtalk/internal/domain"
	"github.com/equilux/gridtalk/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Notifier pushes realtime events to connected users. Results are advisory:
// the durable write is the source of truth and a missed push is never an
// error for the triggering request.
type Notifier interface {
	NotifyNewMessage(receiverID string, msg *domain.Message) domain.DeliveryResult
	NotifyTradeResponse(senderID string, msg *domain.Message) domain.DeliveryResult
}

type ChatService struct {
	messages repository.ConversationRepository
	users    repository.UserRepository
	notifier Notifier
}

func NewChatService(messages repository.ConversationRepository, users repository.UserRepository) *ChatService {
	return &ChatService{messages: messages, users: users}
}

// SetNotifier sets the realtime notifier (optional dependency).
func (s *ChatService) SetNotifier(n Notifier) {
	s.notifier = n
}

// TradeOfferInput is the structured payload of a trade-offer message.
type TradeOfferInput struct {
	PricePerUnit float64          `json:"pricePerUnit"`
	TotalAmount  float64          `json:"totalAmount"`
	StartTime    string           `json:"startTime"`
	TradeType    domain.TradeKind `json:"tradeType"`
	TradeOfferID string           `json:"tradeOfferId,omitempty"`
}

// SendMessageInput carries exactly one of Text or TradeOffer.
type SendMessageInput struct {
	Text       string           `json:"text,omitempty"`
	TradeOffer *TradeOfferInput `json:"tradeOffer,omitempty"`
}

func (s *ChatService) ListUsers(ctx context.Context, selfID string) ([]domain.User, error) {
	return s.users.ListExcept(ctx, selfID)
}

// Send persists a new message and pushes a newMessage event to the receiver
// if they are online.
func (s *ChatService) Send(ctx context.Context, senderID, receiverID string, input SendMessageInput) (*domain.Message, error) {
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot message yourself", domain.ErrInvalidPayload)
	}

	now := domain.NowISO()
	msg := &domain.Message{
		MessageID:      uuid.NewString(),
		ConversationID: domain.ConversationID(senderID, receiverID),
		Timestamp:      now,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		CreatedAt:      now,
	}

	switch {
	case input.TradeOffer != nil && input.Text != "":
		return nil, fmt.Errorf("%w: message cannot be both text and trade offer", domain.ErrInvalidPayload)

	case input.TradeOffer != nil:
		offer := input.TradeOffer
		if offer.PricePerUnit <= 0 {
			return nil, fmt.Errorf("%w: price per unit must be positive", domain.ErrInvalidPayload)
		}
		if offer.TotalAmount <= 0 {
			return nil, fmt.Errorf("%w: total amount must be positive", domain.ErrInvalidPayload)
		}
		if _, err := domain.ParseTradeKind(string(offer.TradeType)); err != nil {
			return nil, err
		}
		msg.Type = domain.MessageTypeTradeOffer
		msg.PricePerUnit = offer.PricePerUnit
		msg.TotalAmount = offer.TotalAmount
		msg.StartTime = offer.StartTime
		msg.TradeType = offer.TradeType
		msg.TradeOfferID = offer.TradeOfferID
		msg.Status = domain.StatusPending

	case input.Text != "":
		msg.Type = domain.MessageTypeText
		msg.Text = input.Text

	default:
		return nil, fmt.Errorf("%w: message requires text or a trade offer", domain.ErrInvalidPayload)
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if res := s.notifier.NotifyNewMessage(receiverID, msg); !res.Delivered {
			log.Printf("chat: newMessage to %s not delivered: %s", receiverID, res.Reason)
		}
	}

	return msg, nil
}

// Between returns one page of the conversation with the given peer.
func (s *ChatService) Between(ctx context.Context, userID, otherUserID string, limit int, cursor string, oldestFirst bool) (*repository.Page, error) {
	page, err := s.messages.Between(ctx, userID, otherUserID, clampLimit(limit), cursor, oldestFirst)
	if err != nil {
		return nil, err
	}
	if page.Messages == nil {
		page.Messages = []domain.Message{}
	}
	return page, nil
}

func (s *ChatService) SentBy(ctx context.Context, userID string, limit int, cursor string) (*repository.Page, error) {
	page, err := s.messages.SentBy(ctx, userID, clampLimit(limit), cursor)
	if err != nil {
		return nil, err
	}
	if page.Messages == nil {
		page.Messages = []domain.Message{}
	}
	return page, nil
}

func (s *ChatService) ReceivedBy(ctx context.Context, userID string, limit int, cursor string) (*repository.Page, error) {
	page, err := s.messages.ReceivedBy(ctx, userID, clampLimit(limit), cursor)
	if err != nil {
		return nil, err
	}
	if page.Messages == nil {
		page.Messages = []domain.Message{}
	}
	return page, nil
}

func (s *ChatService) RecentConversations(ctx context.Context, userID string, limit int) ([]domain.ConversationSummary, error) {
	summaries, err := s.messages.RecentConversations(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []domain.ConversationSummary{}
	}
	return summaries, nil
}

func (s *ChatService) TradeOffers(ctx context.Context, userID string, filter repository.TradeOfferFilter) ([]domain.Message, error) {
	if filter.Role == "" {
		filter.Role = domain.RoleBoth
	}
	offers, err := s.messages.TradeOffers(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if offers == nil {
		offers = []domain.Message{}
	}
	return offers, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxPageSize {
		return defaultPageSize
	}
	return limit
}
