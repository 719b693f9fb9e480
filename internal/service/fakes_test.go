package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/equilux/gridtalk/internal/domain"
	"github.com/equilux/gridtalk/internal/repository"
)

// fakeConversationRepo keeps messages in insertion order and pages with
// offset cursors, mirroring the store contract closely enough for the
// service tests: stable sort-key ordering with insertion order breaking ties.
type fakeConversationRepo struct {
	messages  []domain.Message
	createErr error
	applyErr  error
}

func (f *fakeConversationRepo) Create(_ context.Context, msg *domain.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeConversationRepo) Between(_ context.Context, userA, userB string, limit int, cursor string, oldestFirst bool) (*repository.Page, error) {
	conversationID := domain.ConversationID(userA, userB)
	var matched []domain.Message
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID {
			matched = append(matched, msg)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if oldestFirst {
			return matched[i].Timestamp < matched[j].Timestamp
		}
		return matched[i].Timestamp > matched[j].Timestamp
	})
	return paginate(matched, limit, cursor)
}

func (f *fakeConversationRepo) FindByID(_ context.Context, messageID string) (*domain.Message, error) {
	for i := range f.messages {
		if f.messages[i].MessageID == messageID {
			msg := f.messages[i]
			return &msg, nil
		}
	}
	return nil, fmt.Errorf("%w: message %s", domain.ErrNotFound, messageID)
}

func (f *fakeConversationRepo) SentBy(_ context.Context, userID string, limit int, cursor string) (*repository.Page, error) {
	return f.byParticipant(userID, limit, cursor, func(m domain.Message) string { return m.SenderID })
}

func (f *fakeConversationRepo) ReceivedBy(_ context.Context, userID string, limit int, cursor string) (*repository.Page, error) {
	return f.byParticipant(userID, limit, cursor, func(m domain.Message) string { return m.ReceiverID })
}

func (f *fakeConversationRepo) byParticipant(userID string, limit int, cursor string, key func(domain.Message) string) (*repository.Page, error) {
	var matched []domain.Message
	for _, msg := range f.messages {
		if key(msg) == userID {
			matched = append(matched, msg)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Timestamp > matched[j].Timestamp })
	return paginate(matched, limit, cursor)
}

func (f *fakeConversationRepo) RecentConversations(_ context.Context, userID string, limit int) ([]domain.ConversationSummary, error) {
	latest := map[string]domain.ConversationSummary{}
	for _, msg := range f.messages {
		if msg.SenderID != userID && msg.ReceiverID != userID {
			continue
		}
		if cur, ok := latest[msg.ConversationID]; ok && cur.Timestamp >= msg.Timestamp {
			continue
		}
		other := msg.SenderID
		if other == userID {
			other = msg.ReceiverID
		}
		latest[msg.ConversationID] = domain.ConversationSummary{Message: msg, OtherUserID: other}
	}
	var out []domain.ConversationSummary
	for _, s := range latest {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeConversationRepo) TradeOffers(_ context.Context, userID string, filter repository.TradeOfferFilter) ([]domain.Message, error) {
	var offers []domain.Message
	for _, msg := range f.messages {
		if msg.Type != domain.MessageTypeTradeOffer {
			continue
		}
		sent := msg.SenderID == userID
		received := msg.ReceiverID == userID
		switch filter.Role {
		case domain.RoleSender:
			if !sent {
				continue
			}
		case domain.RoleReceiver:
			if !received {
				continue
			}
		default:
			if !sent && !received {
				continue
			}
		}
		if filter.Status != "" && msg.Status != filter.Status {
			continue
		}
		if filter.Kind != "" && msg.TradeType != filter.Kind {
			continue
		}
		offers = append(offers, msg)
	}
	sort.SliceStable(offers, func(i, j int) bool { return offers[i].Timestamp > offers[j].Timestamp })
	return offers, nil
}

func (f *fakeConversationRepo) ApplyResponse(_ context.Context, msg *domain.Message, upd repository.ResponseUpdate) (*domain.Message, error) {
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	for i := range f.messages {
		stored := &f.messages[i]
		if stored.MessageID != msg.MessageID {
			continue
		}
		// Status precondition, as the store enforces it.
		if !stored.Status.Actionable() {
			return nil, fmt.Errorf("%w: offer was settled concurrently", domain.ErrInvalidTransition)
		}
		stored.Status = upd.Status
		stored.UpdatedAt = upd.UpdatedAt
		stored.ResponseTimestamp = upd.ResponseTimestamp
		if upd.AcceptedAt != "" {
			stored.AcceptedAt = upd.AcceptedAt
		}
		if upd.RejectedAt != "" {
			stored.RejectedAt = upd.RejectedAt
		}
		if upd.HistoryEntry != nil {
			stored.CounterOffer = upd.CounterOffer
			stored.CurrentProposal = upd.CurrentProposal
			stored.NegotiationHistory = append(stored.NegotiationHistory, *upd.HistoryEntry)
		}
		updated := *stored
		return &updated, nil
	}
	return nil, fmt.Errorf("%w: message %s", domain.ErrNotFound, msg.MessageID)
}

func paginate(msgs []domain.Message, limit int, cursor string) (*repository.Page, error) {
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed cursor", domain.ErrInvalidPayload)
		}
		offset = n
	}
	if offset >= len(msgs) {
		return &repository.Page{Messages: []domain.Message{}}, nil
	}

	end := offset + limit
	next := ""
	if end < len(msgs) {
		next = strconv.Itoa(end)
	} else {
		end = len(msgs)
	}
	return &repository.Page{Messages: msgs[offset:end], Cursor: next}, nil
}

type fakeUserRepo struct {
	users []domain.User
	err   error
}

func (f *fakeUserRepo) ListExcept(_ context.Context, selfID string) ([]domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.User
	for _, u := range f.users {
		if u.ID != selfID {
			out = append(out, u)
		}
	}
	return out, nil
}

type notification struct {
	event  string
	userID string
	msg    *domain.Message
}

type fakeNotifier struct {
	delivered     bool
	notifications []notification
}

func (f *fakeNotifier) NotifyNewMessage(receiverID string, msg *domain.Message) domain.DeliveryResult {
	f.notifications = append(f.notifications, notification{event: "newMessage", userID: receiverID, msg: msg})
	if !f.delivered {
		return domain.DeliveryResult{Delivered: false, Reason: "not connected"}
	}
	return domain.DeliveryResult{Delivered: true, ConnectionID: "conn-1"}
}

func (f *fakeNotifier) NotifyTradeResponse(senderID string, msg *domain.Message) domain.DeliveryResult {
	f.notifications = append(f.notifications, notification{event: "tradeResponse", userID: senderID, msg: msg})
	if !f.delivered {
		return domain.DeliveryResult{Delivered: false, Reason: "not connected"}
	}
	return domain.DeliveryResult{Delivered: true, ConnectionID: "conn-1"}
}
