package repository

import (
	"context"

	"github.com/equilux/gridtalk/internal/domain"
)

// Page is one slice of a paginated query. Cursor is an opaque continuation
// token, round-tripped byte-for-byte by the caller; empty means exhausted.
type Page struct {
	Messages []domain.Message `json:"messages"`
	Cursor   string           `json:"cursor,omitempty"`
}

// TradeOfferFilter narrows a trade-offer listing. Zero values mean "any".
type TradeOfferFilter struct {
	Role   domain.TradeRole
	Status domain.TradeStatus
	Kind   domain.TradeKind
}

// ResponseUpdate is the merge applied to a trade offer on a negotiation
// transition. Only set fields are written; immutable message fields are
// never part of the update.
type ResponseUpdate struct {
	Status            domain.TradeStatus
	UpdatedAt         string
	ResponseTimestamp string
	AcceptedAt        string
	RejectedAt        string
	CounterOffer      *domain.Proposal
	CurrentProposal   *domain.Proposal
	HistoryEntry      *domain.Proposal
}

type ConversationRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	Between(ctx context.Context, userA, userB string, limit int, cursor string, oldestFirst bool) (*Page, error)
	FindByID(ctx context.Context, messageID string) (*domain.Message, error)
	SentBy(ctx context.Context, userID string, limit int, cursor string) (*Page, error)
	ReceivedBy(ctx context.Context, userID string, limit int, cursor string) (*Page, error)
	RecentConversations(ctx context.Context, userID string, limit int) ([]domain.ConversationSummary, error)
	TradeOffers(ctx context.Context, userID string, filter TradeOfferFilter) ([]domain.Message, error)
	ApplyResponse(ctx context.Context, msg *domain.Message, upd ResponseUpdate) (*domain.Message, error)
}

type UserRepository interface {
	ListExcept(ctx context.Context, selfID string) ([]domain.User, error)
}
