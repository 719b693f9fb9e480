package domain

import (
	"sort"
	"strings"
	"time"
)

// TimeLayout is the wire format for all message timestamps. Millisecond
// precision, UTC. Timestamps double as the conversation sort key, so
// lexicographic order must equal chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z"

type MessageType string

const (
	MessageTypeText       MessageType = "text"
	MessageTypeTradeOffer MessageType = "tradeOffer"
)

// Message is the unit of persisted communication. ConversationID is the
// partition key, Timestamp the sort key. Identity fields are write-once;
// only the trade-offer sub-fields mutate after creation.
type Message struct {
	MessageID      string      `json:"messageId" dynamodbav:"messageId"`
	ConversationID string      `json:"conversationId" dynamodbav:"conversationId"`
	Timestamp      string      `json:"timestamp" dynamodbav:"timestamp"`
	SenderID       string      `json:"senderId" dynamodbav:"senderId"`
	ReceiverID     string      `json:"receiverId" dynamodbav:"receiverId"`
	Type           MessageType `json:"messageType" dynamodbav:"messageType"`
	CreatedAt      string      `json:"createdAt" dynamodbav:"createdAt"`

	// Text messages only.
	Text string `json:"text,omitempty" dynamodbav:"text,omitempty"`

	// Trade offers only.
	PricePerUnit       float64     `json:"pricePerUnit,omitempty" dynamodbav:"pricePerUnit,omitempty"`
	TotalAmount        float64     `json:"totalAmount,omitempty" dynamodbav:"totalAmount,omitempty"`
	StartTime          string      `json:"startTime,omitempty" dynamodbav:"startTime,omitempty"`
	TradeType          TradeKind   `json:"tradeType,omitempty" dynamodbav:"tradeType,omitempty"`
	Status             TradeStatus `json:"status,omitempty" dynamodbav:"status,omitempty"`
	TradeOfferID       string      `json:"tradeOfferId,omitempty" dynamodbav:"tradeOfferId,omitempty"`
	CounterOffer       *Proposal   `json:"counterOffer,omitempty" dynamodbav:"counterOffer,omitempty"`
	CurrentProposal    *Proposal   `json:"currentProposal,omitempty" dynamodbav:"currentProposal,omitempty"`
	NegotiationHistory []Proposal  `json:"negotiationHistory,omitempty" dynamodbav:"negotiationHistory,omitempty"`

	UpdatedAt         string `json:"updatedAt,omitempty" dynamodbav:"updatedAt,omitempty"`
	ResponseTimestamp string `json:"responseTimestamp,omitempty" dynamodbav:"responseTimestamp,omitempty"`
	AcceptedAt        string `json:"acceptedAt,omitempty" dynamodbav:"acceptedAt,omitempty"`
	RejectedAt        string `json:"rejectedAt,omitempty" dynamodbav:"rejectedAt,omitempty"`
}

// Proposal is one negotiation step: who proposed which terms, when.
type Proposal struct {
	ProposerID   string    `json:"proposerId" dynamodbav:"proposerId"`
	Timestamp    string    `json:"timestamp" dynamodbav:"timestamp"`
	PricePerUnit float64   `json:"pricePerUnit" dynamodbav:"pricePerUnit"`
	TotalAmount  float64   `json:"totalAmount" dynamodbav:"totalAmount"`
	StartTime    string    `json:"startTime,omitempty" dynamodbav:"startTime,omitempty"`
	TradeType    TradeKind `json:"tradeType" dynamodbav:"tradeType"`
}

// ConversationSummary is the latest message of a conversation annotated with
// the participant that is not the querying user. Computed on read, never stored.
type ConversationSummary struct {
	Message
	OtherUserID string `json:"otherUserId"`
}

// DeliveryResult reports the outcome of a realtime push. A miss is an
// expected outcome, not an error.
type DeliveryResult struct {
	Delivered    bool   `json:"delivered"`
	ConnectionID string `json:"connectionId,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// ConversationID derives the partition key for an unordered pair of
// participants: ConversationID(a, b) == ConversationID(b, a).
func ConversationID(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

// NowISO returns the current time in the message timestamp format.
func NowISO() string {
	return time.Now().UTC().Format(TimeLayout)
}
