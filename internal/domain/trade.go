package domain

import "fmt"

// TradeStatus is the negotiation state of a trade offer. Accepted and
// rejected are terminal; negotiating is re-entered on every counter.
type TradeStatus string

const (
	StatusPending     TradeStatus = "pending"
	StatusAccepted    TradeStatus = "accepted"
	StatusRejected    TradeStatus = "rejected"
	StatusNegotiating TradeStatus = "negotiating"
)

// Actionable reports whether a response is still legal in this state.
func (s TradeStatus) Actionable() bool {
	return s == StatusPending || s == StatusNegotiating
}

func ParseTradeStatus(s string) (TradeStatus, error) {
	switch TradeStatus(s) {
	case StatusPending, StatusAccepted, StatusRejected, StatusNegotiating:
		return TradeStatus(s), nil
	default:
		return "", fmt.Errorf("%w: unknown trade status %q", ErrInvalidPayload, s)
	}
}

// TradeAction is the recipient's response to an offer.
type TradeAction string

const (
	ActionAccept  TradeAction = "accept"
	ActionReject  TradeAction = "reject"
	ActionCounter TradeAction = "counter"
)

func ParseTradeAction(s string) (TradeAction, error) {
	switch TradeAction(s) {
	case ActionAccept, ActionReject, ActionCounter:
		return TradeAction(s), nil
	default:
		return "", fmt.Errorf("%w: unknown trade action %q", ErrInvalidPayload, s)
	}
}

// TradeKind is the direction of an offer from the proposer's point of view.
type TradeKind string

const (
	TradeBuy  TradeKind = "buy"
	TradeSell TradeKind = "sell"
)

// Invert swaps the trade direction. A counter-offer implicitly trades the
// opposite side unless the responder overrides it.
func (k TradeKind) Invert() TradeKind {
	if k == TradeBuy {
		return TradeSell
	}
	return TradeBuy
}

func ParseTradeKind(s string) (TradeKind, error) {
	switch TradeKind(s) {
	case TradeBuy, TradeSell:
		return TradeKind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown trade type %q", ErrInvalidPayload, s)
	}
}

// TradeRole selects which side of the offers a listing covers.
type TradeRole string

const (
	RoleSender   TradeRole = "sender"
	RoleReceiver TradeRole = "receiver"
	RoleBoth     TradeRole = "both"
)

func ParseTradeRole(s string) (TradeRole, error) {
	switch TradeRole(s) {
	case RoleSender, RoleReceiver, RoleBoth:
		return TradeRole(s), nil
	case "":
		return RoleBoth, nil
	default:
		return "", fmt.Errorf("%w: unknown trade role %q", ErrInvalidPayload, s)
	}
}
