package domain

import "errors"

// Failure taxonomy shared by repositories and services. Handlers map these
// to stable error codes with errors.Is; callers never retry validation
// failures, and StoreUnavailable is surfaced as-is.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("not authorized")
	ErrWrongMessageType  = errors.New("wrong message type")
	ErrInvalidTransition = errors.New("invalid negotiation transition")
	ErrInvalidPayload    = errors.New("invalid payload")
	ErrStoreUnavailable  = errors.New("store unavailable")
)
