package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/equilux/gridtalk/internal/domain"
	"github.com/equilux/gridtalk/pkg/validator"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":    "VALIDATION",
			"message": "Validation failed",
			"fields":  errs,
		},
	})
}

// writeDomainError maps the core failure taxonomy to stable status codes.
// op names the failed operation for the server log.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Message not found")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not allowed to perform this action")
	case errors.Is(err, domain.ErrWrongMessageType):
		writeError(w, http.StatusConflict, "WRONG_MESSAGE_TYPE", "Operation is not valid for this message kind")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", "Trade offer is no longer open for responses")
	case errors.Is(err, domain.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Storage backend is unavailable")
	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
