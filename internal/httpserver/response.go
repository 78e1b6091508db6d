package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"scholarfund/internal/core/domain"
)

// APIResponse is the JSON envelope every endpoint speaks.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Status: "success",
		Data:   data,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeErrorMsg(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Status:  "error",
		Code:    code,
		Message: msg,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeError maps the domain error taxonomy onto the boundary codes.
// NotFound deliberately covers both "absent" and "not yours"; nothing
// downstream of the store can tell them apart, including this function.
func writeError(w http.ResponseWriter, err error) {
	var terr *domain.TransitionError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		writeErrorMsg(w, http.StatusForbidden, "forbidden", "insufficient role")
	case errors.Is(err, domain.ErrNotFound):
		writeErrorMsg(w, http.StatusNotFound, "not_found", "record not found")
	case errors.Is(err, domain.ErrConcurrentModification):
		writeErrorMsg(w, http.StatusConflict, "conflict", "the record changed underneath you; re-fetch and retry")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeErrorMsg(w, http.StatusConflict, "already_exists", "an open verification already exists")
	case errors.Is(err, domain.ErrCooldownActive):
		writeErrorMsg(w, http.StatusTooManyRequests, "cooldown_active", "reapplication cooldown has not elapsed")
	case errors.As(err, &terr):
		writeErrorMsg(w, http.StatusUnprocessableEntity, string(terr.Kind), terr.Error())
	default:
		writeErrorMsg(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
