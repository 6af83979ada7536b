package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kingbrown/caesarstudy/internal/auth"
	"github.com/kingbrown/caesarstudy/internal/flow"
	"github.com/kingbrown/caesarstudy/internal/generator"
	"github.com/kingbrown/caesarstudy/internal/session"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Retry bool   `json:"retry,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeFlowError maps screen and generation errors to responses.
func writeFlowError(w http.ResponseWriter, err error) {
	var genErr *generator.GenerationError
	switch {
	case errors.As(err, &genErr):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: genErr.Error(), Retry: true})
	case errors.Is(err, session.ErrSignedOut):
		writeError(w, http.StatusUnauthorized, "not signed in")
	case errors.Is(err, flow.ErrSuperseded):
		writeError(w, http.StatusConflict, "request superseded by a newer one")
	case errors.Is(err, flow.ErrClosed):
		writeError(w, http.StatusConflict, "screen closed")
	case errors.Is(err, flow.ErrWrongPhase):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, flow.ErrInvalidSelection), errors.Is(err, flow.ErrNoSelection):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func authStatus(k auth.Kind) int {
	switch k {
	case auth.KindInvalidCredentials:
		return http.StatusUnauthorized
	case auth.KindEmailInUse:
		return http.StatusConflict
	case auth.KindInvalidEmail, auth.KindWeakPassword:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
