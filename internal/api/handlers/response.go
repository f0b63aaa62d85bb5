package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/impostor-game/internal/api/middleware"
	"github.com/dom/impostor-game/internal/domain"
	"github.com/dom/impostor-game/internal/service"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// writeError maps a use case error to a response. Domain errors carry their
// code; anything else is logged with its stack and hidden behind INTERNAL.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if code, ok := domain.CodeOf(err); ok {
		writeErrorCode(w, statusForCode(code), string(code), err.Error())
		return
	}

	log.Error().Stack().Err(err).
		Str("request_id", chiMiddleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Msg("request failed")
	writeErrorCode(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
}

func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.CodeRoomNotFound, domain.CodePlayerNotFound:
		return http.StatusNotFound
	case domain.CodeNotAdmin:
		return http.StatusForbidden
	case domain.CodeMaxRoomsReached:
		return http.StatusServiceUnavailable
	default:
		return http.StatusConflict
	}
}

// decodeBody reads an optional JSON body into v. An empty body is fine.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return false
	}
	return true
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (*service.Identity, bool) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return identity, true
}
