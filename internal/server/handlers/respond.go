package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/AlexTLDR/wedding/internal/rsvp"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSON writes v as the response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the {error, details} envelope every route uses.
func WriteError(w http.ResponseWriter, status int, msg, details string) {
	WriteJSON(w, status, errorResponse{Error: msg, Details: details})
}

// decodeJSON reads a request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}

// writeServiceError maps workflow errors onto the JSON error envelope.
// failMsg is shown when the directory itself failed.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, failMsg string) {
	var ve *rsvp.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteError(w, http.StatusBadRequest, ve.Message, ve.Field)
	case errors.Is(err, rsvp.ErrPrecondition):
		WriteError(w, http.StatusBadRequest, "Only a plus-one's name can be changed", err.Error())
	case errors.Is(err, rsvp.ErrNotFound):
		WriteError(w, http.StatusNotFound, "No matching invitation found", "")
	case errors.Is(err, rsvp.ErrUpstream):
		hlog.FromRequest(r).Error().Err(err).Msg(failMsg)
		WriteError(w, http.StatusInternalServerError, failMsg, err.Error())
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("unexpected error")
		WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}
