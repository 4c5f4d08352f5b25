package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/AlexTLDR/wedding/internal/database"
	"github.com/AlexTLDR/wedding/internal/rsvp"
)

type lookupResponse struct {
	Success bool              `json:"success"`
	Found   bool              `json:"found"`
	Count   int               `json:"count"`
	Party   *rsvp.PartyResult `json:"party,omitempty"`
}

type submitResponse struct {
	Success bool `json:"success"`
	Updated int  `json:"updated"`
}

type updateNamesRequest struct {
	Updates []database.NameUpdate `json:"updates"`
}

type updateNamesResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Updated int    `json:"updated"`
}

// checkRSVPDeadline writes a 403 once RSVPs have closed
func checkRSVPDeadline(s Server, w http.ResponseWriter) bool {
	if s.GetConfig().DeadlinePassed(time.Now()) {
		WriteError(w, http.StatusForbidden, "RSVP deadline has passed", "")
		return false
	}
	return true
}

// HandleLookup finds the party for a guest name. No match is a normal
// answer, not an error.
func HandleLookup(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		party, err := s.GetRSVP().Resolve(r.Context(), r.URL.Query().Get("name"))
		if errors.Is(err, rsvp.ErrNotFound) {
			WriteJSON(w, http.StatusOK, lookupResponse{Success: true})
			return
		}
		if err != nil {
			writeServiceError(w, r, err, "Failed to look up invitation")
			return
		}

		WriteJSON(w, http.StatusOK, lookupResponse{
			Success: true,
			Found:   true,
			Count:   len(party.Members),
			Party:   party,
		})
	}
}

// HandleSubmit stores the answers of every member of one party.
func HandleSubmit(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !checkRSVPDeadline(s, w) {
			return
		}

		var req rsvp.SubmitRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		res, err := s.GetRSVP().Submit(r.Context(), req)
		if err != nil {
			writeServiceError(w, r, err, "Failed to save RSVP")
			return
		}

		WriteJSON(w, http.StatusOK, submitResponse{Success: true, Updated: res.Updated})
	}
}

// HandleUpdateNames renames plus-one placeholders.
func HandleUpdateNames(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !checkRSVPDeadline(s, w) {
			return
		}

		var req updateNamesRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := s.GetRSVP().ApplyPlusOneNames(r.Context(), req.Updates); err != nil {
			writeServiceError(w, r, err, "Failed to update names")
			return
		}

		WriteJSON(w, http.StatusOK, updateNamesResponse{
			Success: true,
			Message: "Names updated",
			Updated: len(req.Updates),
		})
	}
}
