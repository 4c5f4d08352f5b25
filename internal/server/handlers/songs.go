package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AlexTLDR/wedding/internal/database"
	"github.com/AlexTLDR/wedding/internal/music"
	"github.com/AlexTLDR/wedding/internal/rsvp"
)

const maxSongRequests = 10

type songSearchResponse struct {
	Tracks []music.Track `json:"tracks"`
}

type songRequestInput struct {
	GuestName string `json:"guest_name"`
	Email     string `json:"email"`
	SongTitle string `json:"song_title"`
	Artist    string `json:"artist"`
	TrackID   string `json:"track_id"`
}

type songRequestView struct {
	ID        string    `json:"id"`
	GuestName string    `json:"guest_name"`
	Email     *string   `json:"email"`
	SongTitle string    `json:"song_title"`
	Artist    string    `json:"artist"`
	TrackID   *string   `json:"track_id"`
	CreatedAt time.Time `json:"created_at"`
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func toSongRequestViews(reqs []*database.SongRequest) []songRequestView {
	views := make([]songRequestView, 0, len(reqs))
	for _, req := range reqs {
		views = append(views, songRequestView{
			ID:        req.ID,
			GuestName: req.GuestName,
			Email:     nullString(req.Email),
			SongTitle: req.SongTitle,
			Artist:    req.Artist,
			TrackID:   nullString(req.TrackID),
			CreatedAt: req.CreatedAt,
		})
	}
	return views
}

// HandleSongSearch proxies catalogue searches so the client secret stays
// on the server.
func HandleSongSearch(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			WriteError(w, http.StatusBadRequest, "Missing query parameter", "")
			return
		}
		if utf8.RuneCountInString(query) < 2 {
			WriteJSON(w, http.StatusOK, songSearchResponse{Tracks: []music.Track{}})
			return
		}

		songs := s.GetSongs()
		if songs == nil {
			WriteError(w, http.StatusServiceUnavailable, "Song search is not available", "")
			return
		}

		tracks, err := songs.Search(r.Context(), query)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to search tracks", err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, songSearchResponse{Tracks: tracks})
	}
}

func validateSongRequests(inputs []songRequestInput) ([]*database.SongRequest, error) {
	if len(inputs) == 0 {
		return nil, &rsvp.ValidationError{Field: "songRequests", Message: "add at least one song"}
	}
	if len(inputs) > maxSongRequests {
		return nil, &rsvp.ValidationError{Field: "songRequests", Message: fmt.Sprintf("at most %d songs per request", maxSongRequests)}
	}

	reqs := make([]*database.SongRequest, 0, len(inputs))
	for i, in := range inputs {
		req := &database.SongRequest{
			GuestName: strings.TrimSpace(in.GuestName),
			SongTitle: strings.TrimSpace(in.SongTitle),
			Artist:    strings.TrimSpace(in.Artist),
		}
		if req.GuestName == "" || req.SongTitle == "" || req.Artist == "" {
			return nil, &rsvp.ValidationError{
				Field:   fmt.Sprintf("songRequests[%d]", i),
				Message: "guest name, song title and artist are required",
			}
		}
		if email := strings.TrimSpace(in.Email); email != "" {
			if !rsvp.ValidContactEmail(email) {
				return nil, &rsvp.ValidationError{Field: fmt.Sprintf("songRequests[%d].email", i), Message: "please enter a valid email address"}
			}
			req.Email = sql.NullString{String: email, Valid: true}
		}
		if id := strings.TrimSpace(in.TrackID); id != "" {
			req.TrackID = sql.NullString{String: id, Valid: true}
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func HandleCreateSongRequests(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			SongRequests []songRequestInput `json:"songRequests"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}

		reqs, err := validateSongRequests(body.SongRequests)
		if err != nil {
			writeServiceError(w, r, err, "")
			return
		}

		if err := s.GetDB().CreateSongRequests(r.Context(), reqs); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to save song requests", err.Error())
			return
		}

		WriteJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"message":  "Song requests saved successfully",
			"requests": toSongRequestViews(reqs),
		})
	}
}

// HandleAdminSongRequests lists every request, newest first.
func HandleAdminSongRequests(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqs, err := s.GetDB().ListSongRequests(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to fetch song requests", err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"songRequests": toSongRequestViews(reqs)})
	}
}
