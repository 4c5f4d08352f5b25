package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/AlexTLDR/wedding/internal/config"
	"github.com/AlexTLDR/wedding/internal/database"
	"github.com/AlexTLDR/wedding/internal/music"
	"github.com/AlexTLDR/wedding/internal/rsvp"
)

// Server interface defines the methods needed by handlers
type Server interface {
	GetDB() *database.DB
	GetConfig() *config.Config
	GetRSVP() *rsvp.Service
	// GetSongs returns nil when song search is not configured.
	GetSongs() SongSearcher
	GetSessionStore() sessions.Store
}

type SongSearcher interface {
	Search(ctx context.Context, query string) ([]music.Track, error)
}

type siteInfo struct {
	EventDate      *time.Time `json:"eventDate,omitempty"`
	RSVPDeadline   *time.Time `json:"rsvpDeadline,omitempty"`
	DeadlineText   string     `json:"deadlineText,omitempty"`
	DeadlinePassed bool       `json:"deadlinePassed"`
	MealOptions    []string   `json:"mealOptions"`
	SongSearch     bool       `json:"songSearch"`
}

// formatDeadline renders the deadline in the event's time zone.
func formatDeadline(deadline time.Time, loc *time.Location) string {
	if loc != nil {
		deadline = deadline.In(loc)
	}
	return deadline.Format("January 2, 2006, 15:04")
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// HandleSiteInfo returns what the RSVP pages need to render the form.
func HandleSiteInfo(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := s.GetConfig()
		info := siteInfo{
			EventDate:      timePtr(cfg.EventDate),
			RSVPDeadline:   timePtr(cfg.RSVPDeadline),
			DeadlinePassed: cfg.DeadlinePassed(time.Now()),
			MealOptions:    cfg.MealOptions,
			SongSearch:     s.GetSongs() != nil,
		}
		if !cfg.RSVPDeadline.IsZero() {
			info.DeadlineText = formatDeadline(cfg.RSVPDeadline, cfg.Location)
		}
		if info.MealOptions == nil {
			info.MealOptions = []string{}
		}
		WriteJSON(w, http.StatusOK, info)
	}
}

// HandleHealth pings the database.
func HandleHealth(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.GetDB().PingContext(ctx); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "Database unavailable", err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
