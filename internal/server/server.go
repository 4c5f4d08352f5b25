package server

import (
	"context"
	"crypto/sha256"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/AlexTLDR/wedding/internal/config"
	"github.com/AlexTLDR/wedding/internal/database"
	"github.com/AlexTLDR/wedding/internal/rsvp"
	"github.com/AlexTLDR/wedding/internal/server/handlers"
)

type Server struct {
	config       *config.Config
	db           *database.DB
	rsvp         *rsvp.Service
	songs        handlers.SongSearcher
	sessionStore *sessions.CookieStore
	router       *http.ServeMux
	log          zerolog.Logger
	httpServer   *http.Server
}

// GetDB implements handlers.Server interface
func (s *Server) GetDB() *database.DB {
	return s.db
}

// GetConfig implements handlers.Server interface
func (s *Server) GetConfig() *config.Config {
	return s.config
}

func (s *Server) GetRSVP() *rsvp.Service {
	return s.rsvp
}

func (s *Server) GetSongs() handlers.SongSearcher {
	return s.songs
}

func (s *Server) GetSessionStore() sessions.Store {
	return s.sessionStore
}

// New builds the server. songs may be nil when song search is disabled.
func New(cfg *config.Config, db *database.DB, svc *rsvp.Service, songs handlers.SongSearcher, log zerolog.Logger) *Server {
	// cookies are signed with the secret and encrypted with a key derived from it
	blockKey := sha256.Sum256([]byte(cfg.SessionSecret))
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret), blockKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   isHTTPS(cfg.BaseURL),
		SameSite: http.SameSiteLaxMode,
	}

	s := &Server{
		config:       cfg,
		db:           db,
		rsvp:         svc,
		songs:        songs,
		sessionStore: store,
		router:       http.NewServeMux(),
		log:          log,
	}

	s.setupRoutes()
	return s
}

func isHTTPS(baseURL string) bool {
	return strings.HasPrefix(baseURL, "https://")
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /healthz", handlers.HandleHealth(s))
	s.router.HandleFunc("GET /api/site", handlers.HandleSiteInfo(s))

	// Auth routes
	s.router.HandleFunc("POST /api/site/unlock", s.handleSiteUnlock)
	s.router.HandleFunc("POST /api/admin/auth", s.handleAdminLogin)
	s.router.HandleFunc("DELETE /api/admin/auth", s.handleAdminLogout)
	s.router.HandleFunc("GET /api/admin/check-auth", s.handleCheckAuth)

	// Admin routes (protected)
	s.router.HandleFunc("GET /api/admin/parties", s.requireAdmin(handlers.HandleAdminParties(s)))
	s.router.HandleFunc("GET /api/admin/rsvps.csv", s.requireAdmin(handlers.HandleAdminDownloadCSV(s)))
	s.router.HandleFunc("GET /api/admin/song-requests", s.requireAdmin(handlers.HandleAdminSongRequests(s)))

	// RSVP API
	s.router.HandleFunc("GET /api/rsvp/lookup", s.requireSite(handlers.HandleLookup(s)))
	s.router.HandleFunc("POST /api/rsvp", s.requireSite(handlers.HandleSubmit(s)))
	s.router.HandleFunc("POST /api/rsvp/update-names", s.requireSite(handlers.HandleUpdateNames(s)))

	// RSVP wizard
	s.router.HandleFunc("GET /api/rsvp/session", s.requireSite(handlers.HandleWizardState(s)))
	s.router.HandleFunc("POST /api/rsvp/session/search", s.requireSite(handlers.HandleWizardSearch(s)))
	s.router.HandleFunc("POST /api/rsvp/session/plus-ones", s.requireSite(handlers.HandleWizardPlusOnes(s)))
	s.router.HandleFunc("POST /api/rsvp/session/confirm", s.requireSite(handlers.HandleWizardConfirm(s)))
	s.router.HandleFunc("POST /api/rsvp/session/attendance", s.requireSite(handlers.HandleWizardAttendance(s)))
	s.router.HandleFunc("POST /api/rsvp/session/members/{memberID}", s.requireSite(handlers.HandleWizardMember(s)))
	s.router.HandleFunc("POST /api/rsvp/session/details", s.requireSite(handlers.HandleWizardDetails(s)))
	s.router.HandleFunc("POST /api/rsvp/session/contact", s.requireSite(handlers.HandleWizardContact(s)))
	s.router.HandleFunc("POST /api/rsvp/session/submit", s.requireSite(handlers.HandleWizardSubmit(s)))
	s.router.HandleFunc("POST /api/rsvp/session/back", s.requireSite(handlers.HandleWizardBack(s)))
	s.router.HandleFunc("POST /api/rsvp/session/restart", s.requireSite(handlers.HandleWizardRestart(s)))

	// Songs
	s.router.HandleFunc("GET /api/songs/search", s.requireSite(handlers.HandleSongSearch(s)))
	s.router.HandleFunc("POST /api/song-requests", s.requireSite(handlers.HandleCreateSongRequests(s)))
}

// Handler returns the router wrapped in request logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	h = hlog.NewHandler(s.log)(h)
	return h
}

func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
