package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/AlexTLDR/wedding/internal/server/handlers"
)

const authSession = "auth-session"

type passwordRequest struct {
	Password string `json:"password"`
}

func readPassword(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req passwordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return "", false
	}
	if req.Password == "" {
		handlers.WriteError(w, http.StatusBadRequest, "Password is required", "")
		return "", false
	}
	return req.Password, true
}

func passwordMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// handleSiteUnlock opens the guest pages. The site password is not case sensitive.
func (s *Server) handleSiteUnlock(w http.ResponseWriter, r *http.Request) {
	password, ok := readPassword(w, r)
	if !ok {
		return
	}

	want := s.config.SitePassword
	if want != "" && !passwordMatches(strings.ToLower(strings.TrimSpace(password)), strings.ToLower(want)) {
		handlers.WriteError(w, http.StatusUnauthorized, "Incorrect password", "")
		return
	}

	session, _ := s.sessionStore.Get(r, authSession)
	session.Values["site"] = true
	if err := session.Save(r, w); err != nil {
		handlers.WriteError(w, http.StatusInternalServerError, "Failed to save session", err.Error())
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	password, ok := readPassword(w, r)
	if !ok {
		return
	}

	if s.config.AdminPassword == "" || !passwordMatches(password, s.config.AdminPassword) {
		s.log.Warn().Str("remote_addr", r.RemoteAddr).Msg("failed admin login")
		handlers.WriteError(w, http.StatusUnauthorized, "Invalid password", "")
		return
	}

	session, _ := s.sessionStore.Get(r, authSession)
	session.Values["admin"] = true
	session.Values["site"] = true
	if err := session.Save(r, w); err != nil {
		handlers.WriteError(w, http.StatusInternalServerError, "Failed to save session", err.Error())
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessionStore.Get(r, authSession)
	session.Values["admin"] = false
	session.Options.MaxAge = -1
	_ = session.Save(r, w)

	handlers.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, map[string]bool{
		"authenticated": s.isAdmin(r),
		"siteUnlocked":  s.siteUnlocked(r),
	})
}

func (s *Server) isAdmin(r *http.Request) bool {
	session, _ := s.sessionStore.Get(r, authSession)
	admin, _ := session.Values["admin"].(bool)
	return admin
}

func (s *Server) siteUnlocked(r *http.Request) bool {
	if s.config.SitePassword == "" {
		return true
	}
	session, _ := s.sessionStore.Get(r, authSession)
	site, _ := session.Values["site"].(bool)
	return site
}

// requireAdmin is a middleware that checks if the admin is logged in
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.isAdmin(r) {
			handlers.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		next(w, r)
	}
}

// requireSite blocks guest routes until the site password was entered
func (s *Server) requireSite(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.siteUnlocked(r) {
			handlers.WriteError(w, http.StatusUnauthorized, "Site is password protected", "")
			return
		}
		next(w, r)
	}
}
