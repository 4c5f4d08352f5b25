package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/hlog"

	"github.com/AlexTLDR/wedding/internal/rsvp"
)

// DraftCookie holds the wizard state between requests.
const DraftCookie = "rsvp-session"

const draftKey = "draft"

type wizardResponse struct {
	Success bool          `json:"success"`
	Found   *bool         `json:"found,omitempty"`
	Session *rsvp.Session `json:"session"`
}

type searchRequest struct {
	Name string `json:"name"`
}

type plusOnesRequest struct {
	Names map[string]string `json:"names"`
}

type attendanceRequest struct {
	Attendance rsvp.Attendance `json:"attendance"`
}

type contactRequest struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// loadDraft returns the cookie session and the wizard state stored in it.
// A missing or unreadable draft starts a new search.
func loadDraft(s Server, r *http.Request) (*sessions.Session, *rsvp.Session) {
	sess, _ := s.GetSessionStore().Get(r, DraftCookie)

	draft := rsvp.NewSession()
	if raw, ok := sess.Values[draftKey].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), draft); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("discarding unreadable rsvp draft")
			draft = rsvp.NewSession()
		}
	}
	return sess, draft
}

// saveDraft stores the draft and writes it back to the caller.
func saveDraft(w http.ResponseWriter, r *http.Request, sess *sessions.Session, draft *rsvp.Session, found *bool) {
	raw, err := json.Marshal(draft)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to save progress", err.Error())
		return
	}
	sess.Values[draftKey] = string(raw)
	if err := sess.Save(r, w); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to save rsvp draft")
		WriteError(w, http.StatusInternalServerError, "Failed to save progress", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, wizardResponse{Success: true, Found: found, Session: draft})
}

// wizardStep decodes a body of type T, applies step to the draft and
// saves it. The cookie is only rewritten when the step succeeds.
func wizardStep[T any](s Server, step func(draft *rsvp.Session, body T) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body T
		if r.ContentLength != 0 && !decodeJSON(w, r, &body) {
			return
		}

		sess, draft := loadDraft(s, r)
		if err := step(draft, body); err != nil {
			writeServiceError(w, r, err, "Failed to update RSVP")
			return
		}
		saveDraft(w, r, sess, draft, nil)
	}
}

func HandleWizardState(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, draft := loadDraft(s, r)
		WriteJSON(w, http.StatusOK, wizardResponse{Success: true, Session: draft})
	}
}

// HandleWizardSearch resolves a name and attaches the party to the draft.
// Searching with nothing found keeps the previous draft.
func HandleWizardSearch(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		sess, draft := loadDraft(s, r)
		if draft.Step != rsvp.StepSearching {
			writeServiceError(w, r, draft.Found(nil), "")
			return
		}

		party, err := s.GetRSVP().Resolve(r.Context(), req.Name)
		if err != nil {
			if errors.Is(err, rsvp.ErrNotFound) {
				found := false
				WriteJSON(w, http.StatusOK, wizardResponse{Success: true, Found: &found, Session: draft})
				return
			}
			writeServiceError(w, r, err, "Failed to look up invitation")
			return
		}

		if err := draft.Found(party); err != nil {
			writeServiceError(w, r, err, "")
			return
		}
		found := true
		saveDraft(w, r, sess, draft, &found)
	}
}

func HandleWizardPlusOnes(s Server) http.HandlerFunc {
	return wizardStep(s, func(draft *rsvp.Session, body plusOnesRequest) error {
		for id := range body.Names {
			if !hasMember(draft, id) {
				return &rsvp.ValidationError{Field: "member_id", Message: "guest " + id + " is not part of this invitation"}
			}
		}
		for _, m := range draft.Members {
			name, ok := body.Names[m.MemberID]
			if !ok {
				continue
			}
			if err := draft.SetPlusOneName(m.MemberID, name); err != nil {
				return err
			}
		}
		return nil
	})
}

func hasMember(draft *rsvp.Session, id string) bool {
	for _, m := range draft.Members {
		if m.MemberID == id {
			return true
		}
	}
	return false
}

func HandleWizardConfirm(s Server) http.HandlerFunc {
	return wizardStep(s, func(draft *rsvp.Session, _ struct{}) error {
		return draft.ConfirmParty()
	})
}

func HandleWizardAttendance(s Server) http.HandlerFunc {
	return wizardStep(s, func(draft *rsvp.Session, body attendanceRequest) error {
		return draft.ChooseAttendance(body.Attendance)
	})
}

// HandleWizardMember edits one member's answer while filling in details.
func HandleWizardMember(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID := r.PathValue("memberID")
		wizardStep(s, func(draft *rsvp.Session, body rsvp.MemberResponse) error {
			return draft.SetResponse(memberID, body)
		})(w, r)
	}
}

func HandleWizardDetails(s Server) http.HandlerFunc {
	return wizardStep(s, func(draft *rsvp.Session, _ struct{}) error {
		return draft.CompleteDetails()
	})
}

func HandleWizardContact(s Server) http.HandlerFunc {
	return wizardStep(s, func(draft *rsvp.Session, body contactRequest) error {
		return draft.SetContact(body.Email, body.Phone, body.Message)
	})
}

func HandleWizardBack(s Server) http.HandlerFunc {
	return wizardStep(s, func(draft *rsvp.Session, _ struct{}) error {
		return draft.Back()
	})
}

func HandleWizardRestart(s Server) http.HandlerFunc {
	return wizardStep(s, func(draft *rsvp.Session, _ struct{}) error {
		draft.Restart()
		return nil
	})
}

// HandleWizardSubmit renames plus-ones and stores the answers. A failed
// submission leaves the saved draft as it was so the guest can retry.
func HandleWizardSubmit(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !checkRSVPDeadline(s, w) {
			return
		}

		sess, draft := loadDraft(s, r)
		sub, err := draft.BeginSubmit()
		if err != nil {
			writeServiceError(w, r, err, "")
			return
		}

		if _, err := s.GetRSVP().Finalize(r.Context(), sub); err != nil {
			writeServiceError(w, r, err, "Failed to save RSVP")
			return
		}

		if err := draft.MarkSubmitted(); err != nil {
			writeServiceError(w, r, err, "")
			return
		}
		saveDraft(w, r, sess, draft, nil)
	}
}
