package rsvp

import (
	"encoding/json"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/AlexTLDR/wedding/internal/database"
	"github.com/AlexTLDR/wedding/internal/utils"
)

type Step string

const (
	StepSearching        Step = "searching"
	StepPartyConfirmed   Step = "party_confirmed"
	StepAttendanceChosen Step = "attendance_chosen"
	StepDetailsComplete  Step = "details_complete"
	StepSubmitting       Step = "submitting"
	StepSubmitted        Step = "submitted"
)

// Limits on what a guest can type into the wizard. The whole draft is
// kept in one cookie, so MaxDraftBytes caps the JSON of a session of
// MaxPartySize members after every edit; encoded and signed it stays
// under the 4KB cookie limit.
const (
	MaxPartySize     = 6
	MaxNameLength    = 80
	MaxTextLength    = 160
	MaxMessageLength = 500
	MaxEmailLength   = 254
	MaxPhoneLength   = 32
	MaxDraftBytes    = 2048
)

type Attendance string

const (
	Attending Attendance = "attending"
	Declining Attendance = "declining"
)

// DraftMember is the editable copy of one member's answer. An empty
// Status means the member has not answered yet.
type DraftMember struct {
	MemberID    string              `json:"id"`
	FullName    string              `json:"name"`
	Placeholder bool                `json:"placeholder,omitempty"`
	AllowAttend bool                `json:"allow_attend"`
	SortOrder   int                 `json:"sort_order"`
	Status      database.RSVPStatus `json:"status,omitempty"`
	MealChoice  string              `json:"meal,omitempty"`
	Allergies   string              `json:"allergies,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	PlusOneName string              `json:"plus_one_name,omitempty"`
}

// MemberResponse is one member's edit in the details step. An empty
// Status keeps the current answer.
type MemberResponse struct {
	Status     database.RSVPStatus `json:"status"`
	MealChoice string              `json:"meal_choice"`
	Allergies  string              `json:"allergies"`
	Notes      string              `json:"notes"`
}

// Session is one browser's walk through the RSVP wizard. Every transition
// either succeeds or returns a *ValidationError and leaves the session as
// it was.
type Session struct {
	Step           Step          `json:"step"`
	PartyID        string        `json:"party_id,omitempty"`
	HouseholdLabel string        `json:"household_label,omitempty"`
	Attendance     Attendance    `json:"attendance,omitempty"`
	Members        []DraftMember `json:"members,omitempty"`
	Email          string        `json:"email,omitempty"`
	Phone          string        `json:"phone,omitempty"`
	Message        string        `json:"message,omitempty"`
}

// Submission is what a session hands to Service.Finalize.
type Submission struct {
	NameUpdates []database.NameUpdate `json:"name_updates"`
	Request     SubmitRequest         `json:"request"`
}

func NewSession() *Session {
	return &Session{Step: StepSearching}
}

func (s *Session) expect(op string, steps ...Step) error {
	if slices.Contains(steps, s.Step) {
		return nil
	}
	return invalid("step", "cannot %s while %s", op, strings.ReplaceAll(string(s.Step), "_", " "))
}

func (s *Session) member(id string) (int, error) {
	for i := range s.Members {
		if s.Members[i].MemberID == id {
			return i, nil
		}
	}
	return -1, invalid("member_id", "guest %s is not part of this invitation", id)
}

// Found attaches a resolved party while searching. Searching again
// replaces it.
func (s *Session) Found(party *PartyResult) error {
	if err := s.expect("change the invitation", StepSearching); err != nil {
		return err
	}
	if party == nil || party.PartyID == "" || len(party.Members) == 0 {
		return invalid("name", "no invitation to confirm")
	}

	prev := *s
	s.PartyID = party.PartyID
	s.HouseholdLabel = party.HouseholdLabel
	s.Attendance = ""
	s.Members = draftMembers(party, true)
	if !s.fits() {
		// earlier answers are dropped rather than refusing the invitation
		s.Members = draftMembers(party, false)
	}
	if !s.fits() {
		*s = prev
		return invalid("name", "this invitation is too large to answer online, please contact us")
	}
	return nil
}

func draftMembers(party *PartyResult, prefill bool) []DraftMember {
	members := make([]DraftMember, 0, len(party.Members))
	for _, m := range party.Members {
		d := DraftMember{
			MemberID:    m.ID,
			FullName:    m.FullName,
			Placeholder: m.IsPlusOnePlaceholder,
			AllowAttend: m.AllowAttend,
			SortOrder:   m.SortOrder,
		}
		if prefill {
			d.MealChoice = clip(deref(m.MealChoice), MaxNameLength)
			d.Allergies = clip(deref(m.Allergies), MaxTextLength)
			d.Notes = clip(deref(m.Notes), MaxTextLength)
		}
		// a placeholder renamed on an earlier visit keeps its name
		if d.Placeholder && !database.IsPlaceholderName(m.FullName) {
			d.PlusOneName = clip(m.FullName, MaxNameLength)
		}
		members = append(members, d)
	}
	return members
}

// SetPlusOneName names a placeholder. An empty name clears it.
func (s *Session) SetPlusOneName(memberID, name string) error {
	if err := s.expect("change guest names", StepSearching, StepPartyConfirmed, StepAttendanceChosen, StepDetailsComplete); err != nil {
		return err
	}
	i, err := s.member(memberID)
	if err != nil {
		return err
	}
	if !s.Members[i].Placeholder {
		return invalid("member_id", "only your guest's name can be changed")
	}

	name = utils.DisplayName(name)
	if name == "" && s.Step != StepSearching {
		return invalid("plus_one_name", "please enter your guest's name")
	}
	if err := tooLong("plus_one_name", name, MaxNameLength); err != nil {
		return err
	}

	prev := s.Members[i].PlusOneName
	s.Members[i].PlusOneName = name
	if !s.fits() {
		s.Members[i].PlusOneName = prev
		return noRoom("plus_one_name")
	}
	return nil
}

// ConfirmParty moves on from the search once every plus-one is named.
func (s *Session) ConfirmParty() error {
	if err := s.expect("confirm the invitation", StepSearching); err != nil {
		return err
	}
	if s.PartyID == "" || len(s.Members) == 0 {
		return invalid("name", "please find your invitation first")
	}
	if !PlaceholdersNamed(s.Members) {
		return invalid("plus_one_name", "please enter your guest's name")
	}

	s.Step = StepPartyConfirmed
	return nil
}

// ChooseAttendance sets every member to yes or no. Members who may not
// attend are set to no either way.
func (s *Session) ChooseAttendance(a Attendance) error {
	if err := s.expect("choose attendance", StepPartyConfirmed); err != nil {
		return err
	}

	status := database.StatusNo
	switch a {
	case Attending:
		status = database.StatusYes
	case Declining:
	default:
		return invalid("attendance", "please choose attending or declining")
	}

	for i := range s.Members {
		s.Members[i].Status = status
		if !s.Members[i].AllowAttend {
			s.Members[i].Status = database.StatusNo
		}
	}
	s.Attendance = a
	s.Step = StepAttendanceChosen
	return nil
}

// SetResponse edits one member. In a declining household only the notes
// can change.
func (s *Session) SetResponse(memberID string, r MemberResponse) error {
	if err := s.expect("edit responses", StepAttendanceChosen); err != nil {
		return err
	}
	i, err := s.member(memberID)
	if err != nil {
		return err
	}
	m := s.Members[i]

	switch r.Status {
	case "":
	case database.StatusYes:
		if s.Attendance == Declining {
			return invalid("status", "your household is declining; go back to change that")
		}
		if !m.AllowAttend {
			return invalid("status", "%s is not able to attend", m.FullName)
		}
		m.Status = r.Status
	case database.StatusNo:
		m.Status = r.Status
	default:
		return invalid("status", "please answer yes or no")
	}

	m.Notes = strings.TrimSpace(r.Notes)
	if err := tooLong("notes", m.Notes, MaxTextLength); err != nil {
		return err
	}
	if s.Attendance == Attending {
		m.MealChoice = strings.TrimSpace(r.MealChoice)
		m.Allergies = strings.TrimSpace(r.Allergies)
		if err := tooLong("meal_choice", m.MealChoice, MaxNameLength); err != nil {
			return err
		}
		if err := tooLong("allergies", m.Allergies, MaxTextLength); err != nil {
			return err
		}
	}

	prev := s.Members[i]
	s.Members[i] = m
	if !s.fits() {
		s.Members[i] = prev
		if len(m.Allergies) > len(m.Notes) {
			return noRoom("allergies")
		}
		return noRoom("notes")
	}
	return nil
}

// CompleteDetails closes the details step once everyone has answered.
func (s *Session) CompleteDetails() error {
	if err := s.expect("continue", StepAttendanceChosen); err != nil {
		return err
	}
	if !StatusesSet(s.Members) {
		return invalid("status", "please answer for every guest")
	}

	s.Step = StepDetailsComplete
	return nil
}

func (s *Session) SetContact(email, phone, message string) error {
	if err := s.expect("change contact details", StepSearching, StepPartyConfirmed, StepAttendanceChosen, StepDetailsComplete); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	message = strings.TrimSpace(message)
	if err := tooLong("email", email, MaxEmailLength); err != nil {
		return err
	}
	if err := tooLong("phone", phone, MaxPhoneLength); err != nil {
		return err
	}
	if err := tooLong("message", message, MaxMessageLength); err != nil {
		return err
	}

	prevEmail, prevPhone, prevMessage := s.Email, s.Phone, s.Message
	s.Email, s.Phone, s.Message = email, phone, message
	if !s.fits() {
		s.Email, s.Phone, s.Message = prevEmail, prevPhone, prevMessage
		return noRoom("message")
	}
	return nil
}

// BeginSubmit checks the contact email and attending plus-ones, moves to
// submitting and returns the renames and payload to send.
func (s *Session) BeginSubmit() (*Submission, error) {
	if err := s.expect("submit", StepDetailsComplete); err != nil {
		return nil, err
	}
	if !ValidContactEmail(s.Email) {
		return nil, invalid("email", "please enter a valid email address")
	}
	if !AttendingPlaceholdersNamed(s.Members) {
		return nil, invalid("plus_one_name", "please enter your guest's name")
	}

	sub := &Submission{
		NameUpdates: s.NameUpdates(),
		Request: SubmitRequest{
			PartyID: s.PartyID,
			Items:   s.Payload(),
			Email:   s.Email,
			Phone:   s.Phone,
			Message: s.Message,
		},
	}

	s.Step = StepSubmitting
	return sub, nil
}

// MarkSubmitted records a stored submission. Renamed plus-ones take their
// new names.
func (s *Session) MarkSubmitted() error {
	if err := s.expect("finish", StepSubmitting); err != nil {
		return err
	}
	for i := range s.Members {
		if s.Members[i].Placeholder && s.Members[i].PlusOneName != "" {
			s.Members[i].FullName = s.Members[i].PlusOneName
		}
	}
	s.Step = StepSubmitted
	return nil
}

// AbortSubmit returns to the details after a failed submission with
// everything kept for a retry.
func (s *Session) AbortSubmit() error {
	if err := s.expect("cancel", StepSubmitting); err != nil {
		return err
	}
	s.Step = StepDetailsComplete
	return nil
}

// Back steps to the previous screen keeping entered data, except that
// leaving the details clears the household choice and every answer.
func (s *Session) Back() error {
	switch s.Step {
	case StepPartyConfirmed:
		s.Step = StepSearching
	case StepAttendanceChosen:
		s.Attendance = ""
		for i := range s.Members {
			s.Members[i].Status = ""
		}
		s.Step = StepPartyConfirmed
	case StepDetailsComplete:
		s.Step = StepAttendanceChosen
	default:
		return s.expect("go back", StepPartyConfirmed, StepAttendanceChosen, StepDetailsComplete)
	}
	return nil
}

// Restart drops the session and starts a new search.
func (s *Session) Restart() {
	*s = *NewSession()
}

// Payload builds the items sent to the directory in member order. Meal
// and allergies are only sent for attending members.
func (s *Session) Payload() []database.RSVPItem {
	items := make([]database.RSVPItem, 0, len(s.Members))
	for _, m := range s.Members {
		item := database.RSVPItem{
			MemberID: m.MemberID,
			Status:   m.Status,
			Notes:    optional(m.Notes),
		}
		if m.Status == database.StatusYes {
			item.MealChoice = optional(m.MealChoice)
			item.Allergies = optional(m.Allergies)
		}
		items = append(items, item)
	}
	return items
}

// NameUpdates lists placeholders whose chosen name differs from the
// stored one.
func (s *Session) NameUpdates() []database.NameUpdate {
	var updates []database.NameUpdate
	for _, m := range s.Members {
		if m.Placeholder && m.PlusOneName != "" && m.PlusOneName != m.FullName {
			updates = append(updates, database.NameUpdate{MemberID: m.MemberID, FullName: m.PlusOneName})
		}
	}
	return updates
}

// fits reports whether the draft still fits in its cookie.
func (s *Session) fits() bool {
	raw, err := json.Marshal(s)
	return err == nil && len(raw) <= MaxDraftBytes
}

func tooLong(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return invalid(field, "this is too long, please keep it under %d characters", limit)
	}
	return nil
}

func clip(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func noRoom(field string) error {
	return invalid(field, "your answers are too long to save, please shorten them")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
