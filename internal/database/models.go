package database

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// PlaceholderName marks an imported member as an unnamed plus-one.
const PlaceholderName = "Guest"

var (
	ErrPartyNotFound    = errors.New("party not found")
	ErrMemberNotInParty = errors.New("member does not belong to party")
	ErrNotEligible      = errors.New("member is not allowed to attend")
	ErrNotPlaceholder   = errors.New("member is not a plus-one placeholder")
)

type RSVPStatus string

const (
	StatusUnknown RSVPStatus = "unknown"
	StatusYes     RSVPStatus = "yes"
	StatusNo      RSVPStatus = "no"
)

type Party struct {
	ID             string
	HouseholdLabel string
	ContactEmail   sql.NullString
	ContactPhone   sql.NullString
	CreatedAt      time.Time
}

type PartyMember struct {
	ID                   string
	PartyID              string
	FullName             string
	IsPlusOnePlaceholder bool
	AllowAttend          bool
	SortOrder            int
}

// LookupRow is one member of a matched party with its current RSVP.
type LookupRow struct {
	PartyID              string     `json:"party_id"`
	HouseholdLabel       string     `json:"household_label"`
	MemberID             string     `json:"member_id"`
	FullName             string     `json:"full_name"`
	IsPlusOnePlaceholder bool       `json:"is_plus_one_placeholder"`
	AllowAttend          bool       `json:"allow_attend"`
	SortOrder            int        `json:"sort_order"`
	Status               RSVPStatus `json:"status"`
	MealChoice           *string    `json:"meal_choice"`
	Allergies            *string    `json:"allergies"`
	Notes                *string    `json:"notes"`
}

// RSVPItem is the per-member payload of a batched RSVP write.
type RSVPItem struct {
	MemberID   string     `json:"member_id"`
	Status     RSVPStatus `json:"status"`
	MealChoice *string    `json:"meal_choice"`
	Allergies  *string    `json:"allergies"`
	Notes      *string    `json:"notes"`
}

type NameUpdate struct {
	MemberID string `json:"member_id"`
	FullName string `json:"full_name"`
}

// Contact is stored on the party with each submission. Empty fields
// leave the stored value untouched.
type Contact struct {
	Email string
	Phone string
}

// NewMember describes a member when a party is created.
type NewMember struct {
	FullName    string
	AllowAttend bool
}

// IsPlaceholderName reports whether name marks an unnamed plus-one.
func IsPlaceholderName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), PlaceholderName)
}

type MemberWithRSVP struct {
	PartyMember
	Status     RSVPStatus
	MealChoice sql.NullString
	Allergies  sql.NullString
	Notes      sql.NullString
	UpdatedAt  sql.NullTime
}

type PartyWithMembers struct {
	Party
	Members []*MemberWithRSVP
}

type SongRequest struct {
	ID        string
	GuestName string
	Email     sql.NullString
	SongTitle string
	Artist    string
	TrackID   sql.NullString
	CreatedAt time.Time
}
