// Package rsvp implements the household RSVP workflow: finding a party by
// guest name, walking a browser session through the wizard, naming
// plus-ones and submitting every member's answer in one batch.
package rsvp

import (
	"context"
	"time"

	"github.com/AlexTLDR/wedding/internal/database"
)

// Directory is the party store the workflow reads from and writes to.
// *database.DB satisfies it.
type Directory interface {
	LookupPartyByName(ctx context.Context, query string) ([]database.LookupRow, error)
	UpdatePartyRSVPs(ctx context.Context, partyID string, items []database.RSVPItem, contact database.Contact) (int, error)
	UpdateMemberNames(ctx context.Context, updates []database.NameUpdate) (int, error)
}

var _ Directory = (*database.DB)(nil)

// Member is one guest of a resolved party.
type Member struct {
	ID                   string              `json:"id"`
	FullName             string              `json:"full_name"`
	IsPlusOnePlaceholder bool                `json:"is_plus_one_placeholder"`
	AllowAttend          bool                `json:"allow_attend"`
	SortOrder            int                 `json:"sort_order"`
	Status               database.RSVPStatus `json:"status"`
	MealChoice           *string             `json:"meal_choice"`
	Allergies            *string             `json:"allergies"`
	Notes                *string             `json:"notes"`
}

// PartyResult is a household with its members in sort order.
type PartyResult struct {
	PartyID        string   `json:"party_id"`
	HouseholdLabel string   `json:"household_label"`
	Members        []Member `json:"members"`
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
