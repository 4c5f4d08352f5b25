package rsvp

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/AlexTLDR/wedding/internal/database"
)

type Resolver struct {
	dir     Directory
	timeout time.Duration
}

func NewResolver(dir Directory, timeout time.Duration) *Resolver {
	return &Resolver{dir: dir, timeout: timeout}
}

// Resolve finds the household a guest belongs to. An empty query fails
// validation without touching the directory; no match yields ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, query string) (*PartyResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("name", "please enter the name on your invitation")
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.dir.LookupPartyByName(ctx, query)
	if err != nil {
		return nil, upstream("lookup", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	return partyFromRows(rows), nil
}

// partyFromRows keeps the rows of the first party returned and orders its
// members by sort_order, preserving directory order on ties.
func partyFromRows(rows []database.LookupRow) *PartyResult {
	party := &PartyResult{
		PartyID:        rows[0].PartyID,
		HouseholdLabel: rows[0].HouseholdLabel,
	}

	for _, row := range rows {
		if row.PartyID != party.PartyID {
			continue
		}
		status := row.Status
		if status == "" {
			status = database.StatusUnknown
		}
		party.Members = append(party.Members, Member{
			ID:                   row.MemberID,
			FullName:             row.FullName,
			IsPlusOnePlaceholder: row.IsPlusOnePlaceholder,
			AllowAttend:          row.AllowAttend,
			SortOrder:            row.SortOrder,
			Status:               status,
			MealChoice:           row.MealChoice,
			Allergies:            row.Allergies,
			Notes:                row.Notes,
		})
	}

	slices.SortStableFunc(party.Members, func(a, b Member) int {
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})

	return party
}
