package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AlexTLDR/wedding/internal/utils"
)

const (
	rankExact = iota
	rankPrefix
	rankMember
	rankHousehold
)

// LookupPartyByName returns every member of the single best-matching
// party, or no rows when nothing matches. Names are compared on their
// folded search keys: an exact member name beats a prefix, which beats a
// substring, which beats a household label match. Ties go to the party
// created first.
func (db *DB) LookupPartyByName(ctx context.Context, query string) (rows []LookupRow, err error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "LookupPartyByName")
	defer span.End()
	defer func() { recordError(span, err) }()

	key := utils.FoldName(query)
	if key == "" {
		return nil, nil
	}

	partyID, err := db.bestPartyMatch(ctx, key)
	if err != nil || partyID == "" {
		return nil, err
	}
	span.SetAttributes(attribute.String("party.id", partyID))

	return db.lookupRows(ctx, partyID)
}

func (db *DB) bestPartyMatch(ctx context.Context, key string) (string, error) {
	candidates, err := db.QueryContext(ctx,
		`SELECT p.id, m.search_key, p.search_key
		 FROM parties p
		 JOIN party_members m ON m.party_id = p.id
		 WHERE m.search_key LIKE $1 OR p.search_key LIKE $1
		 ORDER BY p.created_at, p.id, m.sort_order`,
		"%"+key+"%",
	)
	if err != nil {
		return "", fmt.Errorf("failed to search parties: %w", err)
	}
	defer candidates.Close()

	best, bestRank := "", rankHousehold+1
	for candidates.Next() {
		var partyID, memberKey, householdKey string
		if err := candidates.Scan(&partyID, &memberKey, &householdKey); err != nil {
			return "", fmt.Errorf("failed to scan party match: %w", err)
		}
		if r := matchRank(key, memberKey, householdKey); r < bestRank {
			best, bestRank = partyID, r
		}
	}
	if err := candidates.Err(); err != nil {
		return "", fmt.Errorf("failed to search parties: %w", err)
	}

	return best, nil
}

func matchRank(key, memberKey, householdKey string) int {
	switch {
	case memberKey == key:
		return rankExact
	case strings.HasPrefix(memberKey, key):
		return rankPrefix
	case strings.Contains(memberKey, key):
		return rankMember
	case strings.Contains(householdKey, key):
		return rankHousehold
	}
	return rankHousehold + 1
}

func (db *DB) lookupRows(ctx context.Context, partyID string) ([]LookupRow, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT p.id, p.household_label, m.id, m.full_name, m.is_plus_one_placeholder, m.allow_attend, m.sort_order,
			COALESCE(r.status, 'unknown'), r.meal_choice, r.allergies, r.notes
		 FROM party_members m
		 JOIN parties p ON p.id = m.party_id
		 LEFT JOIN rsvps r ON r.member_id = m.id
		 WHERE m.party_id = $1
		 ORDER BY m.sort_order, m.created_at, m.id`,
		partyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load party members: %w", err)
	}
	defer rows.Close()

	var out []LookupRow
	for rows.Next() {
		var row LookupRow
		if err := rows.Scan(&row.PartyID, &row.HouseholdLabel, &row.MemberID, &row.FullName,
			&row.IsPlusOnePlaceholder, &row.AllowAttend, &row.SortOrder,
			&row.Status, &row.MealChoice, &row.Allergies, &row.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan party member: %w", err)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

// MemberNames maps member ids to their current full names. Unknown ids
// are absent from the result.
func (db *DB) MemberNames(ctx context.Context, ids []string) (names map[string]string, err error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "MemberNames")
	defer span.End()
	defer func() { recordError(span, err) }()

	names = make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, full_name FROM party_members WHERE id IN (`+placeholders(1, len(ids))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load member names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan member name: %w", err)
		}
		names[id] = name
	}

	return names, rows.Err()
}

// CreateParty inserts a household with its members in list order. Members
// named "Guest" become plus-one placeholders and every member starts with
// an unknown RSVP.
func (db *DB) CreateParty(ctx context.Context, label string, members []NewMember) (p *Party, err error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "CreateParty")
	defer span.End()
	defer func() { recordError(span, err) }()

	label = utils.DisplayName(label)
	if label == "" {
		return nil, fmt.Errorf("household label is required")
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("party %q has no members", label)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	p = &Party{ID: uuid.NewString(), HouseholdLabel: label, CreatedAt: now}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO parties (id, household_label, search_key, created_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.HouseholdLabel, utils.FoldName(label), now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create party: %w", err)
	}

	for i, m := range members {
		name := utils.DisplayName(m.FullName)
		if name == "" {
			return nil, fmt.Errorf("member %d of %q has no name", i+1, label)
		}
		memberID := uuid.NewString()

		_, err = tx.ExecContext(ctx,
			`INSERT INTO party_members (id, party_id, full_name, search_key, is_plus_one_placeholder, allow_attend, sort_order, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			memberID, p.ID, name, utils.FoldName(name), IsPlaceholderName(name), m.AllowAttend, i, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create member: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO rsvps (member_id, status, updated_at) VALUES ($1, $2, $3)`,
			memberID, StatusUnknown, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create rsvp: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return p, nil
}

// ListParties returns every party with its members and RSVPs, oldest first.
func (db *DB) ListParties(ctx context.Context) (parties []*PartyWithMembers, err error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "ListParties")
	defer span.End()
	defer func() { recordError(span, err) }()

	rows, err := db.QueryContext(ctx,
		`SELECT p.id, p.household_label, p.contact_email, p.contact_phone, p.created_at,
			m.id, m.full_name, m.is_plus_one_placeholder, m.allow_attend, m.sort_order,
			COALESCE(r.status, 'unknown'), r.meal_choice, r.allergies, r.notes, r.updated_at
		 FROM parties p
		 JOIN party_members m ON m.party_id = p.id
		 LEFT JOIN rsvps r ON r.member_id = m.id
		 ORDER BY p.created_at, p.id, m.sort_order, m.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	defer rows.Close()

	var current *PartyWithMembers
	for rows.Next() {
		var p Party
		m := &MemberWithRSVP{}
		err := rows.Scan(&p.ID, &p.HouseholdLabel, &p.ContactEmail, &p.ContactPhone, &p.CreatedAt,
			&m.ID, &m.FullName, &m.IsPlusOnePlaceholder, &m.AllowAttend, &m.SortOrder,
			&m.Status, &m.MealChoice, &m.Allergies, &m.Notes, &m.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan party: %w", err)
		}
		m.PartyID = p.ID

		if current == nil || current.ID != p.ID {
			current = &PartyWithMembers{Party: p}
			parties = append(parties, current)
		}
		current.Members = append(current.Members, m)
	}

	return parties, rows.Err()
}

// GetParty loads a single party by id.
func (db *DB) GetParty(ctx context.Context, id string) (*Party, error) {
	p := &Party{}
	err := db.QueryRowContext(ctx,
		`SELECT id, household_label, contact_email, contact_phone, created_at FROM parties WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.HouseholdLabel, &p.ContactEmail, &p.ContactPhone, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPartyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get party: %w", err)
	}

	return p, nil
}
