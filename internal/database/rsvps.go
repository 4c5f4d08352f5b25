package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UpdatePartyRSVPs writes every item of one party in a single
// transaction. Either all items are stored or none: an unknown party, a
// member outside the party or a "yes" for a member who may not attend
// rolls the whole batch back. Re-sending the same batch is harmless.
func (db *DB) UpdatePartyRSVPs(ctx context.Context, partyID string, items []RSVPItem, contact Contact) (updated int, err error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "UpdatePartyRSVPs")
	defer span.End()
	defer func() { recordError(span, err) }()
	span.SetAttributes(attribute.String("party.id", partyID), attribute.Int("rsvp.items", len(items)))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	eligible, err := partyEligibility(ctx, tx, partyID)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	for _, item := range items {
		allowed, ok := eligible[item.MemberID]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMemberNotInParty, item.MemberID)
		}
		if item.Status == StatusYes && !allowed {
			return 0, fmt.Errorf("%w: %s", ErrNotEligible, item.MemberID)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO rsvps (member_id, status, meal_choice, allergies, notes, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (member_id) DO UPDATE SET
				status = excluded.status,
				meal_choice = excluded.meal_choice,
				allergies = excluded.allergies,
				notes = excluded.notes,
				updated_at = excluded.updated_at`,
			item.MemberID, item.Status, item.MealChoice, item.Allergies, item.Notes, now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to save rsvp for %s: %w", item.MemberID, err)
		}
		updated++
	}

	if contact.Email != "" || contact.Phone != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE parties SET contact_email = COALESCE($1, contact_email), contact_phone = COALESCE($2, contact_phone) WHERE id = $3`,
			nullable(contact.Email), nullable(contact.Phone), partyID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to update party contact: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return updated, nil
}

// partyEligibility maps each member of the party to its allow_attend flag.
func partyEligibility(ctx context.Context, tx *sql.Tx, partyID string) (map[string]bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM parties WHERE id = $1)`, partyID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check party: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrPartyNotFound, partyID)
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, allow_attend FROM party_members WHERE party_id = $1`, partyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load party members: %w", err)
	}
	defer rows.Close()

	eligible := make(map[string]bool)
	for rows.Next() {
		var id string
		var allow bool
		if err := rows.Scan(&id, &allow); err != nil {
			return nil, fmt.Errorf("failed to scan party member: %w", err)
		}
		eligible[id] = allow
	}

	return eligible, rows.Err()
}
