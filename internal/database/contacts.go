package database

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
)

// ContactPhones returns the stored contact phone of every party that has one.
func (db *DB) ContactPhones(ctx context.Context) (phones map[string]string, err error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "ContactPhones")
	defer span.End()
	defer func() { recordError(span, err) }()

	rows, err := db.QueryContext(ctx,
		`SELECT id, contact_phone FROM parties WHERE contact_phone IS NOT NULL AND contact_phone <> ''`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact phones: %w", err)
	}
	defer rows.Close()

	phones = make(map[string]string)
	for rows.Next() {
		var id, phone string
		if err := rows.Scan(&id, &phone); err != nil {
			return nil, fmt.Errorf("failed to scan contact phone: %w", err)
		}
		phones[id] = phone
	}

	return phones, rows.Err()
}

func (db *DB) SetContactPhone(ctx context.Context, partyID, phone string) error {
	res, err := db.ExecContext(ctx, `UPDATE parties SET contact_phone = $1 WHERE id = $2`, phone, partyID)
	if err != nil {
		return fmt.Errorf("failed to update contact phone: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPartyNotFound
	}
	return nil
}
