package database

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AlexTLDR/wedding/internal/utils"
)

// UpdateMemberNames renames plus-one placeholders in one transaction.
// A target that is not a placeholder fails the whole batch with
// ErrNotPlaceholder. The placeholder flag is left set so the same
// rename can be applied again.
func (db *DB) UpdateMemberNames(ctx context.Context, updates []NameUpdate) (updated int, err error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "UpdateMemberNames")
	defer span.End()
	defer func() { recordError(span, err) }()
	span.SetAttributes(attribute.Int("rename.count", len(updates)))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, u := range updates {
		name := utils.DisplayName(u.FullName)
		res, err := tx.ExecContext(ctx,
			`UPDATE party_members SET full_name = $1, search_key = $2 WHERE id = $3 AND is_plus_one_placeholder = TRUE`,
			name, utils.FoldName(name), u.MemberID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to rename member %s: %w", u.MemberID, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return 0, fmt.Errorf("%w: %s", ErrNotPlaceholder, u.MemberID)
		}
		updated++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return updated, nil
}
