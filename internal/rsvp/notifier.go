package rsvp

import (
	"context"

	"github.com/AlexTLDR/wedding/internal/database"
)

// Confirmation is what the mailer needs to thank a household. Items are
// the cleaned items that were actually stored.
type Confirmation struct {
	To      string              `json:"to"`
	PartyID string              `json:"party_id"`
	Items   []database.RSVPItem `json:"items"`
	Message string              `json:"message,omitempty"`
}

// Notifier dispatches a confirmation. Implementations should return
// quickly; delivery failures are logged by the caller and never undo the
// submission.
type Notifier interface {
	Notify(ctx context.Context, c Confirmation) error
}

type NotifierFunc func(ctx context.Context, c Confirmation) error

func (f NotifierFunc) Notify(ctx context.Context, c Confirmation) error {
	return f(ctx, c)
}
