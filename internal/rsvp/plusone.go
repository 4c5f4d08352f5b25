package rsvp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexTLDR/wedding/internal/database"
	"github.com/AlexTLDR/wedding/internal/utils"
)

type PlusOneUpdater struct {
	dir     Directory
	timeout time.Duration
}

func NewPlusOneUpdater(dir Directory, timeout time.Duration) *PlusOneUpdater {
	return &PlusOneUpdater{dir: dir, timeout: timeout}
}

// Apply renames plus-one placeholders. Nothing is sent for an empty
// batch. If any target is not a placeholder the whole batch is refused
// and the error matches ErrPrecondition.
func (u *PlusOneUpdater) Apply(ctx context.Context, updates []database.NameUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	clean, err := cleanNameUpdates(updates)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := u.dir.UpdateMemberNames(ctx, clean); err != nil {
		if errors.Is(err, database.ErrNotPlaceholder) {
			return fmt.Errorf("%w: %w", ErrPrecondition, err)
		}
		return upstream("update-names", err)
	}

	return nil
}

func cleanNameUpdates(updates []database.NameUpdate) ([]database.NameUpdate, error) {
	seen := make(map[string]bool, len(updates))
	clean := make([]database.NameUpdate, 0, len(updates))

	for _, u := range updates {
		if u.MemberID == "" {
			return nil, invalid("member_id", "member id is required")
		}
		if seen[u.MemberID] {
			return nil, invalid("member_id", "member %s appears more than once", u.MemberID)
		}
		seen[u.MemberID] = true

		name := utils.DisplayName(u.FullName)
		if name == "" {
			return nil, invalid("full_name", "please enter your guest's name")
		}
		clean = append(clean, database.NameUpdate{MemberID: u.MemberID, FullName: name})
	}

	return clean, nil
}
