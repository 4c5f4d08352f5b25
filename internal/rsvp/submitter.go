package rsvp

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AlexTLDR/wedding/internal/database"
	"github.com/AlexTLDR/wedding/internal/utils"
)

type SubmitRequest struct {
	PartyID string              `json:"partyId"`
	Items   []database.RSVPItem `json:"rsvps"`
	Email   string              `json:"email,omitempty"`
	Phone   string              `json:"phone,omitempty"`
	Message string              `json:"message,omitempty"`
}

type SubmitResult struct {
	Updated int `json:"updated"`
}

type Options struct {
	// MealOptions limits meal choices; empty accepts any value.
	MealOptions []string
	// PhoneRegion is used for contact numbers without a country code.
	PhoneRegion string
	// Timeout bounds each directory call.
	Timeout time.Duration
}

type Submitter struct {
	dir      Directory
	notifier Notifier
	opts     Options
	log      zerolog.Logger
}

func NewSubmitter(dir Directory, notifier Notifier, opts Options, log zerolog.Logger) *Submitter {
	return &Submitter{dir: dir, notifier: notifier, opts: opts, log: log}
}

// Submit validates and stores every member's answer for one party in a
// single batched write, then hands a confirmation to the notifier.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	items, contact, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	writeCtx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()

	updated, err := s.dir.UpdatePartyRSVPs(writeCtx, req.PartyID, items, contact)
	if err != nil {
		return nil, upstream("update-rsvps", err)
	}

	s.log.Info().
		Str("party_id", req.PartyID).
		Int("updated", updated).
		Msg("rsvp saved")

	if contact.Email != "" && s.notifier != nil {
		err := s.notifier.Notify(ctx, Confirmation{
			To:      contact.Email,
			PartyID: req.PartyID,
			Items:   items,
			Message: strings.TrimSpace(req.Message),
		})
		if err != nil {
			// Log but don't fail - the rsvp is already stored
			s.log.Warn().Err(err).Str("party_id", req.PartyID).Msg("failed to dispatch confirmation email")
		}
	}

	return &SubmitResult{Updated: updated}, nil
}

func (s *Submitter) validate(req SubmitRequest) ([]database.RSVPItem, database.Contact, error) {
	var contact database.Contact

	if strings.TrimSpace(req.PartyID) == "" {
		return nil, contact, invalid("partyId", "party id is required")
	}
	if len(req.Items) == 0 {
		return nil, contact, invalid("rsvps", "at least one response is required")
	}

	seen := make(map[string]bool, len(req.Items))
	items := make([]database.RSVPItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.MemberID == "" {
			return nil, contact, invalid("member_id", "member id is required")
		}
		if seen[item.MemberID] {
			return nil, contact, invalid("member_id", "member %s appears more than once", item.MemberID)
		}
		seen[item.MemberID] = true

		clean, err := s.cleanItem(item)
		if err != nil {
			return nil, contact, err
		}
		items = append(items, clean)
	}

	contact.Email = strings.TrimSpace(req.Email)
	if contact.Email != "" && !ValidContactEmail(contact.Email) {
		return nil, contact, invalid("email", "please enter a valid email address")
	}

	if phone := strings.TrimSpace(req.Phone); phone != "" {
		normalized, err := utils.NormalizePhoneNumber(phone, s.opts.PhoneRegion)
		if err != nil {
			return nil, contact, invalid("phone", "invalid phone number format")
		}
		contact.Phone = normalized
	}

	return items, contact, nil
}

// cleanItem trims free text and drops meal and allergies unless the
// member is attending.
func (s *Submitter) cleanItem(item database.RSVPItem) (database.RSVPItem, error) {
	switch item.Status {
	case database.StatusYes, database.StatusNo:
	default:
		return item, invalid("status", "please answer yes or no for every guest")
	}

	out := database.RSVPItem{
		MemberID: item.MemberID,
		Status:   item.Status,
		Notes:    trimmed(item.Notes),
	}
	if item.Status != database.StatusYes {
		return out, nil
	}

	out.Allergies = trimmed(item.Allergies)
	if meal := trimmed(item.MealChoice); meal != nil {
		m := strings.ToLower(*meal)
		if !s.mealAllowed(m) {
			return item, invalid("meal_choice", "%q is not on the menu", *meal)
		}
		out.MealChoice = &m
	}

	return out, nil
}

func (s *Submitter) mealAllowed(meal string) bool {
	if len(s.opts.MealOptions) == 0 {
		return true
	}
	for _, m := range s.opts.MealOptions {
		if strings.EqualFold(m, meal) {
			return true
		}
	}
	return false
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
