package handlers

import (
	"net/http"
	"time"

	"github.com/AlexTLDR/wedding/internal/database"
)

type adminMember struct {
	ID          string              `json:"id"`
	FullName    string              `json:"full_name"`
	Placeholder bool                `json:"is_plus_one_placeholder"`
	AllowAttend bool                `json:"allow_attend"`
	Status      database.RSVPStatus `json:"status"`
	MealChoice  *string             `json:"meal_choice"`
	Allergies   *string             `json:"allergies"`
	Notes       *string             `json:"notes"`
	UpdatedAt   *time.Time          `json:"updated_at"`
}

type adminParty struct {
	ID             string        `json:"id"`
	HouseholdLabel string        `json:"household_label"`
	ContactEmail   *string       `json:"contact_email"`
	ContactPhone   *string       `json:"contact_phone"`
	Members        []adminMember `json:"members"`
}

// rsvpSummary counts members by answer.
type rsvpSummary struct {
	Parties   int            `json:"parties"`
	Guests    int            `json:"guests"`
	Attending int            `json:"attending"`
	Declining int            `json:"declining"`
	Pending   int            `json:"pending"`
	Meals     map[string]int `json:"meals"`
}

func summarize(parties []*database.PartyWithMembers) rsvpSummary {
	sum := rsvpSummary{Parties: len(parties), Meals: map[string]int{}}
	for _, p := range parties {
		for _, m := range p.Members {
			sum.Guests++
			switch m.Status {
			case database.StatusYes:
				sum.Attending++
				if m.MealChoice.Valid {
					sum.Meals[m.MealChoice.String]++
				}
			case database.StatusNo:
				sum.Declining++
			default:
				sum.Pending++
			}
		}
	}
	return sum
}

func toAdminParty(p *database.PartyWithMembers) adminParty {
	out := adminParty{
		ID:             p.ID,
		HouseholdLabel: p.HouseholdLabel,
		ContactEmail:   nullString(p.ContactEmail),
		ContactPhone:   nullString(p.ContactPhone),
		Members:        make([]adminMember, 0, len(p.Members)),
	}
	for _, m := range p.Members {
		am := adminMember{
			ID:          m.ID,
			FullName:    m.FullName,
			Placeholder: m.IsPlusOnePlaceholder,
			AllowAttend: m.AllowAttend,
			Status:      m.Status,
			MealChoice:  nullString(m.MealChoice),
			Allergies:   nullString(m.Allergies),
			Notes:       nullString(m.Notes),
		}
		if m.UpdatedAt.Valid {
			am.UpdatedAt = &m.UpdatedAt.Time
		}
		out.Members = append(out.Members, am)
	}
	return out
}

// HandleAdminParties lists every party with its answers and a summary
func HandleAdminParties(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parties, err := s.GetDB().ListParties(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to load parties", err.Error())
			return
		}

		views := make([]adminParty, 0, len(parties))
		for _, p := range parties {
			views = append(views, toAdminParty(p))
		}

		WriteJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"summary": summarize(parties),
			"parties": views,
		})
	}
}
