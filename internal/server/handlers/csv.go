package handlers

import (
	"encoding/csv"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/AlexTLDR/wedding/internal/database"
)

var csvHeader = []string{"Household", "Guest", "Plus-one", "Attending", "Meal", "Allergies", "Notes", "Email", "Phone", "Updated"}

// csvRowData holds formatted data for a single CSV row
type csvRowData struct {
	household string
	name      string
	plusOne   string
	attending string
	meal      string
	allergies string
	notes     string
	email     string
	phone     string
	updated   string
}

// flattenField keeps multi-line notes on one row
func flattenField(field string) string {
	return strings.Join(strings.Fields(field), " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatMemberForCSV converts one member of a party to CSV row data
func formatMemberForCSV(p *database.PartyWithMembers, m *database.MemberWithRSVP) csvRowData {
	row := csvRowData{
		household: p.HouseholdLabel,
		name:      m.FullName,
		plusOne:   "No",
		attending: "-",
		meal:      "-",
		allergies: "-",
		notes:     orDash(flattenField(m.Notes.String)),
		email:     orDash(p.ContactEmail.String),
		phone:     orDash(p.ContactPhone.String),
		updated:   "-",
	}

	if m.IsPlusOnePlaceholder {
		row.plusOne = "Yes"
	}

	switch m.Status {
	case database.StatusYes:
		row.attending = "Yes"
		row.meal = orDash(m.MealChoice.String)
		row.allergies = orDash(flattenField(m.Allergies.String))
	case database.StatusNo:
		row.attending = "No"
	default:
		return row
	}

	// only answered rows carry a response time
	if m.UpdatedAt.Valid {
		row.updated = m.UpdatedAt.Time.UTC().Format("2006-01-02 15:04")
	}

	return row
}

func (row csvRowData) record() []string {
	return []string{row.household, row.name, row.plusOne, row.attending, row.meal,
		row.allergies, row.notes, row.email, row.phone, row.updated}
}

// writeCSVHeaders sets HTTP headers and writes the CSV header row
func writeCSVHeaders(w http.ResponseWriter, cw *csv.Writer) error {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=rsvp-list.csv")

	// UTF-8 BOM for Excel
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	return cw.Write(csvHeader)
}

// HandleAdminDownloadCSV exports one row per party member
func HandleAdminDownloadCSV(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parties, err := s.GetDB().ListParties(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to load parties", err.Error())
			return
		}

		cw := csv.NewWriter(w)
		if err := writeCSVHeaders(w, cw); err != nil {
			return
		}

		for _, p := range parties {
			for _, m := range p.Members {
				if err := cw.Write(formatMemberForCSV(p, m).record()); err != nil {
					hlog.FromRequest(r).Error().Err(err).Msg("failed to write csv row")
					return
				}
			}
		}

		cw.Flush()
		if err := cw.Error(); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("failed to flush csv")
		}
	}
}
