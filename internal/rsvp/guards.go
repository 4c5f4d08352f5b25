package rsvp

import (
	"strings"

	"github.com/AlexTLDR/wedding/internal/database"
)

// PlaceholdersNamed holds when every plus-one placeholder has a name.
func PlaceholdersNamed(members []DraftMember) bool {
	for _, m := range members {
		if m.Placeholder && m.PlusOneName == "" {
			return false
		}
	}
	return true
}

// StatusesSet holds when every member has answered yes or no.
func StatusesSet(members []DraftMember) bool {
	for _, m := range members {
		if m.Status != database.StatusYes && m.Status != database.StatusNo {
			return false
		}
	}
	return true
}

// AttendingPlaceholdersNamed holds when every attending plus-one has a name.
func AttendingPlaceholdersNamed(members []DraftMember) bool {
	for _, m := range members {
		if m.Placeholder && m.Status == database.StatusYes && m.PlusOneName == "" {
			return false
		}
	}
	return true
}

// ValidContactEmail accepts any non-empty address containing an @.
func ValidContactEmail(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && strings.Contains(email, "@")
}
