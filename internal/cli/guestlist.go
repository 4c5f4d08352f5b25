package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AlexTLDR/wedding/internal/database"
	"github.com/AlexTLDR/wedding/internal/rsvp"
	"github.com/AlexTLDR/wedding/internal/utils"
)

// maxExtraGuests is how many name columns follow the household column in
// a CSV guest list.
const maxExtraGuests = rsvp.MaxPartySize - 1

type GuestList struct {
	Parties []PartyEntry `yaml:"parties" json:"parties"`
}

type PartyEntry struct {
	Household string        `yaml:"household" json:"household"`
	Members   []MemberEntry `yaml:"members" json:"members"`
}

// MemberEntry is written either as a bare name or as a mapping.
type MemberEntry struct {
	Name        string `yaml:"name" json:"name"`
	AllowAttend *bool  `yaml:"allow_attend,omitempty" json:"allow_attend,omitempty"`
}

func (m *MemberEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		m.Name = node.Value
		return nil
	}
	type plain MemberEntry
	return node.Decode((*plain)(m))
}

func (m MemberEntry) newMember() database.NewMember {
	allow := true
	if m.AllowAttend != nil {
		allow = *m.AllowAttend
	}
	return database.NewMember{FullName: m.Name, AllowAttend: allow}
}

// FormatFromPath picks the parser from the file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv", nil
	case ".yaml", ".yml":
		return "yaml", nil
	}
	return "", fmt.Errorf("cannot tell the format of %q: use --input csv or --input yaml", path)
}

func ParseGuestList(r io.Reader, format string) (*GuestList, error) {
	var (
		list *GuestList
		err  error
	)
	switch format {
	case "csv":
		list, err = parseCSV(r)
	case "yaml":
		list, err = parseYAML(r)
	default:
		return nil, fmt.Errorf("unknown guest list format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return list, list.normalize()
}

// parseCSV reads one household per row after a header row. The first
// column is the household label and its first guest, the next five
// columns hold the other guests.
func parseCSV(r io.Reader) (*GuestList, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return &GuestList{}, nil
	}

	list := &GuestList{}
	for i, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}

		entry := PartyEntry{Household: strings.TrimSpace(rec[0])}
		if entry.Household == "" {
			entry.Household = fmt.Sprintf("Party %d", i+1)
		} else {
			entry.Members = append(entry.Members, MemberEntry{Name: rec[0]})
		}
		for j := 1; j <= maxExtraGuests && j < len(rec); j++ {
			if name := strings.TrimSpace(rec[j]); name != "" {
				entry.Members = append(entry.Members, MemberEntry{Name: name})
			}
		}
		list.Parties = append(list.Parties, entry)
	}
	return list, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseYAML(r io.Reader) (*GuestList, error) {
	list := &GuestList{}
	if err := yaml.NewDecoder(r).Decode(list); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read yaml: %w", err)
	}
	return list, nil
}

// normalize cleans up names and rejects empty or oversized households.
func (l *GuestList) normalize() error {
	for i := range l.Parties {
		p := &l.Parties[i]
		p.Household = utils.DisplayName(p.Household)
		if p.Household == "" {
			return fmt.Errorf("party %d: household is required", i+1)
		}

		members := p.Members[:0]
		for _, m := range p.Members {
			m.Name = utils.DisplayName(m.Name)
			if m.Name != "" {
				members = append(members, m)
			}
		}
		if len(members) == 0 {
			return fmt.Errorf("party %q has no guests", p.Household)
		}
		if len(members) > rsvp.MaxPartySize {
			return fmt.Errorf("party %q has %d guests, at most %d are allowed", p.Household, len(members), rsvp.MaxPartySize)
		}
		p.Members = members
	}
	return nil
}

// Guests counts every member of every party.
func (l *GuestList) Guests() int {
	n := 0
	for _, p := range l.Parties {
		n += len(p.Members)
	}
	return n
}
