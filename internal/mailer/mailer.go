// Package mailer renders and sends RSVP confirmation emails.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/rs/zerolog"

	"github.com/AlexTLDR/wedding/internal/database"
	"github.com/AlexTLDR/wedding/internal/rsvp"
)

//go:embed templates/confirmation.html
var templateFS embed.FS

var confirmationTmpl = template.Must(template.ParseFS(templateFS, "templates/confirmation.html"))

// NameSource resolves member ids to their current names.
type NameSource interface {
	MemberNames(ctx context.Context, ids []string) (map[string]string, error)
}

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// RenderedMember is one line of the confirmation.
type RenderedMember struct {
	Name       string
	Attending  bool
	MealChoice string
	Allergies  string
}

type confirmationData struct {
	Attending bool
	Members   []RenderedMember
	Message   string
}

type Mailer struct {
	names   NameSource
	sender  Sender
	subject string
	log     zerolog.Logger
}

func New(names NameSource, sender Sender, subject string, log zerolog.Logger) *Mailer {
	return &Mailer{names: names, sender: sender, subject: subject, log: log}
}

// Members resolves every submitted item to a display line. Ids the
// directory does not know, or a failed lookup, render as "Guest".
func (m *Mailer) Members(ctx context.Context, items []database.RSVPItem) []RenderedMember {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.MemberID
	}

	names, err := m.names.MemberNames(ctx, ids)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to resolve member names for confirmation")
		names = nil
	}

	out := make([]RenderedMember, 0, len(items))
	for _, item := range items {
		name, ok := names[item.MemberID]
		if !ok || name == "" {
			name = database.PlaceholderName
		}
		rm := RenderedMember{Name: name, Attending: item.Status == database.StatusYes}
		if rm.Attending {
			rm.MealChoice = deref(item.MealChoice)
			rm.Allergies = deref(item.Allergies)
		}
		out = append(out, rm)
	}
	return out
}

func (m *Mailer) Render(ctx context.Context, c rsvp.Confirmation) (string, error) {
	data := confirmationData{
		Members: m.Members(ctx, c.Items),
		Message: c.Message,
	}
	for _, rm := range data.Members {
		if rm.Attending {
			data.Attending = true
			break
		}
	}

	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render confirmation: %w", err)
	}
	return buf.String(), nil
}

// Send renders and delivers a confirmation in a single attempt.
func (m *Mailer) Send(ctx context.Context, c rsvp.Confirmation) error {
	html, err := m.Render(ctx, c)
	if err != nil {
		return err
	}

	if err := m.sender.Send(ctx, c.To, m.subject, html); err != nil {
		return fmt.Errorf("failed to send confirmation to %s: %w", c.To, err)
	}

	m.log.Info().Str("party_id", c.PartyID).Str("to", c.To).Msg("confirmation email sent")
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
