package rsvp

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTLDR/wedding/internal/database"
)

var testOptions = Options{
	MealOptions: []string{"beef", "chicken", "fish", "vegetarian"},
	PhoneRegion: "US",
	Timeout:     time.Second,
}

func TestSubmitValidation(t *testing.T) {
	yes := database.RSVPItem{MemberID: "m1", Status: database.StatusYes}

	tests := []struct {
		name  string
		req   SubmitRequest
		field string
	}{
		{"missing party", SubmitRequest{Items: []database.RSVPItem{yes}}, "partyId"},
		{"blank party", SubmitRequest{PartyID: "  ", Items: []database.RSVPItem{yes}}, "partyId"},
		{"no items", SubmitRequest{PartyID: "p1"}, "rsvps"},
		{"missing member", SubmitRequest{PartyID: "p1", Items: []database.RSVPItem{{Status: database.StatusNo}}}, "member_id"},
		{"duplicate member", SubmitRequest{PartyID: "p1", Items: []database.RSVPItem{yes, yes}}, "member_id"},
		{"unknown status", SubmitRequest{PartyID: "p1", Items: []database.RSVPItem{{MemberID: "m1", Status: database.StatusUnknown}}}, "status"},
		{"empty status", SubmitRequest{PartyID: "p1", Items: []database.RSVPItem{{MemberID: "m1"}}}, "status"},
		{"meal off menu", SubmitRequest{PartyID: "p1", Items: []database.RSVPItem{{MemberID: "m1", Status: database.StatusYes, MealChoice: strPtr("lobster")}}}, "meal_choice"},
		{"bad email", SubmitRequest{PartyID: "p1", Items: []database.RSVPItem{yes}, Email: "nobody"}, "email"},
		{"bad phone", SubmitRequest{PartyID: "p1", Items: []database.RSVPItem{yes}, Phone: "123"}, "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := &fakeDirectory{}
			_, err := NewSubmitter(dir, nil, testOptions, zerolog.Nop()).Submit(context.Background(), tt.req)

			assertValidation(t, err, tt.field)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, dir.calls)
		})
	}
}

func TestSubmitClearsDetailsOfNonAttending(t *testing.T) {
	dir := &fakeDirectory{}
	notifier := &recordedNotifier{}

	res, err := NewSubmitter(dir, notifier, testOptions, zerolog.Nop()).Submit(context.Background(), SubmitRequest{
		PartyID: "p1",
		Items: []database.RSVPItem{
			{MemberID: "m1", Status: database.StatusYes, MealChoice: strPtr(" Fish "), Allergies: strPtr("nuts"), Notes: strPtr("  ")},
			{MemberID: "m2", Status: database.StatusNo, MealChoice: strPtr("beef"), Allergies: strPtr("gluten"), Notes: strPtr("sorry")},
		},
		Email:   "a@b.com",
		Phone:   "(202) 456-1111",
		Message: " Congrats! ",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)

	require.Len(t, dir.batches, 1)
	got := dir.batches[0]
	assert.Equal(t, "p1", got.PartyID)
	assert.Equal(t, database.Contact{Email: "a@b.com", Phone: "+12024561111"}, got.Contact)

	assert.Equal(t, "fish", *got.Items[0].MealChoice)
	assert.Equal(t, "nuts", *got.Items[0].Allergies)
	assert.Nil(t, got.Items[0].Notes)

	assert.Nil(t, got.Items[1].MealChoice)
	assert.Nil(t, got.Items[1].Allergies)
	assert.Equal(t, "sorry", *got.Items[1].Notes)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "a@b.com", notifier.sent[0].To)
	assert.Equal(t, "Congrats!", notifier.sent[0].Message)
	assert.Equal(t, got.Items, notifier.sent[0].Items)
}

func TestSubmitWithoutEmailSkipsNotifier(t *testing.T) {
	dir := &fakeDirectory{}
	notifier := &recordedNotifier{}

	_, err := NewSubmitter(dir, notifier, testOptions, zerolog.Nop()).Submit(context.Background(), SubmitRequest{
		PartyID: "p1",
		Items:   []database.RSVPItem{{MemberID: "m1", Status: database.StatusNo}},
	})
	require.NoError(t, err)
	assert.Empty(t, notifier.sent)
}

func TestSubmitSucceedsWhenNotifierFails(t *testing.T) {
	var logs bytes.Buffer
	dir := &fakeDirectory{}
	notifier := &recordedNotifier{err: errors.New("smtp exploded")}

	res, err := NewSubmitter(dir, notifier, testOptions, zerolog.New(&logs)).Submit(context.Background(), SubmitRequest{
		PartyID: "p1",
		Items:   []database.RSVPItem{{MemberID: "m1", Status: database.StatusYes}},
		Email:   "a@b.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Len(t, notifier.sent, 1)
	assert.Contains(t, logs.String(), "failed to dispatch confirmation email")
	assert.Contains(t, logs.String(), "smtp exploded")
}

func TestSubmitDirectoryFailure(t *testing.T) {
	dir := &fakeDirectory{updateErr: errors.New(`duplicate key value violates unique constraint "rsvps_pkey"`)}
	notifier := &recordedNotifier{}

	_, err := NewSubmitter(dir, notifier, testOptions, zerolog.Nop()).Submit(context.Background(), SubmitRequest{
		PartyID: "p1",
		Items:   []database.RSVPItem{{MemberID: "m1", Status: database.StatusYes}},
		Email:   "a@b.com",
	})

	var uerr *UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "update-rsvps", uerr.Op)
	assert.Contains(t, err.Error(), `violates unique constraint "rsvps_pkey"`)
	assert.Empty(t, notifier.sent)
}

func TestSubmitAcceptsAnyMealWithoutOptions(t *testing.T) {
	dir := &fakeDirectory{}
	_, err := NewSubmitter(dir, nil, Options{}, zerolog.Nop()).Submit(context.Background(), SubmitRequest{
		PartyID: "p1",
		Items:   []database.RSVPItem{{MemberID: "m1", Status: database.StatusYes, MealChoice: strPtr("Lobster")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "lobster", *dir.batches[0].Items[0].MealChoice)
}
