package rsvp

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTLDR/wedding/internal/database"
)

func TestResolveRejectsBlankQueryWithoutLookup(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		dir := &fakeDirectory{}
		_, err := NewResolver(dir, time.Second).Resolve(context.Background(), q)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "name", verr.Field)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, dir.calls)
	}
}

func TestResolveSortsMembersStably(t *testing.T) {
	dir := &fakeDirectory{rows: []database.LookupRow{
		{PartyID: "p1", HouseholdLabel: "The Smiths", MemberID: "a", SortOrder: 2},
		{PartyID: "p1", HouseholdLabel: "The Smiths", MemberID: "b", SortOrder: 0},
		{PartyID: "p1", HouseholdLabel: "The Smiths", MemberID: "c", SortOrder: 1},
		{PartyID: "p1", HouseholdLabel: "The Smiths", MemberID: "d", SortOrder: 0},
	}}

	party, err := NewResolver(dir, time.Second).Resolve(context.Background(), "  Smith ")
	require.NoError(t, err)

	assert.Equal(t, []string{"Smith"}, dir.queries)
	assert.Equal(t, "p1", party.PartyID)
	assert.Equal(t, "The Smiths", party.HouseholdLabel)

	var ids []string
	for _, m := range party.Members {
		ids = append(ids, m.ID)
		assert.Equal(t, database.StatusUnknown, m.Status)
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, ids)
}

func TestResolveSortsExtremeSortOrders(t *testing.T) {
	dir := &fakeDirectory{rows: []database.LookupRow{
		{PartyID: "p1", MemberID: "last", SortOrder: math.MaxInt},
		{PartyID: "p1", MemberID: "first", SortOrder: math.MinInt},
		{PartyID: "p1", MemberID: "middle", SortOrder: 0},
	}}

	party, err := NewResolver(dir, time.Second).Resolve(context.Background(), "smith")
	require.NoError(t, err)

	var ids []string
	for _, m := range party.Members {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"first", "middle", "last"}, ids)
}

func TestResolveKeepsFirstPartyOnly(t *testing.T) {
	dir := &fakeDirectory{rows: []database.LookupRow{
		{PartyID: "p1", MemberID: "a", Status: database.StatusYes},
		{PartyID: "p2", MemberID: "x"},
		{PartyID: "p1", MemberID: "b", SortOrder: 1},
	}}

	party, err := NewResolver(dir, time.Second).Resolve(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, party.Members, 2)
	assert.Equal(t, database.StatusYes, party.Members[0].Status)
	assert.Equal(t, "b", party.Members[1].ID)
}

func TestResolveNotFound(t *testing.T) {
	dir := &fakeDirectory{}
	party, err := NewResolver(dir, time.Second).Resolve(context.Background(), "Nobody")

	assert.Nil(t, party)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestResolveSurfacesDirectoryMessage(t *testing.T) {
	dir := &fakeDirectory{lookupErr: errors.New("permission denied for function lookup_party_by_name")}
	_, err := NewResolver(dir, time.Second).Resolve(context.Background(), "Smith")

	var uerr *UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "lookup", uerr.Op)
	assert.False(t, uerr.Timeout())
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "permission denied for function lookup_party_by_name")
}

func TestResolveTimesOut(t *testing.T) {
	dir := &fakeDirectory{block: true}
	_, err := NewResolver(dir, 10*time.Millisecond).Resolve(context.Background(), "Smith")

	var uerr *UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.True(t, uerr.Timeout())
}
