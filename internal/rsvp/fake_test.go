package rsvp

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AlexTLDR/wedding/internal/database"
)

type batch struct {
	PartyID string
	Items   []database.RSVPItem
	Contact database.Contact
}

// fakeDirectory records every call and answers from canned values.
type fakeDirectory struct {
	mu sync.Mutex

	rows      []database.LookupRow
	lookupErr error
	updateErr error
	renameErr error
	block     bool

	calls   []string
	queries []string
	batches []batch
	renames [][]database.NameUpdate
}

func (f *fakeDirectory) LookupPartyByName(ctx context.Context, query string) ([]database.LookupRow, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "lookup")
	f.queries = append(f.queries, query)
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.rows, f.lookupErr
}

func (f *fakeDirectory) UpdatePartyRSVPs(_ context.Context, partyID string, items []database.RSVPItem, contact database.Contact) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "update-rsvps")
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	f.batches = append(f.batches, batch{PartyID: partyID, Items: items, Contact: contact})
	return len(items), nil
}

func (f *fakeDirectory) UpdateMemberNames(_ context.Context, updates []database.NameUpdate) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "update-names")
	if f.renameErr != nil {
		return 0, f.renameErr
	}
	f.renames = append(f.renames, updates)
	return len(updates), nil
}

// recordingDirectory passes calls through to a real database and keeps
// their order.
type recordingDirectory struct {
	*database.DB
	calls []string
}

func (r *recordingDirectory) UpdatePartyRSVPs(ctx context.Context, partyID string, items []database.RSVPItem, contact database.Contact) (int, error) {
	r.calls = append(r.calls, "update-rsvps")
	return r.DB.UpdatePartyRSVPs(ctx, partyID, items, contact)
}

func (r *recordingDirectory) UpdateMemberNames(ctx context.Context, updates []database.NameUpdate) (int, error) {
	r.calls = append(r.calls, "update-names")
	return r.DB.UpdateMemberNames(ctx, updates)
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New("sqlite://" + filepath.Join(t.TempDir(), "rsvp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

type recordedNotifier struct {
	mu   sync.Mutex
	sent []Confirmation
	err  error
}

func (n *recordedNotifier) Notify(_ context.Context, c Confirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, c)
	return n.err
}

func strPtr(s string) *string { return &s }
