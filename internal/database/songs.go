package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// CreateSongRequests stores a batch of requests in one transaction and
// fills in their ids and timestamps.
func (db *DB) CreateSongRequests(ctx context.Context, reqs []*SongRequest) (err error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "CreateSongRequests")
	defer span.End()
	defer func() { recordError(span, err) }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, req := range reqs {
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		if req.CreatedAt.IsZero() {
			req.CreatedAt = now
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO song_requests (id, guest_name, email, song_title, artist, track_id, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			req.ID, req.GuestName, req.Email, req.SongTitle, req.Artist, req.TrackID, req.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create song request: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListSongRequests returns all song requests, newest first.
func (db *DB) ListSongRequests(ctx context.Context) (reqs []*SongRequest, err error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "ListSongRequests")
	defer span.End()
	defer func() { recordError(span, err) }()

	rows, err := db.QueryContext(ctx,
		`SELECT id, guest_name, email, song_title, artist, track_id, created_at
		 FROM song_requests ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get song requests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		req := &SongRequest{}
		if err := rows.Scan(&req.ID, &req.GuestName, &req.Email, &req.SongTitle, &req.Artist, &req.TrackID, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan song request: %w", err)
		}
		reqs = append(reqs, req)
	}

	return reqs, rows.Err()
}
