// Package queue moves confirmation emails onto Redis so they survive a
// restart of the web process.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/AlexTLDR/wedding/internal/rsvp"
)

const TypeRSVPConfirmation = "mail:rsvp_confirmation"

const (
	confirmationTimeout = 30 * time.Second
	enqueueTimeout      = 5 * time.Second
)

// ConfirmationSender delivers a confirmation; *mailer.Mailer satisfies it.
type ConfirmationSender interface {
	Send(ctx context.Context, c rsvp.Confirmation) error
}

// NewConfirmationTask builds a single-attempt task for c.
func NewConfirmationTask(c rsvp.Confirmation) (*asynq.Task, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode confirmation: %w", err)
	}
	return asynq.NewTask(TypeRSVPConfirmation, payload,
		asynq.MaxRetry(0),
		asynq.Timeout(confirmationTimeout),
	), nil
}

// enqueuer is the part of *asynq.Client the queue uses.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// MailQueue enqueues confirmations instead of sending them inline.
// Enqueueing happens off the request, bounded by a timeout, and failures
// are only logged.
type MailQueue struct {
	client  enqueuer
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

var _ rsvp.Notifier = (*MailQueue)(nil)

func NewMailQueue(redisURL string, log zerolog.Logger) (*MailQueue, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse REDIS_URL: %w", err)
	}
	return newMailQueue(asynq.NewClient(opt), enqueueTimeout, log), nil
}

func newMailQueue(client enqueuer, timeout time.Duration, log zerolog.Logger) *MailQueue {
	return &MailQueue{client: client, timeout: timeout, log: log}
}

func (q *MailQueue) Notify(ctx context.Context, c rsvp.Confirmation) error {
	task, err := NewConfirmationTask(c)
	if err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		enqueueCtx, cancel := context.WithTimeout(ctx, q.timeout)
		defer cancel()

		info, err := q.client.EnqueueContext(enqueueCtx, task)
		if err != nil {
			q.log.Error().Err(err).Str("party_id", c.PartyID).Msg("failed to enqueue confirmation")
			return
		}
		q.log.Debug().Str("task_id", info.ID).Str("party_id", c.PartyID).Msg("confirmation queued")
	}()
	return nil
}

// Close waits for pending enqueues and closes the Redis client.
func (q *MailQueue) Close() error {
	q.wg.Wait()
	return q.client.Close()
}

// HandleConfirmation sends the confirmation carried by a task. A payload
// that cannot be decoded is never retried.
func HandleConfirmation(sender ConfirmationSender) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var c rsvp.Confirmation
		if err := json.Unmarshal(t.Payload(), &c); err != nil {
			return fmt.Errorf("invalid confirmation payload: %v: %w", err, asynq.SkipRetry)
		}
		return sender.Send(ctx, c)
	}
}
