package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AlexTLDR/wedding/internal/rsvp"
)

// AsyncNotifier sends confirmations on their own goroutine so the RSVP
// response never waits for the mail provider.
type AsyncNotifier struct {
	mailer  *Mailer
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

var _ rsvp.Notifier = (*AsyncNotifier)(nil)

func NewAsyncNotifier(m *Mailer, timeout time.Duration, log zerolog.Logger) *AsyncNotifier {
	return &AsyncNotifier{mailer: m, timeout: timeout, log: log}
}

func (n *AsyncNotifier) Notify(ctx context.Context, c rsvp.Confirmation) error {
	// outlive the request that triggered it
	ctx = context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()

		if err := n.mailer.Send(sendCtx, c); err != nil {
			n.log.Error().Err(err).Str("party_id", c.PartyID).Msg("confirmation email failed")
		}
	}()
	return nil
}

// Wait blocks until every pending confirmation has finished.
func (n *AsyncNotifier) Wait() {
	n.wg.Wait()
}
