package rsvp

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/AlexTLDR/wedding/internal/database"
)

// Service wires the workflow components to one directory.
type Service struct {
	resolver  *Resolver
	plusOnes  *PlusOneUpdater
	submitter *Submitter
}

func NewService(dir Directory, notifier Notifier, opts Options, log zerolog.Logger) *Service {
	return &Service{
		resolver:  NewResolver(dir, opts.Timeout),
		plusOnes:  NewPlusOneUpdater(dir, opts.Timeout),
		submitter: NewSubmitter(dir, notifier, opts, log),
	}
}

func (s *Service) Resolve(ctx context.Context, query string) (*PartyResult, error) {
	return s.resolver.Resolve(ctx, query)
}

func (s *Service) ApplyPlusOneNames(ctx context.Context, updates []database.NameUpdate) error {
	return s.plusOnes.Apply(ctx, updates)
}

func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	return s.submitter.Submit(ctx, req)
}

// Finalize renames plus-ones and only then writes the RSVPs. A failed
// rename stops before anything is written.
func (s *Service) Finalize(ctx context.Context, sub *Submission) (*SubmitResult, error) {
	if err := s.plusOnes.Apply(ctx, sub.NameUpdates); err != nil {
		return nil, err
	}
	return s.submitter.Submit(ctx, sub.Request)
}
