package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"autodialer/internal/leads"

	"github.com/google/uuid"
)

// Service owns queue writes from the control surface. Enqueue is append-only
// and safe to interleave with an active dial session.
type Service struct {
	store Store
	dir   leads.Directory
	log   *slog.Logger

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(store Store, dir leads.Directory, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, dir: dir, log: log, clock: time.Now}
}

// Enqueue resolves each lead's phone numbers and inserts one entry per
// number. The primary number outranks the rest; among non-primary numbers,
// mobile ones get a priority bump. Do-not-call leads are skipped entirely.
// Re-enqueuing an open (lead, number) pair is a no-op.
//
// Returns how many entries were actually inserted.
func (s *Service) Enqueue(ctx context.Context, leadIDs []string, priority int) (int, error) {
	if len(leadIDs) == 0 {
		return 0, errors.New("queue: no lead ids")
	}

	now := s.clock().UTC()
	inserted := 0

	for _, leadID := range leadIDs {
		lead, err := s.dir.Lead(ctx, leadID)
		if err != nil {
			if errors.Is(err, leads.ErrNotFound) {
				s.log.Warn("enqueue: unknown lead skipped", "lead_id", leadID)
				continue
			}
			return inserted, fmt.Errorf("queue: lead lookup: %w", err)
		}
		if lead.DoNotCall {
			s.log.Debug("enqueue: do-not-call lead skipped", "lead_id", leadID)
			continue
		}

		phones, err := s.dir.PhoneNumbers(ctx, leadID)
		if err != nil {
			return inserted, fmt.Errorf("queue: phone lookup: %w", err)
		}

		for _, p := range phones {
			number, err := leads.NormalizeE164(p.Number)
			if err != nil {
				s.log.Warn("enqueue: unparseable number skipped", "lead_id", leadID, "number", p.Number)
				continue
			}

			pri := priority
			switch {
			case p.IsPrimary:
				pri += 2
			case p.Type == leads.PhoneTypeMobile:
				pri += 1
			}

			ok, err := s.store.Insert(ctx, Entry{
				ID:          uuid.NewString(),
				LeadID:      leadID,
				PhoneNumber: number,
				Priority:    pri,
				Status:      EntryStatusQueued,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			if err != nil {
				return inserted, fmt.Errorf("queue: insert: %w", err)
			}
			if ok {
				inserted++
			}
		}
	}
	return inserted, nil
}
