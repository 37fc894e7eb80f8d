package queue

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("queue: entry not found")

	// ErrInvalidTransition is returned when a status change does not match
	// the entry's current state (e.g. marking an already-completed entry).
	ErrInvalidTransition = errors.New("queue: invalid status transition")
)

// OutcomeUpdate carries the result of one dispatched call back onto an
// entry. The store increments attempt_count by exactly one per update.
type OutcomeUpdate struct {
	Status  EntryStatus
	Outcome string

	// DoNotCallUntil sets the redial cooldown; nil clears it.
	DoNotCallUntil *time.Time

	At time.Time
}

// Store is the persisted, prioritized queue of call targets.
//
// Implementations must make MarkCalling and MarkOutcome atomic per-row
// transitions: MarkCalling only from queued, MarkOutcome only from calling.
type Store interface {
	// Insert adds an entry unless an open entry for the same
	// (lead_id, phone_number) already exists. Returns false on the no-op.
	Insert(ctx context.Context, e Entry) (bool, error)

	Get(ctx context.Context, id string) (Entry, error)

	// NextEligible returns the highest-priority eligible entry, FIFO among
	// equal priorities. ok=false signals queue exhaustion.
	NextEligible(ctx context.Context, now time.Time) (Entry, bool, error)

	MarkCalling(ctx context.Context, id string, at time.Time) error
	MarkOutcome(ctx context.Context, id string, upd OutcomeUpdate) (Entry, error)

	// OpenCount reports how many targets remain in the active rotation.
	OpenCount(ctx context.Context) (int, error)

	// RequeueStale returns entries left in calling by a crashed process to
	// queued. Only entries untouched since olderThan are affected.
	RequeueStale(ctx context.Context, olderThan time.Time) (int, error)
}
