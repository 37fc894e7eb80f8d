package dialer

import (
	"context"
	"errors"
	"time"

	"autodialer/internal/queue"
	"autodialer/internal/reporting"
)

var ErrSessionNotFound = errors.New("dialer: session not found")

// CounterDelta is the set of session counter increments recorded together
// with one call outcome.
type CounterDelta struct {
	CompletedCalls     int
	SuccessfulConnects int
	VoicemailsDropped  int
}

// Store persists sessions and applies call outcomes. RecordOutcome is the
// transactional heart of the engine: the queue entry transition, the
// call_logs append, and the session counter bump land atomically or not
// at all.
type Store interface {
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (Session, error)

	// OpenSession returns the single active or paused session, if any.
	OpenSession(ctx context.Context) (Session, bool, error)

	// UpdateSession writes status, pacing, current target and end time.
	// Counters are never written through this path.
	UpdateSession(ctx context.Context, s Session) error

	// SetCurrentTarget points the session at the entry being dialed without
	// touching status, so it cannot race a concurrent pause or stop.
	SetCurrentTarget(ctx context.Context, sessionID, targetID string, at time.Time) error

	// RecordOutcome applies one finished call and returns the session row
	// as it stands after the update.
	RecordOutcome(ctx context.Context, sessionID string, entryID string, upd queue.OutcomeUpdate, delta CounterDelta, log reporting.CallLog) (Session, error)
}

func terminalAt(t time.Time) *time.Time { return &t }
