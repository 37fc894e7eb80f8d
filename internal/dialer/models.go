package dialer

import "time"

// Session is one bounded run of the dialing loop, from start to natural
// exhaustion or explicit stop. Completed sessions are terminal; starting
// again creates a new session.
//
// Invariant: at most one session is open (active or paused) process-wide.
// The session row's counters are projections over call_logs and are only
// updated in the same transaction as a ledger append.
type Session struct {
	ID     string        `json:"id" db:"id"`
	Name   string        `json:"name" db:"name"`
	Status SessionStatus `json:"status" db:"status"`

	// PacingSeconds is the delay between one call's processing and the next
	// dial. Zero means no delay (test mode).
	PacingSeconds int `json:"pacing_seconds" db:"pacing_seconds"`

	TotalTargets       int `json:"total_targets" db:"total_targets"`
	CompletedCalls     int `json:"completed_calls" db:"completed_calls"`
	SuccessfulConnects int `json:"successful_connects" db:"successful_connects"`
	VoicemailsDropped  int `json:"voicemails_dropped" db:"voicemails_dropped"`

	// CurrentTargetID is the entry being dialed; empty when idle at the
	// end of a session.
	CurrentTargetID string `json:"current_target_id,omitempty" db:"current_target_id"`

	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

type SessionStatus string

const (
	SessionStatusIdle      SessionStatus = "idle"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusPaused    SessionStatus = "paused"
	SessionStatusCompleted SessionStatus = "completed"
)

// Open reports whether the session still owns the dialing loop.
func (s Session) Open() bool {
	return s.Status == SessionStatusActive || s.Status == SessionStatusPaused
}

func (s Session) PacingInterval() time.Duration {
	return time.Duration(s.PacingSeconds) * time.Second
}
