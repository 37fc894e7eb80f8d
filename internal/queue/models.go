package queue

import "time"

// Entry is one schedulable (lead, phone number) call target with its own
// retry state. Entries are never deleted; they transition to a terminal
// status so dialing history is preserved.
type Entry struct {
	ID          string `json:"id" db:"id"`
	LeadID      string `json:"lead_id" db:"lead_id"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`

	// Priority orders dialing; higher dials sooner. Ties break FIFO on
	// CreatedAt.
	Priority int `json:"priority" db:"priority"`

	AttemptCount int         `json:"attempt_count" db:"attempt_count"`
	Status       EntryStatus `json:"status" db:"status"`

	LastAttemptAt      *time.Time `json:"last_attempt_at,omitempty" db:"last_attempt_at"`
	LastAttemptOutcome string     `json:"last_attempt_outcome,omitempty" db:"last_attempt_outcome"`

	// DoNotCallUntil is a redial cooldown; the entry is ineligible until it
	// passes.
	DoNotCallUntil *time.Time `json:"do_not_call_until,omitempty" db:"do_not_call_until"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type EntryStatus string

const (
	EntryStatusQueued    EntryStatus = "queued"
	EntryStatusCalling   EntryStatus = "calling"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusFailed    EntryStatus = "failed"
)

// MaxAttempts bounds redials per target. An entry at MaxAttempts is retired
// from rotation permanently.
const MaxAttempts = 3

// Eligible reports whether the entry may be dialed at now.
func (e Entry) Eligible(now time.Time) bool {
	if e.Status != EntryStatusQueued {
		return false
	}
	if e.AttemptCount >= MaxAttempts {
		return false
	}
	if e.DoNotCallUntil != nil && e.DoNotCallUntil.After(now) {
		return false
	}
	return true
}

// Open reports whether the entry still counts toward the active rotation
// for enqueue idempotency purposes.
func (e Entry) Open() bool {
	return e.Status == EntryStatusQueued || e.Status == EntryStatusCalling
}
