package reporting

import "time"

// CallLog is one row of the append-only ledger of dispatched calls.
// Session counters are projections over this ledger; the ledger itself is
// never mutated except for the provider-status correction applied by the
// status webhook.
type CallLog struct {
	ID        string `json:"id" db:"id"`
	SessionID string `json:"session_id" db:"session_id"`
	EntryID   string `json:"entry_id" db:"entry_id"`
	LeadID    string `json:"lead_id" db:"lead_id"`

	PhoneNumber   string `json:"phone_number" db:"phone_number"`
	AttemptNumber int    `json:"attempt_number" db:"attempt_number"`

	// Outcome is one of connected, voicemail, no_answer, busy, failed.
	Outcome         string `json:"outcome" db:"outcome"`
	DurationSeconds int    `json:"duration_seconds" db:"duration_seconds"`

	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	CallbackScheduled    bool `json:"callback_scheduled" db:"callback_scheduled"`
	AppointmentScheduled bool `json:"appointment_scheduled" db:"appointment_scheduled"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SessionSummary is the derived aggregate for one session, computed on
// demand from logged outcomes; it holds no independently mutated state.
type SessionSummary struct {
	SessionID string `json:"session_id"`

	TotalCalls        int `json:"total_calls"`
	ConnectedCalls    int `json:"connected_calls"`
	VoicemailsDropped int `json:"voicemails_dropped"`

	ConnectRate   float64 `json:"connect_rate"`
	VoicemailRate float64 `json:"voicemail_rate"`

	AverageDurationSeconds int `json:"average_duration_seconds"`
}
