package telephony

import (
	"context"
)

// DialProvider defines the provider-agnostic outbound calling interface
// used by the dial engine.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - Keep request/response types provider-agnostic; provider identifiers are
//   carried as opaque strings.
type DialProvider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	// PlaceCall dials the target and blocks until the call reaches a
	// terminal state (or ctx expires). The returned outcome is normalized
	// into the five-value enum; provider-specific detail stays inside the
	// adapter.
	PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error)
}

// PlaceCallRequest describes one outbound dial.
type PlaceCallRequest struct {
	// To and From are E.164.
	To   string `json:"to"`
	From string `json:"from"`

	// VoicemailScript is spoken when the call hits an answering machine.
	VoicemailScript string `json:"voicemail_script"`

	// EnableVoicemailDetection asks the provider to distinguish a human
	// pickup from a machine, where supported.
	EnableVoicemailDetection bool `json:"enable_voicemail_detection"`
}

// PlaceCallResult is the normalized terminal result of one dial.
type PlaceCallResult struct {
	// ProviderCallID is the provider's unique identifier for this call.
	ProviderCallID string `json:"provider_call_id"`

	Outcome         CallOutcome `json:"outcome"`
	DurationSeconds int         `json:"duration_seconds"`

	// AnsweredBy is the raw detection verdict (human, machine_*), if any.
	AnsweredBy string `json:"answered_by,omitempty"`

	// Dispositions captured on a connected call, when the provider or the
	// agent wrap-up flow reports them.
	CallbackScheduled    bool `json:"callback_scheduled,omitempty"`
	AppointmentScheduled bool `json:"appointment_scheduled,omitempty"`
}

// CallOutcome classifies one dispatched call.
type CallOutcome string

const (
	OutcomeConnected CallOutcome = "connected"
	OutcomeVoicemail CallOutcome = "voicemail"
	OutcomeNoAnswer  CallOutcome = "no_answer"
	OutcomeBusy      CallOutcome = "busy"
	OutcomeFailed    CallOutcome = "failed"
)

// Valid reports whether o is one of the five normalized outcomes.
func (o CallOutcome) Valid() bool {
	switch o {
	case OutcomeConnected, OutcomeVoicemail, OutcomeNoAnswer, OutcomeBusy, OutcomeFailed:
		return true
	default:
		return false
	}
}
