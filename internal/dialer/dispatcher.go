package dialer

import (
	"context"
	"log/slog"
	"time"

	"autodialer/internal/queue"
	"autodialer/internal/telephony"
	"autodialer/internal/voicemail"
)

// Dispatcher turns one queue entry into one placed call. It never returns
// an error: any failure to resolve a script or reach the provider is
// collapsed into a failed outcome so the loop can keep moving.
type Dispatcher struct {
	provider telephony.DialProvider
	scripts  *voicemail.Resolver

	callerID    string
	callTimeout time.Duration

	log *slog.Logger
}

func NewDispatcher(provider telephony.DialProvider, scripts *voicemail.Resolver, callerID string, callTimeout time.Duration, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		provider:    provider,
		scripts:     scripts,
		callerID:    callerID,
		callTimeout: callTimeout,
		log:         log,
	}
}

// Dispatch places the call for the entry's next attempt and blocks until
// the provider reports a terminal state or the call timeout expires.
func (d *Dispatcher) Dispatch(ctx context.Context, e queue.Entry, vars map[string]string) telephony.PlaceCallResult {
	attempt := e.AttemptCount + 1

	script, err := d.scripts.Resolve(ctx, attempt, vars)
	if err != nil {
		d.log.Error("voicemail script resolution failed",
			"entry_id", e.ID, "attempt", attempt, "error", err)
		return telephony.PlaceCallResult{Outcome: telephony.OutcomeFailed}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	res, err := d.provider.PlaceCall(callCtx, telephony.PlaceCallRequest{
		To:                       e.PhoneNumber,
		From:                     d.callerID,
		VoicemailScript:          script,
		EnableVoicemailDetection: true,
	})
	if err != nil {
		d.log.Warn("call dispatch failed",
			"provider", d.provider.Name(), "entry_id", e.ID,
			"attempt", attempt, "error", err)
		res.Outcome = telephony.OutcomeFailed
		return res
	}
	if !res.Outcome.Valid() {
		d.log.Warn("provider returned unknown outcome, treating as failed",
			"provider", d.provider.Name(), "entry_id", e.ID, "outcome", res.Outcome)
		res.Outcome = telephony.OutcomeFailed
	}
	return res
}
