package dialer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"autodialer/internal/queue"
	"autodialer/internal/reporting"
	"autodialer/internal/telephony"
)

// OutcomeVoicemailDropped is what the queue records for a voicemail
// outcome: the target is done for this rotation because a message was
// left, not because anyone picked up.
const OutcomeVoicemailDropped = "voicemail_dropped"

// Processor maps a normalized call outcome onto queue entry, ledger and
// session counters in one store transaction.
//
// Mapping:
//
//	connected  -> entry completed, successful_connects++
//	voicemail  -> entry completed as voicemail_dropped, voicemails_dropped++
//	no_answer  -> entry requeued with redial cooldown
//	busy       -> entry requeued with redial cooldown
//	failed     -> entry failed, no retry
//
// Every processed call increments completed_calls regardless of outcome.
type Processor struct {
	store         Store
	retryCooldown time.Duration
	clock         func() time.Time
}

func NewProcessor(store Store, retryCooldown time.Duration) *Processor {
	return &Processor{store: store, retryCooldown: retryCooldown, clock: time.Now}
}

func (p *Processor) Process(ctx context.Context, sessionID string, e queue.Entry, res telephony.PlaceCallResult) (Session, error) {
	now := p.clock().UTC()

	upd := queue.OutcomeUpdate{Outcome: string(res.Outcome), At: now}
	delta := CounterDelta{CompletedCalls: 1}

	switch res.Outcome {
	case telephony.OutcomeConnected:
		upd.Status = queue.EntryStatusCompleted
		delta.SuccessfulConnects = 1
	case telephony.OutcomeVoicemail:
		upd.Status = queue.EntryStatusCompleted
		upd.Outcome = OutcomeVoicemailDropped
		delta.VoicemailsDropped = 1
	case telephony.OutcomeNoAnswer, telephony.OutcomeBusy:
		upd.Status = queue.EntryStatusQueued
		until := now.Add(p.retryCooldown)
		upd.DoNotCallUntil = &until
	case telephony.OutcomeFailed:
		upd.Status = queue.EntryStatusFailed
	default:
		return Session{}, fmt.Errorf("dialer: unknown call outcome %q", res.Outcome)
	}

	log := reporting.CallLog{
		ID:                   uuid.NewString(),
		SessionID:            sessionID,
		EntryID:              e.ID,
		LeadID:               e.LeadID,
		PhoneNumber:          e.PhoneNumber,
		AttemptNumber:        e.AttemptCount + 1,
		Outcome:              string(res.Outcome),
		DurationSeconds:      res.DurationSeconds,
		ProviderCallID:       res.ProviderCallID,
		CallbackScheduled:    res.CallbackScheduled,
		AppointmentScheduled: res.AppointmentScheduled,
		CreatedAt:            now,
	}

	return p.store.RecordOutcome(ctx, sessionID, e.ID, upd, delta, log)
}
