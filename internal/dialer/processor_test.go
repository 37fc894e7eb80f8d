package dialer

import (
	"context"
	"testing"
	"time"

	"autodialer/internal/queue"
	"autodialer/internal/reporting"
	"autodialer/internal/telephony"
)

func newTestStore(t *testing.T) (*MemoryStore, *queue.MemoryStore, *reporting.MemoryRepo) {
	t.Helper()
	q := queue.NewMemoryStore()
	logs := reporting.NewMemoryRepo()
	return NewMemoryStore(q, logs), q, logs
}

func seedCallingEntry(t *testing.T, q *queue.MemoryStore, id string) queue.Entry {
	t.Helper()
	ctx := context.Background()
	e := queue.Entry{
		ID:          id,
		LeadID:      "lead-1",
		PhoneNumber: "+15551230001",
		Priority:    5,
		Status:      queue.EntryStatusQueued,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := q.Insert(ctx, e); err != nil {
		t.Fatalf("insert entry: %v", err)
	}
	if err := q.MarkCalling(ctx, id, time.Now().UTC()); err != nil {
		t.Fatalf("mark calling: %v", err)
	}
	got, err := q.Get(ctx, id)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	return got
}

func seedSession(t *testing.T, store *MemoryStore, id string) Session {
	t.Helper()
	s := Session{
		ID:            id,
		Name:          "morning block",
		Status:        SessionStatusActive,
		PacingSeconds: 30,
		TotalTargets:  10,
		StartedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := store.CreateSession(context.Background(), s); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

func TestProcessor_Connected(t *testing.T) {
	store, q, logs := newTestStore(t)
	seedSession(t, store, "sess-1")
	e := seedCallingEntry(t, q, "entry-1")

	p := NewProcessor(store, 10*time.Minute)
	s, err := p.Process(context.Background(), "sess-1", e, telephony.PlaceCallResult{
		ProviderCallID:       "CA100",
		Outcome:              telephony.OutcomeConnected,
		DurationSeconds:      95,
		AppointmentScheduled: true,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if s.CompletedCalls != 1 || s.SuccessfulConnects != 1 || s.VoicemailsDropped != 0 {
		t.Fatalf("counters = %d/%d/%d, want 1/1/0",
			s.CompletedCalls, s.SuccessfulConnects, s.VoicemailsDropped)
	}

	got, err := q.Get(context.Background(), "entry-1")
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if got.Status != queue.EntryStatusCompleted {
		t.Fatalf("entry status = %q, want completed", got.Status)
	}
	if got.AttemptCount != 1 {
		t.Fatalf("attempt count = %d, want 1", got.AttemptCount)
	}
	if got.LastAttemptOutcome != "connected" {
		t.Fatalf("last outcome = %q, want connected", got.LastAttemptOutcome)
	}

	rows, _ := logs.ListBySession(context.Background(), "sess-1")
	if len(rows) != 1 {
		t.Fatalf("logged %d rows, want 1", len(rows))
	}
	if rows[0].Outcome != "connected" || rows[0].DurationSeconds != 95 || rows[0].ProviderCallID != "CA100" {
		t.Fatalf("unexpected log row: %+v", rows[0])
	}
	if rows[0].AttemptNumber != 1 {
		t.Fatalf("attempt number = %d, want 1", rows[0].AttemptNumber)
	}
	if !rows[0].AppointmentScheduled || rows[0].CallbackScheduled {
		t.Fatalf("dispositions = %v/%v, want appointment only",
			rows[0].CallbackScheduled, rows[0].AppointmentScheduled)
	}
}

func TestProcessor_VoicemailRecordsDropOnEntry(t *testing.T) {
	store, q, logs := newTestStore(t)
	seedSession(t, store, "sess-1")
	e := seedCallingEntry(t, q, "entry-1")

	p := NewProcessor(store, 10*time.Minute)
	s, err := p.Process(context.Background(), "sess-1", e, telephony.PlaceCallResult{
		Outcome:         telephony.OutcomeVoicemail,
		DurationSeconds: 22,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if s.CompletedCalls != 1 || s.VoicemailsDropped != 1 || s.SuccessfulConnects != 0 {
		t.Fatalf("counters = %d/%d/%d, want 1/0/1",
			s.CompletedCalls, s.SuccessfulConnects, s.VoicemailsDropped)
	}

	got, _ := q.Get(context.Background(), "entry-1")
	if got.Status != queue.EntryStatusCompleted {
		t.Fatalf("entry status = %q, want completed", got.Status)
	}
	if got.LastAttemptOutcome != OutcomeVoicemailDropped {
		t.Fatalf("last outcome = %q, want %q", got.LastAttemptOutcome, OutcomeVoicemailDropped)
	}

	// The ledger keeps the provider's normalized outcome, not the queue's.
	rows, _ := logs.ListBySession(context.Background(), "sess-1")
	if len(rows) != 1 || rows[0].Outcome != "voicemail" {
		t.Fatalf("unexpected log rows: %+v", rows)
	}
}

func TestProcessor_NoAnswerRequeuesWithCooldown(t *testing.T) {
	for _, outcome := range []telephony.CallOutcome{telephony.OutcomeNoAnswer, telephony.OutcomeBusy} {
		t.Run(string(outcome), func(t *testing.T) {
			store, q, _ := newTestStore(t)
			seedSession(t, store, "sess-1")
			e := seedCallingEntry(t, q, "entry-1")

			now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
			p := NewProcessor(store, 10*time.Minute)
			p.clock = func() time.Time { return now }

			s, err := p.Process(context.Background(), "sess-1", e, telephony.PlaceCallResult{Outcome: outcome})
			if err != nil {
				t.Fatalf("process: %v", err)
			}
			if s.CompletedCalls != 1 || s.SuccessfulConnects != 0 || s.VoicemailsDropped != 0 {
				t.Fatalf("counters = %d/%d/%d, want 1/0/0",
					s.CompletedCalls, s.SuccessfulConnects, s.VoicemailsDropped)
			}

			got, _ := q.Get(context.Background(), "entry-1")
			if got.Status != queue.EntryStatusQueued {
				t.Fatalf("entry status = %q, want queued", got.Status)
			}
			if got.AttemptCount != 1 {
				t.Fatalf("attempt count = %d, want 1", got.AttemptCount)
			}
			want := now.Add(10 * time.Minute)
			if got.DoNotCallUntil == nil || !got.DoNotCallUntil.Equal(want) {
				t.Fatalf("do_not_call_until = %v, want %v", got.DoNotCallUntil, want)
			}
			if got.Eligible(now) {
				t.Fatal("entry should be in cooldown")
			}
			if !got.Eligible(want.Add(time.Second)) {
				t.Fatal("entry should be eligible after cooldown")
			}
		})
	}
}

func TestProcessor_FailedIsTerminal(t *testing.T) {
	store, q, _ := newTestStore(t)
	seedSession(t, store, "sess-1")
	e := seedCallingEntry(t, q, "entry-1")

	p := NewProcessor(store, 10*time.Minute)
	s, err := p.Process(context.Background(), "sess-1", e, telephony.PlaceCallResult{Outcome: telephony.OutcomeFailed})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if s.CompletedCalls != 1 {
		t.Fatalf("completed calls = %d, want 1", s.CompletedCalls)
	}

	got, _ := q.Get(context.Background(), "entry-1")
	if got.Status != queue.EntryStatusFailed {
		t.Fatalf("entry status = %q, want failed", got.Status)
	}
	if got.Eligible(time.Now().Add(24 * time.Hour)) {
		t.Fatal("failed entry must never come back into rotation")
	}
}

func TestProcessor_UnknownOutcomeRejected(t *testing.T) {
	store, q, logs := newTestStore(t)
	seedSession(t, store, "sess-1")
	e := seedCallingEntry(t, q, "entry-1")

	p := NewProcessor(store, 10*time.Minute)
	if _, err := p.Process(context.Background(), "sess-1", e, telephony.PlaceCallResult{Outcome: "ringing"}); err == nil {
		t.Fatal("expected error for unknown outcome")
	}

	// Nothing may land when the mapping fails.
	got, _ := q.Get(context.Background(), "entry-1")
	if got.Status != queue.EntryStatusCalling || got.AttemptCount != 0 {
		t.Fatalf("entry mutated on rejected outcome: %+v", got)
	}
	rows, _ := logs.ListBySession(context.Background(), "sess-1")
	if len(rows) != 0 {
		t.Fatalf("logged %d rows, want 0", len(rows))
	}
}
