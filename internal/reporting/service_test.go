package reporting

import (
	"context"
	"testing"
	"time"
)

func TestSummarize_RatesAndAverages(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	repo.Logs = []CallLog{
		{ID: "c1", SessionID: "s1", Outcome: "connected", DurationSeconds: 60, CreatedAt: now},
		{ID: "c2", SessionID: "s1", Outcome: "voicemail", DurationSeconds: 30, CreatedAt: now},
		{ID: "c3", SessionID: "s1", Outcome: "no_answer", DurationSeconds: 0, CreatedAt: now},
		{ID: "c4", SessionID: "s1", Outcome: "failed", DurationSeconds: 0, CreatedAt: now},
		{ID: "c5", SessionID: "other", Outcome: "connected", DurationSeconds: 600, CreatedAt: now},
	}
	svc := NewService(repo)

	out, err := svc.Summarize(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 4 {
		t.Fatalf("expected 4 calls, got %d", out.TotalCalls)
	}
	if out.ConnectedCalls != 1 || out.VoicemailsDropped != 1 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if out.ConnectRate != 0.25 || out.VoicemailRate != 0.25 {
		t.Fatalf("unexpected rates: %+v", out)
	}
	if out.AverageDurationSeconds != 22 {
		t.Fatalf("expected average duration 22, got %d", out.AverageDurationSeconds)
	}
}

func TestSummarize_EmptySession(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	out, err := svc.Summarize(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 0 || out.ConnectRate != 0 {
		t.Fatalf("expected zeroed summary, got %+v", out)
	}
}

func TestSummarize_RequiresSessionID(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if _, err := svc.Summarize(context.Background(), ""); err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestApplyProviderStatus_CorrectsLedger(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Logs = []CallLog{
		{ID: "c1", SessionID: "s1", Outcome: "connected", DurationSeconds: 5, ProviderCallID: "CA1"},
	}
	svc := NewService(repo)

	if err := svc.ApplyProviderStatus(context.Background(), "CA1", "voicemail", 42); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if repo.Logs[0].Outcome != "voicemail" || repo.Logs[0].DurationSeconds != 42 {
		t.Fatalf("expected corrected log, got %+v", repo.Logs[0])
	}

	// Unknown provider call id is benign.
	if err := svc.ApplyProviderStatus(context.Background(), "CA404", "failed", 0); err != nil {
		t.Fatalf("unexpected err for unknown id: %v", err)
	}
}
