package telephony

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNormalizeTwilioStatus(t *testing.T) {
	cases := []struct {
		status     string
		answeredBy string
		want       CallOutcome
	}{
		{"completed", "human", OutcomeConnected},
		{"completed", "", OutcomeConnected},
		{"completed", "machine_start", OutcomeVoicemail},
		{"completed", "machine_end_beep", OutcomeVoicemail},
		{"completed", "fax", OutcomeVoicemail},
		{"busy", "", OutcomeBusy},
		{"no-answer", "", OutcomeNoAnswer},
		{"failed", "", OutcomeFailed},
		{"canceled", "", OutcomeFailed},
		{"something-new", "", OutcomeFailed},
	}
	for _, tc := range cases {
		if got := NormalizeTwilioStatus(tc.status, tc.answeredBy); got != tc.want {
			t.Fatalf("NormalizeTwilioStatus(%q, %q) = %q, want %q", tc.status, tc.answeredBy, got, tc.want)
		}
	}
}

func TestPlaceCall_CreatesThenPollsToTerminal(t *testing.T) {
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/Calls.json"):
			if err := r.ParseForm(); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			if r.PostFormValue("To") != "+14155550001" {
				t.Fatalf("unexpected To: %q", r.PostFormValue("To"))
			}
			if r.PostFormValue("MachineDetection") != "Enable" {
				t.Fatalf("expected machine detection enabled")
			}
			if !strings.Contains(r.PostFormValue("Twiml"), "call me back") {
				t.Fatalf("expected script in TwiML, got %q", r.PostFormValue("Twiml"))
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(twilioCall{Sid: "CA123", Status: "queued"})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/Calls/CA123.json"):
			fetches++
			call := twilioCall{Sid: "CA123", Status: "in-progress"}
			if fetches >= 2 {
				call = twilioCall{Sid: "CA123", Status: "completed", AnsweredBy: "machine_end_beep", Duration: "23"}
			}
			_ = json.NewEncoder(w).Encode(call)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	p, err := NewTwilioProvider(TwilioOptions{
		AccountSID:   "AC123",
		AuthToken:    "token",
		BaseURL:      srv.URL,
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	res, err := p.PlaceCall(context.Background(), PlaceCallRequest{
		To:                       "+14155550001",
		From:                     "+14155559999",
		VoicemailScript:          "Hi Sam, call me back.",
		EnableVoicemailDetection: true,
	})
	if err != nil {
		t.Fatalf("place call: %v", err)
	}
	if res.Outcome != OutcomeVoicemail {
		t.Fatalf("expected voicemail outcome, got %q", res.Outcome)
	}
	if res.ProviderCallID != "CA123" {
		t.Fatalf("expected provider call id CA123, got %q", res.ProviderCallID)
	}
	if res.DurationSeconds != 23 {
		t.Fatalf("expected duration 23, got %d", res.DurationSeconds)
	}
}

func TestPlaceCall_ContextCancelDuringPoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(twilioCall{Sid: "CA9", Status: "queued"})
			return
		}
		_ = json.NewEncoder(w).Encode(twilioCall{Sid: "CA9", Status: "ringing"})
	}))
	defer srv.Close()

	p, err := NewTwilioProvider(TwilioOptions{
		AccountSID:   "AC123",
		AuthToken:    "token",
		BaseURL:      srv.URL,
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = p.PlaceCall(ctx, PlaceCallRequest{To: "+14155550001", From: "+14155559999", VoicemailScript: "hi"})
	if err == nil {
		t.Fatalf("expected error when call never reaches terminal state")
	}
}

func TestNewTwilioProvider_RequiresCredentials(t *testing.T) {
	if _, err := NewTwilioProvider(TwilioOptions{}); err == nil {
		t.Fatalf("expected error without credentials")
	}
}
