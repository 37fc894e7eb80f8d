package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeSink struct {
	providerCallID string
	outcome        string
	duration       int
	calls          int
}

func (s *fakeSink) ApplyProviderStatus(ctx context.Context, providerCallID, outcome string, durationSeconds int) error {
	s.calls++
	s.providerCallID = providerCallID
	s.outcome = outcome
	s.duration = durationSeconds
	return nil
}

func postStatus(t *testing.T, h TwilioStatusWebhookHandler, query string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/twilio/status", h.HandleStatusCallback)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/status"+query, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func TestStatusCallback_AppliesTerminalStatus(t *testing.T) {
	sink := &fakeSink{}
	h := TwilioStatusWebhookHandler{Sink: sink}

	form := url.Values{}
	form.Set("CallSid", "CA42")
	form.Set("CallStatus", "completed")
	form.Set("AnsweredBy", "machine_start")
	form.Set("CallDuration", "31")

	w := postStatus(t, h, "", form)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if sink.calls != 1 || sink.providerCallID != "CA42" {
		t.Fatalf("expected sink applied once for CA42, got %+v", sink)
	}
	if sink.outcome != string(OutcomeVoicemail) || sink.duration != 31 {
		t.Fatalf("expected voicemail/31, got %q/%d", sink.outcome, sink.duration)
	}
}

func TestStatusCallback_IgnoresIntermediateStatus(t *testing.T) {
	sink := &fakeSink{}
	h := TwilioStatusWebhookHandler{Sink: sink}

	form := url.Values{}
	form.Set("CallSid", "CA42")
	form.Set("CallStatus", "ringing")

	w := postStatus(t, h, "", form)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if sink.calls != 0 {
		t.Fatalf("expected no sink call for intermediate status")
	}
}

func TestStatusCallback_RejectsBadToken(t *testing.T) {
	sink := &fakeSink{}
	h := TwilioStatusWebhookHandler{Sink: sink, Secret: "s3cret"}

	form := url.Values{}
	form.Set("CallSid", "CA42")
	form.Set("CallStatus", "completed")

	if w := postStatus(t, h, "?token=wrong", form); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if sink.calls != 0 {
		t.Fatalf("expected no sink call on bad token")
	}
	if w := postStatus(t, h, "?token=s3cret", form); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with valid token, got %d", w.Code)
	}
}

func TestStatusCallback_RequiresCallSid(t *testing.T) {
	h := TwilioStatusWebhookHandler{Sink: &fakeSink{}}
	form := url.Values{}
	form.Set("CallStatus", "completed")
	if w := postStatus(t, h, "", form); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
