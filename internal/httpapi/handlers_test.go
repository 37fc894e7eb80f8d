package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"autodialer/internal/dialer"
	"autodialer/internal/leads"
	"autodialer/internal/queue"
	"autodialer/internal/reporting"
	"autodialer/internal/telephony"
	"autodialer/internal/voicemail"

	"github.com/gin-gonic/gin"
)

type idleProvider struct{}

func (idleProvider) Name() string                        { return "fake" }
func (idleProvider) HealthCheck(_ context.Context) error { return nil }

func (idleProvider) PlaceCall(_ context.Context, _ telephony.PlaceCallRequest) (telephony.PlaceCallResult, error) {
	return telephony.PlaceCallResult{Outcome: telephony.OutcomeConnected, DurationSeconds: 30}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *queue.MemoryStore, *dialer.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := leads.NewMemoryDirectory()
	dir.Add(
		leads.Lead{ID: "lead-1", FirstName: "Sam", VehicleInterest: "2024 CR-V"},
		leads.PhoneNumber{Number: "+14155552671", Type: leads.PhoneTypeMobile, IsPrimary: true},
	)

	q := queue.NewMemoryStore()
	logs := reporting.NewMemoryRepo()
	store := dialer.NewMemoryStore(q, logs)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := dialer.NewDispatcher(idleProvider{}, voicemail.NewResolver(nil), "+15550000000", time.Second, log)
	controller := dialer.NewController(store, q, dir, dispatcher, dialer.NewProcessor(store, time.Minute), nil, dialer.Options{}, log)

	h := Handlers{
		Controller:           controller,
		Queue:                queue.NewService(q, dir, log),
		Reports:              reporting.NewService(logs),
		DefaultPacingSeconds: 30,
	}

	r := gin.New()
	r.POST("/dialer/sessions", h.StartSession)
	r.POST("/dialer/sessions/pause", h.PauseSession)
	r.POST("/dialer/sessions/stop", h.StopSession)
	r.GET("/dialer/sessions/current", h.GetSession)
	r.POST("/queue/leads", h.EnqueueLeads)
	r.GET("/reports/sessions/:session_id/summary", h.SessionSummary)
	return r, q, store
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestEnqueueThenStartSession(t *testing.T) {
	r, _, store := newTestRouter(t)

	w := do(r, http.MethodPost, "/queue/leads", `{"lead_ids":["lead-1"],"priority":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("enqueue status = %d: %s", w.Code, w.Body.String())
	}
	var enq struct {
		Enqueued int `json:"enqueued"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &enq); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if enq.Enqueued != 1 {
		t.Fatalf("enqueued = %d, want 1", enq.Enqueued)
	}

	w = do(r, http.MethodPost, "/dialer/sessions", `{"name":"test run","pacing_seconds":0}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}
	var s dialer.Session
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if s.Status != dialer.SessionStatusActive || s.TotalTargets != 1 {
		t.Fatalf("unexpected session: %+v", s)
	}

	// The loop drains one target quickly at zero pacing.
	deadline := time.Now().Add(5 * time.Second)
	for {
		got, err := store.GetSession(context.Background(), s.ID)
		if err != nil {
			t.Fatalf("get session: %v", err)
		}
		if got.Status == dialer.SessionStatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("session never completed: %+v", got)
		}
		time.Sleep(5 * time.Millisecond)
	}

	w = do(r, http.MethodGet, "/reports/sessions/"+s.ID+"/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("summary status = %d: %s", w.Code, w.Body.String())
	}
	var sum reporting.SessionSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.TotalCalls != 1 || sum.ConnectedCalls != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestStartConflictsAndValidation(t *testing.T) {
	r, q, _ := newTestRouter(t)

	// Empty queue start is a client error.
	w := do(r, http.MethodPost, "/dialer/sessions", `{"pacing_seconds":3600}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty-queue start status = %d, want 400", w.Code)
	}

	if _, err := q.Insert(context.Background(), queue.Entry{
		ID: "e1", LeadID: "lead-1", PhoneNumber: "+14155552671",
		Status: queue.EntryStatusQueued, CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	w = do(r, http.MethodPost, "/dialer/sessions", `{"pacing_seconds":3600}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodPost, "/dialer/sessions", `{"pacing_seconds":3600}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("second start status = %d, want 409", w.Code)
	}

	w = do(r, http.MethodPost, "/dialer/sessions/stop", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stop status = %d: %s", w.Code, w.Body.String())
	}
}

func TestLifecycleWithoutSession(t *testing.T) {
	r, _, _ := newTestRouter(t)

	if w := do(r, http.MethodPost, "/dialer/sessions/pause", ""); w.Code != http.StatusNotFound {
		t.Fatalf("pause status = %d, want 404", w.Code)
	}
	if w := do(r, http.MethodGet, "/dialer/sessions/current", ""); w.Code != http.StatusNotFound {
		t.Fatalf("current status = %d, want 404", w.Code)
	}
	if w := do(r, http.MethodPost, "/queue/leads", `{"lead_ids":[]}`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty enqueue status = %d, want 400", w.Code)
	}
}
