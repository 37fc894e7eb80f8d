package dialer

import (
	"context"
	"sync"
	"time"

	"autodialer/internal/queue"
	"autodialer/internal/reporting"
)

// MemoryStore backs tests. It composes the in-memory queue store and call
// log repo so RecordOutcome has the same all-or-nothing shape as the SQL
// store, minus real transactions.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session

	Queue *queue.MemoryStore
	Logs  *reporting.MemoryRepo
}

func NewMemoryStore(q *queue.MemoryStore, logs *reporting.MemoryRepo) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		Queue:    q,
		Logs:     logs,
	}
}

func (m *MemoryStore) CreateSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *MemoryStore) OpenSession(_ context.Context) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.Open() {
			return s, true, nil
		}
	}
	return Session{}, false, nil
}

func (m *MemoryStore) UpdateSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if !ok {
		return ErrSessionNotFound
	}
	// Counters stay owned by RecordOutcome.
	s.CompletedCalls = cur.CompletedCalls
	s.SuccessfulConnects = cur.SuccessfulConnects
	s.VoicemailsDropped = cur.VoicemailsDropped
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) SetCurrentTarget(_ context.Context, sessionID, targetID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.CurrentTargetID = targetID
	s.UpdatedAt = at
	m.sessions[sessionID] = s
	return nil
}

func (m *MemoryStore) RecordOutcome(ctx context.Context, sessionID, entryID string, upd queue.OutcomeUpdate, delta CounterDelta, log reporting.CallLog) (Session, error) {
	if _, err := m.Queue.MarkOutcome(ctx, entryID, upd); err != nil {
		return Session{}, err
	}
	m.Logs.Append(log)

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	s.CompletedCalls += delta.CompletedCalls
	s.SuccessfulConnects += delta.SuccessfulConnects
	s.VoicemailsDropped += delta.VoicemailsDropped
	s.UpdatedAt = upd.At
	m.sessions[s.ID] = s
	return s, nil
}
