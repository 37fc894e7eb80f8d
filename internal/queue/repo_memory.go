package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and early development.
// It applies the same transition rules as the SQL store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]*Entry{}}
}

func (s *MemoryStore) Insert(ctx context.Context, e Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.entries {
		if ex.LeadID == e.LeadID && ex.PhoneNumber == e.PhoneNumber && ex.Open() {
			return false, nil
		}
	}
	cp := e
	s.entries[e.ID] = &cp
	return true, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return *e, nil
}

func (s *MemoryStore) NextEligible(ctx context.Context, now time.Time) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *Entry
	for _, e := range s.entries {
		if !e.Eligible(now) {
			continue
		}
		if best == nil {
			best = e
			continue
		}
		if e.Priority > best.Priority ||
			(e.Priority == best.Priority && e.CreatedAt.Before(best.CreatedAt)) {
			best = e
		}
	}
	if best == nil {
		return Entry{}, false, nil
	}
	return *best, true, nil
}

func (s *MemoryStore) MarkCalling(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	if e.Status != EntryStatusQueued {
		return ErrInvalidTransition
	}
	e.Status = EntryStatusCalling
	e.UpdatedAt = at
	return nil
}

func (s *MemoryStore) MarkOutcome(ctx context.Context, id string, upd OutcomeUpdate) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	if e.Status != EntryStatusCalling {
		return Entry{}, ErrInvalidTransition
	}
	e.AttemptCount++
	e.Status = upd.Status
	e.LastAttemptOutcome = upd.Outcome
	at := upd.At
	e.LastAttemptAt = &at
	e.DoNotCallUntil = upd.DoNotCallUntil
	e.UpdatedAt = upd.At
	return *e, nil
}

func (s *MemoryStore) RequeueStale(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.Status == EntryStatusCalling && e.UpdatedAt.Before(olderThan) {
			e.Status = EntryStatusQueued
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) OpenCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.Status == EntryStatusQueued && e.AttemptCount < MaxAttempts {
			n++
		}
	}
	return n, nil
}
