package reporting

import (
	"context"
	"errors"
	"sync"
)

// MemoryRepo is an in-memory call log repository for tests and early
// development.
type MemoryRepo struct {
	mu   sync.Mutex
	Logs []CallLog
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

// Append adds a log row; the dialer memory store uses it in place of the
// SQL transaction.
func (r *MemoryRepo) Append(l CallLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Logs = append(r.Logs, l)
}

func (r *MemoryRepo) ListBySession(ctx context.Context, sessionID string) ([]CallLog, error) {
	if sessionID == "" {
		return nil, errors.New("session_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallLog, 0)
	for _, l := range r.Logs {
		if l.SessionID == sessionID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *MemoryRepo) UpdateProviderStatus(ctx context.Context, providerCallID, outcome string, durationSeconds int) error {
	if providerCallID == "" {
		return errors.New("provider_call_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.Logs {
		if r.Logs[i].ProviderCallID == providerCallID {
			r.Logs[i].Outcome = outcome
			r.Logs[i].DurationSeconds = durationSeconds
			return nil
		}
	}
	// Callbacks can outrun the dispatch transaction; treat as benign.
	return nil
}
