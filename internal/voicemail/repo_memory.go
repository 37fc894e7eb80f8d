package voicemail

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory template repository for tests and early
// development.
type MemoryRepo struct {
	mu        sync.Mutex
	Templates []Template
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) DefaultForAttempt(ctx context.Context, attempt int) (Template, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.Templates {
		if t.AttemptNumber == attempt && t.IsDefault && t.IsActive {
			return t, true, nil
		}
	}
	return Template{}, false, nil
}
