package leads

import (
	"context"
	"sync"
)

// MemoryDirectory is an in-memory Directory for tests and early development.
type MemoryDirectory struct {
	mu sync.Mutex

	Leads  map[string]Lead
	Phones map[string][]PhoneNumber
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		Leads:  map[string]Lead{},
		Phones: map[string][]PhoneNumber{},
	}
}

func (d *MemoryDirectory) Add(l Lead, phones ...PhoneNumber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Leads[l.ID] = l
	d.Phones[l.ID] = append(d.Phones[l.ID], phones...)
}

func (d *MemoryDirectory) Lead(ctx context.Context, leadID string) (Lead, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.Leads[leadID]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return l, nil
}

func (d *MemoryDirectory) PhoneNumbers(ctx context.Context, leadID string) ([]PhoneNumber, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.Leads[leadID]; !ok {
		return nil, ErrNotFound
	}
	out := make([]PhoneNumber, len(d.Phones[leadID]))
	copy(out, d.Phones[leadID])
	return out, nil
}
