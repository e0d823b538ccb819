package identity

import (
	"context"
	"sync"

	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

type InMemoryDirectory struct {
	mu     sync.RWMutex
	donors map[domain.DonorID]Donor
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{donors: make(map[domain.DonorID]Donor)}
}

// Put registers a donor fixture.
func (d *InMemoryDirectory) Put(donor Donor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.donors[donor.ID] = donor
}

func (d *InMemoryDirectory) Lookup(_ context.Context, id domain.DonorID) (*Donor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if donor, ok := d.donors[id]; ok {
		copied := donor
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}
