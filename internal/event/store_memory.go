package event

import (
	"context"
	"sync"

	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemoryDirectory keeps the development and test setup lightweight. It
// intentionally favors clarity over performance.
type InMemoryDirectory struct {
	mu     sync.RWMutex
	events map[domain.EventID]Event
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{events: make(map[domain.EventID]Event)}
}

// Put registers an event fixture.
func (d *InMemoryDirectory) Put(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events[e.ID] = e
}

func (d *InMemoryDirectory) Lookup(_ context.Context, id domain.EventID) (*Event, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if e, ok := d.events[id]; ok {
		copied := e
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}
