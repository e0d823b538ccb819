package registration

import (
	"context"
	"sort"
	"sync"

	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemoryStore keeps the development and test setup lightweight. It
// intentionally favors clarity over performance. The single mutex gives it
// the same serialization the Postgres store gets from conditional updates.
type InMemoryStore struct {
	mu            sync.RWMutex
	registrations map[domain.RegistrationID]Registration
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{registrations: make(map[domain.RegistrationID]Registration)}
}

func (s *InMemoryStore) Create(_ context.Context, reg *Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.registrations {
		if existing.DonorID == reg.DonorID && existing.EventID == reg.EventID && existing.Active() {
			return sentinel.ErrConflict
		}
	}
	s.registrations[reg.ID] = *reg
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.RegistrationID) (*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if reg, ok := s.registrations[id]; ok {
		copied := reg
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindActiveByDonorEvent(_ context.Context, donorID domain.DonorID, eventID domain.EventID) (*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, reg := range s.registrations {
		if reg.DonorID == donorID && reg.EventID == eventID && reg.Active() {
			copied := reg
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByDonor(_ context.Context, donorID domain.DonorID) ([]*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Registration
	for _, reg := range s.registrations {
		if reg.DonorID == donorID {
			copied := reg
			out = append(out, &copied)
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

func (s *InMemoryStore) ListByEvent(_ context.Context, eventID domain.EventID) ([]*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Registration
	for _, reg := range s.registrations {
		if reg.EventID == eventID {
			copied := reg
			out = append(out, &copied)
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

// UpdateStatusIfPending performs the compare-and-set transition: the write
// happens only if the record is still pending while the lock is held.
func (s *InMemoryStore) UpdateStatusIfPending(_ context.Context, id domain.RegistrationID, next Status, review ReviewNote, appointment *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registrations[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if reg.Status != StatusPending {
		return sentinel.ErrInvalidState
	}
	reg.Status = next
	reg.Review = &review
	if appointment != nil {
		copied := *appointment
		reg.Appointment = &copied
	}
	s.registrations[id] = reg
	return nil
}

func (s *InMemoryStore) DeleteIfPending(_ context.Context, id domain.RegistrationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registrations[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if reg.Status != StatusPending {
		return sentinel.ErrInvalidState
	}
	delete(s.registrations, id)
	return nil
}

func sortByCreatedAt(regs []*Registration) {
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].ID.String() < regs[j].ID.String()
		}
		return regs[i].CreatedAt.After(regs[j].CreatedAt)
	})
}
