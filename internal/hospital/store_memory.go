package hospital

import (
	"context"
	"sort"
	"sync"

	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemoryResultStore mirrors the Postgres store's semantics for tests and
// development. Holding the lock across the whole batch gives CreateBatch the
// same all-or-nothing behavior the SQL transaction provides.
type InMemoryResultStore struct {
	mu             sync.RWMutex
	byRegistration map[domain.RegistrationID]DonationResult
}

func NewInMemoryResultStore() *InMemoryResultStore {
	return &InMemoryResultStore{byRegistration: make(map[domain.RegistrationID]DonationResult)}
}

func (s *InMemoryResultStore) CreateBatch(_ context.Context, results []*DonationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check every entry before writing anything.
	seen := make(map[domain.RegistrationID]bool, len(results))
	for _, res := range results {
		if _, exists := s.byRegistration[res.RegistrationID]; exists {
			return sentinel.ErrConflict
		}
		if seen[res.RegistrationID] {
			return sentinel.ErrConflict
		}
		seen[res.RegistrationID] = true
	}
	for _, res := range results {
		s.byRegistration[res.RegistrationID] = *res
	}
	return nil
}

func (s *InMemoryResultStore) FindByRegistration(_ context.Context, id domain.RegistrationID) (*DonationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if res, ok := s.byRegistration[id]; ok {
		copied := res
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryResultStore) ListByDonor(_ context.Context, donorID domain.DonorID) ([]*DonationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*DonationResult
	for _, res := range s.byRegistration {
		if res.DonorID == donorID {
			copied := res
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DonationDate.After(out[j].DonationDate)
	})
	return out, nil
}

func (s *InMemoryResultStore) ListDonorIDsByRecorder(_ context.Context, hospitalID domain.HospitalID) ([]domain.DonorID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[domain.DonorID]bool)
	var out []domain.DonorID
	for _, res := range s.byRegistration {
		if res.RecordedBy == hospitalID && !seen[res.DonorID] {
			seen[res.DonorID] = true
			out = append(out, res.DonorID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// InMemoryBloodTypeStore keeps one confirmation per donor.
type InMemoryBloodTypeStore struct {
	mu            sync.RWMutex
	confirmations map[domain.DonorID]BloodTypeConfirmation
}

func NewInMemoryBloodTypeStore() *InMemoryBloodTypeStore {
	return &InMemoryBloodTypeStore{confirmations: make(map[domain.DonorID]BloodTypeConfirmation)}
}

func (s *InMemoryBloodTypeStore) Upsert(_ context.Context, confirmation *BloodTypeConfirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmations[confirmation.DonorID] = *confirmation
	return nil
}

func (s *InMemoryBloodTypeStore) FindByDonor(_ context.Context, donorID domain.DonorID) (*BloodTypeConfirmation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if conf, ok := s.confirmations[donorID]; ok {
		copied := conf
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}
