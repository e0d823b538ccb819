package hospital

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

type ResultStoreSuite struct {
	suite.Suite
	store *InMemoryResultStore
	ctx   context.Context
}

func (s *ResultStoreSuite) SetupTest() {
	s.store = NewInMemoryResultStore()
	s.ctx = context.Background()
}

func TestResultStoreSuite(t *testing.T) {
	suite.Run(t, new(ResultStoreSuite))
}

func (s *ResultStoreSuite) newResult(hospitalID domain.HospitalID) *DonationResult {
	return &DonationResult{
		RegistrationID: domain.NewRegistrationID(),
		DonorID:        domain.DonorID(uuid.New()),
		EventID:        domain.EventID(uuid.New()),
		DonationDate:   time.Now(),
		VolumeML:       350,
		Outcome:        OutcomeAccepted,
		RecordedBy:     hospitalID,
		RecordedAt:     time.Now(),
	}
}

func (s *ResultStoreSuite) TestCreateBatch() {
	hospitalID := domain.HospitalID(uuid.New())

	s.Run("persists every result in the batch", func() {
		res1 := s.newResult(hospitalID)
		res2 := s.newResult(hospitalID)
		s.Require().NoError(s.store.CreateBatch(s.ctx, []*DonationResult{res1, res2}))

		found, err := s.store.FindByRegistration(s.ctx, res1.RegistrationID)
		s.Require().NoError(err)
		s.Equal(res1.DonorID, found.DonorID)
	})

	s.Run("existing result fails the whole batch", func() {
		existing := s.newResult(hospitalID)
		s.Require().NoError(s.store.CreateBatch(s.ctx, []*DonationResult{existing}))

		fresh := s.newResult(hospitalID)
		dup := s.newResult(hospitalID)
		dup.RegistrationID = existing.RegistrationID

		err := s.store.CreateBatch(s.ctx, []*DonationResult{fresh, dup})
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		// The fresh result must not have leaked through.
		_, err = s.store.FindByRegistration(s.ctx, fresh.RegistrationID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("intra-batch duplicate fails the whole batch", func() {
		res := s.newResult(hospitalID)
		other := s.newResult(hospitalID)

		err := s.store.CreateBatch(s.ctx, []*DonationResult{other, res, res})
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		_, err = s.store.FindByRegistration(s.ctx, other.RegistrationID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ResultStoreSuite) TestListings() {
	hospitalID := domain.HospitalID(uuid.New())
	donorID := domain.DonorID(uuid.New())

	older := s.newResult(hospitalID)
	older.DonorID = donorID
	older.DonationDate = time.Now().Add(-48 * time.Hour)
	newer := s.newResult(hospitalID)
	newer.DonorID = donorID
	s.Require().NoError(s.store.CreateBatch(s.ctx, []*DonationResult{older, newer}))

	s.Run("lists donor results newest first", func() {
		results, err := s.store.ListByDonor(s.ctx, donorID)
		s.Require().NoError(err)
		s.Require().Len(results, 2)
		s.Equal(newer.RegistrationID, results[0].RegistrationID)
	})

	s.Run("lists distinct donors by recorder", func() {
		donorIDs, err := s.store.ListDonorIDsByRecorder(s.ctx, hospitalID)
		s.Require().NoError(err)
		s.Require().Len(donorIDs, 1)
		s.Equal(donorID, donorIDs[0])
	})

	s.Run("other hospital has no donors", func() {
		donorIDs, err := s.store.ListDonorIDsByRecorder(s.ctx, domain.HospitalID(uuid.New()))
		s.Require().NoError(err)
		s.Empty(donorIDs)
	})
}

func TestBloodTypeStore(t *testing.T) {
	store := NewInMemoryBloodTypeStore()
	ctx := context.Background()
	donorID := domain.DonorID(uuid.New())

	_, err := store.FindByDonor(ctx, donorID)
	if err != sentinel.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	first := &BloodTypeConfirmation{DonorID: donorID, ConfirmedType: domain.BloodTypeA, ConfirmedAt: time.Now()}
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	second := &BloodTypeConfirmation{DonorID: donorID, ConfirmedType: domain.BloodTypeAB, ConfirmedAt: time.Now()}
	if err := store.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	found, err := store.FindByDonor(ctx, donorID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found.ConfirmedType != domain.BloodTypeAB {
		t.Fatalf("expected overwrite to AB, got %s", found.ConfirmedType)
	}
}
