//go:build integration

package hospital_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"bloodlink/internal/event"
	"bloodlink/internal/hospital"
	hospservice "bloodlink/internal/hospital/service"
	"bloodlink/internal/identity"
	"bloodlink/internal/platform/metrics"
	"bloodlink/internal/registration"
	"bloodlink/internal/screening"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/platform/tx"
	"bloodlink/pkg/testutil/containers"
)

type PostgresResultStoreSuite struct {
	suite.Suite
	postgres   *containers.PostgresContainer
	results    *hospital.PostgresResultStore
	bloodTypes *hospital.PostgresBloodTypeStore
	ctx        context.Context
}

func TestPostgresResultStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresResultStoreSuite))
}

func (s *PostgresResultStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.results = hospital.NewPostgresResultStore(s.postgres.DB)
	s.bloodTypes = hospital.NewPostgresBloodTypeStore(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresResultStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(s.ctx))
}

func (s *PostgresResultStoreSuite) newResult(hospitalID domain.HospitalID) *hospital.DonationResult {
	return &hospital.DonationResult{
		RegistrationID: domain.NewRegistrationID(),
		DonorID:        domain.DonorID(uuid.New()),
		EventID:        domain.EventID(uuid.New()),
		DonationDate:   time.Now().UTC().Truncate(time.Microsecond),
		VolumeML:       350,
		Outcome:        hospital.OutcomeAccepted,
		RecordedBy:     hospitalID,
		RecordedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresResultStoreSuite) TestCreateBatchAndScan() {
	hospitalID := domain.HospitalID(uuid.New())
	res := s.newResult(hospitalID)
	res.Outcome = hospital.OutcomeNeedsReview

	s.Require().NoError(s.results.CreateBatch(s.ctx, []*hospital.DonationResult{res}))

	found, err := s.results.FindByRegistration(s.ctx, res.RegistrationID)
	s.Require().NoError(err)
	s.Equal(res.DonorID, found.DonorID)
	s.Equal(res.EventID, found.EventID)
	s.Equal(350, found.VolumeML)
	s.Equal(hospital.OutcomeNeedsReview, found.Outcome)
	s.Equal(hospitalID, found.RecordedBy)
	s.True(res.DonationDate.Equal(found.DonationDate))
}

// TestCreateBatchRollsBack verifies a unique violation mid-batch leaves
// no row behind from the same batch.
func (s *PostgresResultStoreSuite) TestCreateBatchRollsBack() {
	hospitalID := domain.HospitalID(uuid.New())

	existing := s.newResult(hospitalID)
	s.Require().NoError(s.results.CreateBatch(s.ctx, []*hospital.DonationResult{existing}))

	fresh := s.newResult(hospitalID)
	dup := s.newResult(hospitalID)
	dup.RegistrationID = existing.RegistrationID

	err := s.results.CreateBatch(s.ctx, []*hospital.DonationResult{fresh, dup})
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	_, err = s.results.FindByRegistration(s.ctx, fresh.RegistrationID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresResultStoreSuite) TestListings() {
	hospitalID := domain.HospitalID(uuid.New())
	donorID := domain.DonorID(uuid.New())

	older := s.newResult(hospitalID)
	older.DonorID = donorID
	older.DonationDate = time.Now().Add(-48 * time.Hour).UTC().Truncate(time.Microsecond)
	newer := s.newResult(hospitalID)
	newer.DonorID = donorID
	s.Require().NoError(s.results.CreateBatch(s.ctx, []*hospital.DonationResult{older, newer}))

	byDonor, err := s.results.ListByDonor(s.ctx, donorID)
	s.Require().NoError(err)
	s.Require().Len(byDonor, 2)
	s.Equal(newer.RegistrationID, byDonor[0].RegistrationID)

	donorIDs, err := s.results.ListDonorIDsByRecorder(s.ctx, hospitalID)
	s.Require().NoError(err)
	s.Require().Len(donorIDs, 1)
	s.Equal(donorID, donorIDs[0])

	empty, err := s.results.ListDonorIDsByRecorder(s.ctx, domain.HospitalID(uuid.New()))
	s.Require().NoError(err)
	s.Empty(empty)
}

// TestServiceBulkTransaction drives the full bulk flow through the SQL
// transaction runner: precondition reads and the batch insert share one
// database transaction, and a rejected batch leaves nothing behind.
func (s *PostgresResultStoreSuite) TestServiceBulkTransaction() {
	hospitalID := domain.HospitalID(uuid.New())
	orgID := domain.OrganizationID(uuid.New())
	eventID := domain.EventID(uuid.New())

	events := event.NewInMemoryDirectory()
	events.Put(event.Event{
		ID:         eventID,
		Name:       "Harbor Drive",
		StartDate:  time.Now().Add(-24 * time.Hour),
		EndDate:    time.Now().Add(24 * time.Hour),
		OwnerOrgID: orgID,
		HospitalID: hospitalID,
		Approved:   true,
	})
	donors := identity.NewInMemoryDirectory()

	regs := registration.NewPostgresStore(s.postgres.DB)
	newReg := func() *registration.Registration {
		return &registration.Registration{
			ID:      domain.NewRegistrationID(),
			DonorID: domain.DonorID(uuid.New()),
			EventID: eventID,
			Status:  registration.StatusPending,
			Form: screening.Form{
				Last12Months:    []string{"none"},
				Last6Months:     []string{"none"},
				Last1Month:      []string{"none"},
				Symptoms14Days:  "none",
				Medication7Days: "none",
			},
			CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		}
	}
	approve := func() *registration.Registration {
		reg := newReg()
		s.Require().NoError(regs.Create(s.ctx, reg))
		s.Require().NoError(regs.UpdateStatusIfPending(s.ctx, reg.ID, registration.StatusApproved, registration.ReviewNote{
			ReviewerID: orgID,
			DecidedAt:  time.Now(),
		}, nil))
		return reg
	}

	svc := hospservice.NewService(
		s.results, s.bloodTypes, regs, events, donors,
		tx.NewSQLRunner(s.postgres.DB),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics.New(prometheus.NewRegistry()),
	)

	reg1 := approve()
	reg2 := approve()

	recorded, err := svc.RecordResultsBulk(s.ctx, hospitalID, eventID, time.Now(), []hospservice.BulkEntry{
		{RegistrationID: reg1.ID, VolumeML: 350, Outcome: hospital.OutcomeAccepted},
		{DonorID: reg2.DonorID, VolumeML: 450, Outcome: hospital.OutcomeNeedsReview},
	})
	s.Require().NoError(err)
	s.Require().Len(recorded, 2)

	stored, err := s.results.FindByRegistration(s.ctx, reg2.ID)
	s.Require().NoError(err)
	s.Equal(450, stored.VolumeML)

	// A batch with a failing entry must roll back entirely.
	reg3 := approve()
	pending := newReg()
	s.Require().NoError(regs.Create(s.ctx, pending))

	_, err = svc.RecordResultsBulk(s.ctx, hospitalID, eventID, time.Now(), []hospservice.BulkEntry{
		{RegistrationID: reg3.ID, VolumeML: 250, Outcome: hospital.OutcomeAccepted},
		{RegistrationID: pending.ID, VolumeML: 350, Outcome: hospital.OutcomeAccepted},
	})
	var bulkErr *hospservice.BulkError
	s.Require().ErrorAs(err, &bulkErr)
	s.Require().Len(bulkErr.Failures, 1)

	_, err = s.results.FindByRegistration(s.ctx, reg3.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresResultStoreSuite) TestBloodTypeUpsert() {
	donorID := domain.DonorID(uuid.New())
	hospitalID := domain.HospitalID(uuid.New())

	_, err := s.bloodTypes.FindByDonor(s.ctx, donorID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	first := &hospital.BloodTypeConfirmation{
		DonorID:              donorID,
		ConfirmedType:        domain.BloodTypeA,
		Note:                 "first confirmation: A",
		ConfirmedBy:          hospitalID,
		PreviousSelfReported: domain.BloodTypeO,
		ConfirmedAt:          time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.bloodTypes.Upsert(s.ctx, first))

	second := &hospital.BloodTypeConfirmation{
		DonorID:       donorID,
		ConfirmedType: domain.BloodTypeAB,
		Note:          "changed from A to AB",
		ConfirmedBy:   hospitalID,
		ConfirmedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.bloodTypes.Upsert(s.ctx, second))

	found, err := s.bloodTypes.FindByDonor(s.ctx, donorID)
	s.Require().NoError(err)
	s.Equal(domain.BloodTypeAB, found.ConfirmedType)
	s.Equal("changed from A to AB", found.Note)
	s.Empty(string(found.PreviousSelfReported))
}
