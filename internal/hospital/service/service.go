// Package service implements the hospital confirmation gate: bulk result
// recording for an event, donor-scoped blood-type confirmation, and the
// derived donor history projection.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"bloodlink/internal/event"
	"bloodlink/internal/hospital"
	"bloodlink/internal/identity"
	"bloodlink/internal/platform/metrics"
	"bloodlink/internal/registration"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/platform/tx"
)

// BulkEntry is one row of a bulk result submission. The registration is
// addressed either directly by id or by the donor's active registration for
// the event.
type BulkEntry struct {
	RegistrationID domain.RegistrationID
	DonorID        domain.DonorID
	VolumeML       int
	Outcome        hospital.Outcome
}

// EntryFailure explains why one bulk entry failed its preconditions.
type EntryFailure struct {
	Index          int    `json:"index"`
	RegistrationID string `json:"registration_id,omitempty"`
	Reason         string `json:"reason"`
}

// BulkError carries every failing entry of a rejected batch. When it is
// returned, nothing was persisted; the caller fixes the listed entries and
// resubmits the batch.
type BulkError struct {
	Failures []EntryFailure
}

func (e *BulkError) Error() string {
	return "bulk result recording rejected: " + strconv.Itoa(len(e.Failures)) + " entries failed preconditions"
}

// Service orchestrates hospital operations over the result and blood-type
// stores, the registration store, and the external collaborators.
type Service struct {
	results       hospital.ResultStore
	bloodTypes    hospital.BloodTypeStore
	registrations registration.Store
	events        event.Directory
	donors        identity.DonorDirectory
	txr           tx.Runner
	logger        *slog.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewService(
	results hospital.ResultStore,
	bloodTypes hospital.BloodTypeStore,
	registrations registration.Store,
	events event.Directory,
	donors identity.DonorDirectory,
	txr tx.Runner,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		results:       results,
		bloodTypes:    bloodTypes,
		registrations: registrations,
		events:        events,
		donors:        donors,
		txr:           txr,
		logger:        logger,
		metrics:       m,
		now:           time.Now,
	}
}

// WithClock overrides the service clock. Test use only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RecordResultsBulk records donation results for one event, all-or-nothing.
// Every entry's preconditions are checked before any write: the registration
// must belong to the event, be approved, and have no prior result. On any
// failure the whole batch is refused and a *BulkError lists each failing
// entry with its reason.
func (s *Service) RecordResultsBulk(
	ctx context.Context,
	hospitalID domain.HospitalID,
	eventID domain.EventID,
	donationDate time.Time,
	entries []BulkEntry,
) ([]*hospital.DonationResult, error) {
	if hospitalID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "hospital identity required")
	}
	if len(entries) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "entries must not be empty")
	}

	ev, err := s.events.Lookup(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "event lookup failed", err)
	}
	if !ev.AssignedTo(hospitalID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "hospital is not assigned to this event")
	}
	if donationDate.Before(ev.StartDate) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "donation date is before the event start date")
	}

	recordedAt := s.now()
	results := make([]*hospital.DonationResult, 0, len(entries))

	// Precondition checks and inserts share one transaction so the no-prior-
	// result reads and the batch write see a consistent snapshot. The unique
	// key on registration_id stays the final arbiter under concurrent batches.
	err = s.txr.RunInTx(ctx, func(ctx context.Context) error {
		var failures []EntryFailure
		seen := make(map[domain.RegistrationID]bool, len(entries))

		for i, entry := range entries {
			fail := func(regID domain.RegistrationID, reason string) {
				failure := EntryFailure{Index: i, Reason: reason}
				if !regID.IsNil() {
					failure.RegistrationID = regID.String()
				}
				failures = append(failures, failure)
			}

			if !hospital.ValidVolume(entry.VolumeML) {
				fail(entry.RegistrationID, "volume must be one of 250, 350, 450")
				continue
			}
			if !entry.Outcome.IsValid() {
				fail(entry.RegistrationID, "outcome must be accepted, rejected or needs_review")
				continue
			}

			reg, reason := s.resolveRegistration(ctx, entry, eventID)
			if reason != "" {
				fail(entry.RegistrationID, reason)
				continue
			}
			if reg.EventID != eventID {
				fail(reg.ID, "registration does not belong to this event")
				continue
			}
			if reg.Status != registration.StatusApproved {
				fail(reg.ID, "registration is not approved")
				continue
			}
			if seen[reg.ID] {
				fail(reg.ID, "registration appears more than once in the batch")
				continue
			}
			seen[reg.ID] = true
			if _, err := s.results.FindByRegistration(ctx, reg.ID); err == nil {
				fail(reg.ID, "a result already exists for this registration")
				continue
			} else if !errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(dErrors.CodeInternal, "result lookup failed", err)
			}

			results = append(results, &hospital.DonationResult{
				RegistrationID: reg.ID,
				DonorID:        reg.DonorID,
				EventID:        eventID,
				DonationDate:   donationDate,
				VolumeML:       entry.VolumeML,
				Outcome:        entry.Outcome,
				RecordedBy:     hospitalID,
				RecordedAt:     recordedAt,
			})
		}

		if len(failures) > 0 {
			return &BulkError{Failures: failures}
		}
		return s.results.CreateBatch(ctx, results)
	})
	if err != nil {
		var bulkErr *BulkError
		if errors.As(err, &bulkErr) {
			return nil, bulkErr
		}
		if errors.Is(err, sentinel.ErrConflict) {
			// A concurrent batch won the race for at least one registration.
			return nil, dErrors.New(dErrors.CodeConflict, "a result was recorded concurrently for a registration in this batch")
		}
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			return nil, err
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to persist results", err)
	}

	s.metrics.ResultsRecorded.Add(float64(len(results)))
	s.logger.InfoContext(ctx, "donation results recorded",
		"event_id", eventID.String(),
		"hospital_id", hospitalID.String(),
		"count", len(results),
	)
	return results, nil
}

// resolveRegistration finds the registration an entry addresses, either by id
// or by the donor's active registration for the event.
func (s *Service) resolveRegistration(ctx context.Context, entry BulkEntry, eventID domain.EventID) (*registration.Registration, string) {
	switch {
	case !entry.RegistrationID.IsNil():
		reg, err := s.registrations.FindByID(ctx, entry.RegistrationID)
		if err != nil {
			return nil, "registration not found"
		}
		return reg, ""
	case !entry.DonorID.IsNil():
		reg, err := s.registrations.FindActiveByDonorEvent(ctx, entry.DonorID, eventID)
		if err != nil {
			return nil, "no active registration for donor at this event"
		}
		return reg, ""
	default:
		return nil, "entry must reference a registration or donor"
	}
}

// ConfirmBloodType records or overwrites the donor's blood-type confirmation.
// Idempotent: confirming the same type twice leaves one active confirmation
// whose note says "no change". The previous confirmed (or self-reported)
// value is captured into the note before being replaced.
func (s *Service) ConfirmBloodType(
	ctx context.Context,
	hospitalID domain.HospitalID,
	donorID domain.DonorID,
	confirmedType domain.BloodType,
	note string,
) (*hospital.BloodTypeConfirmation, error) {
	if hospitalID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "hospital identity required")
	}
	if !confirmedType.IsValid() {
		return nil, dErrors.NewValidation("invalid blood type", []dErrors.FieldViolation{
			{Field: "confirmed_type", Reason: "must be one of A, B, AB, O"},
		})
	}

	donor, err := s.donors.Lookup(ctx, donorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "donor lookup failed", err)
	}

	previous, err := s.bloodTypes.FindByDonor(ctx, donorID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "confirmation lookup failed", err)
	}

	confirmation := &hospital.BloodTypeConfirmation{
		DonorID:              donorID,
		ConfirmedType:        confirmedType,
		ConfirmedBy:          hospitalID,
		PreviousSelfReported: donor.SelfReportedBloodType,
		ConfirmedAt:          s.now(),
	}
	confirmation.Note = auditNote(previous, donor.SelfReportedBloodType, confirmedType, note)

	if err := s.bloodTypes.Upsert(ctx, confirmation); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to save confirmation", err)
	}

	s.metrics.BloodTypeConfirmations.Inc()
	s.logger.InfoContext(ctx, "blood type confirmed",
		"donor_id", donorID.String(),
		"hospital_id", hospitalID.String(),
		"confirmed_type", confirmedType.String(),
	)
	return confirmation, nil
}

// auditNote preserves the old-vs-new trail across overwrites, prepended to
// whatever the hospital wrote.
func auditNote(previous *hospital.BloodTypeConfirmation, selfReported, confirmedType domain.BloodType, note string) string {
	var trail string
	switch {
	case previous != nil && previous.ConfirmedType == confirmedType:
		trail = fmt.Sprintf("no change from %s", confirmedType)
	case previous != nil:
		trail = fmt.Sprintf("changed from %s to %s", previous.ConfirmedType, confirmedType)
	case selfReported != "":
		trail = fmt.Sprintf("previously self-reported %s, confirmed %s", selfReported, confirmedType)
	default:
		trail = fmt.Sprintf("first confirmation: %s", confirmedType)
	}
	if note != "" {
		return trail + "; " + note
	}
	return trail
}

// History recomputes the donor history projection from accepted results.
func (s *Service) History(ctx context.Context, donorID domain.DonorID) (*hospital.DonorHistory, error) {
	results, err := s.results.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list results", err)
	}
	history := hospital.ProjectHistory(results)
	return &history, nil
}

// UnconfirmedDonors lists donors who donated through this hospital but have
// no active blood-type confirmation yet.
func (s *Service) UnconfirmedDonors(ctx context.Context, hospitalID domain.HospitalID) ([]*identity.Donor, error) {
	donorIDs, err := s.results.ListDonorIDsByRecorder(ctx, hospitalID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list donors", err)
	}

	var out []*identity.Donor
	for _, donorID := range donorIDs {
		if _, err := s.bloodTypes.FindByDonor(ctx, donorID); err == nil {
			continue
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "confirmation lookup failed", err)
		}
		donor, err := s.donors.Lookup(ctx, donorID)
		if err != nil {
			// Donor projection missing; skip rather than fail the listing.
			continue
		}
		out = append(out, donor)
	}
	return out, nil
}
