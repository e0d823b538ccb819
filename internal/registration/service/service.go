// Package service implements the registration lifecycle: submission with
// screening validation, donor withdrawal, and the organization-side approval
// gate. All actor identity arrives as explicit parameters so the state
// machine is testable without any ambient auth context.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bloodlink/internal/event"
	"bloodlink/internal/platform/metrics"
	"bloodlink/internal/registration"
	"bloodlink/internal/screening"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
)

// Viewer identifies who is asking for an event's registration list. Exactly
// one of OrganizationID / HospitalID is set, matching the role.
type Viewer struct {
	Role           domain.ActorRole
	OrganizationID domain.OrganizationID
	HospitalID     domain.HospitalID
}

// Service orchestrates registration operations over the store and the
// external event collaborator.
type Service struct {
	store   registration.Store
	events  event.Directory
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(store registration.Store, events event.Directory, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		events:  events,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock overrides the service clock. Test use only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit validates the screening form and creates a pending registration.
// Fails with conflict when an active registration already exists for the
// (donor, event) pair, and with a field-level validation error when the
// screening validator rejects the input.
func (s *Service) Submit(ctx context.Context, donorID domain.DonorID, eventID domain.EventID, input screening.Input) (*registration.Registration, error) {
	if donorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "donor identity required")
	}

	ev, err := s.events.Lookup(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "event lookup failed", err)
	}
	if !ev.AcceptsRegistrations(s.now()) {
		return nil, dErrors.New(dErrors.CodeConflict, "event is not accepting registrations")
	}

	form, err := screening.Validate(input)
	if err != nil {
		return nil, err
	}

	reg := &registration.Registration{
		ID:        domain.NewRegistrationID(),
		DonorID:   donorID,
		EventID:   eventID,
		Status:    registration.StatusPending,
		Form:      *form,
		CreatedAt: s.now(),
	}

	if err := s.store.Create(ctx, reg); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an active registration already exists for this event")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create registration", err)
	}

	s.metrics.RegistrationsSubmitted.Inc()
	s.logger.InfoContext(ctx, "registration submitted",
		"registration_id", reg.ID.String(),
		"event_id", eventID.String(),
	)
	return reg, nil
}

// Withdraw deletes a donor's own registration while it is still pending.
func (s *Service) Withdraw(ctx context.Context, id domain.RegistrationID, donorID domain.DonorID) error {
	reg, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to load registration", err)
	}
	if reg.DonorID != donorID {
		return dErrors.New(dErrors.CodeForbidden, "registration belongs to another donor")
	}

	if err := s.store.DeleteIfPending(ctx, id); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeConflict, "only pending registrations can be withdrawn")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "registration not found")
		default:
			return dErrors.Wrap(dErrors.CodeInternal, "failed to withdraw registration", err)
		}
	}

	s.metrics.RegistrationsWithdrawn.Inc()
	s.logger.InfoContext(ctx, "registration withdrawn", "registration_id", id.String())
	return nil
}

// Transition is the approval gate: it moves a pending registration to
// approved or rejected, recording reviewer, reason tags and note atomically
// with the status change. The reviewing organization must own the event.
// A registration that is no longer pending fails with conflict; the earlier
// decision stands.
func (s *Service) Transition(
	ctx context.Context,
	id domain.RegistrationID,
	next registration.Status,
	reviewerID domain.OrganizationID,
	note string,
	reasonTags []string,
	appointment *registration.Appointment,
) (*registration.Registration, error) {
	if reviewerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "reviewer identity required")
	}
	if !registration.StatusPending.CanTransitionTo(next) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "status must be approved or rejected")
	}
	if err := registration.ValidateReasonTags(next, reasonTags); err != nil {
		return nil, err
	}
	if next == registration.StatusRejected && note == "" && len(reasonTags) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "rejection requires a reason tag or note")
	}

	reg, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load registration", err)
	}

	ev, err := s.events.Lookup(ctx, reg.EventID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "event lookup failed", err)
	}
	if !ev.OwnedBy(reviewerID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "organization does not own this event")
	}

	if next != registration.StatusApproved {
		appointment = nil
	}
	review := registration.ReviewNote{
		ReviewerID: reviewerID,
		Note:       note,
		ReasonTags: reasonTags,
		DecidedAt:  s.now(),
	}

	if err := s.store.UpdateStatusIfPending(ctx, id, next, review, appointment); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeConflict, "registration has already been decided")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		default:
			return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to transition registration", err)
		}
	}

	s.metrics.StatusTransitions.WithLabelValues(string(next)).Inc()
	s.logger.InfoContext(ctx, "registration transitioned",
		"registration_id", id.String(),
		"status", string(next),
		"reviewer_id", reviewerID.String(),
	)

	updated, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to reload registration", err)
	}
	return updated, nil
}

// ListByDonor returns a donor's own registrations, newest first.
func (s *Service) ListByDonor(ctx context.Context, donorID domain.DonorID) ([]*registration.Registration, error) {
	regs, err := s.store.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list registrations", err)
	}
	return regs, nil
}

// ListByEvent returns an event's registrations for its owning organization or
// assigned hospital. Other viewers are refused without revealing whether the
// event has registrations at all.
func (s *Service) ListByEvent(ctx context.Context, eventID domain.EventID, viewer Viewer) ([]*registration.Registration, error) {
	ev, err := s.events.Lookup(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "event lookup failed", err)
	}

	allowed := false
	switch viewer.Role {
	case domain.RoleOrganization:
		allowed = ev.OwnedBy(viewer.OrganizationID)
	case domain.RoleHospital:
		allowed = ev.AssignedTo(viewer.HospitalID)
	case domain.RoleAdmin:
		allowed = true
	}
	if !allowed {
		return nil, dErrors.New(dErrors.CodeForbidden, "not authorized for this event")
	}

	regs, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list registrations", err)
	}
	return regs, nil
}
