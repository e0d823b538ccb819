package registration

import (
	"context"

	"bloodlink/pkg/domain"
)

// Store owns registration state. Implementations must enforce two invariants
// at the storage layer rather than in service code:
//
//   - Create rejects a second active (pending/approved) registration for the
//     same (donor, event) pair with sentinel.ErrConflict.
//   - UpdateStatusIfPending and DeleteIfPending are conditional writes keyed
//     on status = pending, returning sentinel.ErrInvalidState when the guard
//     fails. Two concurrent transitions therefore serialize: exactly one
//     observes pending, the other fails.
type Store interface {
	Create(ctx context.Context, reg *Registration) error
	FindByID(ctx context.Context, id domain.RegistrationID) (*Registration, error)
	FindActiveByDonorEvent(ctx context.Context, donorID domain.DonorID, eventID domain.EventID) (*Registration, error)
	ListByDonor(ctx context.Context, donorID domain.DonorID) ([]*Registration, error)
	ListByEvent(ctx context.Context, eventID domain.EventID) ([]*Registration, error)
	UpdateStatusIfPending(ctx context.Context, id domain.RegistrationID, next Status, review ReviewNote, appointment *Appointment) error
	DeleteIfPending(ctx context.Context, id domain.RegistrationID) error
}
