package hospital

import (
	"context"

	"bloodlink/pkg/domain"
)

// ResultStore owns donation results. CreateBatch is the one operation with a
// hard atomicity requirement: either every result in the batch persists or
// none does, and a registration that already has a result fails the whole
// batch with sentinel.ErrConflict.
type ResultStore interface {
	CreateBatch(ctx context.Context, results []*DonationResult) error
	FindByRegistration(ctx context.Context, id domain.RegistrationID) (*DonationResult, error)
	ListByDonor(ctx context.Context, donorID domain.DonorID) ([]*DonationResult, error)
	ListDonorIDsByRecorder(ctx context.Context, hospitalID domain.HospitalID) ([]domain.DonorID, error)
}

// BloodTypeStore owns blood-type confirmations, keyed by donor.
type BloodTypeStore interface {
	Upsert(ctx context.Context, confirmation *BloodTypeConfirmation) error
	FindByDonor(ctx context.Context, donorID domain.DonorID) (*BloodTypeConfirmation, error)
}
