// Package identity exposes the external Identity collaborator. Donor accounts
// live in the portal's auth system; this service reads the minimal projection
// it needs for result recording and blood-type confirmation.
package identity

import (
	"context"

	"bloodlink/pkg/domain"
)

// Donor is the read-only projection of a donor account. SelfReportedBloodType
// is what the donor entered at signup and may be empty; it is captured into
// the audit note when a hospital first confirms the real type.
type Donor struct {
	ID                    domain.DonorID   `json:"id"`
	FullName              string           `json:"full_name"`
	SelfReportedBloodType domain.BloodType `json:"self_reported_blood_type,omitempty"`
}

// DonorDirectory looks up donors.
type DonorDirectory interface {
	Lookup(ctx context.Context, id domain.DonorID) (*Donor, error)
}
