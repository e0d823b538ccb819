// Package event exposes the external Event collaborator: blood-drive events
// are created and approved elsewhere; this service only reads them to enforce
// ownership and date rules on registrations and results.
package event

import (
	"context"
	"time"

	"bloodlink/pkg/domain"
)

// Event is the read-only projection of a blood-drive occurrence.
type Event struct {
	ID         domain.EventID        `json:"id"`
	Name       string                `json:"name"`
	StartDate  time.Time             `json:"start_date"`
	EndDate    time.Time             `json:"end_date"`
	OwnerOrgID domain.OrganizationID `json:"owner_org_id"`
	HospitalID domain.HospitalID     `json:"hospital_id"`
	Approved   bool                  `json:"approved"`
}

// Directory looks up events. Implementations: in-memory (tests/dev), Postgres
// read-only adapter, Redis read-through cache decorator.
type Directory interface {
	Lookup(ctx context.Context, id domain.EventID) (*Event, error)
}

// HasStarted reports whether the event has begun at the given instant.
// Donation dates on or after the start date are acceptable.
func (e *Event) HasStarted(now time.Time) bool {
	return !now.Before(e.StartDate)
}

// HasEnded reports whether the event is over at the given instant.
func (e *Event) HasEnded(now time.Time) bool {
	return now.After(e.EndDate)
}

// AcceptsRegistrations reports whether a donor may still submit a
// registration: the event must be approved and not yet over.
func (e *Event) AcceptsRegistrations(now time.Time) bool {
	return e.Approved && !e.HasEnded(now)
}

// OwnedBy reports whether the organization performs first-line approval for
// this event.
func (e *Event) OwnedBy(orgID domain.OrganizationID) bool {
	return e.OwnerOrgID == orgID
}

// AssignedTo reports whether the hospital records results for this event.
func (e *Event) AssignedTo(hospitalID domain.HospitalID) bool {
	return e.HospitalID == hospitalID
}
