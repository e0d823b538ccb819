package registration

import (
	"time"

	"bloodlink/internal/screening"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// Status is the registration's position in the approval lifecycle. The wire
// codes are canonical English; the portal UI renders the localized labels
// (cho_duyet / da_duyet / tu_choi).
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseDecision constructs a transition target from external input. Only the
// two terminal statuses are reachable; pending is the initial state and can
// never be re-entered.
func ParseDecision(s string) (Status, error) {
	switch Status(s) {
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "status must be approved or rejected")
	}
}

// CanTransitionTo encodes the state machine: pending is the only state with
// outgoing edges, both of which are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && (next == StatusApproved || next == StatusRejected)
}

// Active reports whether the status still occupies the (donor, event) slot.
// At most one active registration may exist per pair.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Fixed reason-tag vocabularies so review notes stay structured. Free text is
// additive, never a substitute for a tag.
var (
	ApprovalReasonTags = []string{
		"health_criteria_met",
		"schedule_confirmed",
		"returning_donor",
	}

	RejectionReasonTags = []string{
		"health_criteria_not_met",
		"recent_donation",
		"incomplete_screening",
		"event_capacity_reached",
		"other",
	}
)

var (
	approvalTagSet  = tagSet(ApprovalReasonTags)
	rejectionTagSet = tagSet(RejectionReasonTags)
)

func tagSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	return set
}

// ValidateReasonTags checks that every tag belongs to the vocabulary for the
// given decision.
func ValidateReasonTags(decision Status, tags []string) error {
	vocab := approvalTagSet
	if decision == StatusRejected {
		vocab = rejectionTagSet
	}
	for _, t := range tags {
		if !vocab[t] {
			return dErrors.New(dErrors.CodeInvalidInput, "unknown reason tag: "+t)
		}
	}
	return nil
}

// ReviewNote records who decided, why, and when. Written atomically with the
// status change and never modified afterwards.
type ReviewNote struct {
	ReviewerID domain.OrganizationID `json:"reviewer_id"`
	Note       string                `json:"note,omitempty"`
	ReasonTags []string              `json:"reason_tags,omitempty"`
	DecidedAt  time.Time             `json:"decided_at"`
}

// Appointment is a descriptive scheduling hint set at approval time. It is
// not validated against hospital capacity.
type Appointment struct {
	Date time.Time `json:"date"`
	Slot string    `json:"slot,omitempty"`
}

// Registration is the donation registration entity. Donor, event, screening
// form and creation time are immutable after submission; only the Approval
// Gate mutates status and review, and only the Hospital Confirmation Gate
// links a result.
type Registration struct {
	ID          domain.RegistrationID `json:"id"`
	DonorID     domain.DonorID        `json:"donor_id"`
	EventID     domain.EventID        `json:"event_id"`
	Status      Status                `json:"status"`
	Form        screening.Form        `json:"screening_form"`
	Appointment *Appointment          `json:"appointment,omitempty"`
	Review      *ReviewNote           `json:"review,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// Active reports whether this registration occupies its (donor, event) slot.
func (r *Registration) Active() bool {
	return r.Status.Active()
}
