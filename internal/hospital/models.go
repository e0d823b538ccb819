package hospital

import (
	"time"

	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// Outcome is the hospital's verdict on a completed donation attempt. Only
// accepted results count toward the donor's lifetime totals.
type Outcome string

const (
	OutcomeAccepted    Outcome = "accepted"
	OutcomeRejected    Outcome = "rejected"
	OutcomeNeedsReview Outcome = "needs_review"
)

var validOutcomes = map[Outcome]bool{
	OutcomeAccepted:    true,
	OutcomeRejected:    true,
	OutcomeNeedsReview: true,
}

// ParseOutcome constructs an Outcome from external input.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !validOutcomes[o] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "outcome must be accepted, rejected or needs_review")
	}
	return o, nil
}

func (o Outcome) IsValid() bool { return validOutcomes[o] }

// AllowedVolumes are the collection bag sizes in milliliters.
var AllowedVolumes = []int{250, 350, 450}

// ValidVolume reports whether v is an allowed collection volume.
func ValidVolume(v int) bool {
	for _, allowed := range AllowedVolumes {
		if v == allowed {
			return true
		}
	}
	return false
}

// DonationResult records what happened when an approved registration was
// honored at the event. At most one result exists per registration; results
// are never deleted through normal flow.
type DonationResult struct {
	RegistrationID domain.RegistrationID `json:"registration_id"`
	DonorID        domain.DonorID        `json:"donor_id"`
	EventID        domain.EventID        `json:"event_id"`
	DonationDate   time.Time             `json:"donation_date"`
	VolumeML       int                   `json:"volume_ml"`
	Outcome        Outcome               `json:"outcome"`
	RecordedBy     domain.HospitalID     `json:"recorded_by"`
	RecordedAt     time.Time             `json:"recorded_at"`
}

// BloodTypeConfirmation is the hospital's verification of a donor's blood
// type. Donor-scoped, not event-scoped: one active confirmation per donor,
// overwritten in place on re-confirmation with the change preserved in Note.
type BloodTypeConfirmation struct {
	DonorID              domain.DonorID    `json:"donor_id"`
	ConfirmedType        domain.BloodType  `json:"confirmed_type"`
	Note                 string            `json:"note"`
	ConfirmedBy          domain.HospitalID `json:"confirmed_by"`
	PreviousSelfReported domain.BloodType  `json:"previous_self_reported,omitempty"`
	ConfirmedAt          time.Time         `json:"confirmed_at"`
}

// DonorHistory is the read-only projection over a donor's accepted results.
// Recomputed on every read; never stored.
type DonorHistory struct {
	TotalDonations int        `json:"total_donations"`
	TotalVolumeML  int        `json:"total_volume_ml"`
	MostRecentDate *time.Time `json:"most_recent_date,omitempty"`
}

// ProjectHistory folds a donor's results into the history projection.
// Rejected and needs_review results never count.
func ProjectHistory(results []*DonationResult) DonorHistory {
	var history DonorHistory
	for _, res := range results {
		if res.Outcome != OutcomeAccepted {
			continue
		}
		history.TotalDonations++
		history.TotalVolumeML += res.VolumeML
		if history.MostRecentDate == nil || res.DonationDate.After(*history.MostRecentDate) {
			date := res.DonationDate
			history.MostRecentDate = &date
		}
	}
	return history
}
