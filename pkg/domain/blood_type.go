package domain

import dErrors "bloodlink/pkg/domain-errors"

// BloodType is the ABO group recorded for a donor. Rh factor is tracked by the
// hospital's lab systems, not by this service.
type BloodType string

const (
	BloodTypeA  BloodType = "A"
	BloodTypeB  BloodType = "B"
	BloodTypeAB BloodType = "AB"
	BloodTypeO  BloodType = "O"
)

var validBloodTypes = map[BloodType]bool{
	BloodTypeA:  true,
	BloodTypeB:  true,
	BloodTypeAB: true,
	BloodTypeO:  true,
}

// ParseBloodType constructs a BloodType from external input.
func ParseBloodType(s string) (BloodType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "blood type cannot be empty")
	}
	t := BloodType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "blood type must be one of A, B, AB, O")
	}
	return t, nil
}

func (t BloodType) IsValid() bool { return validBloodTypes[t] }

func (t BloodType) String() string { return string(t) }
