package screening

import (
	"strings"

	dErrors "bloodlink/pkg/domain-errors"
)

// Field names used in validation errors, one per question group.
const (
	FieldCurrentIllness  = "current_illness"
	FieldSeriousDisease  = "serious_disease"
	FieldLast12Months    = "last_12_months"
	FieldLast6Months     = "last_6_months"
	FieldLast1Month      = "last_1_month"
	FieldSymptoms14Days  = "symptoms_14_days"
	FieldMedication7Days = "medication_7_days"
)

// Validate checks all eight question groups and returns either a normalized
// Form or a validation error listing every offending group, not just the
// first. Rules:
//   - every selected code must belong to its group's vocabulary
//   - "none" is mutually exclusive with any other selection in a group
//   - free text is required where the selected code demands elaboration
func Validate(in Input) (*Form, error) {
	var violations []dErrors.FieldViolation
	addViolation := func(field, reason string) {
		violations = append(violations, dErrors.FieldViolation{Field: field, Reason: reason})
	}

	form := &Form{
		DonatedBefore:        in.DonatedBefore,
		CurrentIllness:       in.CurrentIllness,
		CurrentIllnessDetail: strings.TrimSpace(in.CurrentIllnessDetail),
		HasSeriousDisease:    in.HasSeriousDisease,
		SeriousDiseaseDetail: strings.TrimSpace(in.SeriousDiseaseDetail),
		Symptoms14Days:       strings.TrimSpace(in.Symptoms14Days),
		Symptom14DayDetail:   strings.TrimSpace(in.Symptom14DayDetail),
		Medication7Days:      strings.TrimSpace(in.Medication7Days),
		MedicationDetail:     strings.TrimSpace(in.MedicationDetail),
	}

	// Group 2: current illness requires a description when answered yes.
	if in.CurrentIllness && form.CurrentIllnessDetail == "" {
		addViolation(FieldCurrentIllness, "description required when currently ill")
	}
	if !in.CurrentIllness {
		form.CurrentIllnessDetail = ""
	}

	// Group 3: serious disease history.
	if in.HasSeriousDisease {
		diseases, ok := checkSubset(in.SeriousDiseases, seriousDiseaseSet)
		if !ok {
			addViolation(FieldSeriousDisease, "unknown disease code")
		} else if len(diseases) == 0 {
			addViolation(FieldSeriousDisease, "at least one disease must be selected")
		} else {
			form.SeriousDiseases = normalize(diseases, SeriousDiseases)
			if contains(form.SeriousDiseases, CodeOther) && form.SeriousDiseaseDetail == "" {
				addViolation(FieldSeriousDisease, "description required for other disease")
			}
		}
	} else {
		if len(in.SeriousDiseases) > 0 {
			addViolation(FieldSeriousDisease, "disease list must be empty when history answered no")
		}
		form.SeriousDiseaseDetail = ""
	}

	// Groups 4-6: multi-select recent-event groups, "none" exclusive.
	form.Last12Months = validateMultiSelect(in.Last12Months, last12Set, Last12MonthEvents, FieldLast12Months, addViolation)
	form.Last6Months = validateMultiSelect(in.Last6Months, last6Set, Last6MonthEvents, FieldLast6Months, addViolation)
	form.Last1Month = validateMultiSelect(in.Last1Month, last1Set, Last1MonthEvents, FieldLast1Month, addViolation)

	// Group 7: symptoms, single-select.
	validateSingleSelect(form.Symptoms14Days, form.Symptom14DayDetail, symptomSet, FieldSymptoms14Days, addViolation)
	if form.Symptoms14Days != CodeOther {
		form.Symptom14DayDetail = ""
	}

	// Group 8: medication, single-select.
	validateSingleSelect(form.Medication7Days, form.MedicationDetail, medicationSet, FieldMedication7Days, addViolation)
	if form.Medication7Days != CodeOther {
		form.MedicationDetail = ""
	}

	if len(violations) > 0 {
		return nil, dErrors.NewValidation("screening form validation failed", violations)
	}
	return form, nil
}

// validateMultiSelect enforces the shared rules of groups 4-6: a non-empty
// selection, codes inside the vocabulary, "none" standing alone.
func validateMultiSelect(selected []string, vocab map[string]bool, ordered []string, field string, addViolation func(field, reason string)) []string {
	if len(selected) == 0 {
		addViolation(field, "selection required; answer none if nothing applies")
		return nil
	}
	hasNone := false
	for _, code := range selected {
		if code == CodeNone {
			hasNone = true
			continue
		}
		if !vocab[code] {
			addViolation(field, "unknown code: "+code)
			return nil
		}
	}
	if hasNone && countDistinct(selected) > 1 {
		addViolation(field, "none cannot be combined with other selections")
		return nil
	}
	return normalize(selected, ordered)
}

func validateSingleSelect(code, detail string, vocab map[string]bool, field string, addViolation func(field, reason string)) {
	switch {
	case code == "":
		addViolation(field, "selection required; answer none if nothing applies")
	case code == CodeNone:
	case !vocab[code]:
		addViolation(field, "unknown code: "+code)
	case code == CodeOther && detail == "":
		addViolation(field, "description required for other")
	}
}

// checkSubset reports whether all codes are in the vocabulary, returning the
// input unchanged for later normalization.
func checkSubset(codes []string, vocab map[string]bool) ([]string, bool) {
	for _, code := range codes {
		if !vocab[code] {
			return nil, false
		}
	}
	return codes, true
}

func contains(codes []string, target string) bool {
	for _, code := range codes {
		if code == target {
			return true
		}
	}
	return false
}

func countDistinct(codes []string) int {
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		seen[code] = true
	}
	return len(seen)
}
