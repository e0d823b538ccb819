// Package screening validates and normalizes the health questionnaire a donor
// submits with a registration. Validation runs exactly once, at submission
// time; the resulting Form is frozen and downstream code never re-parses it.
package screening

// Input is the raw submitted questionnaire, before validation. Field names
// follow the eight question groups of the standard donation form.
type Input struct {
	DonatedBefore bool `json:"donated_before"`

	CurrentIllness       bool   `json:"current_illness"`
	CurrentIllnessDetail string `json:"current_illness_detail"`

	HasSeriousDisease    bool     `json:"has_serious_disease"`
	SeriousDiseases      []string `json:"serious_diseases"`
	SeriousDiseaseDetail string   `json:"serious_disease_detail"`

	Last12Months []string `json:"last_12_months"`
	Last6Months  []string `json:"last_6_months"`
	Last1Month   []string `json:"last_1_month"`

	Symptoms14Days      string `json:"symptoms_14_days"`
	Symptom14DayDetail  string `json:"symptom_14_day_detail"`
	Medication7Days     string `json:"medication_7_days"`
	MedicationDetail    string `json:"medication_detail"`
}

// Form is the validated, normalized questionnaire embedded in a Registration.
// Multi-select groups are deduplicated and ordered canonically (vocabulary
// order); free text is trimmed. Immutable once attached to a registration.
type Form struct {
	DonatedBefore bool `json:"donated_before"`

	CurrentIllness       bool   `json:"current_illness"`
	CurrentIllnessDetail string `json:"current_illness_detail,omitempty"`

	HasSeriousDisease    bool     `json:"has_serious_disease"`
	SeriousDiseases      []string `json:"serious_diseases,omitempty"`
	SeriousDiseaseDetail string   `json:"serious_disease_detail,omitempty"`

	Last12Months []string `json:"last_12_months"`
	Last6Months  []string `json:"last_6_months"`
	Last1Month   []string `json:"last_1_month"`

	Symptoms14Days     string `json:"symptoms_14_days"`
	Symptom14DayDetail string `json:"symptom_14_day_detail,omitempty"`
	Medication7Days    string `json:"medication_7_days"`
	MedicationDetail   string `json:"medication_detail,omitempty"`
}

// normalize dedupes a multi-select group and orders it by vocabulary order so
// equal selections always serialize identically.
func normalize(selected []string, vocab []string) []string {
	seen := make(map[string]bool, len(selected))
	for _, code := range selected {
		seen[code] = true
	}
	if seen[CodeNone] {
		return []string{CodeNone}
	}
	out := make([]string, 0, len(selected))
	for _, code := range vocab {
		if seen[code] {
			out = append(out, code)
		}
	}
	return out
}
