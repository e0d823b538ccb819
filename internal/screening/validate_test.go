package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "bloodlink/pkg/domain-errors"
)

// cleanInput returns a questionnaire that passes validation: no illness, no
// history, "none" in every recent-event group.
func cleanInput() Input {
	return Input{
		DonatedBefore:   false,
		Last12Months:    []string{"none"},
		Last6Months:     []string{"none"},
		Last1Month:      []string{"none"},
		Symptoms14Days:  "none",
		Medication7Days: "none",
	}
}

func requireViolations(t *testing.T, err error) []dErrors.FieldViolation {
	t.Helper()
	require.Error(t, err)
	var dErr *dErrors.Error
	require.ErrorAs(t, err, &dErr)
	require.Equal(t, dErrors.CodeValidation, dErr.Code)
	require.NotEmpty(t, dErr.Fields)
	return dErr.Fields
}

func violationFields(violations []dErrors.FieldViolation) []string {
	fields := make([]string, 0, len(violations))
	for _, v := range violations {
		fields = append(fields, v.Field)
	}
	return fields
}

func TestValidateAcceptsCleanForm(t *testing.T) {
	form, err := Validate(cleanInput())
	require.NoError(t, err)

	assert.False(t, form.CurrentIllness)
	assert.Equal(t, []string{"none"}, form.Last12Months)
	assert.Equal(t, []string{"none"}, form.Last6Months)
	assert.Equal(t, []string{"none"}, form.Last1Month)
	assert.Equal(t, "none", form.Symptoms14Days)
	assert.Equal(t, "none", form.Medication7Days)
}

func TestValidateCurrentIllness(t *testing.T) {
	t.Run("requires detail when ill", func(t *testing.T) {
		in := cleanInput()
		in.CurrentIllness = true

		_, err := Validate(in)
		violations := requireViolations(t, err)
		assert.Contains(t, violationFields(violations), FieldCurrentIllness)
	})

	t.Run("accepts illness with detail", func(t *testing.T) {
		in := cleanInput()
		in.CurrentIllness = true
		in.CurrentIllnessDetail = "seasonal flu, recovering"

		form, err := Validate(in)
		require.NoError(t, err)
		assert.Equal(t, "seasonal flu, recovering", form.CurrentIllnessDetail)
	})

	t.Run("drops stray detail when not ill", func(t *testing.T) {
		in := cleanInput()
		in.CurrentIllnessDetail = "leftover text"

		form, err := Validate(in)
		require.NoError(t, err)
		assert.Empty(t, form.CurrentIllnessDetail)
	})
}

func TestValidateSeriousDisease(t *testing.T) {
	t.Run("requires at least one disease when answered yes", func(t *testing.T) {
		in := cleanInput()
		in.HasSeriousDisease = true

		_, err := Validate(in)
		violations := requireViolations(t, err)
		assert.Contains(t, violationFields(violations), FieldSeriousDisease)
	})

	t.Run("rejects unknown disease code", func(t *testing.T) {
		in := cleanInput()
		in.HasSeriousDisease = true
		in.SeriousDiseases = []string{"hepatitis_b", "common_cold"}

		_, err := Validate(in)
		violations := requireViolations(t, err)
		assert.Contains(t, violationFields(violations), FieldSeriousDisease)
	})

	t.Run("other requires detail", func(t *testing.T) {
		in := cleanInput()
		in.HasSeriousDisease = true
		in.SeriousDiseases = []string{"other"}

		_, err := Validate(in)
		violations := requireViolations(t, err)
		assert.Contains(t, violationFields(violations), FieldSeriousDisease)
	})

	t.Run("rejects disease list when answered no", func(t *testing.T) {
		in := cleanInput()
		in.SeriousDiseases = []string{"hepatitis_b"}

		_, err := Validate(in)
		violations := requireViolations(t, err)
		assert.Contains(t, violationFields(violations), FieldSeriousDisease)
	})

	t.Run("normalizes selection to vocabulary order", func(t *testing.T) {
		in := cleanInput()
		in.HasSeriousDisease = true
		in.SeriousDiseases = []string{"hiv", "hepatitis_b", "hiv"}

		form, err := Validate(in)
		require.NoError(t, err)
		assert.Equal(t, []string{"hepatitis_b", "hiv"}, form.SeriousDiseases)
	})
}

func TestValidateRecentEventGroups(t *testing.T) {
	t.Run("empty group is a violation", func(t *testing.T) {
		in := cleanInput()
		in.Last12Months = nil

		_, err := Validate(in)
		violations := requireViolations(t, err)
		assert.Contains(t, violationFields(violations), FieldLast12Months)
	})

	t.Run("none cannot be combined with other codes", func(t *testing.T) {
		in := cleanInput()
		in.Last6Months = []string{"none", "dental_procedure"}

		_, err := Validate(in)
		violations := requireViolations(t, err)
		assert.Contains(t, violationFields(violations), FieldLast6Months)
	})

	t.Run("rejects unknown code", func(t *testing.T) {
		in := cleanInput()
		in.Last1Month = []string{"moon_travel"}

		_, err := Validate(in)
		violations := requireViolations(t, err)
		assert.Contains(t, violationFields(violations), FieldLast1Month)
	})

	t.Run("valid selections normalize and dedupe", func(t *testing.T) {
		in := cleanInput()
		in.Last12Months = []string{"surgery", "blood_transfusion", "surgery"}

		form, err := Validate(in)
		require.NoError(t, err)
		assert.Equal(t, []string{"blood_transfusion", "surgery"}, form.Last12Months)
	})

	t.Run("duplicate none stands alone", func(t *testing.T) {
		in := cleanInput()
		in.Last1Month = []string{"none", "none"}

		form, err := Validate(in)
		require.NoError(t, err)
		assert.Equal(t, []string{"none"}, form.Last1Month)
	})
}

func TestValidateSingleSelectGroups(t *testing.T) {
	t.Run("empty symptom selection is a violation", func(t *testing.T) {
		in := cleanInput()
		in.Symptoms14Days = ""

		_, err := Validate(in)
		violations := requireViolations(t, err)
		assert.Contains(t, violationFields(violations), FieldSymptoms14Days)
	})

	t.Run("other symptom requires detail", func(t *testing.T) {
		in := cleanInput()
		in.Symptoms14Days = "other"

		_, err := Validate(in)
		violations := requireViolations(t, err)
		assert.Contains(t, violationFields(violations), FieldSymptoms14Days)
	})

	t.Run("unknown medication code is a violation", func(t *testing.T) {
		in := cleanInput()
		in.Medication7Days = "vitamins"

		_, err := Validate(in)
		violations := requireViolations(t, err)
		assert.Contains(t, violationFields(violations), FieldMedication7Days)
	})

	t.Run("detail dropped unless code is other", func(t *testing.T) {
		in := cleanInput()
		in.Symptoms14Days = "fever"
		in.Symptom14DayDetail = "irrelevant"

		form, err := Validate(in)
		require.NoError(t, err)
		assert.Equal(t, "fever", form.Symptoms14Days)
		assert.Empty(t, form.Symptom14DayDetail)
	})
}

// TestValidateCollectsAllViolations checks the validator reports every failing
// group in one pass instead of stopping at the first.
func TestValidateCollectsAllViolations(t *testing.T) {
	in := Input{
		CurrentIllness:    true,
		HasSeriousDisease: true,
		Last12Months:      nil,
		Last6Months:       []string{"none", "surgery"},
		Last1Month:        []string{"unknown_code"},
		Symptoms14Days:    "",
		Medication7Days:   "other",
	}

	_, err := Validate(in)
	violations := requireViolations(t, err)
	fields := violationFields(violations)

	assert.Contains(t, fields, FieldCurrentIllness)
	assert.Contains(t, fields, FieldSeriousDisease)
	assert.Contains(t, fields, FieldLast12Months)
	assert.Contains(t, fields, FieldLast6Months)
	assert.Contains(t, fields, FieldLast1Month)
	assert.Contains(t, fields, FieldSymptoms14Days)
	assert.Contains(t, fields, FieldMedication7Days)
	assert.Len(t, violations, 7)
}
