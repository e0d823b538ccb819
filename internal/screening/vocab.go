package screening

// CodeNone marks an explicit "nothing applies" answer. It is mutually
// exclusive with every other code in its group.
const CodeNone = "none"

// CodeOther requires free-text elaboration wherever it is selectable.
const CodeOther = "other"

// Closed vocabularies for the eight question groups. These lists are the
// single source of truth; the validator rejects any code outside them.
var (
	// Group 3: history of serious disease.
	SeriousDiseases = []string{
		"hepatitis_b",
		"hepatitis_c",
		"hiv",
		"syphilis",
		"malaria",
		"tuberculosis",
		"heart_disease",
		"hypertension",
		"diabetes",
		"cancer",
		"epilepsy",
		CodeOther,
	}

	// Group 4: events in the last 12 months.
	Last12MonthEvents = []string{
		"recovered_serious_illness",
		"blood_transfusion",
		"surgery",
		"tattoo_or_piercing",
		"rabies_vaccination",
		"childbirth",
	}

	// Group 5: events in the last 6 months.
	Last6MonthEvents = []string{
		"rapid_weight_loss",
		"prolonged_fever",
		"night_sweats",
		"enlarged_lymph_nodes",
		"skin_abnormalities",
		"dental_procedure",
	}

	// Group 6: events in the last 1 month.
	Last1MonthEvents = []string{
		"recovered_from_illness",
		"vaccination",
		"travel_epidemic_area",
		"contact_infectious_disease",
	}

	// Group 7: symptoms in the last 14 days. Single-select.
	Symptoms14Days = []string{
		"fever",
		"cough",
		"sore_throat",
		"runny_nose",
		"diarrhea",
		"weight_loss",
		CodeOther,
	}

	// Group 8: medication in the last 7 days. Single-select.
	Medications7Days = []string{
		"antibiotics",
		"corticosteroids",
		"aspirin",
		CodeOther,
	}
)

func toSet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}

var (
	seriousDiseaseSet = toSet(SeriousDiseases)
	last12Set         = toSet(Last12MonthEvents)
	last6Set          = toSet(Last6MonthEvents)
	last1Set          = toSet(Last1MonthEvents)
	symptomSet        = toSet(Symptoms14Days)
	medicationSet     = toSet(Medications7Days)
)
