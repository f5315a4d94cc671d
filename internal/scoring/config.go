// Package scoring is the table-driven core of the engine: it maps assessment
// answers to hazard references, applies severity × likelihood ratings, resolves
// hazards to services and aggregates the result into a recommendation report.
//
// Nothing here touches the database; the catalog is passed in as plain data.
package scoring

// ─── ASSESSMENT ITEMS ─────────────────────────────────────────────────────────

// The mapper walks items in these fixed orders so that its output is
// deterministic for a given assessment.

// ADLItems are the Barthel index items.
var ADLItems = []string{
	"feeding",
	"bathing",
	"grooming",
	"dressing",
	"bowels",
	"bladder",
	"toilet_use",
	"transfers",
	"mobility",
	"stairs",
}

// IADLItems are the Lawton instrumental ADL items.
var IADLItems = []string{
	"telephone",
	"shopping",
	"food_preparation",
	"housekeeping",
	"laundry",
	"transportation",
	"medication",
	"finances",
}

// PRAPAREItems are the scorable PRAPARE items. Yes/no questions and the race
// checkboxes are coded 0/1.
var PRAPAREItems = []string{
	"hispanic",
	"race_asian",
	"race_native_hawaiian",
	"race_pacific_islander",
	"race_black",
	"race_white",
	"race_american_indian",
	"race_other",
	"race_no_answer",
	"farm_work",
	"military_service",
	"primary_language",
	"household_size",
	"housing_situation",
	"housing_worry",
	"education_level",
	"employment_status",
	"primary_insurance",
	"annual_income",
	"unmet_food",
	"unmet_clothing",
	"unmet_utilities",
	"unmet_childcare",
	"unmet_healthcare",
	"unmet_phone",
	"unmet_other",
	"unmet_no_answer",
	"transportation_barrier",
	"social_contact",
	"stress_level",
	"incarceration_history",
	"feel_safe",
	"domestic_violence",
	"food_worry",
	"food_didnt_last",
	"need_food_help",
}

// IsPRAPAREItem reports whether name is a scorable PRAPARE item.
func IsPRAPAREItem(name string) bool {
	for _, it := range PRAPAREItems {
		if it == name {
			return true
		}
	}
	return false
}
