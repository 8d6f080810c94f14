package service

import "github.com/yourname/macrotracker/internal"

// ApplyRecord returns totals with record added and description appended to the
// food log. The input is not modified.
func ApplyRecord(totals internal.NutrientTotals, record internal.NutrientRecord, description string) internal.NutrientTotals {
	next := totals
	next.Foods = make([]string, 0, len(totals.Foods)+1)
	next.Foods = append(next.Foods, totals.Foods...)
	next.Foods = append(next.Foods, description)

	next.Calories += float64(record.Calories)
	next.Protein += record.Protein
	next.Carbs += record.Carbs
	next.Fat += record.Fat
	next.Fiber += record.Fiber
	return next
}

func ResetTotals() internal.NutrientTotals {
	return internal.NutrientTotals{Foods: []string{}}
}
