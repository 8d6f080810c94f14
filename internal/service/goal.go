package service

import (
	"math"

	"github.com/yourname/macrotracker/internal"
)

type NutrientProgress struct {
	Consumed  float64 `json:"consumed"`
	Goal      float64 `json:"goal"`
	Remaining float64 `json:"remaining"`
	Percent   float64 `json:"percent"`
}

// Remaining computes max(0, goal - total) for every nutrient that has a goal.
func Remaining(goals internal.NutrientGoals, totals internal.NutrientTotals) map[internal.NutrientKey]float64 {
	out := make(map[internal.NutrientKey]float64)
	for key, goal := range goals.AsMap() {
		out[key] = math.Max(0, goal-totals.Value(key))
	}
	return out
}

// CalculateProgress reports consumption against each goal. Percent is capped
// at 1 once a goal is met.
func CalculateProgress(goals internal.NutrientGoals, totals internal.NutrientTotals) map[internal.NutrientKey]NutrientProgress {
	remaining := Remaining(goals, totals)
	out := make(map[internal.NutrientKey]NutrientProgress, len(remaining))
	for key, goal := range goals.AsMap() {
		consumed := totals.Value(key)
		out[key] = NutrientProgress{
			Consumed:  consumed,
			Goal:      goal,
			Remaining: remaining[key],
			Percent:   math.Min(1, consumed/goal),
		}
	}
	return out
}
