package internal

import "time"

type NutrientKey string

const (
	Calories NutrientKey = "calories"
	Protein  NutrientKey = "protein"
	Carbs    NutrientKey = "carbs"
	Fat      NutrientKey = "fat"
	Fiber    NutrientKey = "fiber"
)

// NutrientKeys lists the tracked nutrients in display order.
var NutrientKeys = []NutrientKey{Calories, Protein, Carbs, Fat, Fiber}

// NutrientRecord is one parsed estimate for a single food description.
type NutrientRecord struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"` // grams
	Carbs    float64 `json:"carbs"`   // grams
	Fat      float64 `json:"fat"`     // grams
	Fiber    float64 `json:"fiber"`   // grams
}

type NutrientTotals struct {
	Calories   float64  `json:"calories"`
	Protein    float64  `json:"protein"`
	Carbs      float64  `json:"carbs"`
	Fat        float64  `json:"fat"`
	Fiber      float64  `json:"fiber"`
	Foods      []string `json:"foods"`
	TokensUsed int      `json:"tokens_used"`
}

// Value returns the total for key, zero for unknown keys.
func (t NutrientTotals) Value(key NutrientKey) float64 {
	switch key {
	case Calories:
		return t.Calories
	case Protein:
		return t.Protein
	case Carbs:
		return t.Carbs
	case Fat:
		return t.Fat
	case Fiber:
		return t.Fiber
	}
	return 0
}

type NutrientGoals struct {
	Calories float64 `json:"calories" yaml:"calories" validate:"gte=0"`
	Protein  float64 `json:"protein" yaml:"protein" validate:"gte=0"`
	Carbs    float64 `json:"carbs" yaml:"carbs" validate:"gte=0"`
	Fat      float64 `json:"fat" yaml:"fat" validate:"gte=0"`
	Fiber    float64 `json:"fiber" yaml:"fiber" validate:"gte=0"`
}

// AsMap returns the goals keyed by nutrient. Zero goals are omitted so that an
// untracked nutrient does not show up as remaining allowance.
func (g NutrientGoals) AsMap() map[NutrientKey]float64 {
	m := make(map[NutrientKey]float64, len(NutrientKeys))
	for key, v := range map[NutrientKey]float64{
		Calories: g.Calories,
		Protein:  g.Protein,
		Carbs:    g.Carbs,
		Fat:      g.Fat,
		Fiber:    g.Fiber,
	} {
		if v > 0 {
			m[key] = v
		}
	}
	return m
}

type Session struct {
	ID        string         `json:"id"`
	Totals    NutrientTotals `json:"totals"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
