package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/macrotracker/internal"
)

const validReply = "Calories: 250 kcal, Protein: 10 g, Carbs: 30 g, Fat: 5 g, Fiber: 3 g"

func TestParseNutrition_Valid(t *testing.T) {
	rec, err := ParseNutrition(validReply, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, internal.NutrientRecord{Calories: 250, Protein: 10, Carbs: 30, Fat: 5, Fiber: 3}, rec)
}

func TestParseNutrition_TrailingPeriodAndDecimals(t *testing.T) {
	rec, err := ParseNutrition("Calories: 410 kcal, Protein: 12.5 g, Carbs: 48.2 g, Fat: 17 g, Fiber: 6.1 g.\n", ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, 410, rec.Calories)
	assert.InDelta(t, 12.5, rec.Protein, 1e-9)
	assert.InDelta(t, 48.2, rec.Carbs, 1e-9)
	assert.InDelta(t, 17.0, rec.Fat, 1e-9)
	assert.InDelta(t, 6.1, rec.Fiber, 1e-9)
}

func TestParseNutrition_ExtraSegmentsIgnored(t *testing.T) {
	rec, err := ParseNutrition(validReply+", Sugar: 9 g", ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, 250, rec.Calories)
	assert.Equal(t, 3.0, rec.Fiber)
}

func TestParseNutrition_Failures(t *testing.T) {
	cases := map[string]string{
		"three of five":       "Calories: 250 kcal, Protein: 10 g, Carbs: 30 g",
		"four of five":        "Calories: 250 kcal, Protein: 10 g, Carbs: 30 g, Fat: 5 g",
		"non-numeric":         "Calories: abc kcal, Protein: 10 g, Carbs: 30 g, Fat: 5 g, Fiber: 3 g",
		"fractional calories": "Calories: 250.5 kcal, Protein: 10 g, Carbs: 30 g, Fat: 5 g, Fiber: 3 g",
		"wrong separator":     "Calories: 250 kcal; Protein: 10 g; Carbs: 30 g; Fat: 5 g; Fiber: 3 g",
		"missing colon":       "Calories 250 kcal, Protein: 10 g, Carbs: 30 g, Fat: 5 g, Fiber: 3 g",
		"empty value":         "Calories: 250 kcal, Protein: , Carbs: 30 g, Fat: 5 g, Fiber: 3 g",
		"negative":            "Calories: 250 kcal, Protein: -10 g, Carbs: 30 g, Fat: 5 g, Fiber: 3 g",
		"nan":                 "Calories: 250 kcal, Protein: NaN g, Carbs: 30 g, Fat: 5 g, Fiber: 3 g",
		"prose":               "I'm sorry, I can't estimate that.",
		"empty":               "",
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			rec, err := ParseNutrition(reply, ParseOptions{})
			assert.ErrorIs(t, err, internal.ErrParse)
			assert.Equal(t, internal.NutrientRecord{}, rec)
		})
	}
}

func TestParseNutrition_PositionalIgnoresLabels(t *testing.T) {
	reordered := "Protein: 10 g, Calories: 250 kcal, Carbs: 30 g, Fat: 5 g, Fiber: 3 g"

	// "10" lands in calories and "250" in protein.
	rec, err := ParseNutrition(reordered, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, 10, rec.Calories)
	assert.Equal(t, 250.0, rec.Protein)

	_, err = ParseNutrition(reordered, ParseOptions{StrictLabels: true})
	assert.ErrorIs(t, err, internal.ErrParse)
}

func TestParseNutrition_StrictLabelsCaseInsensitive(t *testing.T) {
	rec, err := ParseNutrition("calories: 250 kcal, PROTEIN: 10 g, Carbs: 30 g, fat: 5 g, Fiber: 3 g", ParseOptions{StrictLabels: true})
	require.NoError(t, err)
	assert.Equal(t, 250, rec.Calories)
}
