package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/yourname/macrotracker/internal"
)

// replyFields is the positional order of values in a model reply:
// "Calories: X kcal, Protein: X g, Carbs: X g, Fat: X g, Fiber: X g".
var replyFields = []internal.NutrientKey{
	internal.Calories,
	internal.Protein,
	internal.Carbs,
	internal.Fat,
	internal.Fiber,
}

// ParseOptions tunes ParseNutrition. The zero value is positional parsing.
type ParseOptions struct {
	// StrictLabels rejects segments whose label does not name the field
	// expected at that position.
	StrictLabels bool
}

// ParseNutrition parses a model reply positionally. Every failure, structural
// or numeric, wraps internal.ErrParse and yields a zero record.
func ParseNutrition(text string, opts ParseOptions) (internal.NutrientRecord, error) {
	segments := strings.Split(text, ", ")
	if len(segments) < len(replyFields) {
		return internal.NutrientRecord{}, fmt.Errorf("%w: want %d segments, got %d", internal.ErrParse, len(replyFields), len(segments))
	}

	values := make(map[internal.NutrientKey]float64, len(replyFields))
	var calories int
	for i, field := range replyFields {
		label, token, err := splitSegment(segments[i])
		if err != nil {
			return internal.NutrientRecord{}, fmt.Errorf("%w: segment %d: %v", internal.ErrParse, i+1, err)
		}
		if opts.StrictLabels && !strings.EqualFold(strings.TrimSpace(label), string(field)) {
			return internal.NutrientRecord{}, fmt.Errorf("%w: segment %d: label %q, want %q", internal.ErrParse, i+1, label, field)
		}

		if field == internal.Calories {
			n, err := strconv.Atoi(token)
			if err != nil || n < 0 {
				return internal.NutrientRecord{}, fmt.Errorf("%w: calories: invalid integer %q", internal.ErrParse, token)
			}
			calories = n
			continue
		}

		v, err := strconv.ParseFloat(token, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return internal.NutrientRecord{}, fmt.Errorf("%w: %s: invalid number %q", internal.ErrParse, field, token)
		}
		values[field] = v
	}

	return internal.NutrientRecord{
		Calories: calories,
		Protein:  values[internal.Protein],
		Carbs:    values[internal.Carbs],
		Fat:      values[internal.Fat],
		Fiber:    values[internal.Fiber],
	}, nil
}

// splitSegment returns the label and the first whitespace-separated token of
// the value in a "Label: value unit" segment.
func splitSegment(segment string) (string, string, error) {
	parts := strings.Split(segment, ": ")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("missing \": \" in %q", segment)
	}
	fields := strings.Fields(parts[1])
	if len(fields) == 0 {
		return "", "", fmt.Errorf("empty value in %q", segment)
	}
	return parts[0], fields[0], nil
}
