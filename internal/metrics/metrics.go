// Package metrics computes the diet summary over a user's meal history.
//
// Everything in this package is a pure function of its input: no storage, no
// clock, no logging. Callers fetch the meals, put them in history order with
// SortHistory and hand the slice to Compute.
package metrics

import "github.com/sakif/daily-diet/internal/model"

// Summary is the result of Compute. The JSON field names are the wire format
// of GET /transactions/metrics.
type Summary struct {
	Total              int `json:"total"`
	TotalOnDiet        int `json:"totalOnDiet"`
	TotalOffDiet       int `json:"totalOffDiet"`
	BestOnDietSequence int `json:"bestOnDietSequence"`
}

// Compute walks history once, in the order given, and returns the totals and
// the longest run of consecutive on-diet meals.
//
// history must already be in history order (see SortHistory); the streak is
// only meaningful over the same order the listing shows. Compute never
// modifies history. An empty or nil slice yields the zero Summary.
func Compute(history []model.Meal) Summary {
	var s Summary
	current := 0

	for i := range history {
		s.Total++

		if history[i].IsOnDiet {
			s.TotalOnDiet++
			current++
		} else {
			s.TotalOffDiet++
			current = 0
		}

		s.BestOnDietSequence = max(s.BestOnDietSequence, current)
	}

	return s
}
