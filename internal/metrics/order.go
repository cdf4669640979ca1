package metrics

import (
	"cmp"
	"slices"

	"github.com/sakif/daily-diet/internal/model"
)

// SortHistory puts meals in history order, in place: most recent OccurredAt
// first, and among meals with the same OccurredAt the most recently inserted
// (highest Seq) first.
//
// Both the listing endpoint and Compute rely on this order; any code that
// presents or aggregates meal history must go through it.
func SortHistory(meals []model.Meal) {
	slices.SortStableFunc(meals, compareHistory)
}

// IsHistoryOrdered reports whether meals is already in history order.
func IsHistoryOrdered(meals []model.Meal) bool {
	return slices.IsSortedFunc(meals, compareHistory)
}

func compareHistory(a, b model.Meal) int {
	if c := b.OccurredAt.Compare(a.OccurredAt); c != 0 {
		return c
	}
	return cmp.Compare(b.Seq, a.Seq)
}
