// Package ordering computes fractional positions for manually ordered lists.
//
// Lists are displayed in descending position order: the item with the
// largest position comes first. Moving an item only rewrites that item's
// position; its neighbours are never touched.
package ordering

import (
	"time"
)

// Gap is the distance between a new head item and the current head.
const Gap = 1000.0

// PositionBetween returns a position that sorts between prev (the item
// displayed above) and next (the item displayed below). A nil neighbour
// means the list ends on that side.
func PositionBetween(prev, next *float64) float64 {
	switch {
	case prev == nil && next == nil:
		return Gap
	case prev == nil:
		return *next + Gap
	case next == nil:
		return *prev - Gap
	default:
		return (*prev + *next) / 2
	}
}

// HeadPosition returns a position that sorts before every given position.
func HeadPosition(positions []float64) float64 {
	if len(positions) == 0 {
		return Gap
	}
	head := positions[0]
	for _, p := range positions[1:] {
		if p > head {
			head = p
		}
	}
	return head + Gap
}

// Renormalize returns n evenly spaced positions in display order:
// n*Gap, (n-1)*Gap, ..., Gap.
func Renormalize(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(n-i) * Gap
	}
	return out
}

// Less reports whether item a is displayed before item b: higher position
// first, ties broken by most recently updated.
func Less(aPos, bPos float64, aUpdated, bUpdated time.Time) bool {
	if aPos != bPos {
		return aPos > bPos
	}
	return aUpdated.After(bUpdated)
}
