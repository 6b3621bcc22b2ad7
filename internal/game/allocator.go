// internal/game/allocator.go
//
// Lane numbers: splitting a number domain into per-lane ranges, drawing
// numbers inside a lane's range, and validating explicit ranges.

package game

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
)

// NumberRanges splits [start, end] into count contiguous spans of equal
// size; the remainder is folded into the last span.
//
//	NumberRanges(3, 10, 99) → [10 39] [40 69] [70 99]
func NumberRanges(count, start, end int) []Range {
	if count <= 0 {
		return nil
	}
	size := (end - start + 1) / count
	out := make([]Range, count)
	for i := range out {
		lo := start + i*size
		hi := lo + size - 1
		if i == count-1 {
			hi = end
		}
		out[i] = Range{Min: lo, Max: hi}
	}
	return out
}

// Allocator draws lane numbers. Because every lane owns a disjoint span, a
// freshly drawn number can never collide with another lane's number.
type Allocator struct {
	ranges []Range
	rnd    *rand.Rand
}

func NewAllocator(ranges []Range, rnd *rand.Rand) *Allocator {
	return &Allocator{ranges: ranges, rnd: rnd}
}

// Allocate returns a uniformly random number from lane i's span.
func (a *Allocator) Allocate(i int) int {
	r := a.ranges[i]
	return r.Min + a.rnd.IntN(r.Max-r.Min+1)
}

// Width is the number of decimal digits of the largest lane number.
func (a *Allocator) Width() int {
	w := 1
	for _, r := range a.ranges {
		w = max(w, len(strconv.Itoa(r.Max)))
	}
	return w
}

func validateRanges(ranges []Range, lanes int) error {
	if len(ranges) != lanes {
		return fmt.Errorf("%w: %d number ranges for %d lanes", ErrInvalidConfig, len(ranges), lanes)
	}
	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b Range) int { return a.Min - b.Min })
	for i, r := range sorted {
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("%w: bad number range [%d, %d]", ErrInvalidConfig, r.Min, r.Max)
		}
		if i > 0 && r.Min <= sorted[i-1].Max {
			return fmt.Errorf("%w: number ranges [%d, %d] and [%d, %d] overlap",
				ErrInvalidConfig, sorted[i-1].Min, sorted[i-1].Max, r.Min, r.Max)
		}
	}
	return nil
}
