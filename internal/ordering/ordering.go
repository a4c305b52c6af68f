// Package ordering maintains the integer sort positions of sibling records:
// activities within an itinerary day, items within a checklist. Positions
// define a total order by relative value; they are dense after a reorder but
// deletes leave gaps that are never compacted.
package ordering

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/acady/wayfarer/backend/internal/domain"
)

// NextPosition returns the position for a newly appended sibling: one greater
// than the maximum existing position, or 0 when there are no siblings yet.
func NextPosition(positions []int) int {
	next := 0
	for _, p := range positions {
		if p >= next {
			next = p + 1
		}
	}
	return next
}

// Apply computes new positions for a full reorder. requested must be a
// permutation of exactly the current sibling ids, with no additions, omissions,
// or duplicates. On success every id is assigned its index in requested, so
// positions are 0..n-1 and ties are impossible.
//
// Returns domain.ErrValidation when requested is not such a permutation.
func Apply(current []uuid.UUID, requested []uuid.UUID) (map[uuid.UUID]int, error) {
	if len(requested) != len(current) {
		return nil, fmt.Errorf("%w: expected %d ids, got %d", domain.ErrValidation, len(current), len(requested))
	}

	known := make(map[uuid.UUID]struct{}, len(current))
	for _, id := range current {
		known[id] = struct{}{}
	}

	positions := make(map[uuid.UUID]int, len(requested))
	for i, id := range requested {
		if _, ok := known[id]; !ok {
			return nil, fmt.Errorf("%w: %s is not a member of the set", domain.ErrValidation, id)
		}
		if _, dup := positions[id]; dup {
			return nil, fmt.Errorf("%w: %s appears more than once", domain.ErrValidation, id)
		}
		positions[id] = i
	}

	return positions, nil
}
