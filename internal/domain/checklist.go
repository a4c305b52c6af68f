package domain

import "github.com/google/uuid"

// Checklist is a shared list of items under a trip.
type Checklist struct {
	ID     uuid.UUID
	TripID uuid.UUID
	Title  string
	Items  []ChecklistItem
}

// ChecklistItem is one entry in a checklist. Items share the same ordering
// scheme as activities: SortOrder by relative value, never compacted.
// Checked is the calling user's own state, resolved per request.
type ChecklistItem struct {
	ID          uuid.UUID
	ChecklistID uuid.UUID
	Text        string
	SortOrder   int
	Checked     bool
}
