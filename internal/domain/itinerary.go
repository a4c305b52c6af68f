package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category is the closed set of activity kinds.
type Category string

const (
	CategoryTransport Category = "transport"
	CategoryFood      Category = "food"
	CategoryActivity  Category = "activity"
	CategoryLodging   Category = "lodging"
)

// ParseCategory maps a free-text category (e.g. from the extraction service)
// onto the closed enum. Unrecognized values become CategoryActivity, since imports
// must never fail on a category the model invented.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryTransport, CategoryFood, CategoryActivity, CategoryLodging:
		return Category(s)
	default:
		return CategoryActivity
	}
}

// ActivitySource records how an activity entered the itinerary.
type ActivitySource string

const (
	SourceManual      ActivitySource = "manual"
	SourceGmailImport ActivitySource = "gmail_import"
)

// ImportStatus is the review state of an imported activity. It is nil for
// manually created activities.
type ImportStatus string

const (
	ImportPendingReview ImportStatus = "pending_review"
	ImportConfirmed     ImportStatus = "confirmed"
	ImportRejected      ImportStatus = "rejected"
)

// ItineraryDay is one calendar day of a trip. The date is unique per trip;
// the reconciler relies on the database enforcing that.
type ItineraryDay struct {
	ID        uuid.UUID
	TripID    uuid.UUID
	Date      time.Time // date only; time component is always midnight UTC
	Notes     string
	CreatedAt time.Time

	// ActivityCount is populated by list queries that join against
	// activities. It is what the reconciler uses to decide whether an
	// out-of-range day may be deleted.
	ActivityCount int
}

// Activity is a single itinerary entry belonging to exactly one day.
// SortOrder defines a total order within the day by relative value; gaps are
// permitted and never compacted.
type Activity struct {
	ID                 uuid.UUID
	ItineraryDayID     uuid.UUID
	Title              string
	Category           Category
	StartTime          *string // clock time "15:04", no date component
	EndTime            *string
	Location           string
	Latitude           *float64
	Longitude          *float64
	Notes              string
	ConfirmationNumber string
	CheckOutDate       *time.Time // lodging spanning multiple days
	SortOrder          int
	Source             ActivitySource
	SourceRef          string        // external message id, imports only
	ImportStatus       *ImportStatus // nil for manual activities
	CreatedAt          time.Time
}
