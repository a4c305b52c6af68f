// Package domain contains the core data types for the Wayfarer API.
// This package has zero external dependencies beyond the uuid type and is
// imported by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripType distinguishes multi-day vacations from single events.
type TripType string

const (
	TripVacation TripType = "vacation"
	TripEvent    TripType = "event"
)

// TripStatus is the planning lifecycle stage of a trip.
type TripStatus string

const (
	StatusDreaming  TripStatus = "dreaming"
	StatusPlanning  TripStatus = "planning"
	StatusBooked    TripStatus = "booked"
	StatusCompleted TripStatus = "completed"
)

// MemberRole controls what a trip member may do. Owners can delete the trip
// and manage membership; members can edit everything else.
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

// Trip is the top-level aggregate. Itinerary days, activities, and checklists
// all hang off a trip and are removed with it.
//
// StartDate and EndDate are nil while the trip is still being sketched out;
// itinerary day generation and Gmail scanning both require the full range.
type Trip struct {
	ID                   uuid.UUID
	Type                 TripType
	Destination          string
	StartDate            *time.Time
	EndDate              *time.Time
	Status               TripStatus
	Notes                string
	DestinationLatitude  *float64
	DestinationLongitude *float64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TripMember links a user to a trip with a role. (TripID, UserID) is unique.
type TripMember struct {
	ID          uuid.UUID
	TripID      uuid.UUID
	UserID      uuid.UUID
	Role        MemberRole
	DisplayName string
	Email       string
}
