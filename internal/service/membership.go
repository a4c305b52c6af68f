// Package service implements the business logic of the Wayfarer API.
// Services depend on repo interfaces and are unit-tested with mocks.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/repo"
)

// verifyMember loads the trip and checks that userID belongs to it.
// A missing trip is domain.ErrNotFound; a non-member is domain.ErrForbidden.
// Every mutation in the itinerary, activity, checklist, and import services
// goes through this guard before touching anything.
func verifyMember(ctx context.Context, trips repo.TripRepo, tripID, userID uuid.UUID) (domain.Trip, domain.MemberRole, error) {
	trip, err := trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, "", err
	}

	role, err := trips.GetMemberRole(ctx, tripID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Trip{}, "", fmt.Errorf("%w: not a member of this trip", domain.ErrForbidden)
		}
		return domain.Trip{}, "", err
	}

	return trip, role, nil
}
