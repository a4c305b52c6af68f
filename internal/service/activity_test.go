package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/service"
)

// activityFixture wires an ActivityService around one trip with two days.
type activityFixture struct {
	userID uuid.UUID
	trip   domain.Trip
	dayA   domain.ItineraryDay
	dayB   domain.ItineraryDay

	trips *mockTripRepo
	days  *mockDayRepo
	acts  *mockActivityRepo
}

func newActivityFixture(t *testing.T) *activityFixture {
	t.Helper()

	f := &activityFixture{
		userID: uuid.New(),
		trip:   tripWithDates(datePtr(2026, time.June, 1), datePtr(2026, time.June, 2)),
	}
	f.trips = memberOf(f.trip, f.userID, domain.RoleMember)
	f.dayA = domain.ItineraryDay{ID: uuid.New(), TripID: f.trip.ID, Date: date(2026, time.June, 1)}
	f.dayB = domain.ItineraryDay{ID: uuid.New(), TripID: f.trip.ID, Date: date(2026, time.June, 2)}

	f.days = &mockDayRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (domain.ItineraryDay, error) {
			switch id {
			case f.dayA.ID:
				return f.dayA, nil
			case f.dayB.ID:
				return f.dayB, nil
			}
			return domain.ItineraryDay{}, domain.ErrNotFound
		},
	}
	f.acts = &mockActivityRepo{}
	return f
}

func (f *activityFixture) svc() *service.ActivityService {
	return service.NewActivityService(f.trips, f.days, f.acts)
}

// ---- create ----

func TestActivityCreate_AppendsAfterSiblings(t *testing.T) {
	f := newActivityFixture(t)
	f.acts.listByDayFn = func(ctx context.Context, dayID uuid.UUID) ([]domain.Activity, error) {
		return []domain.Activity{
			{ID: uuid.New(), SortOrder: 0},
			{ID: uuid.New(), SortOrder: 1000},
		}, nil
	}
	f.acts.createFn = func(ctx context.Context, a domain.Activity) (domain.Activity, error) {
		a.ID = uuid.New()
		return a, nil
	}

	created, err := f.svc().Create(context.Background(), f.userID, domain.Activity{
		ItineraryDayID: f.dayA.ID,
		Title:          "Museum visit",
		Category:       domain.CategoryActivity,
	})

	require.NoError(t, err)
	assert.Equal(t, 1001, created.SortOrder)
	assert.Equal(t, domain.SourceManual, created.Source)
}

func TestActivityCreate_FirstOnDayGetsPositionZero(t *testing.T) {
	f := newActivityFixture(t)
	f.acts.listByDayFn = func(ctx context.Context, dayID uuid.UUID) ([]domain.Activity, error) {
		return nil, nil
	}
	f.acts.createFn = func(ctx context.Context, a domain.Activity) (domain.Activity, error) {
		return a, nil
	}

	created, err := f.svc().Create(context.Background(), f.userID, domain.Activity{
		ItineraryDayID: f.dayA.ID,
		Title:          "Check in",
		Category:       domain.CategoryLodging,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, created.SortOrder)
}

func TestActivityCreate_RejectsBlankTitle(t *testing.T) {
	f := newActivityFixture(t)

	_, err := f.svc().Create(context.Background(), f.userID, domain.Activity{
		ItineraryDayID: f.dayA.ID,
		Title:          "   ",
		Category:       domain.CategoryFood,
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestActivityCreate_RejectsInvertedTimeWindow(t *testing.T) {
	f := newActivityFixture(t)
	start, end := "18:00", "09:00"

	_, err := f.svc().Create(context.Background(), f.userID, domain.Activity{
		ItineraryDayID: f.dayA.ID,
		Title:          "Dinner",
		Category:       domain.CategoryFood,
		StartTime:      &start,
		EndTime:        &end,
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestActivityCreate_NonMemberForbidden(t *testing.T) {
	f := newActivityFixture(t)

	_, err := f.svc().Create(context.Background(), uuid.New(), domain.Activity{
		ItineraryDayID: f.dayA.ID,
		Title:          "Museum visit",
		Category:       domain.CategoryActivity,
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ---- update ----

func existingActivity(dayID uuid.UUID) domain.Activity {
	start := "09:00"
	return domain.Activity{
		ID:             uuid.New(),
		ItineraryDayID: dayID,
		Title:          "Harbor tour",
		Category:       domain.CategoryActivity,
		StartTime:      &start,
		Location:       "Pier 3",
		SortOrder:      2,
		Source:         domain.SourceManual,
	}
}

func TestActivityUpdate_AbsentFieldsUntouched(t *testing.T) {
	f := newActivityFixture(t)
	a := existingActivity(f.dayA.ID)
	f.acts.getByIDFn = func(ctx context.Context, id uuid.UUID) (domain.Activity, error) { return a, nil }
	f.acts.updateFn = func(ctx context.Context, upd domain.Activity) (domain.Activity, error) { return upd, nil }

	updated, err := f.svc().Update(context.Background(), f.userID, a.ID, service.ActivityPatch{
		Title: domain.Some("Sunset harbor tour"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Sunset harbor tour", updated.Title)
	require.NotNil(t, updated.StartTime)
	assert.Equal(t, "09:00", *updated.StartTime)
	assert.Equal(t, "Pier 3", updated.Location)
	assert.Equal(t, 2, updated.SortOrder)
}

func TestActivityUpdate_ExplicitNullClears(t *testing.T) {
	f := newActivityFixture(t)
	a := existingActivity(f.dayA.ID)
	f.acts.getByIDFn = func(ctx context.Context, id uuid.UUID) (domain.Activity, error) { return a, nil }
	f.acts.updateFn = func(ctx context.Context, upd domain.Activity) (domain.Activity, error) { return upd, nil }

	updated, err := f.svc().Update(context.Background(), f.userID, a.ID, service.ActivityPatch{
		StartTime: domain.Null[string](),
	})

	require.NoError(t, err)
	assert.Nil(t, updated.StartTime)
}

func TestActivityUpdate_MoveToSiblingDay(t *testing.T) {
	f := newActivityFixture(t)
	a := existingActivity(f.dayA.ID)
	f.acts.getByIDFn = func(ctx context.Context, id uuid.UUID) (domain.Activity, error) { return a, nil }
	f.acts.updateFn = func(ctx context.Context, upd domain.Activity) (domain.Activity, error) { return upd, nil }

	updated, err := f.svc().Update(context.Background(), f.userID, a.ID, service.ActivityPatch{
		DayID: domain.Some(f.dayB.ID),
	})

	require.NoError(t, err)
	assert.Equal(t, f.dayB.ID, updated.ItineraryDayID)
	// The position travels with the activity; only explicit reorders change it.
	assert.Equal(t, 2, updated.SortOrder)
}

func TestActivityUpdate_MoveToMissingDayNotFound(t *testing.T) {
	f := newActivityFixture(t)
	a := existingActivity(f.dayA.ID)
	f.acts.getByIDFn = func(ctx context.Context, id uuid.UUID) (domain.Activity, error) { return a, nil }

	_, err := f.svc().Update(context.Background(), f.userID, a.ID, service.ActivityPatch{
		DayID: domain.Some(uuid.New()),
	})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestActivityUpdate_CrossTripMoveForbidden(t *testing.T) {
	f := newActivityFixture(t)
	a := existingActivity(f.dayA.ID)
	foreignDay := domain.ItineraryDay{ID: uuid.New(), TripID: uuid.New(), Date: date(2026, time.June, 1)}
	f.days.getByIDFn = func(ctx context.Context, id uuid.UUID) (domain.ItineraryDay, error) {
		switch id {
		case f.dayA.ID:
			return f.dayA, nil
		case foreignDay.ID:
			return foreignDay, nil
		}
		return domain.ItineraryDay{}, domain.ErrNotFound
	}
	f.acts.getByIDFn = func(ctx context.Context, id uuid.UUID) (domain.Activity, error) { return a, nil }

	_, err := f.svc().Update(context.Background(), f.userID, a.ID, service.ActivityPatch{
		DayID: domain.Some(foreignDay.ID),
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestActivityUpdate_NullDayRejected(t *testing.T) {
	f := newActivityFixture(t)
	a := existingActivity(f.dayA.ID)
	f.acts.getByIDFn = func(ctx context.Context, id uuid.UUID) (domain.Activity, error) { return a, nil }

	_, err := f.svc().Update(context.Background(), f.userID, a.ID, service.ActivityPatch{
		DayID: domain.Null[uuid.UUID](),
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- reorder ----

func TestActivityReorder_AssignsDensePositions(t *testing.T) {
	f := newActivityFixture(t)
	a1 := domain.Activity{ID: uuid.New(), ItineraryDayID: f.dayA.ID, Title: "A", Category: domain.CategoryActivity, SortOrder: 0}
	a2 := domain.Activity{ID: uuid.New(), ItineraryDayID: f.dayA.ID, Title: "B", Category: domain.CategoryActivity, SortOrder: 1000}
	a3 := domain.Activity{ID: uuid.New(), ItineraryDayID: f.dayA.ID, Title: "C", Category: domain.CategoryActivity, SortOrder: 1000}
	f.acts.listByDayFn = func(ctx context.Context, dayID uuid.UUID) ([]domain.Activity, error) {
		return []domain.Activity{a1, a2, a3}, nil
	}
	var applied map[uuid.UUID]int
	f.acts.updatePositionsFn = func(ctx context.Context, positions map[uuid.UUID]int) error {
		applied = positions
		return nil
	}

	reordered, err := f.svc().Reorder(context.Background(), f.userID, f.dayA.ID,
		[]uuid.UUID{a3.ID, a1.ID, a2.ID})

	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{a3.ID: 0, a1.ID: 1, a2.ID: 2}, applied)
	require.Len(t, reordered, 3)
	assert.Equal(t, "C", reordered[0].Title)
	assert.Equal(t, 0, reordered[0].SortOrder)
	assert.Equal(t, "B", reordered[2].Title)
}

func TestActivityReorder_RejectsPartialPermutation(t *testing.T) {
	f := newActivityFixture(t)
	a1 := domain.Activity{ID: uuid.New(), ItineraryDayID: f.dayA.ID, SortOrder: 0}
	a2 := domain.Activity{ID: uuid.New(), ItineraryDayID: f.dayA.ID, SortOrder: 1}
	f.acts.listByDayFn = func(ctx context.Context, dayID uuid.UUID) ([]domain.Activity, error) {
		return []domain.Activity{a1, a2}, nil
	}
	// updatePositionsFn stays nil: a write after a rejected permutation would panic.

	_, err := f.svc().Reorder(context.Background(), f.userID, f.dayA.ID, []uuid.UUID{a1.ID})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestActivityReorder_RejectsForeignID(t *testing.T) {
	f := newActivityFixture(t)
	a1 := domain.Activity{ID: uuid.New(), ItineraryDayID: f.dayA.ID, SortOrder: 0}
	f.acts.listByDayFn = func(ctx context.Context, dayID uuid.UUID) ([]domain.Activity, error) {
		return []domain.Activity{a1}, nil
	}

	_, err := f.svc().Reorder(context.Background(), f.userID, f.dayA.ID, []uuid.UUID{uuid.New()})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- delete ----

func TestActivityDelete(t *testing.T) {
	f := newActivityFixture(t)
	a := existingActivity(f.dayA.ID)
	f.acts.getByIDFn = func(ctx context.Context, id uuid.UUID) (domain.Activity, error) { return a, nil }
	var deleted uuid.UUID
	f.acts.deleteFn = func(ctx context.Context, id uuid.UUID) error {
		deleted = id
		return nil
	}

	err := f.svc().Delete(context.Background(), f.userID, a.ID)

	require.NoError(t, err)
	assert.Equal(t, a.ID, deleted)
}
