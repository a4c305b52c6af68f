package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/repo"
)

func TestDayRepo_ApplyDelta_CreatesAndRemoves(t *testing.T) {
	tx := beginTx(t)
	ctx := context.Background()
	_, trip := seedTrip(t, tx, datePtr(2026, time.June, 1), datePtr(2026, time.June, 3))

	days := repo.NewDayRepo(tx)

	err := days.ApplyDelta(ctx, trip.ID, []time.Time{
		*datePtr(2026, time.June, 1),
		*datePtr(2026, time.June, 2),
		*datePtr(2026, time.June, 3),
	}, nil)
	require.NoError(t, err)

	listed, err := days.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, *datePtr(2026, time.June, 1), listed[0].Date.UTC())
	assert.Equal(t, *datePtr(2026, time.June, 3), listed[2].Date.UTC())

	err = days.ApplyDelta(ctx, trip.ID,
		[]time.Time{*datePtr(2026, time.June, 4)},
		[]uuid.UUID{listed[0].ID})
	require.NoError(t, err)

	listed, err = days.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, *datePtr(2026, time.June, 2), listed[0].Date.UTC())
	assert.Equal(t, *datePtr(2026, time.June, 4), listed[2].Date.UTC())
}

func TestDayRepo_ApplyDelta_DuplicateDateIsBenign(t *testing.T) {
	tx := beginTx(t)
	ctx := context.Background()
	_, trip := seedTrip(t, tx, datePtr(2026, time.June, 1), datePtr(2026, time.June, 2))

	days := repo.NewDayRepo(tx)

	existing, err := days.Create(ctx, domain.ItineraryDay{
		TripID: trip.ID,
		Date:   *datePtr(2026, time.June, 1),
	})
	require.NoError(t, err)

	// Re-inserting the same date must not error or duplicate the day.
	err = days.ApplyDelta(ctx, trip.ID, []time.Time{
		*datePtr(2026, time.June, 1),
		*datePtr(2026, time.June, 2),
	}, nil)
	require.NoError(t, err)

	listed, err := days.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, existing.ID, listed[0].ID)
}

func TestDayRepo_Create_DuplicateDateConflicts(t *testing.T) {
	tx := beginTx(t)
	ctx := context.Background()
	_, trip := seedTrip(t, tx, datePtr(2026, time.June, 1), datePtr(2026, time.June, 2))

	days := repo.NewDayRepo(tx)

	_, err := days.Create(ctx, domain.ItineraryDay{TripID: trip.ID, Date: *datePtr(2026, time.June, 1)})
	require.NoError(t, err)

	_, err = days.Create(ctx, domain.ItineraryDay{TripID: trip.ID, Date: *datePtr(2026, time.June, 1)})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDayRepo_ListByTrip_CountsActivities(t *testing.T) {
	tx := beginTx(t)
	ctx := context.Background()
	_, trip := seedTrip(t, tx, datePtr(2026, time.June, 1), datePtr(2026, time.June, 2))

	days := repo.NewDayRepo(tx)
	acts := repo.NewActivityRepo(tx)

	day1, err := days.Create(ctx, domain.ItineraryDay{TripID: trip.ID, Date: *datePtr(2026, time.June, 1)})
	require.NoError(t, err)
	day2, err := days.Create(ctx, domain.ItineraryDay{TripID: trip.ID, Date: *datePtr(2026, time.June, 2)})
	require.NoError(t, err)

	for _, title := range []string{"Museum", "Dinner"} {
		_, err := acts.Create(ctx, domain.Activity{
			ItineraryDayID: day1.ID,
			Title:          title,
			Category:       domain.CategoryActivity,
			Source:         domain.SourceManual,
		})
		require.NoError(t, err)
	}

	listed, err := days.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, day1.ID, listed[0].ID)
	assert.Equal(t, 2, listed[0].ActivityCount)
	assert.Equal(t, day2.ID, listed[1].ID)
	assert.Equal(t, 0, listed[1].ActivityCount)
}

func TestDayRepo_Delete_CascadesActivities(t *testing.T) {
	tx := beginTx(t)
	ctx := context.Background()
	_, trip := seedTrip(t, tx, datePtr(2026, time.June, 1), datePtr(2026, time.June, 1))

	days := repo.NewDayRepo(tx)
	acts := repo.NewActivityRepo(tx)

	day, err := days.Create(ctx, domain.ItineraryDay{TripID: trip.ID, Date: *datePtr(2026, time.June, 1)})
	require.NoError(t, err)

	created, err := acts.Create(ctx, domain.Activity{
		ItineraryDayID: day.ID,
		Title:          "Check-in",
		Category:       domain.CategoryLodging,
		Source:         domain.SourceManual,
	})
	require.NoError(t, err)

	require.NoError(t, days.Delete(ctx, day.ID))

	_, err = acts.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
