package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stable-reserve-backend/internal/model"
)

// newTestStore opens a named in-memory SQLite database so every connection
// in the pool sees the same data.
func newTestStore(t *testing.T) Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Facility{},
		&model.Horse{},
		&model.Reservation{},
		&model.PushSubscription{},
	))
	return NewGormStore(db)
}

func seedReservation(t *testing.T, s Store, id string, facilityID int64, start, end time.Time, horses int, status string) {
	t.Helper()
	res := model.Reservation{
		ID:         id,
		FacilityID: facilityID,
		StartTime:  start,
		EndTime:    end,
		HorseCount: horses,
		Status:     status,
	}
	require.NoError(t, s.DB().Create(&res).Error)
}

func ts(hour, min int) time.Time {
	return time.Date(2026, 3, 14, hour, min, 0, 0, time.UTC)
}

func TestOverlappingReservations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.DB().Create(&model.Facility{ID: 1, Name: "Indoor Arena", MaxCapacity: 4}).Error)

	seedReservation(t, s, "inside", 1, ts(9, 0), ts(10, 0), 2, model.StatusConfirmed)
	seedReservation(t, s, "touching-before", 1, ts(8, 0), ts(9, 0), 1, model.StatusPending)
	seedReservation(t, s, "touching-after", 1, ts(11, 0), ts(12, 0), 1, model.StatusConfirmed)
	seedReservation(t, s, "outside", 1, ts(6, 0), ts(7, 0), 3, model.StatusConfirmed)
	seedReservation(t, s, "cancelled", 1, ts(9, 0), ts(10, 0), 3, model.StatusCancelled)
	seedReservation(t, s, "other-facility", 2, ts(9, 0), ts(10, 0), 3, model.StatusConfirmed)

	intervals, err := s.OverlappingReservations(ctx, 1, ts(9, 0), ts(11, 0), "")
	require.NoError(t, err)

	ids := make([]string, len(intervals))
	for i, iv := range intervals {
		ids[i] = iv.ID
	}
	// Boundary-touching reservations are included; cancelled rows, other
	// facilities and disjoint intervals are not.
	assert.ElementsMatch(t, []string{"inside", "touching-before", "touching-after"}, ids)

	// Excluding a reservation drops only that row.
	intervals, err = s.OverlappingReservations(ctx, 1, ts(9, 0), ts(11, 0), "inside")
	require.NoError(t, err)
	ids = ids[:0]
	for _, iv := range intervals {
		ids = append(ids, iv.ID)
	}
	assert.ElementsMatch(t, []string{"touching-before", "touching-after"}, ids)
}

func TestCreateReservation_AssignsIDAndAttachesHorses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.DB().Create(&model.Facility{ID: 1, Name: "Paddock", MaxCapacity: 2}).Error)
	require.NoError(t, s.DB().Create(&model.Horse{ID: 10, Name: "Duke"}).Error)
	require.NoError(t, s.DB().Create(&model.Horse{ID: 11, Name: "Bella"}).Error)

	res := model.Reservation{
		FacilityID: 1,
		StartTime:  ts(9, 0),
		EndTime:    ts(10, 0),
		HorseCount: 2,
		Status:     model.StatusPending,
	}
	require.NoError(t, s.CreateReservation(ctx, &res, []int64{10, 11}))
	assert.NotEmpty(t, res.ID)

	var stored model.Reservation
	require.NoError(t, s.DB().Preload("Horses").First(&stored, "id = ?", res.ID).Error)
	assert.Len(t, stored.Horses, 2)
	assert.Equal(t, 2, stored.HorseCount)
}

func TestUpdateReservation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedReservation(t, s, "r1", 1, ts(9, 0), ts(10, 0), 1, model.StatusConfirmed)

	require.NoError(t, s.UpdateReservation(ctx, "r1", ts(14, 0), ts(15, 0), 2, nil))

	updated, err := s.GetReservation(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, updated.StartTime.Equal(ts(14, 0)))
	assert.True(t, updated.EndTime.Equal(ts(15, 0)))
	assert.Equal(t, 2, updated.HorseCount)

	err = s.UpdateReservation(ctx, "missing", ts(14, 0), ts(15, 0), 2, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateReservation_ReplacesHorses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.DB().Create(&model.Horse{ID: 10, Name: "Duke"}).Error)
	require.NoError(t, s.DB().Create(&model.Horse{ID: 11, Name: "Bella"}).Error)
	require.NoError(t, s.DB().Create(&model.Horse{ID: 12, Name: "Star"}).Error)

	res := model.Reservation{
		FacilityID: 1,
		StartTime:  ts(9, 0),
		EndTime:    ts(10, 0),
		HorseCount: 1,
		Status:     model.StatusConfirmed,
	}
	require.NoError(t, s.CreateReservation(ctx, &res, []int64{10}))

	// Updating with a new horse list rewrites the join rows, not just the
	// denormalized count.
	require.NoError(t, s.UpdateReservation(ctx, res.ID, ts(9, 0), ts(10, 0), 2, []int64{11, 12}))

	var stored model.Reservation
	require.NoError(t, s.DB().Preload("Horses").First(&stored, "id = ?", res.ID).Error)
	assert.Equal(t, 2, stored.HorseCount)
	horseIDs := make([]int64, len(stored.Horses))
	for i, h := range stored.Horses {
		horseIDs[i] = h.ID
	}
	assert.ElementsMatch(t, []int64{11, 12}, horseIDs)

	// A nil horse list leaves the association alone.
	require.NoError(t, s.UpdateReservation(ctx, res.ID, ts(11, 0), ts(12, 0), 2, nil))
	require.NoError(t, s.DB().Preload("Horses").First(&stored, "id = ?", res.ID).Error)
	assert.Len(t, stored.Horses, 2)
}

func TestSweepLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := ts(12, 0)

	// Elapsed confirmed -> completed.
	seedReservation(t, s, "done", 1, ts(9, 0), ts(10, 0), 1, model.StatusConfirmed)
	// Pending and past its hold window -> no_show.
	seedReservation(t, s, "stale", 2, ts(10, 0), ts(11, 0), 1, model.StatusPending)
	// Pending but within the hold window -> untouched.
	seedReservation(t, s, "fresh", 3, ts(11, 45), ts(13, 0), 1, model.StatusPending)
	// Confirmed and still running -> untouched.
	seedReservation(t, s, "running", 4, ts(11, 0), ts(13, 0), 1, model.StatusConfirmed)

	affected, err := s.SweepLifecycle(ctx, now, 30*time.Minute)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, affected)

	for id, want := range map[string]string{
		"done":    model.StatusCompleted,
		"stale":   model.StatusNoShow,
		"fresh":   model.StatusPending,
		"running": model.StatusConfirmed,
	} {
		res, err := s.GetReservation(ctx, id)
		require.NoError(t, err)
		assert.Equalf(t, want, res.Status, "reservation %s", id)
	}

	// Sweeping again finds nothing new.
	affected, err = s.SweepLifecycle(ctx, now, 30*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, affected)
}
