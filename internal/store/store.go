package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stable-reserve-backend/internal/capacity"
	"stable-reserve-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	ListFacilities(ctx context.Context) ([]model.Facility, error)
	GetFacility(ctx context.Context, id int64) (model.Facility, error)

	OverlappingReservations(ctx context.Context, facilityID int64, from, to time.Time, excludeID string) ([]capacity.Interval, error)
	CreateReservation(ctx context.Context, res *model.Reservation, horseIDs []int64) error
	GetReservation(ctx context.Context, id string) (model.Reservation, error)
	UpdateReservation(ctx context.Context, id string, start, end time.Time, horseCount int, horseIDs []int64) error
	SetReservationStatus(ctx context.Context, id string, status string) error
	ListReservations(ctx context.Context, facilityID int64, from, to time.Time) ([]model.Reservation, error)

	SweepLifecycle(ctx context.Context, now time.Time, pendingHold time.Duration) ([]int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) ListFacilities(ctx context.Context) ([]model.Facility, error) {
	var facilities []model.Facility
	if err := s.db.WithContext(ctx).Order("name").Find(&facilities).Error; err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	return facilities, nil
}

func (s *gormStore) GetFacility(ctx context.Context, id int64) (model.Facility, error) {
	var facility model.Facility
	if err := s.db.WithContext(ctx).First(&facility, id).Error; err != nil {
		return model.Facility{}, err
	}
	return facility, nil
}

// OverlappingReservations returns every active reservation for the facility
// whose interval overlaps or touches [from, to], as sweep intervals.
//
// Bounds are inclusive on purpose: a reservation ending exactly at `from`
// (or starting exactly at `to`) must still reach the capacity sweep, whose
// START-before-END tie-break counts it as present at the shared instant.
func (s *gormStore) OverlappingReservations(ctx context.Context, facilityID int64, from, to time.Time, excludeID string) ([]capacity.Interval, error) {
	q := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("facility_id = ? AND status IN ?", facilityID, model.ActiveStatuses).
		Where("start_time <= ? AND end_time >= ?", to, from)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var reservations []model.Reservation
	if err := q.Order("start_time").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("query overlapping reservations: %w", err)
	}

	intervals := make([]capacity.Interval, 0, len(reservations))
	for _, r := range reservations {
		intervals = append(intervals, capacity.Interval{
			ID:     r.ID,
			Start:  r.StartTime,
			End:    r.EndTime,
			Horses: r.HorseCount,
		})
	}
	return intervals, nil
}

// CreateReservation inserts the reservation and attaches its horses in one
// transaction. A missing ID is filled in with a fresh UUID.
func (s *gormStore) CreateReservation(ctx context.Context, res *model.Reservation, horseIDs []int64) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(res).Error; err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}

		if len(horseIDs) > 0 {
			var horses []model.Horse
			if err := tx.Find(&horses, horseIDs).Error; err != nil {
				return fmt.Errorf("load horses: %w", err)
			}
			if err := tx.Model(res).Association("Horses").Replace(&horses); err != nil {
				return fmt.Errorf("attach horses: %w", err)
			}
		}
		return nil
	})
}

func (s *gormStore) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	var res model.Reservation
	if err := s.db.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		return model.Reservation{}, err
	}
	return res, nil
}

// UpdateReservation rewrites the time window and horse count, and — when
// horseIDs is non-nil — replaces the Horses association so the join rows
// stay consistent with the denormalized count. A nil horseIDs leaves the
// association untouched (the PATCH did not change horses).
func (s *gormStore) UpdateReservation(ctx context.Context, id string, start, end time.Time, horseCount int, horseIDs []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Reservation{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"start_time":  start,
				"end_time":    end,
				"horse_count": horseCount,
			})
		if result.Error != nil {
			return fmt.Errorf("update reservation %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if horseIDs != nil {
			var horses []model.Horse
			if len(horseIDs) > 0 {
				if err := tx.Find(&horses, horseIDs).Error; err != nil {
					return fmt.Errorf("load horses: %w", err)
				}
			}
			if err := tx.Model(&model.Reservation{ID: id}).Association("Horses").Replace(&horses); err != nil {
				return fmt.Errorf("replace horses: %w", err)
			}
		}
		return nil
	})
}

func (s *gormStore) SetReservationStatus(ctx context.Context, id string, status string) error {
	result := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("set reservation %s status: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *gormStore) ListReservations(ctx context.Context, facilityID int64, from, to time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := s.db.WithContext(ctx).
		Where("facility_id = ? AND start_time <= ? AND end_time >= ?", facilityID, to, from).
		Order("start_time").
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}

// SweepLifecycle transitions elapsed reservations and returns the distinct
// facility IDs whose capacity changed, for notification dispatch:
//   - confirmed reservations whose end has passed become completed;
//   - pending reservations still unconfirmed pendingHold after their start
//     become no_show.
func (s *gormStore) SweepLifecycle(ctx context.Context, now time.Time, pendingHold time.Duration) ([]int64, error) {
	var affected []int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		facilitySet := make(map[int64]struct{})

		type transition struct {
			where  string
			cutoff time.Time
			from   string
			to     string
		}
		transitions := []transition{
			{where: "status = ? AND end_time <= ?", cutoff: now, from: model.StatusConfirmed, to: model.StatusCompleted},
			{where: "status = ? AND start_time <= ?", cutoff: now.Add(-pendingHold), from: model.StatusPending, to: model.StatusNoShow},
		}

		for _, tr := range transitions {
			var rows []model.Reservation
			if err := tx.Where(tr.where, tr.from, tr.cutoff).Find(&rows).Error; err != nil {
				return fmt.Errorf("find %s reservations: %w", tr.from, err)
			}
			if len(rows) == 0 {
				continue
			}

			ids := make([]string, len(rows))
			for i, r := range rows {
				ids[i] = r.ID
				facilitySet[r.FacilityID] = struct{}{}
			}
			if err := tx.Model(&model.Reservation{}).
				Where("id IN ?", ids).
				Update("status", tr.to).Error; err != nil {
				return fmt.Errorf("transition %s to %s: %w", tr.from, tr.to, err)
			}
		}

		for id := range facilitySet {
			affected = append(affected, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}
