package model

import "time"

// Reservation statuses. Only pending and confirmed reservations occupy
// facility capacity; the rest are terminal.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusNoShow    = "no_show"
)

// ActiveStatuses are the statuses that count toward facility capacity.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

// Reservation represents a booking of a facility over [StartTime, EndTime).
type Reservation struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	FacilityID  int64     `gorm:"index;not null" json:"facilityId"`
	StartTime   time.Time `gorm:"index;not null" json:"startTime"`
	EndTime     time.Time `gorm:"index;not null" json:"endTime"`
	HorseCount  int       `gorm:"not null" json:"horseCount"` // denormalized; what capacity checks read
	Status      string    `gorm:"size:16;not null;index" json:"status"`
	ContactName string    `gorm:"size:128" json:"contactName,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"-"`

	// Associations
	Facility Facility `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Horses   []Horse  `gorm:"many2many:reservation_horses;" json:"-"`
}

// IsActive reports whether the reservation currently occupies capacity.
func (r *Reservation) IsActive() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}
