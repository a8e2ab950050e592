package model

import "time"

// Facility represents a bookable stable facility (arena, paddock, wash bay...).
type Facility struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Kind        string `gorm:"size:64" json:"kind"`
	MaxCapacity int    `gorm:"not null" json:"maxCapacity"` // concurrent horses allowed
	Notes       string `gorm:"size:512" json:"notes,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"-"`
	UpdatedAt   time.Time `gorm:"not null" json:"-"`

	// Associations
	Reservations []Reservation `gorm:"foreignKey:FacilityID" json:"-"`
}
