package model

import "time"

// Horse represents a horse stabled at the yard.
type Horse struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:128;not null" json:"name"`
	Stall     string `gorm:"size:32" json:"stall,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
