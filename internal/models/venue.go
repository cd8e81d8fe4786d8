package models

import "time"

// Venue is a bookable room or hall.
type Venue struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Type          *string   `db:"type" json:"type,omitempty"`
	Capacity      *int      `db:"capacity" json:"capacity,omitempty"`
	BuildingID    *int64    `db:"building_id" json:"building_id,omitempty"`
	BuildingName  *string   `db:"building_name" json:"building_name,omitempty"`
	AllowConflict bool      `db:"allow_conflict" json:"allow_conflict"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// VenueLock is the subset of a venue read while holding its row lock.
type VenueLock struct {
	ID            int64  `db:"id"`
	Name          string `db:"name"`
	Capacity      *int   `db:"capacity"`
	AllowConflict bool   `db:"allow_conflict"`
}
