package models

import "time"

// Room types understood by the scheduler.
const (
	RoomTypeClassroom  = "classroom"
	RoomTypeLab        = "lab"
	RoomTypeAuditorium = "auditorium"
	RoomTypeSeminar    = "seminar"
)

// Room represents a bookable teaching space. Only rooms with Available set
// participate in generation.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Building  string    `db:"building" json:"building"`
	Available bool      `db:"available" json:"available"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures filtering options for listing rooms.
type RoomFilter struct {
	Type      string
	Building  string
	Available *bool
	Page      int
	PageSize  int
}
