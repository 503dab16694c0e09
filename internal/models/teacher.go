package models

import "time"

// Teacher represents an instructor record. Availability holds the raw
// free-text window descriptor ("Mon 9:00-13:00, Wed 9:00-17:00"); an empty
// value means the teacher is bookable on every working slot.
type Teacher struct {
	ID            string    `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Email         string    `db:"email" json:"email"`
	Department    string    `db:"department" json:"department"`
	MaxWeeklyLoad int       `db:"max_weekly_load" json:"max_weekly_load"`
	Availability  string    `db:"availability" json:"availability"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Department string
	Active     *bool
	Search     string
	Page       int
	PageSize   int
}
