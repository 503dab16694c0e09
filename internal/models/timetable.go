package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableStatus enumerates lifecycle states of a stored timetable.
type TimetableStatus string

const (
	TimetableStatusDraft     TimetableStatus = "DRAFT"
	TimetableStatusPublished TimetableStatus = "PUBLISHED"
)

// Timetable is the persisted header for one accepted generation run.
type Timetable struct {
	ID         string          `db:"id" json:"id"`
	Department string          `db:"department" json:"department"`
	Semester   int             `db:"semester" json:"semester"`
	Year       int             `db:"year" json:"year"`
	Status     TimetableStatus `db:"status" json:"status"`
	Meta       types.JSONText  `db:"meta" json:"meta,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// TimetableRow is one persisted teaching period. Rows are keyed by
// day-of-week (0=Sunday..6) and wall-clock start/end rather than period
// label; a two-period lab session occupies two adjacent rows.
type TimetableRow struct {
	ID          string    `db:"id" json:"id"`
	TimetableID string    `db:"timetable_id" json:"timetable_id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	CourseCode  string    `db:"course_code" json:"course_code"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	RoomID      string    `db:"room_id" json:"room_id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	Kind        string    `db:"kind" json:"kind"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TimetableFilter captures filtering options for listing stored timetables.
type TimetableFilter struct {
	Department string
	Semester   int
	Year       int
	Status     string
	Page       int
	PageSize   int
}
