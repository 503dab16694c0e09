package models

import "time"

// Course represents one catalog course offered in a department semester.
// The LoadSpec descriptor ("2L+1P") declares its weekly teaching units.
type Course struct {
	ID            string    `db:"id" json:"id"`
	Code          string    `db:"code" json:"code"`
	Name          string    `db:"name" json:"name"`
	Credits       int       `db:"credits" json:"credits"`
	Department    string    `db:"department" json:"department"`
	Semester      int       `db:"semester" json:"semester"`
	Year          int       `db:"year" json:"year"`
	Category      string    `db:"category" json:"category"`
	MaxEnrollment int       `db:"max_enrollment" json:"max_enrollment"`
	LoadSpec      string    `db:"load_spec" json:"load_spec"`
	TeacherID     string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures filtering options for listing courses.
type CourseFilter struct {
	Department string
	Semester   int
	Year       int
	Search     string
	Page       int
	PageSize   int
}
