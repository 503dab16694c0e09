package models

import (
	"time"

	"github.com/lib/pq"
)

// Class represents an explicit student group used by institution-wide
// generation. CourseCodes lists the catalog codes the group attends.
type Class struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Department  string         `db:"department" json:"department"`
	Semester    int            `db:"semester" json:"semester"`
	Year        int            `db:"year" json:"year"`
	Enrollment  int            `db:"enrollment" json:"enrollment"`
	CourseCodes pq.StringArray `db:"course_codes" json:"course_codes"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
