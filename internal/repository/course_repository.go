package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/skolara/timetable-api/internal/models"
)

// CourseRepository reads catalog courses for generation input.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, code, name, credits, department, semester, year, category, max_enrollment, load_spec, teacher_id, created_at, updated_at`

// ListForSection returns courses of one department-semester-year cohort.
func (r *CourseRepository) ListForSection(ctx context.Context, department string, semester, year int) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE department = $1 AND semester = $2 AND year = $3 ORDER BY code`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, department, semester, year); err != nil {
		return nil, fmt.Errorf("list section courses: %w", err)
	}
	return courses, nil
}

// ListAll returns the full catalog for institution-wide runs.
func (r *CourseRepository) ListAll(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses ORDER BY department, semester, code`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID loads a course by its identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}
