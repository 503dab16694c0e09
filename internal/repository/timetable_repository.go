package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/skolara/timetable-api/internal/models"
)

// TimetableRepository persists accepted generation runs and their rows.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a timetable header.
func (r *TimetableRepository) Create(ctx context.Context, exec sqlx.ExtContext, record *models.Timetable) error {
	if record == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if record.Department == "" {
		return fmt.Errorf("department is required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = models.TimetableStatusDraft
	}
	if len(record.Meta) == 0 {
		record.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `
INSERT INTO timetables (id, department, semester, year, status, meta, created_at, updated_at)
VALUES (:id, :department, :semester, :year, :status, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, record); err != nil {
		return fmt.Errorf("insert timetable: %w", err)
	}
	return nil
}

// InsertRows batch-inserts the teaching periods of a timetable.
func (r *TimetableRepository) InsertRows(ctx context.Context, exec sqlx.ExtContext, rows []models.TimetableRow) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = now
		}
	}
	const query = `
INSERT INTO timetable_rows (id, timetable_id, course_id, course_code, teacher_id, room_id, class_id, day_of_week, start_time, end_time, kind, created_at)
VALUES (:id, :timetable_id, :course_id, :course_code, :teacher_id, :room_id, :class_id, :day_of_week, :start_time, :end_time, :kind, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, rows); err != nil {
		return fmt.Errorf("insert timetable rows: %w", err)
	}
	return nil
}

// UpdateStatus transitions a timetable between lifecycle states.
func (r *TimetableRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableStatus) error {
	const query = `UPDATE timetables SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.exec(exec).ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update timetable status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID loads a timetable header by its identifier.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	const query = `SELECT id, department, semester, year, status, meta, created_at, updated_at FROM timetables WHERE id = $1`
	var record models.Timetable
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns timetables matching the filter plus the unpaged total.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	idx := 1

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", idx))
		args = append(args, filter.Department)
		idx++
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", idx))
		args = append(args, filter.Semester)
		idx++
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("year = $%d", idx))
		args = append(args, filter.Year)
		idx++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", idx))
		args = append(args, filter.Status)
		idx++
	}
	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM timetables WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetables: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	query := fmt.Sprintf(`SELECT id, department, semester, year, status, meta, created_at, updated_at
FROM timetables WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, size, (page-1)*size)

	var records []models.Timetable
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetables: %w", err)
	}
	return records, total, nil
}

// ListRows returns the teaching periods of a timetable in weekly order.
func (r *TimetableRepository) ListRows(ctx context.Context, timetableID string) ([]models.TimetableRow, error) {
	const query = `SELECT id, timetable_id, course_id, course_code, teacher_id, room_id, class_id, day_of_week, start_time, end_time, kind, created_at
FROM timetable_rows WHERE timetable_id = $1 ORDER BY day_of_week, start_time, course_code`
	var rows []models.TimetableRow
	if err := r.db.SelectContext(ctx, &rows, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable rows: %w", err)
	}
	return rows, nil
}

// Delete removes a timetable and cascades to its rows.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM timetables WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
