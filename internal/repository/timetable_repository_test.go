package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skolara/timetable-api/internal/models"
)

func newTimetableRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetables")).
		WithArgs(sqlmock.AnyArg(), "CS", 3, 2, string(models.TimetableStatusDraft), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload := &models.Timetable{
		Department: "CS",
		Semester:   3,
		Year:       2,
		Meta:       types.JSONText(`{"unassigned":0}`),
	}
	err := repo.Create(context.Background(), nil, payload)
	require.NoError(t, err)
	assert.NotEmpty(t, payload.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryCreateRequiresDepartment(t *testing.T) {
	db, _, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	err := repo.Create(context.Background(), nil, &models.Timetable{Semester: 1, Year: 1})
	assert.Error(t, err)
}

func TestTimetableRepositoryInsertRows(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_rows")).
		WillReturnResult(sqlmock.NewResult(2, 2))

	rows := []models.TimetableRow{
		{TimetableID: "tt-1", CourseID: "c-1", CourseCode: "CS301", TeacherID: "t-1", RoomID: "r-1", DayOfWeek: 1, StartTime: "09:00", EndTime: "09:50", Kind: "lecture"},
		{TimetableID: "tt-1", CourseID: "c-2", CourseCode: "CS310", TeacherID: "t-2", RoomID: "r-2", DayOfWeek: 2, StartTime: "10:00", EndTime: "10:50", Kind: "practical"},
	}
	require.NoError(t, repo.InsertRows(context.Background(), nil, rows))
	assert.NotEmpty(t, rows[0].ID)
	assert.NotEmpty(t, rows[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryInsertRowsEmpty(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	require.NoError(t, repo.InsertRows(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetables SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(string(models.TimetableStatusPublished), sqlmock.AnyArg(), "tt-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), nil, "tt-1", models.TimetableStatusPublished))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryUpdateStatusNotFound(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetables SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(string(models.TimetableStatusPublished), sqlmock.AnyArg(), "tt-missing").
		WillReturnResult(sqlmock.NewResult(1, 0))

	err := repo.UpdateStatus(context.Background(), nil, "tt-missing", models.TimetableStatusPublished)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryList(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timetables WHERE 1=1 AND department = $1 AND status = $2")).
		WithArgs("CS", "DRAFT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	rows := sqlmock.NewRows([]string{"id", "department", "semester", "year", "status", "meta", "created_at", "updated_at"}).
		AddRow("tt-1", "CS", 3, 2, "DRAFT", types.JSONText(`{}`), time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, department, semester, year, status, meta, created_at, updated_at").
		WithArgs("CS", "DRAFT", 20, 0).
		WillReturnRows(rows)

	list, total, err := repo.List(context.Background(), models.TimetableFilter{Department: "CS", Status: "DRAFT"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListRows(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "timetable_id", "course_id", "course_code", "teacher_id", "room_id", "class_id", "day_of_week", "start_time", "end_time", "kind", "created_at"}).
		AddRow("row-1", "tt-1", "c-1", "CS301", "t-1", "r-1", "", 1, "09:00", "09:50", "lecture", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_rows WHERE timetable_id = $1 ORDER BY day_of_week, start_time, course_code")).
		WithArgs("tt-1").
		WillReturnRows(rows)

	list, err := repo.ListRows(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, "CS301", list[0].CourseCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetables WHERE id = $1")).
		WithArgs("tt-1").
		WillReturnResult(sqlmock.NewResult(1, 0))

	err := repo.Delete(context.Background(), "tt-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
