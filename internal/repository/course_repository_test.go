package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseRepositoryListForSection(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "credits", "department", "semester", "year", "category", "max_enrollment", "load_spec", "teacher_id", "created_at", "updated_at"}).
		AddRow("c-1", "CS301", "Operating Systems", 4, "CS", 3, 2, "core", 60, "3L+1P", "t-1", time.Now(), time.Now()).
		AddRow("c-2", "CS310", "Databases", 3, "CS", 3, 2, "core", 60, "2L+1P", "t-2", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE department = $1 AND semester = $2 AND year = $3 ORDER BY code")).
		WithArgs("CS", 3, 2).
		WillReturnRows(rows)

	courses, err := repo.ListForSection(context.Background(), "CS", 3, 2)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "3L+1P", courses[0].LoadSpec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "credits", "department", "semester", "year", "category", "max_enrollment", "load_spec", "teacher_id", "created_at", "updated_at"}).
		AddRow("c-1", "CS301", "Operating Systems", 4, "CS", 3, 2, "core", 60, "3L+1P", "t-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses ORDER BY department, semester, code")).
		WillReturnRows(rows)

	courses, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
