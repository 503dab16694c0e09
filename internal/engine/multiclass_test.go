package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skolara/timetable-api/internal/models"
	appErrors "github.com/skolara/timetable-api/pkg/errors"
)

func fixtureClasses() []models.Class {
	return []models.Class{
		{ID: "cls-1", Name: "CS-3A", Department: "CS", Semester: 3, Year: 2, Enrollment: 55, CourseCodes: []string{"CS301", "CS303", "CS304"}},
		{ID: "cls-2", Name: "CS-3B", Department: "CS", Semester: 3, Year: 2, Enrollment: 52, CourseCodes: []string{"CS302", "CS303", "CS305"}},
	}
}

func TestMultiClassGenerateFeasible(t *testing.T) {
	gen := NewMultiClassGenerator(DefaultConstraints(), testOptions(42), nil)
	result, err := gen.Generate(context.Background(), fixtureClasses(), fixtureCourses(), fixtureTeachers(), fixtureRooms())
	require.NoError(t, err)

	assert.NoError(t, ValidateEntries(result.Entries))
	for _, e := range result.Entries {
		assert.NotEmpty(t, e.ClassID, "institution-wide entries carry the class")
	}
	for _, c := range result.Conflicts {
		assert.NotEqual(t, SeverityCritical, c.Severity, "audit must come back clean: %s", c.Message)
	}
}

func TestMultiClassSharedTeacherNeverClashes(t *testing.T) {
	// both classes attend CS303, taught by the same teacher
	gen := NewMultiClassGenerator(DefaultConstraints(), testOptions(8), nil)
	result, err := gen.Generate(context.Background(), fixtureClasses(), fixtureCourses(), fixtureTeachers(), fixtureRooms())
	require.NoError(t, err)

	seen := make(map[string]string)
	for _, e := range result.Entries {
		key := slotToken(e.Day, e.Period) + "|" + e.TeacherID
		if prev, ok := seen[key]; ok {
			t.Fatalf("teacher %s booked for %s and %s in the same slot", e.TeacherID, prev, e.ClassID)
		}
		seen[key] = e.ClassID
	}
}

func TestMultiClassLunchScopedToClassDepartment(t *testing.T) {
	// The class's department decides lunch exclusion. The EE teacher's own
	// availability leaves the CS lunch period open, and it is the only
	// window they have, so the session must go unassigned rather than land
	// in the excluded period.
	constraints := DefaultConstraints()
	constraints.LunchZones = []LunchZone{{Periods: []int{4}, Mandatory: true, Departments: []string{"CS"}}}

	teachers := []models.Teacher{
		{ID: "t-ee1", FullName: "Nisha Menon", Department: "EE", MaxWeeklyLoad: 20, Active: true, Availability: "Mon 12:30-13:20"},
	}
	courses := []models.Course{
		{ID: "c-1", Code: "CS301", Credits: 4, Department: "CS", Semester: 3, Year: 2, MaxEnrollment: 60, LoadSpec: "1L", TeacherID: "t-ee1"},
	}
	classes := []models.Class{
		{ID: "cls-1", Name: "CS-3A", Department: "CS", Semester: 3, Year: 2, Enrollment: 55, CourseCodes: []string{"CS301"}},
	}

	gen := NewMultiClassGenerator(constraints, testOptions(4), nil)
	result, err := gen.Generate(context.Background(), classes, courses, teachers, fixtureRooms())
	require.NoError(t, err)

	assert.Empty(t, result.Entries)
	require.Len(t, result.Unassigned, 1)
}

func TestMultiClassResourceShortageReported(t *testing.T) {
	teachers := []models.Teacher{
		{ID: "t-1", FullName: "Asha Rao", Department: "CS", MaxWeeklyLoad: 2, Active: true},
	}
	courses := []models.Course{
		{ID: "c-4", Code: "CS304", Credits: 2, Department: "CS", Semester: 3, Year: 2, MaxEnrollment: 60, LoadSpec: "2L", TeacherID: "t-1"},
	}
	classes := []models.Class{
		{ID: "cls-1", Name: "CS-3A", Department: "CS", Semester: 3, Year: 2, Enrollment: 55, CourseCodes: []string{"CS304"}},
		{ID: "cls-2", Name: "CS-3B", Department: "CS", Semester: 3, Year: 2, Enrollment: 52, CourseCodes: []string{"CS304"}},
	}

	gen := NewMultiClassGenerator(DefaultConstraints(), testOptions(2), nil)
	result, err := gen.Generate(context.Background(), classes, courses, teachers, fixtureRooms())
	require.NoError(t, err)

	assert.Len(t, result.Unassigned, 2, "the teacher's weekly cap covers one class only")
	var shortages int
	for _, c := range result.Conflicts {
		if c.Type == ConflictResourceShortage {
			shortages++
			assert.Equal(t, SeverityHigh, c.Severity)
			assert.NotEmpty(t, c.Suggestions)
		}
	}
	assert.Equal(t, 2, shortages)
}

func TestMultiClassUnknownCourseCodeSkipped(t *testing.T) {
	classes := []models.Class{
		{ID: "cls-1", Name: "CS-3A", Department: "CS", Semester: 3, Year: 2, Enrollment: 55, CourseCodes: []string{"CS303", "GHOST999"}},
	}

	gen := NewMultiClassGenerator(DefaultConstraints(), testOptions(4), nil)
	result, err := gen.Generate(context.Background(), classes, fixtureCourses(), fixtureTeachers(), fixtureRooms())
	require.NoError(t, err)

	for _, e := range result.Entries {
		assert.Equal(t, "CS303", e.CourseCode)
	}
	assert.Empty(t, result.Unassigned)
}

func TestMultiClassRequiresClasses(t *testing.T) {
	gen := NewMultiClassGenerator(DefaultConstraints(), testOptions(1), nil)
	_, err := gen.Generate(context.Background(), nil, fixtureCourses(), fixtureTeachers(), fixtureRooms())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestClassPriorityOrdering(t *testing.T) {
	heavy := models.Class{ID: "a", Semester: 5, Enrollment: 60, CourseCodes: []string{"x", "y", "z"}}
	light := models.Class{ID: "b", Semester: 1, Enrollment: 30, CourseCodes: []string{"x"}}
	assert.Greater(t, classPriority(heavy), classPriority(light))
}
