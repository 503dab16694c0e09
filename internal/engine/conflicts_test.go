package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditFlagsTeacherClash(t *testing.T) {
	entries := []Entry{
		{CourseCode: "CS301", TeacherID: "t-1", RoomID: "r-1", ClassID: "cls-1", Day: 1, Period: 2, Kind: KindLecture},
		{CourseCode: "CS302", TeacherID: "t-1", RoomID: "r-2", ClassID: "cls-2", Day: 1, Period: 2, Kind: KindLecture},
	}
	reports := Audit(entries)
	require.Len(t, reports, 1)
	assert.Equal(t, ConflictTeacherClash, reports[0].Type)
	assert.Equal(t, SeverityCritical, reports[0].Severity)
	assert.ElementsMatch(t, []string{"cls-1", "cls-2"}, reports[0].Classes)
	assert.NotEmpty(t, reports[0].Suggestions)
}

func TestAuditFlagsRoomClash(t *testing.T) {
	entries := []Entry{
		{CourseCode: "CS301", TeacherID: "t-1", RoomID: "r-1", ClassID: "cls-1", Day: 2, Period: 0, Kind: KindLecture},
		{CourseCode: "CS302", TeacherID: "t-2", RoomID: "r-1", ClassID: "cls-2", Day: 2, Period: 0, Kind: KindLecture},
	}
	reports := Audit(entries)
	require.Len(t, reports, 1)
	assert.Equal(t, ConflictRoomClash, reports[0].Type)
	require.Len(t, reports[0].Slots, 1)
	assert.Equal(t, "r-1", reports[0].Slots[0].RoomID)
}

func TestAuditCleanTimetable(t *testing.T) {
	entries := []Entry{
		{TeacherID: "t-1", RoomID: "r-1", ClassID: "cls-1", Day: 1, Period: 0},
		{TeacherID: "t-1", RoomID: "r-1", ClassID: "cls-1", Day: 1, Period: 1},
		{TeacherID: "t-2", RoomID: "r-2", ClassID: "cls-2", Day: 1, Period: 0},
	}
	assert.Empty(t, Audit(entries))
}

func TestValidateEntriesGroupFallback(t *testing.T) {
	// without class IDs the semester-year group carries uniqueness
	entries := []Entry{
		{TeacherID: "t-1", RoomID: "r-1", Semester: 3, Year: 2, Day: 1, Period: 0},
		{TeacherID: "t-2", RoomID: "r-2", Semester: 3, Year: 2, Day: 1, Period: 0},
	}
	err := ValidateEntries(entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group")
}

func TestValidateEntriesDetectsEachDimension(t *testing.T) {
	teacherClash := []Entry{
		{TeacherID: "t-1", RoomID: "r-1", ClassID: "a", Day: 1, Period: 0},
		{TeacherID: "t-1", RoomID: "r-2", ClassID: "b", Day: 1, Period: 0},
	}
	assert.ErrorContains(t, ValidateEntries(teacherClash), "teacher")

	roomClash := []Entry{
		{TeacherID: "t-1", RoomID: "r-1", ClassID: "a", Day: 1, Period: 0},
		{TeacherID: "t-2", RoomID: "r-1", ClassID: "b", Day: 1, Period: 0},
	}
	assert.ErrorContains(t, ValidateEntries(roomClash), "room")

	clean := []Entry{
		{TeacherID: "t-1", RoomID: "r-1", ClassID: "a", Day: 1, Period: 0},
		{TeacherID: "t-2", RoomID: "r-2", ClassID: "b", Day: 2, Period: 0},
	}
	assert.NoError(t, ValidateEntries(clean))
}
