package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skolara/timetable-api/internal/models"
)

func TestComputeStatisticsFoldsPracticalPairs(t *testing.T) {
	entries := []Entry{
		{TeacherID: "t-1", RoomID: "r-1", Department: "CS", Semester: 3, Year: 2, Day: 1, Period: 0, Kind: KindLecture},
		{TeacherID: "t-1", RoomID: "r-1", Department: "CS", Semester: 3, Year: 2, Day: 1, Period: 1, Kind: KindLecture},
		{TeacherID: "t-1", RoomID: "r-lab", Department: "CS", Semester: 3, Year: 2, Day: 2, Period: 0, Kind: KindPractical},
		{TeacherID: "t-1", RoomID: "r-lab", Department: "CS", Semester: 3, Year: 2, Day: 2, Period: 1, Kind: KindPractical},
	}
	unassigned := []CourseSession{{CourseCode: "CS305", Kind: KindLecture}}
	teachers := []models.Teacher{{ID: "t-1", MaxWeeklyLoad: 10}}
	rooms := []models.Room{
		{ID: "r-1", Available: true},
		{ID: "r-lab", Available: true},
	}

	stats := ComputeStatistics(entries, unassigned, teachers, rooms, DefaultConstraints())

	assert.Equal(t, 3, stats.AssignedSessions, "lab pair counts once")
	assert.Equal(t, 4, stats.TotalSessions)
	assert.InDelta(t, 40.0, stats.TeacherUtilization["t-1"], 0.001, "4 of 10 weekly periods")

	// 6 working days x 7 periods = 42 bookable slots per room
	assert.InDelta(t, 100.0*2/42, stats.RoomUtilization["r-1"], 0.001)
	assert.InDelta(t, 100.0*2/42, stats.RoomUtilization["r-lab"], 0.001)
}

func TestComputeStatisticsTeacherCeilingFallback(t *testing.T) {
	entries := []Entry{
		{TeacherID: "t-1", RoomID: "r-1", Department: "CS", Semester: 3, Year: 2, Day: 1, Period: 0, Kind: KindLecture},
	}
	teachers := []models.Teacher{{ID: "t-1"}} // no personal cap
	constraints := DefaultConstraints()       // weekly cap 24

	stats := ComputeStatistics(entries, nil, teachers, nil, constraints)
	assert.InDelta(t, 100.0/24, stats.TeacherUtilization["t-1"], 0.001)
}

func TestSectionsOutOfBand(t *testing.T) {
	constraints := DefaultConstraints()
	constraints.MinDailyPeriodsPerSection = 2
	constraints.MaxDailyPeriodsPerSection = 3

	inBand := []Entry{
		{Department: "CS", Semester: 3, Year: 2, Day: 1, Period: 0},
		{Department: "CS", Semester: 3, Year: 2, Day: 1, Period: 1},
	}
	assert.Equal(t, 0, sectionsOutOfBand(inBand, constraints))

	overloaded := append(inBand,
		Entry{Department: "CS", Semester: 3, Year: 2, Day: 2, Period: 0},
		Entry{Department: "CS", Semester: 3, Year: 2, Day: 2, Period: 1},
		Entry{Department: "CS", Semester: 3, Year: 2, Day: 2, Period: 2},
		Entry{Department: "CS", Semester: 3, Year: 2, Day: 2, Period: 3},
	)
	assert.Equal(t, 1, sectionsOutOfBand(overloaded, constraints))

	twoSections := append(overloaded,
		Entry{Department: "EE", Semester: 1, Year: 1, Day: 3, Period: 0},
	)
	assert.Equal(t, 2, sectionsOutOfBand(twoSections, constraints), "single-period day undershoots the minimum")
}
