package engine

import (
	"github.com/samber/lo"

	"github.com/skolara/timetable-api/internal/models"
)

// ComputeStatistics derives utilization and distribution-quality metrics
// from a finished timetable. Lab entries are paired, so a two-period
// practical counts as one assigned session.
func ComputeStatistics(entries []Entry, unassigned []CourseSession, teachers []models.Teacher, rooms []models.Room, constraints Constraints) Statistics {
	assigned := assignedSessionCount(entries)
	stats := Statistics{
		TotalSessions:      assigned + len(unassigned),
		AssignedSessions:   assigned,
		TeacherUtilization: make(map[string]float64, len(teachers)),
		RoomUtilization:    make(map[string]float64, len(rooms)),
	}

	teacherPeriods := lo.CountValuesBy(entries, func(e Entry) string { return e.TeacherID })
	for _, t := range teachers {
		ceiling := t.MaxWeeklyLoad
		if ceiling <= 0 {
			ceiling = constraints.MaxWeeklyPeriodsPerTeacher
		}
		if ceiling <= 0 {
			continue
		}
		stats.TeacherUtilization[t.ID] = float64(teacherPeriods[t.ID]) / float64(ceiling) * 100
	}

	capacity := len(constraints.WorkingDays) * len(constraints.Periods)
	roomPeriods := lo.CountValuesBy(entries, func(e Entry) string { return e.RoomID })
	for _, r := range rooms {
		if capacity == 0 {
			break
		}
		stats.RoomUtilization[r.ID] = float64(roomPeriods[r.ID]) / float64(capacity) * 100
	}

	stats.SectionsOutOfBand = sectionsOutOfBand(entries, constraints)
	return stats
}

// assignedSessionCount counts placements, folding each practical pair into
// one session.
func assignedSessionCount(entries []Entry) int {
	total := 0
	practicals := 0
	for _, e := range entries {
		if e.Kind == KindPractical {
			practicals++
			continue
		}
		total++
	}
	return total + practicals/2
}

// sectionsOutOfBand counts sections whose daily load still falls outside
// the configured min/max band on at least one non-empty day.
func sectionsOutOfBand(entries []Entry, constraints Constraints) int {
	min := constraints.MinDailyPeriodsPerSection
	max := constraints.MaxDailyPeriodsPerSection
	if min <= 0 && max <= 0 {
		return 0
	}

	perSection := lo.GroupBy(entries, func(e Entry) string {
		return sectionKey(e.Department, e.Semester, e.Year)
	})
	out := 0
	for _, sectionEntries := range perSection {
		dayCounts := lo.CountValuesBy(sectionEntries, func(e Entry) int { return e.Day })
		for _, count := range dayCounts {
			if (min > 0 && count < min) || (max > 0 && count > max) {
				out++
				break
			}
		}
	}
	return out
}
