package engine

import "fmt"

// Audit re-scans a finished timetable for residual double-bookings. The
// occupancy indexes make these structurally impossible, but the auditor is
// kept as a safety net for future changes to the indexing logic.
func Audit(entries []Entry) []ConflictReport {
	var reports []ConflictReport

	teacherSeen := make(map[string][]Entry)
	roomSeen := make(map[string][]Entry)
	for _, e := range entries {
		tKey := fmt.Sprintf("%s|%d|%d", e.TeacherID, e.Day, e.Period)
		rKey := fmt.Sprintf("%s|%d|%d", e.RoomID, e.Day, e.Period)
		teacherSeen[tKey] = append(teacherSeen[tKey], e)
		roomSeen[rKey] = append(roomSeen[rKey], e)
	}

	for _, clash := range teacherSeen {
		if len(clash) < 2 {
			continue
		}
		first := clash[0]
		reports = append(reports, ConflictReport{
			Type:     ConflictTeacherClash,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("teacher %s is double-booked on day %d period %d", first.TeacherID, first.Day, first.Period),
			Classes:  classIDs(clash),
			Slots:    []SlotRef{{Day: first.Day, Period: first.Period, TeacherID: first.TeacherID}},
			Suggestions: []string{
				"reassign one of the courses to a different teacher",
				"move one of the sessions to a free slot",
			},
		})
	}
	for _, clash := range roomSeen {
		if len(clash) < 2 {
			continue
		}
		first := clash[0]
		reports = append(reports, ConflictReport{
			Type:     ConflictRoomClash,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("room %s is double-booked on day %d period %d", first.RoomID, first.Day, first.Period),
			Classes:  classIDs(clash),
			Slots:    []SlotRef{{Day: first.Day, Period: first.Period, RoomID: first.RoomID}},
			Suggestions: []string{
				"change the room for one of the sessions",
				"move one of the sessions to a free slot",
			},
		})
	}
	return reports
}

// ValidateEntries checks the three uniqueness invariants over an entire
// entry set and returns the first violation found, or nil.
func ValidateEntries(entries []Entry) error {
	teacherSlots := make(map[string]struct{})
	roomSlots := make(map[string]struct{})
	groupSlots := make(map[string]struct{})
	for _, e := range entries {
		tKey := fmt.Sprintf("t|%s|%d|%d", e.TeacherID, e.Day, e.Period)
		if _, ok := teacherSlots[tKey]; ok {
			return fmt.Errorf("teacher %s double-booked at day %d period %d", e.TeacherID, e.Day, e.Period)
		}
		teacherSlots[tKey] = struct{}{}

		rKey := fmt.Sprintf("r|%s|%d|%d", e.RoomID, e.Day, e.Period)
		if _, ok := roomSlots[rKey]; ok {
			return fmt.Errorf("room %s double-booked at day %d period %d", e.RoomID, e.Day, e.Period)
		}
		roomSlots[rKey] = struct{}{}

		group := e.ClassID
		if group == "" {
			group = groupKey(e.Semester, e.Year)
		}
		gKey := fmt.Sprintf("g|%s|%d|%d", group, e.Day, e.Period)
		if _, ok := groupSlots[gKey]; ok {
			return fmt.Errorf("group %s double-booked at day %d period %d", group, e.Day, e.Period)
		}
		groupSlots[gKey] = struct{}{}
	}
	return nil
}

func classIDs(entries []Entry) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, e := range entries {
		id := e.ClassID
		if id == "" {
			id = sectionKey(e.Department, e.Semester, e.Year)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
