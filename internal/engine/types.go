package engine

import (
	"fmt"
	"time"
)

// Entry is one assigned teaching period in a generated timetable. A
// two-period practical session occupies two adjacent entries sharing day,
// teacher and room.
type Entry struct {
	CourseID   string      `json:"course_id"`
	CourseCode string      `json:"course_code"`
	TeacherID  string      `json:"teacher_id"`
	RoomID     string      `json:"room_id"`
	ClassID    string      `json:"class_id,omitempty"`
	Department string      `json:"department"`
	Semester   int         `json:"semester"`
	Year       int         `json:"year"`
	Day        int         `json:"day"`
	Period     int         `json:"period"`
	Kind       SessionKind `json:"kind"`
}

// Conflict classification used by the institution-wide auditor.
const (
	ConflictTeacherClash     = "teacher_clash"
	ConflictRoomClash        = "room_clash"
	ConflictResourceShortage = "resource_shortage"
	ConflictUnevenSpread     = "uneven_distribution"

	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityAdvisory = "advisory"
)

// SlotRef pins a conflict onto the weekly grid.
type SlotRef struct {
	Day       int    `json:"day"`
	Period    int    `json:"period"`
	TeacherID string `json:"teacher_id,omitempty"`
	RoomID    string `json:"room_id,omitempty"`
}

// ConflictReport describes a detected scheduling problem together with
// remediation suggestions.
type ConflictReport struct {
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Message     string    `json:"message"`
	Classes     []string  `json:"classes,omitempty"`
	Slots       []SlotRef `json:"slots,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// Statistics summarises utilization and placement completeness for one run.
type Statistics struct {
	TotalSessions      int                `json:"total_sessions"`
	AssignedSessions   int                `json:"assigned_sessions"`
	TeacherUtilization map[string]float64 `json:"teacher_utilization"`
	RoomUtilization    map[string]float64 `json:"room_utilization"`
	SectionsOutOfBand  int                `json:"sections_out_of_band"`
}

// Result is the sole artifact a generation run hands to callers. It is not
// mutated once returned.
type Result struct {
	Entries    []Entry          `json:"timetable"`
	Unassigned []CourseSession  `json:"unassigned"`
	Conflicts  []ConflictReport `json:"conflicts,omitempty"`
	Stats      Statistics       `json:"statistics"`
}

// Options tunes one generation run. The zero value is not useful; use
// DefaultOptions and override.
type Options struct {
	Optimize           bool  `json:"optimize"`
	MaxResolveAttempts int   `json:"max_resolve_attempts"`
	OptimizeIterations int   `json:"optimize_iterations"`
	Seed               int64 `json:"seed"`
}

// DefaultOptions enables optimization with the standard bounded budgets and
// a wall-clock seed.
func DefaultOptions() Options {
	return Options{
		Optimize:           true,
		MaxResolveAttempts: 1000,
		OptimizeIterations: 1000,
		Seed:               time.Now().UnixNano(),
	}
}

func (o Options) withDefaults() Options {
	if o.MaxResolveAttempts <= 0 {
		o.MaxResolveAttempts = 1000
	}
	if o.OptimizeIterations <= 0 {
		o.OptimizeIterations = 1000
	}
	return o
}

// slotKey is a (day, period) coordinate in the weekly grid.
type slotKey struct {
	Day    int
	Period int
}

// slotIndex tracks per-key slot occupancy so placement checks never rescan
// the whole timetable. Keys are teacher IDs, room IDs, or group keys.
type slotIndex map[string]map[slotKey]struct{}

func newSlotIndex() slotIndex {
	return make(slotIndex)
}

func (i slotIndex) occupied(key string, s slotKey) bool {
	slots, ok := i[key]
	if !ok {
		return false
	}
	_, taken := slots[s]
	return taken
}

func (i slotIndex) reserve(key string, s slotKey) {
	if i[key] == nil {
		i[key] = make(map[slotKey]struct{})
	}
	i[key][s] = struct{}{}
}

func (i slotIndex) release(key string, s slotKey) {
	if slots, ok := i[key]; ok {
		delete(slots, s)
	}
}

func (i slotIndex) count(key string) int {
	return len(i[key])
}

func (i slotIndex) dayCount(key string, day int) int {
	n := 0
	for s := range i[key] {
		if s.Day == day {
			n++
		}
	}
	return n
}

func groupKey(semester, year int) string {
	return fmt.Sprintf("%d|%d", semester, year)
}

func sectionKey(department string, semester, year int) string {
	return fmt.Sprintf("%s|%d|%d", department, semester, year)
}
