package engine

import (
	"regexp"

	"github.com/skolara/timetable-api/internal/models"
)

// SessionKind identifies the teaching unit variant of a session.
type SessionKind string

const (
	KindLecture   SessionKind = "LECTURE"
	KindPractical SessionKind = "PRACTICAL"
	KindTutorial  SessionKind = "TUTORIAL"
)

// CourseSession is one atomic weekly teaching unit derived from a course's
// load descriptor. Practical sessions span two consecutive periods, require
// a lab room and seat half the enrollment (split lab batches); lecture and
// tutorial sessions span one period with the full group.
type CourseSession struct {
	CourseID   string      `json:"course_id"`
	CourseCode string      `json:"course_code"`
	TeacherID  string      `json:"teacher_id"`
	Department string      `json:"department"`
	Semester   int         `json:"semester"`
	Year       int         `json:"year"`
	Credits    int         `json:"credits"`
	Kind       SessionKind `json:"kind"`
	Periods    int         `json:"periods"`
	NeedsLab   bool        `json:"needs_lab"`
	GroupSize  int         `json:"group_size"`
}

var loadToken = regexp.MustCompile(`(\d+)\s*([LPTlpt])`)

type loadUnit struct {
	count int
	kind  SessionKind
}

// parseLoadSpec tokenizes a "2L+1P" style descriptor. Descriptors with no
// recognizable token fall back to three lecture units.
func parseLoadSpec(spec string) []loadUnit {
	matches := loadToken.FindAllStringSubmatch(spec, -1)
	if len(matches) == 0 {
		return []loadUnit{{count: 3, kind: KindLecture}}
	}
	units := make([]loadUnit, 0, len(matches))
	for _, m := range matches {
		count := 0
		for _, r := range m[1] {
			count = count*10 + int(r-'0')
		}
		var kind SessionKind
		switch m[2] {
		case "P", "p":
			kind = KindPractical
		case "T", "t":
			kind = KindTutorial
		default:
			kind = KindLecture
		}
		units = append(units, loadUnit{count: count, kind: kind})
	}
	return units
}

// ExpandCourse turns a course into its weekly session list.
func ExpandCourse(course models.Course) []CourseSession {
	var sessions []CourseSession
	for _, unit := range parseLoadSpec(course.LoadSpec) {
		for i := 0; i < unit.count; i++ {
			session := CourseSession{
				CourseID:   course.ID,
				CourseCode: course.Code,
				TeacherID:  course.TeacherID,
				Department: course.Department,
				Semester:   course.Semester,
				Year:       course.Year,
				Credits:    course.Credits,
				Kind:       unit.kind,
				Periods:    1,
				GroupSize:  course.MaxEnrollment,
			}
			if unit.kind == KindPractical {
				session.Periods = 2
				session.NeedsLab = true
				session.GroupSize = (course.MaxEnrollment + 1) / 2
			}
			sessions = append(sessions, session)
		}
	}
	return sessions
}

// ExpandCourses expands every course in the catalog slice.
func ExpandCourses(courses []models.Course) []CourseSession {
	var sessions []CourseSession
	for _, course := range courses {
		sessions = append(sessions, ExpandCourse(course)...)
	}
	return sessions
}
