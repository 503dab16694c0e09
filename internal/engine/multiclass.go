package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/skolara/timetable-api/internal/models"
	appErrors "github.com/skolara/timetable-api/pkg/errors"
)

const (
	spreadWeight          = 2.0
	kindPreferenceWeight  = 0.5
	buildingMatchBonus    = 3.0
	teacherOverloadCutoff = 6
	teacherOverloadCost   = 50.0
	unevenSpreadLimit     = 2
)

// MultiClassGenerator schedules many classes at once for institution-wide
// generation. Placement filters through per-key occupancy indexes instead
// of re-scanning the timetable; a post-hoc auditor re-verifies the result.
type MultiClassGenerator struct {
	constraints Constraints
	opts        Options
	rng         *rand.Rand
	logger      *zap.Logger

	teachers     map[string]models.Teacher
	availability map[string]AvailabilitySet
	rooms        []models.Room

	entries    []Entry
	teacherIdx slotIndex
	roomIdx    slotIndex
	classIdx   slotIndex
}

// NewMultiClassGenerator builds an institution-wide generator.
func NewMultiClassGenerator(constraints Constraints, opts Options, logger *zap.Logger) *MultiClassGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &MultiClassGenerator{
		constraints: constraints,
		opts:        opts,
		rng:         rand.New(rand.NewSource(opts.Seed)),
		logger:      logger,
		teacherIdx:  newSlotIndex(),
		roomIdx:     newSlotIndex(),
		classIdx:    newSlotIndex(),
	}
}

// classPriority orders classes so larger, more senior groups get first
// access to scarce slots.
func classPriority(class models.Class) float64 {
	return 10*float64(len(class.CourseCodes)) + 0.1*float64(class.Enrollment) + 5*float64(class.Semester)
}

// Generate schedules every class, highest priority first, then audits the
// finished timetable.
func (g *MultiClassGenerator) Generate(ctx context.Context, classes []models.Class, courses []models.Course, teachers []models.Teacher, rooms []models.Room) (*Result, error) {
	if err := g.constraints.Validate(); err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no classes to schedule")
	}
	if len(courses) == 0 {
		return nil, appErrors.ErrNoCourses
	}
	if len(teachers) == 0 {
		return nil, appErrors.ErrNoTeachers
	}
	usable := lo.Filter(rooms, func(r models.Room, _ int) bool { return r.Available })
	if len(usable) == 0 {
		return nil, appErrors.ErrNoRooms
	}
	g.rooms = usable

	g.teachers = make(map[string]models.Teacher, len(teachers))
	g.availability = make(map[string]AvailabilitySet, len(teachers))
	for _, t := range teachers {
		g.teachers[t.ID] = t
		g.availability[t.ID] = BuildAvailability(t, g.constraints)
	}

	byCode := lo.KeyBy(courses, func(c models.Course) string { return c.Code })

	ordered := make([]models.Class, len(classes))
	copy(ordered, classes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return classPriority(ordered[i]) > classPriority(ordered[j])
	})

	var unassigned []CourseSession
	var conflicts []ConflictReport
	totalSessions := 0
	for _, class := range ordered {
		if ctx.Err() != nil {
			break
		}
		var sessions []CourseSession
		for _, code := range class.CourseCodes {
			course, ok := byCode[code]
			if !ok {
				g.logger.Warn("class references unknown course code",
					zap.String("class", class.ID), zap.String("code", code))
				continue
			}
			sessions = append(sessions, ExpandCourse(course)...)
		}
		orderSessions(sessions)
		totalSessions += len(sessions)

		for _, session := range sessions {
			if g.placeForClass(class, session) {
				continue
			}
			unassigned = append(unassigned, session)
			conflicts = append(conflicts, ConflictReport{
				Type:     ConflictResourceShortage,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("no feasible slot for %s (%s) of class %s", session.CourseCode, session.Kind, class.Name),
				Classes:  []string{class.ID},
				Suggestions: []string{
					"reassign the course to a teacher with wider availability",
					"add or free rooms of the required type",
					"relax the daily or weekly load constraints",
				},
			})
		}
	}

	conflicts = append(conflicts, g.flagUnevenDistribution(ordered)...)
	conflicts = append(conflicts, Audit(g.entries)...)

	stats := ComputeStatistics(g.entries, unassigned, teachers, g.rooms, g.constraints)
	g.logger.Info("institution-wide generation finished",
		zap.Int("classes", len(ordered)),
		zap.Int("sessions", totalSessions),
		zap.Int("unassigned", len(unassigned)),
		zap.Int("conflicts", len(conflicts)),
	)

	return &Result{Entries: g.entries, Unassigned: unassigned, Conflicts: conflicts, Stats: stats}, nil
}

// placeForClass scans all (day, period, room) combinations for the session,
// filtering through the occupancy indexes, and commits the best-scoring
// candidate with random tie-breaking.
func (g *MultiClassGenerator) placeForClass(class models.Class, session CourseSession) bool {
	best := math.Inf(1)
	var ties []candidate
	for _, day := range g.constraints.WorkingDays {
		for period := 0; period+session.Periods <= len(g.constraints.Periods); period++ {
			if !g.slotFeasible(class, session, day, period) {
				continue
			}
			for ri := range g.rooms {
				if !g.roomFits(session, g.rooms[ri], day, period) {
					continue
				}
				score := g.score(class, session, g.rooms[ri], day, period)
				switch {
				case score < best-scoreEpsilon:
					best = score
					ties = append(ties[:0], candidate{day: day, period: period, room: ri})
				case math.Abs(score-best) <= scoreEpsilon:
					ties = append(ties, candidate{day: day, period: period, room: ri})
				}
			}
		}
	}
	if len(ties) == 0 {
		return false
	}
	pick := ties[g.rng.Intn(len(ties))]
	g.commit(class, session, pick)
	return true
}

func (g *MultiClassGenerator) slotFeasible(class models.Class, session CourseSession, day, period int) bool {
	avail, ok := g.availability[session.TeacherID]
	if !ok {
		return false
	}
	for p := period; p < period+session.Periods; p++ {
		if !avail.Has(day, p) {
			return false
		}
		// The class's department decides lunch exclusion, not the
		// teacher's.
		if g.constraints.MandatoryLunch(p, class.Department) {
			return false
		}
		key := slotKey{Day: day, Period: p}
		if g.teacherIdx.occupied(session.TeacherID, key) {
			return false
		}
		if g.classIdx.occupied(class.ID, key) {
			return false
		}
	}
	if max := g.constraints.MaxDailyPeriodsPerTeacher; max > 0 {
		if g.teacherIdx.dayCount(session.TeacherID, day)+session.Periods > max {
			return false
		}
	}
	ceiling := g.constraints.MaxWeeklyPeriodsPerTeacher
	if t, ok := g.teachers[session.TeacherID]; ok && t.MaxWeeklyLoad > 0 {
		ceiling = t.MaxWeeklyLoad
	}
	if ceiling > 0 && g.teacherIdx.count(session.TeacherID)+session.Periods > ceiling {
		return false
	}
	return true
}

func (g *MultiClassGenerator) roomFits(session CourseSession, room models.Room, day, period int) bool {
	if session.NeedsLab && room.Type != models.RoomTypeLab {
		return false
	}
	if room.Capacity < session.GroupSize {
		return false
	}
	for p := period; p < period+session.Periods; p++ {
		if g.roomIdx.occupied(room.ID, slotKey{Day: day, Period: p}) {
			return false
		}
	}
	return true
}

// score favours balanced day spread for the class, morning lectures and
// afternoon practicals, rooms in the class's own building, and teachers
// staying under six periods a day.
func (g *MultiClassGenerator) score(class models.Class, session CourseSession, room models.Room, day, period int) float64 {
	score := float64(g.classIdx.dayCount(class.ID, day)) * spreadWeight

	mid := float64(len(g.constraints.Periods)) / 2
	switch session.Kind {
	case KindPractical:
		score += math.Max(0, mid-float64(period)) * kindPreferenceWeight
	default:
		score += float64(period) * kindPreferenceWeight
	}

	if room.Building != "" && strings.EqualFold(room.Building, class.Department) {
		score -= buildingMatchBonus
	}

	if g.teacherIdx.dayCount(session.TeacherID, day)+session.Periods > teacherOverloadCutoff {
		score += teacherOverloadCost
	}
	return score
}

func (g *MultiClassGenerator) commit(class models.Class, session CourseSession, pick candidate) {
	room := g.rooms[pick.room]
	for p := pick.period; p < pick.period+session.Periods; p++ {
		key := slotKey{Day: pick.day, Period: p}
		g.teacherIdx.reserve(session.TeacherID, key)
		g.roomIdx.reserve(room.ID, key)
		g.classIdx.reserve(class.ID, key)
		g.entries = append(g.entries, Entry{
			CourseID:   session.CourseID,
			CourseCode: session.CourseCode,
			TeacherID:  session.TeacherID,
			RoomID:     room.ID,
			ClassID:    class.ID,
			Department: class.Department,
			Semester:   class.Semester,
			Year:       class.Year,
			Day:        pick.day,
			Period:     p,
			Kind:       session.Kind,
		})
	}
}

// flagUnevenDistribution reports classes whose busiest and quietest days
// differ by more than two periods. Rebalancing is left to the caller.
func (g *MultiClassGenerator) flagUnevenDistribution(classes []models.Class) []ConflictReport {
	var reports []ConflictReport
	for _, class := range classes {
		counts := make([]int, 0, len(g.constraints.WorkingDays))
		for _, day := range g.constraints.WorkingDays {
			counts = append(counts, g.classIdx.dayCount(class.ID, day))
		}
		if len(counts) == 0 {
			continue
		}
		min, max := counts[0], counts[0]
		for _, c := range counts[1:] {
			if c < min {
				min = c
			}
			if c > max {
				max = c
			}
		}
		if max-min <= unevenSpreadLimit {
			continue
		}
		g.logger.Warn("uneven daily distribution",
			zap.String("class", class.ID), zap.Int("min", min), zap.Int("max", max))
		reports = append(reports, ConflictReport{
			Type:     ConflictUnevenSpread,
			Severity: SeverityAdvisory,
			Message:  fmt.Sprintf("class %s daily load varies from %d to %d periods", class.Name, min, max),
			Classes:  []string{class.ID},
			Suggestions: []string{
				"move sessions from the busiest day to the quietest",
			},
		})
	}
	return reports
}
