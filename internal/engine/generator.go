package engine

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/skolara/timetable-api/internal/models"
	appErrors "github.com/skolara/timetable-api/pkg/errors"
)

const (
	flexibleLunchPenalty = 4.0
	belowMinDayBonus     = 2.0
	aboveMaxDayPenalty   = 5.0
	dayLoadWeight        = 2.0
	periodLoadWeight     = 3.0
	middleDistanceWeight = 0.5
	teacherGapWeight     = 10.0
	scoreEpsilon         = 1e-9
	longRunThreshold     = 3
)

// Generator produces a conflict-free weekly timetable for one section
// cohort. All scheduling state is owned by the instance and never shared
// across runs; placement is greedy with scored candidates, followed by
// bounded retry resolution, minimum-load backfill and optional swap-based
// local search.
type Generator struct {
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
	groupIdx   slotIndex
	sectionDay map[string]map[int]int
}

// NewGenerator builds a generator for the given constraint set.
func NewGenerator(constraints Constraints, opts Options, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Generator{
		constraints: constraints,
		opts:        opts,
		rng:         rand.New(rand.NewSource(opts.Seed)),
		logger:      logger,
		teacherIdx:  newSlotIndex(),
		roomIdx:     newSlotIndex(),
		groupIdx:    newSlotIndex(),
		sectionDay:  make(map[string]map[int]int),
	}
}

// Generate runs the full pipeline. Input shortfalls (over-constrained
// instances) are reported as data in the result; only malformed inputs
// produce an error.
func (g *Generator) Generate(ctx context.Context, courses []models.Course, teachers []models.Teacher, rooms []models.Room) (*Result, error) {
	if err := g.constraints.Validate(); err != nil {
		return nil, err
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

	sessions := ExpandCourses(courses)
	orderSessions(sessions)

	var unassigned []CourseSession
	for _, session := range sessions {
		if !g.placeSession(session, nil) {
			unassigned = append(unassigned, session)
		}
	}

	unassigned = g.resolve(unassigned)
	unassigned = g.backfill(unassigned)

	if g.opts.Optimize {
		g.optimize(ctx)
	}

	stats := ComputeStatistics(g.entries, unassigned, teachers, g.rooms, g.constraints)
	g.logger.Info("generation finished",
		zap.Int("sessions", stats.TotalSessions),
		zap.Int("assigned", stats.AssignedSessions),
		zap.Int("unassigned", len(unassigned)),
	)

	return &Result{Entries: g.entries, Unassigned: unassigned, Stats: stats}, nil
}

// orderSessions places lab sessions before the rest (scarcer rooms, two
// consecutive periods needed) and breaks ties by descending credit weight.
func orderSessions(sessions []CourseSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].NeedsLab != sessions[j].NeedsLab {
			return sessions[i].NeedsLab
		}
		return sessions[i].Credits > sessions[j].Credits
	})
}

type candidate struct {
	day    int
	period int
	room   int
}

// placeSession scores every valid (day, period, room) combination and
// commits the best one, drawing randomly among equal scores. A nil onlyDay
// scans all working days; backfill passes a single day.
func (g *Generator) placeSession(session CourseSession, onlyDay *int) bool {
	days := g.constraints.WorkingDays
	if onlyDay != nil {
		days = []int{*onlyDay}
	}

	best := math.Inf(1)
	var ties []candidate
	for _, day := range days {
		for period := 0; period+session.Periods <= len(g.constraints.Periods); period++ {
			if !g.slotFeasible(session, day, period) {
				continue
			}
			for ri := range g.rooms {
				if !g.roomFits(session, g.rooms[ri], day, period) {
					continue
				}
				score := g.score(session, day, period)
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
	g.commit(session, pick)
	return true
}

// slotFeasible verifies the teacher- and group-side hard constraints for
// every period the session would cover.
func (g *Generator) slotFeasible(session CourseSession, day, period int) bool {
	avail, ok := g.availability[session.TeacherID]
	if !ok {
		return false
	}
	group := groupKey(session.Semester, session.Year)
	for p := period; p < period+session.Periods; p++ {
		if !avail.Has(day, p) {
			return false
		}
		// Availability already blocks lunch for the teacher's own
		// department; the session's department can differ.
		if g.constraints.MandatoryLunch(p, session.Department) {
			return false
		}
		key := slotKey{Day: day, Period: p}
		if g.teacherIdx.occupied(session.TeacherID, key) {
			return false
		}
		if g.groupIdx.occupied(group, key) {
			return false
		}
	}
	if max := g.constraints.MaxDailyPeriodsPerTeacher; max > 0 {
		if g.teacherIdx.dayCount(session.TeacherID, day)+session.Periods > max {
			return false
		}
	}
	if ceiling := g.weeklyCeiling(session.TeacherID); ceiling > 0 {
		if g.teacherIdx.count(session.TeacherID)+session.Periods > ceiling {
			return false
		}
	}
	return true
}

func (g *Generator) weeklyCeiling(teacherID string) int {
	if t, ok := g.teachers[teacherID]; ok && t.MaxWeeklyLoad > 0 {
		return t.MaxWeeklyLoad
	}
	return g.constraints.MaxWeeklyPeriodsPerTeacher
}

func (g *Generator) roomFits(session CourseSession, room models.Room, day, period int) bool {
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

// score rates a candidate slot; lower is better. The terms keep each
// group's load spread across days and periods, away from the edges of the
// day, outside flexible lunch zones, and inside the section's configured
// daily band.
func (g *Generator) score(session CourseSession, day, period int) float64 {
	group := groupKey(session.Semester, session.Year)
	section := sectionKey(session.Department, session.Semester, session.Year)

	score := float64(g.groupIdx.dayCount(group, day)) * dayLoadWeight
	score += float64(g.groupPeriodCount(group, period)) * periodLoadWeight

	mid := float64(len(g.constraints.Periods)-1) / 2
	score += math.Abs(float64(period)-mid) * middleDistanceWeight

	if run := g.runWith(group, day, period, session.Periods); run >= longRunThreshold {
		over := run - (longRunThreshold - 1)
		score += float64(over * over)
	}

	for p := period; p < period+session.Periods; p++ {
		if g.constraints.FlexibleLunch(p, session.Department) {
			score += flexibleLunchPenalty
			break
		}
	}

	dayLoad := g.sectionDayCount(section, day)
	if min := g.constraints.MinDailyPeriodsPerSection; min > 0 && dayLoad < min {
		score -= belowMinDayBonus
	}
	if max := g.constraints.MaxDailyPeriodsPerSection; max > 0 && dayLoad >= max {
		score += aboveMaxDayPenalty
	}
	return score
}

func (g *Generator) groupPeriodCount(group string, period int) int {
	n := 0
	for s := range g.groupIdx[group] {
		if s.Period == period {
			n++
		}
	}
	return n
}

// runWith computes the consecutive same-day run the group would end up with
// if the session were placed at the given start period.
func (g *Generator) runWith(group string, day, start, duration int) int {
	occ := func(p int) bool {
		if p >= start && p < start+duration {
			return true
		}
		return g.groupIdx.occupied(group, slotKey{Day: day, Period: p})
	}
	low := start
	for low-1 >= 0 && occ(low-1) {
		low--
	}
	high := start + duration - 1
	for high+1 < len(g.constraints.Periods) && occ(high+1) {
		high++
	}
	return high - low + 1
}

func (g *Generator) sectionDayCount(section string, day int) int {
	return g.sectionDay[section][day]
}

func (g *Generator) bumpSectionDay(section string, day, delta int) {
	if g.sectionDay[section] == nil {
		g.sectionDay[section] = make(map[int]int)
	}
	g.sectionDay[section][day] += delta
}

func (g *Generator) commit(session CourseSession, pick candidate) {
	room := g.rooms[pick.room]
	group := groupKey(session.Semester, session.Year)
	section := sectionKey(session.Department, session.Semester, session.Year)
	for p := pick.period; p < pick.period+session.Periods; p++ {
		key := slotKey{Day: pick.day, Period: p}
		g.teacherIdx.reserve(session.TeacherID, key)
		g.roomIdx.reserve(room.ID, key)
		g.groupIdx.reserve(group, key)
		g.bumpSectionDay(section, pick.day, 1)
		g.entries = append(g.entries, Entry{
			CourseID:   session.CourseID,
			CourseCode: session.CourseCode,
			TeacherID:  session.TeacherID,
			RoomID:     room.ID,
			Department: session.Department,
			Semester:   session.Semester,
			Year:       session.Year,
			Day:        pick.day,
			Period:     p,
			Kind:       session.Kind,
		})
	}
}

// resolve retries leftover sessions under one shared attempt budget. This
// is deliberately a second greedy pass, not tree backtracking with undo.
// Feasibility only shrinks as the timetable fills and nothing is released
// between sweeps, so the pass places a session only when an earlier phase
// freed capacity; against an unchanged timetable it exits on the first
// no-progress sweep.
func (g *Generator) resolve(unassigned []CourseSession) []CourseSession {
	attempts := 0
	for attempts < g.opts.MaxResolveAttempts && len(unassigned) > 0 {
		progress := false
		var still []CourseSession
		for _, session := range unassigned {
			if attempts >= g.opts.MaxResolveAttempts {
				still = append(still, session)
				continue
			}
			attempts++
			if g.placeSession(session, nil) {
				progress = true
			} else {
				still = append(still, session)
			}
		}
		unassigned = still
		if !progress {
			break
		}
	}
	return unassigned
}

// backfill raises each section day that sits below the configured minimum
// by retrying unassigned sessions of that section restricted to the day.
func (g *Generator) backfill(unassigned []CourseSession) []CourseSession {
	min := g.constraints.MinDailyPeriodsPerSection
	if min <= 0 || len(unassigned) == 0 {
		return unassigned
	}

	sections := lo.Uniq(lo.Map(unassigned, func(s CourseSession, _ int) string {
		return sectionKey(s.Department, s.Semester, s.Year)
	}))
	for _, section := range sections {
		for _, day := range g.constraints.WorkingDays {
			for g.sectionDayCount(section, day) < min {
				placed := -1
				for i, session := range unassigned {
					if sectionKey(session.Department, session.Semester, session.Year) != section {
						continue
					}
					day := day
					if g.placeSession(session, &day) {
						placed = i
						break
					}
				}
				if placed < 0 {
					break
				}
				unassigned = append(unassigned[:placed], unassigned[placed+1:]...)
			}
		}
	}
	return unassigned
}

// optimize runs bounded swap-based local search compacting per-teacher
// schedules. Practical entries stay put so lab pairs keep their adjacency.
// Cancellation stops the loop; the best configuration seen is kept either
// way.
func (g *Generator) optimize(ctx context.Context) {
	if len(g.entries) < 2 {
		return
	}
	current := g.objective()
	bestScore := current
	best := cloneEntries(g.entries)

	for i := 0; i < g.opts.OptimizeIterations; i++ {
		if ctx.Err() != nil {
			break
		}
		a := g.rng.Intn(len(g.entries))
		b := g.rng.Intn(len(g.entries))
		if a == b {
			continue
		}
		if g.entries[a].Kind == KindPractical || g.entries[b].Kind == KindPractical {
			continue
		}
		if !g.trySwap(a, b) {
			continue
		}
		next := g.objective()
		if next < current {
			g.trySwap(a, b)
			continue
		}
		current = next
		if next > bestScore {
			bestScore = next
			best = cloneEntries(g.entries)
		}
	}

	g.restore(best)
}

// objective rewards compact teacher schedules: minus ten points per idle
// period strictly between a teacher's first and last class of a day.
func (g *Generator) objective() float64 {
	byTeacherDay := make(map[string]map[int][]int)
	for _, e := range g.entries {
		if byTeacherDay[e.TeacherID] == nil {
			byTeacherDay[e.TeacherID] = make(map[int][]int)
		}
		byTeacherDay[e.TeacherID][e.Day] = append(byTeacherDay[e.TeacherID][e.Day], e.Period)
	}
	gaps := 0
	for _, days := range byTeacherDay {
		for _, periods := range days {
			if len(periods) < 2 {
				continue
			}
			sort.Ints(periods)
			gaps += periods[len(periods)-1] - periods[0] + 1 - len(periods)
		}
	}
	return -teacherGapWeight * float64(gaps)
}

// trySwap exchanges the (day, period) pairs of two entries, keeping the
// occupancy indexes authoritative. Returns false and leaves state untouched
// when the swapped configuration would violate any hard constraint.
func (g *Generator) trySwap(a, b int) bool {
	ea, eb := g.entries[a], g.entries[b]
	if ea.Day == eb.Day && ea.Period == eb.Period {
		return false
	}

	g.releaseEntry(ea)
	g.releaseEntry(eb)

	na, nb := ea, eb
	na.Day, na.Period = eb.Day, eb.Period
	nb.Day, nb.Period = ea.Day, ea.Period

	if !g.entryFeasible(na) {
		g.reserveEntry(ea)
		g.reserveEntry(eb)
		return false
	}
	g.reserveEntry(na)
	if !g.entryFeasible(nb) {
		g.releaseEntry(na)
		g.reserveEntry(ea)
		g.reserveEntry(eb)
		return false
	}
	g.reserveEntry(nb)

	g.bumpSectionDay(sectionKey(ea.Department, ea.Semester, ea.Year), ea.Day, -1)
	g.bumpSectionDay(sectionKey(na.Department, na.Semester, na.Year), na.Day, 1)
	g.bumpSectionDay(sectionKey(eb.Department, eb.Semester, eb.Year), eb.Day, -1)
	g.bumpSectionDay(sectionKey(nb.Department, nb.Semester, nb.Year), nb.Day, 1)

	g.entries[a] = na
	g.entries[b] = nb
	return true
}

func (g *Generator) entryFeasible(e Entry) bool {
	avail, ok := g.availability[e.TeacherID]
	if !ok || !avail.Has(e.Day, e.Period) {
		return false
	}
	if g.constraints.MandatoryLunch(e.Period, e.Department) {
		return false
	}
	key := slotKey{Day: e.Day, Period: e.Period}
	if g.teacherIdx.occupied(e.TeacherID, key) {
		return false
	}
	if g.roomIdx.occupied(e.RoomID, key) {
		return false
	}
	if g.groupIdx.occupied(groupKey(e.Semester, e.Year), key) {
		return false
	}
	if max := g.constraints.MaxDailyPeriodsPerTeacher; max > 0 {
		if g.teacherIdx.dayCount(e.TeacherID, e.Day)+1 > max {
			return false
		}
	}
	if ceiling := g.weeklyCeiling(e.TeacherID); ceiling > 0 {
		if g.teacherIdx.count(e.TeacherID)+1 > ceiling {
			return false
		}
	}
	return true
}

func (g *Generator) reserveEntry(e Entry) {
	key := slotKey{Day: e.Day, Period: e.Period}
	g.teacherIdx.reserve(e.TeacherID, key)
	g.roomIdx.reserve(e.RoomID, key)
	g.groupIdx.reserve(groupKey(e.Semester, e.Year), key)
}

func (g *Generator) releaseEntry(e Entry) {
	key := slotKey{Day: e.Day, Period: e.Period}
	g.teacherIdx.release(e.TeacherID, key)
	g.roomIdx.release(e.RoomID, key)
	g.groupIdx.release(groupKey(e.Semester, e.Year), key)
}

// restore adopts the given entry set and rebuilds every index from it.
func (g *Generator) restore(entries []Entry) {
	g.entries = entries
	g.teacherIdx = newSlotIndex()
	g.roomIdx = newSlotIndex()
	g.groupIdx = newSlotIndex()
	g.sectionDay = make(map[string]map[int]int)
	for _, e := range g.entries {
		g.reserveEntry(e)
		g.bumpSectionDay(sectionKey(e.Department, e.Semester, e.Year), e.Day, 1)
	}
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
