package engine

import (
	"fmt"
	"strings"

	"github.com/skolara/timetable-api/internal/models"
)

// AvailabilitySet holds "(day|period)" tokens for O(1) membership checks
// during placement.
type AvailabilitySet map[string]struct{}

// Has reports whether the teacher is bookable on the slot.
func (s AvailabilitySet) Has(day, period int) bool {
	_, ok := s[slotToken(day, period)]
	return ok
}

func (s AvailabilitySet) add(day, period int) {
	s[slotToken(day, period)] = struct{}{}
}

func slotToken(day, period int) string {
	return fmt.Sprintf("%d|%d", day, period)
}

var dayAliases = map[string]int{
	"sun": 0, "sunday": 0,
	"mon": 1, "monday": 1,
	"tue": 2, "tues": 2, "tuesday": 2,
	"wed": 3, "wednesday": 3,
	"thu": 4, "thur": 4, "thurs": 4, "thursday": 4,
	"fri": 5, "friday": 5,
	"sat": 6, "saturday": 6,
}

type availabilityRange struct {
	day   int
	start int
	end   int
}

// parseAvailability reads comma-separated "Day start-end" ranges. Entries
// that do not parse are skipped rather than failing the whole descriptor.
func parseAvailability(raw string) []availabilityRange {
	var ranges []availabilityRange
	for _, part := range strings.Split(raw, ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) != 2 {
			continue
		}
		day, ok := dayAliases[strings.ToLower(fields[0])]
		if !ok {
			continue
		}
		bounds := strings.SplitN(fields[1], "-", 2)
		if len(bounds) != 2 {
			continue
		}
		start, err := parseClock(bounds[0])
		if err != nil {
			continue
		}
		end, err := parseClock(bounds[1])
		if err != nil || end <= start {
			continue
		}
		ranges = append(ranges, availabilityRange{day: day, start: start, end: end})
	}
	return ranges
}

// BuildAvailability derives the teacher's bookable slot set. Without a
// descriptor the teacher is available on every working day and period;
// with one, a period qualifies only when its configured wall-clock window
// falls fully inside an available range for that day. Mandatory lunch
// periods for the teacher's department are excluded either way.
func BuildAvailability(teacher models.Teacher, constraints Constraints) AvailabilitySet {
	set := make(AvailabilitySet)
	ranges := parseAvailability(teacher.Availability)
	open := strings.TrimSpace(teacher.Availability) == "" || len(ranges) == 0

	for _, day := range constraints.WorkingDays {
		for period := range constraints.Periods {
			if constraints.MandatoryLunch(period, teacher.Department) {
				continue
			}
			if open {
				set.add(day, period)
				continue
			}
			start, end := constraints.PeriodClock(period)
			startMin, err := parseClock(start)
			if err != nil {
				continue
			}
			endMin, err := parseClock(end)
			if err != nil {
				continue
			}
			for _, r := range ranges {
				if r.day == day && startMin >= r.start && endMin <= r.end {
					set.add(day, period)
					break
				}
			}
		}
	}
	return set
}
