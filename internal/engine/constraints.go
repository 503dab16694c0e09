package engine

import (
	"fmt"
	"strconv"
	"strings"

	appErrors "github.com/skolara/timetable-api/pkg/errors"
)

// PeriodWindow maps a period label onto wall-clock start/end times ("09:00").
type PeriodWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// LunchZone marks a set of periods as excluded (mandatory) or merely
// discouraged (flexible) for scheduling. An empty Departments list applies
// the zone to everyone.
type LunchZone struct {
	Periods     []int    `json:"periods"`
	Mandatory   bool     `json:"mandatory"`
	Departments []string `json:"departments,omitempty"`
}

// Constraints is the static configuration one generation run operates under.
// Days use 0=Sunday..6=Saturday.
type Constraints struct {
	WorkingDays                []int                   `json:"working_days"`
	Periods                    []string                `json:"periods"`
	PeriodTimes                map[string]PeriodWindow `json:"period_times"`
	PeriodDurationMinutes      int                     `json:"period_duration_minutes"`
	MaxDailyPeriodsPerTeacher  int                     `json:"max_daily_periods_per_teacher"`
	MaxWeeklyPeriodsPerTeacher int                     `json:"max_weekly_periods_per_teacher"`
	MinDailyPeriodsPerSection  int                     `json:"min_daily_periods_per_section"`
	MaxDailyPeriodsPerSection  int                     `json:"max_daily_periods_per_section"`
	// MinGapBetweenPeriods round-trips with callers' constraint payloads;
	// placement does not read it.
	MinGapBetweenPeriods int         `json:"min_gap_between_periods"`
	LunchZones           []LunchZone `json:"lunch_zones"`
}

// DefaultConstraints returns a Monday-Saturday, seven-period week with a
// mandatory lunch zone on the fifth period.
func DefaultConstraints() Constraints {
	periods := []string{"P1", "P2", "P3", "P4", "P5", "P6", "P7"}
	times := map[string]PeriodWindow{
		"P1": {Start: "09:00", End: "09:50"},
		"P2": {Start: "09:50", End: "10:40"},
		"P3": {Start: "10:50", End: "11:40"},
		"P4": {Start: "11:40", End: "12:30"},
		"P5": {Start: "12:30", End: "13:20"},
		"P6": {Start: "13:20", End: "14:10"},
		"P7": {Start: "14:20", End: "15:10"},
	}
	return Constraints{
		WorkingDays:                []int{1, 2, 3, 4, 5, 6},
		Periods:                    periods,
		PeriodTimes:                times,
		PeriodDurationMinutes:      50,
		MaxDailyPeriodsPerTeacher:  5,
		MaxWeeklyPeriodsPerTeacher: 24,
		MinDailyPeriodsPerSection:  3,
		MaxDailyPeriodsPerSection:  6,
		LunchZones:                 []LunchZone{{Periods: []int{4}, Mandatory: true}},
	}
}

// Validate rejects structurally unusable constraint sets before any
// placement work starts.
func (c Constraints) Validate() error {
	if len(c.WorkingDays) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidConstraints, "working days must not be empty")
	}
	for _, day := range c.WorkingDays {
		if day < 0 || day > 6 {
			return appErrors.Clone(appErrors.ErrInvalidConstraints, fmt.Sprintf("working day %d is out of range 0-6", day))
		}
	}
	if len(c.Periods) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidConstraints, "period list must not be empty")
	}
	for label, window := range c.PeriodTimes {
		start, err := parseClock(window.Start)
		if err != nil {
			return appErrors.Clone(appErrors.ErrInvalidConstraints, fmt.Sprintf("period %s has invalid start time %q", label, window.Start))
		}
		end, err := parseClock(window.End)
		if err != nil {
			return appErrors.Clone(appErrors.ErrInvalidConstraints, fmt.Sprintf("period %s has invalid end time %q", label, window.End))
		}
		if end <= start {
			return appErrors.Clone(appErrors.ErrInvalidConstraints, fmt.Sprintf("period %s window ends before it starts", label))
		}
	}
	if c.MinDailyPeriodsPerSection > 0 && c.MaxDailyPeriodsPerSection > 0 &&
		c.MinDailyPeriodsPerSection > c.MaxDailyPeriodsPerSection {
		return appErrors.Clone(appErrors.ErrInvalidConstraints, "section daily minimum exceeds maximum")
	}
	for _, zone := range c.LunchZones {
		for _, p := range zone.Periods {
			if p < 0 || p >= len(c.Periods) {
				return appErrors.Clone(appErrors.ErrInvalidConstraints, fmt.Sprintf("lunch zone period %d is out of range", p))
			}
		}
	}
	return nil
}

// MandatoryLunch reports whether the period is hard-excluded for the
// department.
func (c Constraints) MandatoryLunch(period int, department string) bool {
	return c.inLunchZone(period, department, true)
}

// FlexibleLunch reports whether the period is bookable but discouraged for
// the department.
func (c Constraints) FlexibleLunch(period int, department string) bool {
	return c.inLunchZone(period, department, false)
}

func (c Constraints) inLunchZone(period int, department string, mandatory bool) bool {
	for _, zone := range c.LunchZones {
		if zone.Mandatory != mandatory {
			continue
		}
		if len(zone.Departments) > 0 && !containsFold(zone.Departments, department) {
			continue
		}
		for _, p := range zone.Periods {
			if p == period {
				return true
			}
		}
	}
	return false
}

// PeriodClock returns the wall-clock window of a period index, falling back
// to empty strings when no mapping is configured.
func (c Constraints) PeriodClock(period int) (string, string) {
	if period < 0 || period >= len(c.Periods) {
		return "", ""
	}
	window, ok := c.PeriodTimes[c.Periods[period]]
	if !ok {
		return "", ""
	}
	return window.Start, window.End
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

// parseClock converts "H:MM" / "HH:MM" into minutes since midnight.
func parseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour*60 + minute, nil
}
