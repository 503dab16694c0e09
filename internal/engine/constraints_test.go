package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/skolara/timetable-api/pkg/errors"
)

func TestDefaultConstraintsValidate(t *testing.T) {
	require.NoError(t, DefaultConstraints().Validate())
}

func TestConstraintsValidateRejectsBadInputs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Constraints)
	}{
		{"no working days", func(c *Constraints) { c.WorkingDays = nil }},
		{"day out of range", func(c *Constraints) { c.WorkingDays = []int{1, 7} }},
		{"no periods", func(c *Constraints) { c.Periods = nil }},
		{"bad period window", func(c *Constraints) { c.PeriodTimes["P1"] = PeriodWindow{Start: "9:00", End: "8:00"} }},
		{"unparseable clock", func(c *Constraints) { c.PeriodTimes["P1"] = PeriodWindow{Start: "morning", End: "10:00"} }},
		{"section band inverted", func(c *Constraints) {
			c.MinDailyPeriodsPerSection = 5
			c.MaxDailyPeriodsPerSection = 3
		}},
		{"lunch zone out of range", func(c *Constraints) { c.LunchZones = []LunchZone{{Periods: []int{99}, Mandatory: true}} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			constraints := DefaultConstraints()
			tc.mutate(&constraints)
			err := constraints.Validate()
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrInvalidConstraints.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestLunchZoneDepartmentScoping(t *testing.T) {
	constraints := DefaultConstraints()
	constraints.LunchZones = []LunchZone{
		{Periods: []int{4}, Mandatory: true, Departments: []string{"CS"}},
		{Periods: []int{3}, Mandatory: false},
	}

	assert.True(t, constraints.MandatoryLunch(4, "cs"), "department match is case-insensitive")
	assert.False(t, constraints.MandatoryLunch(4, "MATH"))
	assert.True(t, constraints.FlexibleLunch(3, "MATH"))
	assert.False(t, constraints.FlexibleLunch(4, "CS"))
}

func TestPeriodClock(t *testing.T) {
	constraints := DefaultConstraints()

	start, end := constraints.PeriodClock(0)
	assert.Equal(t, "09:00", start)
	assert.Equal(t, "09:50", end)

	start, end = constraints.PeriodClock(42)
	assert.Empty(t, start)
	assert.Empty(t, end)

	constraints.PeriodTimes = nil
	start, end = constraints.PeriodClock(0)
	assert.Empty(t, start)
	assert.Empty(t, end)
}

func TestParseClock(t *testing.T) {
	minute, err := parseClock("09:05")
	require.NoError(t, err)
	assert.Equal(t, 545, minute)

	minute, err = parseClock("0:00")
	require.NoError(t, err)
	assert.Equal(t, 0, minute)

	_, err = parseClock("24:00")
	assert.Error(t, err)
	_, err = parseClock("noon")
	assert.Error(t, err)
}
