package valuation

import (
	"fmt"
	"strings"
	"time"
)

// Bracket is one step of a depreciation schedule: every age up to and
// including MaxAge maps to Rate percent. A negative MaxAge marks the open
// top bracket.
type Bracket struct {
	MaxAge int
	Rate   int
}

// Schedule is a step function from vehicle age in whole years to a
// depreciation percentage. Brackets are ordered by ascending MaxAge and the
// last bracket is open-ended, so every non-negative age has a rate.
type Schedule struct {
	Name     string
	Brackets []Bracket
}

// StandardSchedule is the primary depreciation table.
//
//	0-5 years   0%
//	6-10 years  10%
//	11-15 years 20%
//	16+ years   30%
var StandardSchedule = Schedule{
	Name: "standard",
	Brackets: []Bracket{
		{MaxAge: 5, Rate: 0},
		{MaxAge: 10, Rate: 10},
		{MaxAge: 15, Rate: 20},
		{MaxAge: -1, Rate: 30},
	},
}

// CoarseSchedule is the per-year table used by older reports. It saturates
// at 30% from the fifth year on.
var CoarseSchedule = Schedule{
	Name: "coarse",
	Brackets: []Bracket{
		{MaxAge: 0, Rate: 0},
		{MaxAge: 1, Rate: 10},
		{MaxAge: 2, Rate: 15},
		{MaxAge: 3, Rate: 20},
		{MaxAge: 4, Rate: 25},
		{MaxAge: -1, Rate: 30},
	},
}

// Rate returns the depreciation percentage for the given age. Negative ages
// are treated as zero and ages past the last closed bracket saturate.
func (s Schedule) Rate(age int) int {
	if age < 0 {
		age = 0
	}
	last := 0
	for _, b := range s.Brackets {
		if b.MaxAge < 0 || age <= b.MaxAge {
			return b.Rate
		}
		last = b.Rate
	}
	return last
}

// ScheduleByName resolves a configured schedule name.
func ScheduleByName(name string) (Schedule, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StandardSchedule.Name:
		return StandardSchedule, nil
	case CoarseSchedule.Name:
		return CoarseSchedule, nil
	}
	return Schedule{}, fmt.Errorf("unknown depreciation schedule %q", name)
}

// AgeInYears returns the number of full years between the first registration
// date and asOf. A year only counts once its anniversary has been reached.
// A zero registration date or one after asOf yields 0. Both dates are read
// as UTC calendar days, the form registration dates are stored in.
func AgeInYears(firstRegistration, asOf time.Time) int {
	if firstRegistration.IsZero() || asOf.Before(firstRegistration) {
		return 0
	}
	fy, fm, fd := firstRegistration.UTC().Date()
	ay, am, ad := asOf.UTC().Date()

	age := ay - fy
	if am < fm || (am == fm && ad < fd) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
