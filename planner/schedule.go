package planner

import (
	"fmt"
	"time"
)

// Schedule is a work calendar that determines productive hours per day.
type Schedule string

const (
	Schedule540  Schedule = "5/40"  // 8 hours each working day
	Schedule410  Schedule = "4/10"  // 10 hours Monday-Thursday, Fridays off
	Schedule980A Schedule = "9/80A" // first Friday of the pay period off
	Schedule980B Schedule = "9/80B" // second Friday of the pay period off
)

// Schedules lists the supported work calendars.
var Schedules = []Schedule{Schedule540, Schedule410, Schedule980A, Schedule980B}

// ParseSchedule validates a schedule name.
func ParseSchedule(s string) (Schedule, error) {
	for _, known := range Schedules {
		if string(known) == s {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown schedule %q", s)
}

var (
	eightHours = NewDecimalFromInt(8)
	nineHours  = NewDecimalFromInt(9)
	tenHours   = NewDecimalFromInt(10)
)

// payPeriodAnchor is a Monday that starts a 9/80 pay period. Pay periods
// repeat every 14 days from it in both directions.
var payPeriodAnchor = NewDate(2024, time.January, 1)

// HoursOn returns the productive hours the schedule assigns to d.
// Pay periods for the 9/80 schedules are two weeks long, counted from
// payPeriodAnchor.
func (s Schedule) HoursOn(d Date) Decimal {
	if d.IsWeekend() {
		return Zero
	}
	wd := d.Weekday()
	switch s {
	case Schedule410:
		if wd == time.Friday {
			return Zero
		}
		return tenHours
	case Schedule980A, Schedule980B:
		if wd != time.Friday {
			return nineHours
		}
		if (s == Schedule980A) == inFirstPayWeek(d) {
			return Zero
		}
		return eightHours
	default:
		return eightHours
	}
}

// inFirstPayWeek reports whether d falls in the first week of its pay period.
func inFirstPayWeek(d Date) bool {
	monday := d.AddDays(-((int(d.Weekday()) + 6) % 7))
	weeks := DaysBetween(payPeriodAnchor, monday) / 7
	return weeks%2 == 0
}
