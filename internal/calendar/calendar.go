// Package calendar holds the pure window and geometry arithmetic behind the
// meeting grid: week/month windows, navigation, and pixel positioning.
// No I/O, no state; everything here is a function of its arguments.
package calendar

import (
	"time"

	"meetcal/internal/civil"
)

// Mode selects the visible window shape.
type Mode string

const (
	ModeWeek  Mode = "week"
	ModeMonth Mode = "month"
)

// WeekDays is the length of a week window; MonthCells is the fixed 6x7 month
// grid size. A month window always spans 6 rows even when the month fits in
// 4 or 5, so the layout never jumps while navigating.
const (
	WeekDays   = 7
	MonthCells = 42
)

// StartOfWeek returns the Monday on or before d. Sunday counts as day 7 of
// the week, so a Sunday maps back six days to the preceding Monday.
func StartOfWeek(d civil.Date) civil.Date {
	wd := int(d.Weekday())
	if wd == 0 {
		wd = 7
	}
	return d.AddDays(-(wd - 1))
}

// WeekWindow returns the 7 consecutive civil dates of the Monday-start week
// containing d.
func WeekWindow(d civil.Date) []civil.Date {
	start := StartOfWeek(d)
	out := make([]civil.Date, WeekDays)
	for i := range out {
		out[i] = start.AddDays(i)
	}
	return out
}

// StartOfMonth returns the first day of the calendar month containing d.
func StartOfMonth(d civil.Date) civil.Date {
	return civil.Date{Year: d.Year, Month: d.Month, Day: 1}
}

// MonthWindow returns exactly 42 consecutive civil dates (6 Monday-start
// rows of 7) fully containing the calendar month of d, padded with leading
// and trailing days from the adjacent months.
func MonthWindow(d civil.Date) []civil.Date {
	first := StartOfMonth(d)

	// Monday -> 0 ... Sunday -> 6 leading pad days.
	padStart := int(first.Weekday()) - 1
	if first.Weekday() == time.Sunday {
		padStart = 6
	}

	start := first.AddDays(-padStart)
	out := make([]civil.Date, MonthCells)
	for i := range out {
		out[i] = start.AddDays(i)
	}
	return out
}

// Navigate moves the cursor by delta steps of the mode's unit: weeks move by
// 7 days, months by whole calendar months. Month steps clamp the day-of-month
// to the target month's last day (Jan 31 + 1 month = Feb 28/29), rather than
// letting normalization roll into the following month.
func Navigate(d civil.Date, mode Mode, delta int) civil.Date {
	switch mode {
	case ModeMonth:
		first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, delta, 0)
		day := d.Day
		if last := daysIn(first.Year(), first.Month()); day > last {
			day = last
		}
		return civil.Date{Year: first.Year(), Month: first.Month(), Day: day}
	default:
		return d.AddDays(WeekDays * delta)
	}
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// VerticalOffset converts a wall-clock time into a pixel offset from the top
// of the hour grid. Hours before startHour yield negative offsets; the grid
// window is display configuration, not a data filter, so such blocks render
// above the visible area instead of being clipped or moved.
//
// The same function positions meeting blocks and the live now-indicator, so
// the two can never disagree for the same wall-clock time.
func VerticalOffset(hour, minute, startHour int, cellHeightPx float64) float64 {
	return float64(hour-startHour)*cellHeightPx + float64(minute)/60.0*cellHeightPx
}

// BlockHeight converts a duration into the block's pixel height. Height is a
// function of duration alone; a long meeting may visually overflow its day
// cell, which is accepted.
func BlockHeight(durationMinutes int, cellHeightPx float64) float64 {
	return float64(durationMinutes) / 60.0 * cellHeightPx
}
