package calendar

import (
	"testing"
	"time"

	"meetcal/internal/civil"
)

func mustDate(t *testing.T, key string) civil.Date {
	t.Helper()
	d, err := civil.ParseDateKey(key)
	if err != nil {
		t.Fatalf("ParseDateKey(%s): %v", key, err)
	}
	return d
}

// Sweep a few months of dates: every start of week is a Monday and the input
// date lies inside its own week window.
func TestStartOfWeekAlwaysMonday(t *testing.T) {
	d := mustDate(t, "2024-11-01")
	for i := 0; i < 150; i++ {
		start := StartOfWeek(d)
		if start.Weekday() != time.Monday {
			t.Errorf("StartOfWeek(%s) = %s is a %s, want Monday", d.Key(), start.Key(), start.Weekday())
		}
		end := start.AddDays(6)
		if d.Before(start) || end.Before(d) {
			t.Errorf("%s outside its own week [%s, %s]", d.Key(), start.Key(), end.Key())
		}
		d = d.AddDays(1)
	}
}

func TestStartOfWeekSunday(t *testing.T) {
	// 2025-03-16 is a Sunday; its week starts the previous Monday, not the
	// same day.
	if got := StartOfWeek(mustDate(t, "2025-03-16")).Key(); got != "2025-03-10" {
		t.Errorf("StartOfWeek(Sunday): got %s, want 2025-03-10", got)
	}
}

func TestWeekWindowYearBoundary(t *testing.T) {
	window := WeekWindow(mustDate(t, "2024-12-30"))
	want := []string{
		"2024-12-30", "2024-12-31", "2025-01-01", "2025-01-02",
		"2025-01-03", "2025-01-04", "2025-01-05",
	}
	if len(window) != WeekDays {
		t.Fatalf("week window length: got %d, want %d", len(window), WeekDays)
	}
	for i, d := range window {
		if d.Key() != want[i] {
			t.Errorf("window[%d]: got %s, want %s", i, d.Key(), want[i])
		}
	}
}

func TestMonthWindowShape(t *testing.T) {
	for _, key := range []string{"2025-02-15", "2025-03-01", "2024-02-29", "2025-12-31", "2025-06-01"} {
		d := mustDate(t, key)
		window := MonthWindow(d)

		if len(window) != MonthCells {
			t.Fatalf("MonthWindow(%s) length: got %d, want %d", key, len(window), MonthCells)
		}
		if window[0].Weekday() != time.Monday {
			t.Errorf("MonthWindow(%s) starts on %s, want Monday", key, window[0].Weekday())
		}

		// Strictly increasing by one day per element.
		for i := 1; i < len(window); i++ {
			if window[i-1].AddDays(1) != window[i] {
				t.Errorf("MonthWindow(%s): gap between %s and %s", key, window[i-1].Key(), window[i].Key())
			}
		}

		// Every day of the target month is present.
		seen := make(map[string]bool, MonthCells)
		for _, wd := range window {
			if seen[wd.Key()] {
				t.Errorf("MonthWindow(%s): duplicate date %s", key, wd.Key())
			}
			seen[wd.Key()] = true
		}
		first := StartOfMonth(d)
		for day := first; day.Month == d.Month; day = day.AddDays(1) {
			if !seen[day.Key()] {
				t.Errorf("MonthWindow(%s): missing %s", key, day.Key())
			}
		}
	}
}

// Navigating month mode from Jan 31 forward lands in February and the window
// covers all 28 days of February 2025.
func TestMonthNavigationBoundary(t *testing.T) {
	cursor := Navigate(mustDate(t, "2025-01-31"), ModeMonth, 1)
	if cursor.Key() != "2025-02-28" {
		t.Fatalf("Navigate(2025-01-31, month, +1): got %s, want 2025-02-28 (clamped)", cursor.Key())
	}

	window := MonthWindow(cursor)
	seen := make(map[string]bool, MonthCells)
	for _, d := range window {
		seen[d.Key()] = true
	}
	for day := 1; day <= 28; day++ {
		d := civil.Date{Year: 2025, Month: time.February, Day: day}
		if !seen[d.Key()] {
			t.Errorf("February window missing %s", d.Key())
		}
	}
}

func TestNavigate(t *testing.T) {
	tests := []struct {
		start string
		mode  Mode
		delta int
		want  string
	}{
		{"2025-03-10", ModeWeek, 1, "2025-03-17"},
		{"2025-03-10", ModeWeek, -2, "2025-02-24"},
		{"2024-12-30", ModeWeek, 1, "2025-01-06"},
		{"2025-01-15", ModeMonth, 1, "2025-02-15"},
		{"2025-01-31", ModeMonth, 1, "2025-02-28"},
		{"2024-01-31", ModeMonth, 1, "2024-02-29"},
		{"2025-03-31", ModeMonth, -1, "2025-02-28"},
		{"2025-12-15", ModeMonth, 1, "2026-01-15"},
		{"2025-01-15", ModeMonth, -1, "2024-12-15"},
	}

	for _, tc := range tests {
		got := Navigate(mustDate(t, tc.start), tc.mode, tc.delta)
		if got.Key() != tc.want {
			t.Errorf("Navigate(%s, %s, %d): got %s, want %s", tc.start, tc.mode, tc.delta, got.Key(), tc.want)
		}
	}
}

func TestVerticalOffset(t *testing.T) {
	const cell = 60.0

	if got := VerticalOffset(7, 0, 7, cell); got != 0 {
		t.Errorf("offset at grid start: got %v, want 0", got)
	}
	if got := VerticalOffset(9, 30, 7, cell); got != 150 {
		t.Errorf("offset 09:30 from 07: got %v, want 150", got)
	}
	// Before the grid start hour the offset goes negative instead of
	// clamping.
	if got := VerticalOffset(6, 0, 7, cell); got != -60 {
		t.Errorf("offset before grid start: got %v, want -60", got)
	}

	// Strictly increasing in (hour, minute) lexicographic order.
	prev := VerticalOffset(0, 0, 7, cell)
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m += 5 {
			if h == 0 && m == 0 {
				continue
			}
			cur := VerticalOffset(h, m, 7, cell)
			if cur <= prev {
				t.Fatalf("offset not increasing at %02d:%02d", h, m)
			}
			prev = cur
		}
	}
}

func TestBlockHeight(t *testing.T) {
	const cell = 48.0
	if got := BlockHeight(60, cell); got != cell {
		t.Errorf("BlockHeight(60): got %v, want %v", got, cell)
	}
	if got := BlockHeight(30, cell); got != cell/2 {
		t.Errorf("BlockHeight(30): got %v, want %v", got, cell/2)
	}
	if got := BlockHeight(90, cell); got != cell*1.5 {
		t.Errorf("BlockHeight(90): got %v, want %v", got, cell*1.5)
	}
}
