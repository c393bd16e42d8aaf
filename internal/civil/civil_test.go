package civil

import (
	"testing"
	"time"
)

func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

func TestParseDateKey(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		want  Date
	}{
		{"2025-03-10", true, Date{2025, time.March, 10}},
		{"2024-02-29", true, Date{2024, time.February, 29}},
		{"2025-02-30", false, Date{}},
		{"2025-3-10", false, Date{}},
		{"2025-03-10T00", false, Date{}},
		{"20250310", false, Date{}},
		{"", false, Date{}},
	}

	for _, tc := range tests {
		got, err := ParseDateKey(tc.in)
		if tc.valid && err != nil {
			t.Errorf("ParseDateKey(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if !tc.valid {
			if err == nil {
				t.Errorf("ParseDateKey(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseDateKey(%q): got %v, want %v", tc.in, got, tc.want)
		}
		if got.Key() != tc.in {
			t.Errorf("ParseDateKey(%q).Key(): got %q, round trip broken", tc.in, got.Key())
		}
	}
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in           string
		valid        bool
		hour, minute int
	}{
		{"00:00", true, 0, 0},
		{"09:30", true, 9, 30},
		{"23:59", true, 23, 59},
		{"9:30", false, 0, 0},
		{"24:00", false, 0, 0},
		{"10:60", false, 0, 0},
		{"10-30", false, 0, 0},
		{"ab:cd", false, 0, 0},
		{"", false, 0, 0},
	}

	for _, tc := range tests {
		h, m, err := ParseClockTime(tc.in)
		if tc.valid && err != nil {
			t.Errorf("ParseClockTime(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if !tc.valid {
			if err == nil {
				t.Errorf("ParseClockTime(%q): expected error, got %d:%d", tc.in, h, m)
			}
			continue
		}
		if h != tc.hour || m != tc.minute {
			t.Errorf("ParseClockTime(%q): got %d:%d, want %d:%d", tc.in, h, m, tc.hour, tc.minute)
		}
	}
}

// Today must follow the app timezone, not the host's local zone. With the
// zone pinned at UTC+9 an evening UTC instant already belongs to the next
// civil day.
func TestTodayCrossesOffsetBoundary(t *testing.T) {
	zone := FixedZone("UTC+9", 9*3600)
	clock := fixedClock(time.Date(2025, time.March, 10, 16, 30, 0, 0, time.UTC))

	today := zone.Today(clock)
	if today.Key() != "2025-03-11" {
		t.Errorf("Today: got %s, want 2025-03-11", today.Key())
	}

	// Today and DateOf(now) must agree at any instant.
	if !zone.DateOf(clock.Now()).Equal(today) {
		t.Errorf("Today and DateOf(now) disagree: %v vs %v", zone.DateOf(clock.Now()), today)
	}

	hour, minute := zone.WallClock(clock)
	if hour != 1 || minute != 30 {
		t.Errorf("WallClock: got %02d:%02d, want 01:30", hour, minute)
	}
}

func TestToInstantMonotonic(t *testing.T) {
	zone := FixedZone("UTC+9", 9*3600)

	// Fixed date, increasing time.
	prev, err := zone.ToInstant("2025-05-01", "00:00")
	if err != nil {
		t.Fatalf("ToInstant: %v", err)
	}
	for _, tm := range []string{"00:01", "08:00", "08:30", "12:00", "23:59"} {
		cur, err := zone.ToInstant("2025-05-01", tm)
		if err != nil {
			t.Fatalf("ToInstant(%s): %v", tm, err)
		}
		if !cur.After(prev) {
			t.Errorf("ToInstant not increasing at %s", tm)
		}
		prev = cur
	}

	// Fixed time, increasing date (across a year boundary).
	prev, _ = zone.ToInstant("2024-12-30", "09:00")
	for _, d := range []string{"2024-12-31", "2025-01-01", "2025-02-01"} {
		cur, err := zone.ToInstant(d, "09:00")
		if err != nil {
			t.Fatalf("ToInstant(%s): %v", d, err)
		}
		if !cur.After(prev) {
			t.Errorf("ToInstant not increasing at %s", d)
		}
		prev = cur
	}
}

func TestToInstantRejectsMalformed(t *testing.T) {
	zone := FixedZone("UTC+9", 9*3600)

	if _, err := zone.ToInstant("2025-02-30", "09:00"); err == nil {
		t.Error("expected error for impossible date")
	}
	if _, err := zone.ToInstant("2025-02-10", "25:00"); err == nil {
		t.Error("expected error for impossible time")
	}
}

func TestAddDaysRollovers(t *testing.T) {
	tests := []struct {
		start string
		days  int
		want  string
	}{
		{"2025-01-31", 1, "2025-02-01"},
		{"2024-12-31", 1, "2025-01-01"},
		{"2025-01-01", -1, "2024-12-31"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2025-02-28", 1, "2025-03-01"},
	}
	for _, tc := range tests {
		d, err := ParseDateKey(tc.start)
		if err != nil {
			t.Fatalf("ParseDateKey(%s): %v", tc.start, err)
		}
		if got := d.AddDays(tc.days).Key(); got != tc.want {
			t.Errorf("%s + %dd: got %s, want %s", tc.start, tc.days, got, tc.want)
		}
	}
}
