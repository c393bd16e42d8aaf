// Package civil anchors all date/time interpretation to one fixed IANA
// timezone (the "app timezone"). Meetings store civil values ("YYYY-MM-DD",
// "HH:mm") that are only meaningful through this package; nothing else in the
// codebase may consult the process-local timezone for calendar placement.
package civil

import (
	"fmt"
	"time"
)

// DateKeyLayout is the canonical string form of a civil date. Date keys are
// compared by exact string equality when bucketing meetings into day columns.
const DateKeyLayout = "2006-01-02"

// Date is a civil calendar date: no time-of-day, no timezone, until combined
// with a Zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Key formats the date as its canonical YYYY-MM-DD key.
func (d Date) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// AddDays returns the civil date n days after d (n may be negative).
// Arithmetic goes through time.Date normalization, so month and year
// rollovers are handled by the standard library.
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Weekday returns the weekday of the civil date.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// Equal reports whether two civil dates denote the same day.
func (d Date) Equal(o Date) bool {
	return d.Year == o.Year && d.Month == o.Month && d.Day == o.Day
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// ParseDateKey parses a strict YYYY-MM-DD date key. Out-of-range days
// (e.g. "2025-02-30") and loosely formatted input (e.g. "2025-3-1") are
// rejected rather than normalized onto a different day.
func ParseDateKey(s string) (Date, error) {
	if len(s) != len(DateKeyLayout) {
		return Date{}, fmt.Errorf("civil: date key %q: want form YYYY-MM-DD", s)
	}
	t, err := time.Parse(DateKeyLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("civil: date key %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// ParseClockTime parses a strict HH:mm wall-clock time, hour 00-23 and
// minute 00-59. Single-digit hours are rejected; callers that accept looser
// input must normalize before storing.
func ParseClockTime(s string) (hour, minute int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("civil: clock time %q: want form HH:mm", s)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, 0, fmt.Errorf("civil: clock time %q: want form HH:mm", s)
		}
	}
	hour = int(s[0]-'0')*10 + int(s[1]-'0')
	minute = int(s[3]-'0')*10 + int(s[4]-'0')
	if hour > 23 {
		return 0, 0, fmt.Errorf("civil: clock time %q: hour out of range", s)
	}
	if minute > 59 {
		return 0, 0, fmt.Errorf("civil: clock time %q: minute out of range", s)
	}
	return hour, minute, nil
}

// Clock supplies the current instant. Production code uses SystemClock;
// tests pin "now" with a ClockFunc so today/now-indicator behavior is
// deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Zone is the fixed app timezone. All civil<->instant conversion happens
// through a Zone value; there is deliberately no method that uses time.Local.
type Zone struct {
	loc *time.Location
}

// LoadZone resolves an IANA timezone name into a Zone.
func LoadZone(name string) (*Zone, error) {
	if name == "" {
		return nil, fmt.Errorf("civil: empty timezone name")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("civil: load timezone %q: %w", name, err)
	}
	return &Zone{loc: loc}, nil
}

// FixedZone builds a Zone at a constant UTC offset. Used by tests to simulate
// an app timezone different from the host's local zone.
func FixedZone(name string, offsetSeconds int) *Zone {
	return &Zone{loc: time.FixedZone(name, offsetSeconds)}
}

// Name returns the zone's identifier.
func (z *Zone) Name() string { return z.loc.String() }

// DateOf converts an instant into the civil date it falls on in the app
// timezone.
func (z *Zone) DateOf(t time.Time) Date {
	lt := t.In(z.loc)
	return Date{Year: lt.Year(), Month: lt.Month(), Day: lt.Day()}
}

// Today returns the current civil date in the app timezone.
func (z *Zone) Today(c Clock) Date {
	return z.DateOf(c.Now())
}

// WallClock returns the current hour [0,23] and minute [0,59] in the app
// timezone.
func (z *Zone) WallClock(c Clock) (hour, minute int) {
	return z.WallClockOf(c.Now())
}

// WallClockOf converts an instant into its hour and minute in the app
// timezone.
func (z *Zone) WallClockOf(t time.Time) (hour, minute int) {
	lt := t.In(z.loc)
	return lt.Hour(), lt.Minute()
}

// Instant combines a civil date and wall-clock time under the app timezone
// into a comparable instant.
func (z *Zone) Instant(d Date, hour, minute int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, z.loc)
}

// ToInstant parses a stored (date key, clock time) pair and combines them
// into an instant. For a fixed date, later clock times yield later instants;
// for a fixed clock time, later dates yield later instants. Malformed input
// is an error, never a silently shifted day.
func (z *Zone) ToInstant(dateKey, clockTime string) (time.Time, error) {
	d, err := ParseDateKey(dateKey)
	if err != nil {
		return time.Time{}, err
	}
	h, m, err := ParseClockTime(clockTime)
	if err != nil {
		return time.Time{}, err
	}
	return z.Instant(d, h, m), nil
}
