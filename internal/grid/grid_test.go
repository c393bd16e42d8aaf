package grid

import (
	"reflect"
	"testing"
	"time"

	"meetcal/internal/calendar"
	"meetcal/internal/civil"
	"meetcal/internal/model"
)

// Fixtures pin the app timezone to UTC+9 and "now" to an instant where the
// host's local zone cannot leak into the result.
func testZone() *civil.Zone {
	return civil.FixedZone("UTC+9", 9*3600)
}

func testClock(key, hhmm string) civil.Clock {
	zone := testZone()
	at, err := zone.ToInstant(key, hhmm)
	if err != nil {
		panic(err)
	}
	return civil.ClockFunc(func() time.Time { return at })
}

func mustDate(t *testing.T, key string) civil.Date {
	t.Helper()
	d, err := civil.ParseDateKey(key)
	if err != nil {
		t.Fatalf("ParseDateKey(%s): %v", key, err)
	}
	return d
}

func meeting(id, date, start string, dur int) model.Meeting {
	return model.Meeting{
		ID:              id,
		Date:            date,
		StartTime:       start,
		DurationMinutes: dur,
		Category:        model.CategoryProject,
		Title:           "m-" + id,
	}
}

func TestWeekBucketingAndPositioning(t *testing.T) {
	cfg := Config{StartHour: 0, EndHour: 24, CellHeightPx: 40, MonthCellCap: 3}
	r := NewRenderer(testZone(), testClock("2025-03-12", "10:00"), cfg)
	r.SetCursor(mustDate(t, "2025-03-12"))

	meetings := []model.Meeting{
		meeting("a", "2025-03-10", "09:30", 60),
		meeting("b", "2025-03-20", "09:30", 60), // outside the window
	}

	snap := r.Snapshot(meetings)
	if len(snap.Days) != calendar.WeekDays {
		t.Fatalf("day columns: got %d, want %d", len(snap.Days), calendar.WeekDays)
	}

	// The meeting lands in exactly one column, at top = 1.5 * cellHeight.
	found := 0
	for _, day := range snap.Days {
		for _, b := range day.Blocks {
			if b.Meeting.ID != "a" {
				t.Errorf("unexpected meeting %s in window", b.Meeting.ID)
				continue
			}
			found++
			if day.Key != "2025-03-10" {
				t.Errorf("meeting bucketed into %s, want 2025-03-10", day.Key)
			}
			if b.Top != 1.5*cfg.CellHeightPx {
				t.Errorf("top: got %v, want %v", b.Top, 1.5*cfg.CellHeightPx)
			}
			if b.Height != cfg.CellHeightPx {
				t.Errorf("height: got %v, want %v", b.Height, cfg.CellHeightPx)
			}
		}
	}
	if found != 1 {
		t.Errorf("meeting appeared in %d columns, want exactly 1", found)
	}
}

func TestSnapshotIdempotent(t *testing.T) {
	r := NewRenderer(testZone(), testClock("2025-03-12", "10:00"), DefaultConfig())
	r.SetCursor(mustDate(t, "2025-03-12"))

	meetings := []model.Meeting{
		meeting("a", "2025-03-10", "09:30", 60),
		meeting("b", "2025-03-11", "14:00", 30),
	}

	first := r.Snapshot(meetings)
	second := r.Snapshot(meetings)
	if !reflect.DeepEqual(first, second) {
		t.Error("two snapshots with identical inputs differ")
	}
}

func TestInvalidMeetingsSkipped(t *testing.T) {
	r := NewRenderer(testZone(), testClock("2025-03-12", "10:00"), DefaultConfig())
	r.SetCursor(mustDate(t, "2025-03-12"))

	meetings := []model.Meeting{
		meeting("bad-time", "2025-03-10", "9h30", 60),
		meeting("bad-duration", "2025-03-10", "09:30", 0),
		meeting("ok", "2025-03-10", "11:00", 45),
	}

	snap := r.Snapshot(meetings)
	total := 0
	for _, day := range snap.Days {
		for _, b := range day.Blocks {
			total++
			if b.Meeting.ID != "ok" {
				t.Errorf("invalid meeting %s was rendered", b.Meeting.ID)
			}
		}
	}
	if total != 1 {
		t.Errorf("rendered blocks: got %d, want 1", total)
	}
}

func TestIsTodayAndNowMarker(t *testing.T) {
	cfg := Config{StartHour: 7, EndHour: 22, CellHeightPx: 60, MonthCellCap: 3}
	clock := testClock("2025-03-12", "10:30")
	r := NewRenderer(testZone(), clock, cfg)

	snap := r.Snapshot(nil)

	todays := 0
	for _, day := range snap.Days {
		if day.IsToday {
			todays++
			if day.Key != "2025-03-12" {
				t.Errorf("IsToday on %s, want 2025-03-12", day.Key)
			}
		}
	}
	if todays != 1 {
		t.Fatalf("IsToday columns: got %d, want 1", todays)
	}

	if snap.Now == nil {
		t.Fatal("now marker missing although today is visible")
	}
	if snap.Now.DayKey != "2025-03-12" {
		t.Errorf("now marker on %s, want 2025-03-12", snap.Now.DayKey)
	}
	// 10:30 with start hour 7: 3.5 cells down.
	if want := 3.5 * cfg.CellHeightPx; snap.Now.Offset != want {
		t.Errorf("now marker offset: got %v, want %v", snap.Now.Offset, want)
	}

	// A window far from today carries no marker.
	r.SetCursor(mustDate(t, "2025-06-01"))
	if snap := r.Snapshot(nil); snap.Now != nil {
		t.Error("now marker present in a window that does not contain today")
	}
}

func TestNowMarkerWeekModeOnly(t *testing.T) {
	r := NewRenderer(testZone(), testClock("2025-03-12", "10:30"), DefaultConfig())

	// Month mode has no time axis, so even with today in the window the
	// snapshot carries no marker.
	r.SwitchMode(calendar.ModeMonth)
	snap := r.Snapshot(nil)
	today := false
	for _, cell := range snap.Cells {
		if cell.IsToday {
			today = true
		}
	}
	if !today {
		t.Fatal("month window does not contain today")
	}
	if snap.Now != nil {
		t.Error("now marker present in a month snapshot")
	}

	r.SwitchMode(calendar.ModeWeek)
	if snap := r.Snapshot(nil); snap.Now == nil {
		t.Error("now marker missing after switching back to week mode")
	}
}

func TestMonthCellCapAndPadding(t *testing.T) {
	cfg := Config{StartHour: 7, EndHour: 22, CellHeightPx: 60, MonthCellCap: 3}
	r := NewRenderer(testZone(), testClock("2025-02-10", "10:00"), cfg)
	r.SwitchMode(calendar.ModeMonth)
	r.SetCursor(mustDate(t, "2025-02-10"))

	meetings := []model.Meeting{
		meeting("1", "2025-02-10", "08:00", 30),
		meeting("2", "2025-02-10", "09:00", 30),
		meeting("3", "2025-02-10", "10:00", 30),
		meeting("4", "2025-02-10", "11:00", 30),
		meeting("5", "2025-02-10", "12:00", 30),
	}

	snap := r.Snapshot(meetings)
	if len(snap.Cells) != calendar.MonthCells {
		t.Fatalf("month cells: got %d, want %d", len(snap.Cells), calendar.MonthCells)
	}

	for _, cell := range snap.Cells {
		if cell.Key != "2025-02-10" {
			if len(cell.Meetings) != 0 {
				t.Errorf("cell %s unexpectedly has meetings", cell.Key)
			}
			continue
		}
		if len(cell.Meetings) != 3 {
			t.Errorf("capped meetings: got %d, want 3", len(cell.Meetings))
		}
		// First three by collection order are kept.
		for i, want := range []string{"1", "2", "3"} {
			if cell.Meetings[i].ID != want {
				t.Errorf("cell meeting %d: got %s, want %s", i, cell.Meetings[i].ID, want)
			}
		}
		if cell.Overflow != 2 {
			t.Errorf("overflow: got %d, want 2", cell.Overflow)
		}
	}

	// Leading/trailing pad cells come from adjacent months.
	inMonth := 0
	for _, cell := range snap.Cells {
		if cell.InMonth {
			inMonth++
		}
	}
	if inMonth != 28 {
		t.Errorf("in-month cells for February 2025: got %d, want 28", inMonth)
	}
}

func TestStateTransitions(t *testing.T) {
	r := NewRenderer(testZone(), testClock("2025-03-12", "10:00"), DefaultConfig())

	if r.Mode() != calendar.ModeWeek {
		t.Fatalf("initial mode: got %s, want week", r.Mode())
	}
	if r.Cursor().Key() != "2025-03-12" {
		t.Fatalf("initial cursor: got %s, want today", r.Cursor().Key())
	}

	r.Navigate(1)
	if r.Cursor().Key() != "2025-03-19" {
		t.Errorf("after week navigate: got %s, want 2025-03-19", r.Cursor().Key())
	}

	// Switching mode keeps the cursor.
	r.SwitchMode(calendar.ModeMonth)
	if r.Cursor().Key() != "2025-03-19" {
		t.Errorf("cursor changed on mode switch: %s", r.Cursor().Key())
	}

	r.Navigate(-1)
	if r.Cursor().Key() != "2025-02-19" {
		t.Errorf("after month navigate: got %s, want 2025-02-19", r.Cursor().Key())
	}

	r.GoToToday()
	if r.Cursor().Key() != "2025-03-12" {
		t.Errorf("after GoToToday: got %s, want 2025-03-12", r.Cursor().Key())
	}

	// Unknown modes are ignored.
	r.SwitchMode(calendar.Mode("year"))
	if r.Mode() != calendar.ModeMonth {
		t.Errorf("unknown mode accepted: %s", r.Mode())
	}
}

func TestSelection(t *testing.T) {
	r := NewRenderer(testZone(), testClock("2025-03-12", "10:00"), DefaultConfig())

	if _, ok := r.Selected(); ok {
		t.Error("fresh renderer has a selection")
	}

	m := meeting("a", "2025-03-10", "09:30", 60)
	r.Select(m)
	got, ok := r.Selected()
	if !ok || got.ID != "a" {
		t.Errorf("Selected: got %v %v, want meeting a", got.ID, ok)
	}

	r.ClearSelection()
	if _, ok := r.Selected(); ok {
		t.Error("selection survived ClearSelection")
	}
}
