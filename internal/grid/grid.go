// Package grid turns the stored meeting collection into the dashboard's
// visual structure: a week grid of absolutely positioned blocks, a month grid
// of capped day cells, and a flat chronological list. It holds only view
// state (mode, cursor, selection); meetings are an immutable snapshot
// supplied per render.
package grid

import (
	"meetcal/internal/calendar"
	"meetcal/internal/civil"
	appLog "meetcal/internal/log"
	"meetcal/internal/model"
)

// Config carries the display constants the positioning math and the rendered
// hour labels must agree on.
type Config struct {
	// StartHour / EndHour bound the labeled hour rows of the week grid.
	StartHour int
	EndHour   int
	// CellHeightPx is the pixel height of one hour row.
	CellHeightPx float64
	// MonthCellCap limits how many meetings a month-mode day cell shows
	// before collapsing into an overflow count.
	MonthCellCap int
}

// DefaultConfig mirrors the config package defaults; kept here so the
// package is usable standalone in tests.
func DefaultConfig() Config {
	return Config{StartHour: 7, EndHour: 22, CellHeightPx: 60, MonthCellCap: 3}
}

// Block is one positioned meeting rectangle inside a day column.
type Block struct {
	Meeting model.Meeting
	Top     float64
	Height  float64
}

// DayColumn is one week-mode day with its positioned blocks, in collection
// order. Overlapping blocks stack visually; there is no collision layout.
type DayColumn struct {
	Date    civil.Date
	Key     string
	IsToday bool
	Blocks  []Block
}

// MonthCell is one month-mode day. Meetings beyond the display cap are
// dropped from Meetings and counted in Overflow; month mode has no time
// axis, so no positions are computed for them.
type MonthCell struct {
	Date     civil.Date
	Key      string
	IsToday  bool
	InMonth  bool
	Meetings []model.Meeting
	Overflow int
}

// NowMarker is the live time indicator. It exists only in week mode when
// today falls inside the current window, and only that column draws it;
// month mode has no time axis to place it on.
type NowMarker struct {
	DayKey string
	Offset float64
}

// Snapshot is one fully computed render of the grid. Recomputed from scratch
// on every request; never cached across a midnight rollover.
type Snapshot struct {
	Mode   calendar.Mode
	Cursor civil.Date
	Days   []DayColumn // week mode
	Cells  []MonthCell // month mode
	Now    *NowMarker
}

// Renderer is the view state machine: {mode} x {cursor} x {selection}.
// It owns no meeting data and performs no I/O.
type Renderer struct {
	zone  *civil.Zone
	clock civil.Clock
	cfg   Config

	mode     calendar.Mode
	cursor   civil.Date
	selected *model.Meeting
}

// NewRenderer starts in week mode with the cursor on today.
func NewRenderer(zone *civil.Zone, clock civil.Clock, cfg Config) *Renderer {
	if cfg.MonthCellCap <= 0 {
		cfg.MonthCellCap = 3
	}
	return &Renderer{
		zone:   zone,
		clock:  clock,
		cfg:    cfg,
		mode:   calendar.ModeWeek,
		cursor: zone.Today(clock),
	}
}

func (r *Renderer) Mode() calendar.Mode { return r.mode }
func (r *Renderer) Cursor() civil.Date  { return r.cursor }

// Navigate moves the cursor by delta window steps. The meeting collection is
// untouched; the next Snapshot call reflects the new window.
func (r *Renderer) Navigate(delta int) {
	r.cursor = calendar.Navigate(r.cursor, r.mode, delta)
}

// GoToToday resets the cursor to today's civil date.
func (r *Renderer) GoToToday() {
	r.cursor = r.zone.Today(r.clock)
}

// SetCursor jumps to an arbitrary date (deep links, query params).
func (r *Renderer) SetCursor(d civil.Date) {
	r.cursor = d
}

// SwitchMode changes the view mode and keeps the cursor, so switching from
// week to month stays oriented near the same date.
func (r *Renderer) SwitchMode(m calendar.Mode) {
	if m == calendar.ModeWeek || m == calendar.ModeMonth {
		r.mode = m
	}
}

// Select marks a meeting for the detail modal; delete/edit callbacks are
// dispatched against the selected meeting's ID.
func (r *Renderer) Select(m model.Meeting) {
	cp := m
	r.selected = &cp
}

func (r *Renderer) ClearSelection() {
	r.selected = nil
}

// Selected returns the meeting under inspection, if any.
func (r *Renderer) Selected() (model.Meeting, bool) {
	if r.selected == nil {
		return model.Meeting{}, false
	}
	return *r.selected, true
}

// Snapshot computes the current window's grid from an immutable meeting
// snapshot. Two calls with the same collection, cursor, mode and pinned
// clock produce identical output.
func (r *Renderer) Snapshot(meetings []model.Meeting) Snapshot {
	today := r.zone.Today(r.clock).Key()

	snap := Snapshot{Mode: r.mode, Cursor: r.cursor}
	switch r.mode {
	case calendar.ModeMonth:
		snap.Cells = r.monthCells(meetings, today)
	default:
		snap.Days = r.weekColumns(meetings, today)
	}

	snap.Now = r.nowMarker(today, &snap)
	return snap
}

// weekColumns buckets meetings into the 7-day window by exact date-key
// equality and positions each block. Stored dates are already app-timezone
// civil form; no re-derivation happens here.
func (r *Renderer) weekColumns(meetings []model.Meeting, today string) []DayColumn {
	window := calendar.WeekWindow(r.cursor)
	cols := make([]DayColumn, 0, len(window))

	for _, d := range window {
		key := d.Key()
		col := DayColumn{Date: d, Key: key, IsToday: key == today}

		for _, m := range meetings {
			if m.Date != key {
				continue
			}
			hour, minute, err := civil.ParseClockTime(m.StartTime)
			if err != nil || m.DurationMinutes <= 0 {
				// Skip instead of rendering at a garbage offset.
				appLog.Warn("grid: skipping meeting with unusable time fields",
					"id", m.ID, "date", m.Date, "start_time", m.StartTime, "duration_minutes", m.DurationMinutes)
				continue
			}
			col.Blocks = append(col.Blocks, Block{
				Meeting: m,
				Top:     calendar.VerticalOffset(hour, minute, r.cfg.StartHour, r.cfg.CellHeightPx),
				Height:  calendar.BlockHeight(m.DurationMinutes, r.cfg.CellHeightPx),
			})
		}
		cols = append(cols, col)
	}
	return cols
}

// monthCells buckets meetings into the 42-day window, truncating each cell
// at the display cap in collection order.
func (r *Renderer) monthCells(meetings []model.Meeting, today string) []MonthCell {
	window := calendar.MonthWindow(r.cursor)
	cells := make([]MonthCell, 0, len(window))

	for _, d := range window {
		key := d.Key()
		cell := MonthCell{
			Date:    d,
			Key:     key,
			IsToday: key == today,
			InMonth: d.Month == r.cursor.Month && d.Year == r.cursor.Year,
		}

		for _, m := range meetings {
			if m.Date != key {
				continue
			}
			if len(cell.Meetings) < r.cfg.MonthCellCap {
				cell.Meetings = append(cell.Meetings, m)
			} else {
				cell.Overflow++
			}
		}
		cells = append(cells, cell)
	}
	return cells
}

// nowMarker places the live indicator on today's week column, if visible.
// The offset is week-grid geometry, so month snapshots never carry one.
func (r *Renderer) nowMarker(today string, snap *Snapshot) *NowMarker {
	visible := false
	for _, c := range snap.Days {
		if c.Key == today {
			visible = true
		}
	}
	if !visible {
		return nil
	}

	hour, minute := r.zone.WallClock(r.clock)
	return &NowMarker{
		DayKey: today,
		Offset: calendar.VerticalOffset(hour, minute, r.cfg.StartHour, r.cfg.CellHeightPx),
	}
}

// HourLabels returns the labeled hours of the week grid, derived from the
// same StartHour/EndHour the positioning uses.
func (r *Renderer) HourLabels() []int {
	if r.cfg.EndHour <= r.cfg.StartHour {
		return nil
	}
	out := make([]int, 0, r.cfg.EndHour-r.cfg.StartHour)
	for h := r.cfg.StartHour; h < r.cfg.EndHour; h++ {
		out = append(out, h)
	}
	return out
}
