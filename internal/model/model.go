package model

import "fmt"

// Meeting is a single scheduled meeting as stored by the dashboard.
//
// Date and StartTime are civil values in the configured application timezone
// ("YYYY-MM-DD" and "HH:mm"). They are interpreted only through
// internal/civil; the grid never re-derives them from an instant, and never
// uses the process-local timezone.
type Meeting struct {
	ID              string   `json:"id"`
	Date            string   `json:"date"`
	StartTime       string   `json:"start_time"`
	DurationMinutes int      `json:"duration_minutes"`
	Category        Category `json:"category"`

	// Descriptive payload; opaque to positioning logic.
	Title   string `json:"title"`
	Host    string `json:"host"`
	Agenda  string `json:"agenda,omitempty"`
	JoinURL string `json:"join_url,omitempty"`

	// ZoomID links a locally stored meeting to its Zoom counterpart,
	// if it was created or synced through the Zoom API.
	ZoomID int64 `json:"zoom_id,omitempty"`
}

// Category is the closed set of meeting kinds. It only drives presentation
// color, never layout.
type Category string

const (
	CategoryBoard    Category = "board"
	CategoryTraining Category = "training"
	CategorySocial   Category = "social"
	CategoryProject  Category = "project"
)

// ParseCategory maps a stored string onto the closed category set.
// Unknown values fall back to CategoryProject rather than failing, since
// category never affects core logic.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryBoard, CategoryTraining, CategorySocial, CategoryProject:
		return Category(s)
	default:
		return CategoryProject
	}
}

// Color returns the display color for a category. The switch is exhaustive
// over the closed set with one default arm for values that bypassed
// ParseCategory (e.g. hand-edited store files).
func (c Category) Color() string {
	switch c {
	case CategoryBoard:
		return "#c0392b"
	case CategoryTraining:
		return "#2980b9"
	case CategorySocial:
		return "#27ae60"
	case CategoryProject:
		return "#8e44ad"
	default:
		return "#7f8c8d"
	}
}

// Validate checks the fields the core depends on. Descriptive fields are
// not inspected.
func (m *Meeting) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("meeting: missing id")
	}
	if m.Date == "" {
		return fmt.Errorf("meeting %s: missing date", m.ID)
	}
	if m.StartTime == "" {
		return fmt.Errorf("meeting %s: missing start_time", m.ID)
	}
	if m.DurationMinutes <= 0 {
		return fmt.Errorf("meeting %s: duration must be positive, got %d", m.ID, m.DurationMinutes)
	}
	return nil
}

// Recording is one Zoom cloud recording, surfaced read-only in the UI.
type Recording struct {
	MeetingZoomID int64  `json:"meeting_zoom_id"`
	Topic         string `json:"topic"`
	StartTime     string `json:"start_time"`
	DownloadURL   string `json:"download_url"`
	PlayURL       string `json:"play_url"`
	DurationMin   int    `json:"duration_minutes"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}
