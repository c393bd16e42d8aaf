package web

import (
	"fmt"
	"html/template"
	"net/http"

	"meetcal/internal/calendar"
	"meetcal/internal/grid"
	appLog "meetcal/internal/log"
)

// calendarPage is the template model for /calendar. The page is plain
// server-rendered HTML so both browsers and the headless-Chromium capture
// pipeline consume the same markup; data-ready="true" is the capture signal.
type calendarPage struct {
	Mode         string
	Cursor       string
	Timezone     string
	HourLabels   []int
	CellHeight   float64
	ColumnHeight float64
	Days         []pageDay
	Weeks        [][]pageCell
	Now          *pageNow
}

type pageDay struct {
	Key     string
	Label   string
	IsToday bool
	Blocks  []pageBlock
}

type pageBlock struct {
	Title  string
	Time   string
	Top    float64
	Height float64
	Color  string
}

type pageCell struct {
	Day      int
	Key      string
	IsToday  bool
	InMonth  bool
	Titles   []pageCellEntry
	Overflow int
}

type pageCellEntry struct {
	Title string
	Color string
}

type pageNow struct {
	DayKey string
	Offset float64
}

func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	list, err := s.meetings(r)
	if err != nil {
		appLog.Error("calendar page: list failed", err)
		http.Error(w, "failed to list meetings", http.StatusInternalServerError)
		return
	}

	snap, labels, err := s.snapshotForRequest(r, list)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page := s.buildCalendarPage(snap, labels)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := calendarTmpl.Execute(w, page); err != nil {
		appLog.Error("calendar page: template execute failed", err)
	}
}

func (s *Server) buildCalendarPage(snap grid.Snapshot, labels []int) calendarPage {
	page := calendarPage{
		Mode:       string(snap.Mode),
		Cursor:     snap.Cursor.Key(),
		Timezone:   s.zone.Name(),
		HourLabels: labels,
		CellHeight: s.cfg.Grid.CellHeightPx,
	}
	page.ColumnHeight = float64(len(labels)) * s.cfg.Grid.CellHeightPx

	for _, day := range snap.Days {
		pd := pageDay{
			Key:     day.Key,
			Label:   fmt.Sprintf("%s %d", day.Date.Weekday().String()[:3], day.Date.Day),
			IsToday: day.IsToday,
		}
		for _, b := range day.Blocks {
			pd.Blocks = append(pd.Blocks, pageBlock{
				Title:  b.Meeting.Title,
				Time:   b.Meeting.StartTime,
				Top:    b.Top,
				Height: b.Height,
				Color:  b.Meeting.Category.Color(),
			})
		}
		page.Days = append(page.Days, pd)
	}

	// Month cells arrive as a flat 42-day sequence; fold into 6 rows of 7.
	if snap.Mode == calendar.ModeMonth {
		for row := 0; row*7 < len(snap.Cells); row++ {
			week := make([]pageCell, 0, 7)
			for _, c := range snap.Cells[row*7 : row*7+7] {
				pc := pageCell{
					Day:      c.Date.Day,
					Key:      c.Key,
					IsToday:  c.IsToday,
					InMonth:  c.InMonth,
					Overflow: c.Overflow,
				}
				for _, m := range c.Meetings {
					pc.Titles = append(pc.Titles, pageCellEntry{Title: m.Title, Color: m.Category.Color()})
				}
				week = append(week, pc)
			}
			page.Weeks = append(page.Weeks, week)
		}
	}

	if snap.Now != nil {
		page.Now = &pageNow{DayKey: snap.Now.DayKey, Offset: snap.Now.Offset}
	}
	return page
}

var calendarTmpl = template.Must(template.New("calendar").Funcs(template.FuncMap{
	"mul": func(a int, b float64) float64 { return float64(a) * b },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>meetcal — {{.Cursor}}</title>
<style>
  body { font-family: sans-serif; margin: 16px; color: #222; }
  header { display: flex; justify-content: space-between; margin-bottom: 12px; }
  .grid { display: flex; }
  .hours { width: 48px; }
  .hours div { height: {{.CellHeight}}px; font-size: 11px; color: #888; text-align: right; padding-right: 6px; box-sizing: border-box; }
  .day { flex: 1; border-left: 1px solid #ddd; position: relative; height: {{.ColumnHeight}}px; overflow: hidden; }
  .day.today { background: #fdf6e3; }
  .day h3 { position: absolute; top: -28px; margin: 0; font-size: 13px; font-weight: normal; }
  .cols { display: flex; flex: 1; padding-top: 28px; }
  .block { position: absolute; left: 2px; right: 2px; border-radius: 3px; color: #fff; font-size: 11px; padding: 2px 4px; box-sizing: border-box; box-shadow: 0 1px 2px rgba(0,0,0,.3); overflow: hidden; }
  .hourline { position: absolute; left: 0; right: 0; border-top: 1px solid #eee; }
  .nowline { position: absolute; left: 0; right: 0; border-top: 2px solid #e74c3c; }
  table.month { border-collapse: collapse; width: 100%; }
  table.month td { border: 1px solid #ddd; vertical-align: top; width: 14%; height: 96px; padding: 4px; font-size: 12px; }
  td.outside { color: #bbb; background: #fafafa; }
  td.today { background: #fdf6e3; }
  .entry { border-radius: 2px; color: #fff; padding: 1px 3px; margin-top: 2px; font-size: 11px; overflow: hidden; white-space: nowrap; }
  .more { color: #888; font-size: 11px; margin-top: 2px; }
</style>
</head>
<body data-ready="true">
<header>
  <strong>{{.Cursor}} ({{.Mode}})</strong>
  <span>{{.Timezone}}</span>
</header>
{{if .Days}}
<div class="grid">
  <div class="hours">
    <div style="height:28px"></div>
    {{range .HourLabels}}<div>{{printf "%02d:00" .}}</div>{{end}}
  </div>
  {{range .Days}}
  <div class="day{{if .IsToday}} today{{end}}">
    <h3>{{.Label}}</h3>
    {{range $i, $h := $.HourLabels}}<div class="hourline" style="top: {{mul $i $.CellHeight}}px"></div>{{end}}
    {{range .Blocks}}
    <div class="block" style="top: {{.Top}}px; height: {{.Height}}px; background: {{.Color}}">{{.Time}} {{.Title}}</div>
    {{end}}
    {{if and $.Now .IsToday}}<div class="nowline" style="top: {{$.Now.Offset}}px"></div>{{end}}
  </div>
  {{end}}
</div>
{{end}}
{{if .Weeks}}
<table class="month">
  {{range .Weeks}}
  <tr>
    {{range .}}
    <td class="{{if not .InMonth}}outside {{end}}{{if .IsToday}}today{{end}}">
      <div>{{.Day}}</div>
      {{range .Titles}}<div class="entry" style="background: {{.Color}}">{{.Title}}</div>{{end}}
      {{if .Overflow}}<div class="more">+{{.Overflow}} more</div>{{end}}
    </td>
    {{end}}
  </tr>
  {{end}}
</table>
{{end}}
</body>
</html>
`))
