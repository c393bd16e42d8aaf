// Package ics exports the stored meeting collection as an iCalendar feed so
// users can subscribe from their own calendar clients.
package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"meetcal/internal/civil"
	appLog "meetcal/internal/log"
	"meetcal/internal/model"
)

const prodID = "-//meetcal//meeting dashboard//EN"

// Export serializes meetings into a VCALENDAR payload. Start instants are
// derived through the app timezone; meetings with unusable time fields are
// skipped with a warning, matching the grid's behavior.
func Export(zone *civil.Zone, meetings []model.Meeting) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	for _, m := range meetings {
		start, err := zone.ToInstant(m.Date, m.StartTime)
		if err != nil || m.DurationMinutes <= 0 {
			appLog.Warn("ics export: skipping meeting with unusable time fields",
				"id", m.ID, "date", m.Date, "start_time", m.StartTime)
			continue
		}
		end := start.Add(time.Duration(m.DurationMinutes) * time.Minute)

		ev := cal.AddEvent(m.ID + "@meetcal")
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(m.Title)
		if m.Agenda != "" {
			ev.SetDescription(m.Agenda)
		}
		if m.JoinURL != "" {
			ev.SetLocation(m.JoinURL)
		}
		if m.Host != "" {
			ev.SetOrganizer(m.Host)
		}
		ev.SetDtStampTime(start)
	}

	return cal.Serialize()
}
