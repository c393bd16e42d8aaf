package grid

import (
	"sort"

	"meetcal/internal/civil"
	appLog "meetcal/internal/log"
	"meetcal/internal/model"
)

// ListGroup is one date's worth of meetings in the flat list view.
type ListGroup struct {
	Key      string
	Date     civil.Date
	Meetings []model.Meeting
}

// ChronologicalGroups flattens the collection into a single chronologically
// sorted sequence keyed by instant (date + start time under the app
// timezone), then groups consecutive runs by date key. The sort is stable,
// so same-instant meetings keep their collection order. Meetings whose time
// fields cannot be interpreted are dropped with a warning.
func ChronologicalGroups(zone *civil.Zone, meetings []model.Meeting) []ListGroup {
	type keyed struct {
		m    model.Meeting
		date civil.Date
		at   int64
	}

	items := make([]keyed, 0, len(meetings))
	for _, m := range meetings {
		at, err := zone.ToInstant(m.Date, m.StartTime)
		if err != nil {
			appLog.Warn("list: skipping meeting with unusable time fields",
				"id", m.ID, "date", m.Date, "start_time", m.StartTime)
			continue
		}
		d, _ := civil.ParseDateKey(m.Date)
		items = append(items, keyed{m: m, date: d, at: at.Unix()})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].at < items[j].at
	})

	groups := make([]ListGroup, 0)
	for _, it := range items {
		if n := len(groups); n > 0 && groups[n-1].Key == it.m.Date {
			groups[n-1].Meetings = append(groups[n-1].Meetings, it.m)
			continue
		}
		groups = append(groups, ListGroup{
			Key:      it.m.Date,
			Date:     it.date,
			Meetings: []model.Meeting{it.m},
		})
	}
	return groups
}
