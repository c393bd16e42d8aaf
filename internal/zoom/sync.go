package zoom

import (
	"context"
	"fmt"
	"time"

	"meetcal/internal/civil"
	appLog "meetcal/internal/log"
	"meetcal/internal/model"
	"meetcal/internal/store"
)

// SyncMeetings pulls upcoming Zoom meetings for userID and upserts them into
// the store, converting each start instant into the app-timezone civil
// (date, start time) pair the grid consumes. Meetings that fail to convert
// or persist are logged and skipped; one bad record never aborts the sync.
func SyncMeetings(ctx context.Context, c *Client, st store.Store, zone *civil.Zone, userID string) (int, error) {
	apiMeetings, err := c.ListMeetings(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("zoom sync: list meetings: %w", err)
	}

	// Meetings created through the dashboard already exist locally under
	// their own id with just the Zoom id attached. Match on the Zoom id so
	// the sync updates those records in place instead of inserting a second
	// copy under a derived id.
	existing, err := st.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("zoom sync: list store: %w", err)
	}
	byZoomID := make(map[int64]model.Meeting, len(existing))
	for _, m := range existing {
		if m.ZoomID != 0 {
			byZoomID[m.ZoomID] = m
		}
	}

	synced := 0
	for _, am := range apiMeetings {
		m, err := toStoredMeeting(am, zone)
		if err != nil {
			appLog.Warn("zoom sync: skipping meeting", "zoom_id", am.ID, "reason", err.Error())
			continue
		}
		if prev, ok := byZoomID[am.ID]; ok {
			// Zoom carries no category, so the locally assigned one survives.
			m.ID = prev.ID
			m.Category = prev.Category
		}
		if err := st.Put(ctx, m); err != nil {
			appLog.Error("zoom sync: store put failed", err, "zoom_id", am.ID)
			continue
		}
		synced++
	}

	appLog.Info("zoom sync completed", "fetched", len(apiMeetings), "synced", synced)
	return synced, nil
}

// toStoredMeeting converts a Zoom API meeting into the stored civil form.
// Zoom reports start_time in UTC RFC3339; the civil fields are derived in
// the app timezone, never the process-local one.
func toStoredMeeting(am APIMeeting, zone *civil.Zone) (model.Meeting, error) {
	if am.StartTime == "" {
		return model.Meeting{}, fmt.Errorf("no start_time")
	}
	start, err := time.Parse(time.RFC3339, am.StartTime)
	if err != nil {
		return model.Meeting{}, fmt.Errorf("bad start_time %q: %w", am.StartTime, err)
	}
	if am.Duration <= 0 {
		return model.Meeting{}, fmt.Errorf("non-positive duration %d", am.Duration)
	}

	d := zone.DateOf(start)
	hour, minute := zone.WallClockOf(start)

	return model.Meeting{
		ID:              fmt.Sprintf("zoom-%d", am.ID),
		ZoomID:          am.ID,
		Date:            d.Key(),
		StartTime:       fmt.Sprintf("%02d:%02d", hour, minute),
		DurationMinutes: am.Duration,
		Category:        model.CategoryProject,
		Title:           am.Topic,
		Host:            am.HostEmail,
		Agenda:          am.Agenda,
		JoinURL:         am.JoinURL,
	}, nil
}
