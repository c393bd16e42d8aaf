package grid

import (
	"testing"

	"meetcal/internal/model"
)

func TestChronologicalGroupsSorting(t *testing.T) {
	meetings := []model.Meeting{
		meeting("late", "2025-05-01", "09:00", 60),
		meeting("early", "2025-05-01", "08:00", 60),
		meeting("nextday", "2025-05-02", "07:00", 60),
		meeting("prevmonth", "2025-04-30", "23:00", 60),
	}

	groups := ChronologicalGroups(testZone(), meetings)

	wantKeys := []string{"2025-04-30", "2025-05-01", "2025-05-02"}
	if len(groups) != len(wantKeys) {
		t.Fatalf("groups: got %d, want %d", len(groups), len(wantKeys))
	}
	for i, g := range groups {
		if g.Key != wantKeys[i] {
			t.Errorf("group %d: got %s, want %s", i, g.Key, wantKeys[i])
		}
	}

	// Within 2025-05-01 the 08:00 meeting comes first.
	day := groups[1]
	if len(day.Meetings) != 2 {
		t.Fatalf("2025-05-01 meetings: got %d, want 2", len(day.Meetings))
	}
	if day.Meetings[0].ID != "early" || day.Meetings[1].ID != "late" {
		t.Errorf("same-day order: got %s, %s; want early, late", day.Meetings[0].ID, day.Meetings[1].ID)
	}
}

// Equal instants keep collection order (stable sort).
func TestChronologicalGroupsStableTies(t *testing.T) {
	meetings := []model.Meeting{
		meeting("first", "2025-05-01", "09:00", 30),
		meeting("second", "2025-05-01", "09:00", 60),
		meeting("third", "2025-05-01", "09:00", 15),
	}

	groups := ChronologicalGroups(testZone(), meetings)
	if len(groups) != 1 {
		t.Fatalf("groups: got %d, want 1", len(groups))
	}
	for i, want := range []string{"first", "second", "third"} {
		if groups[0].Meetings[i].ID != want {
			t.Errorf("tie order %d: got %s, want %s", i, groups[0].Meetings[i].ID, want)
		}
	}
}

func TestChronologicalGroupsSkipsInvalid(t *testing.T) {
	meetings := []model.Meeting{
		meeting("ok", "2025-05-01", "09:00", 30),
		meeting("bad", "2025-05-01", "late", 30),
	}

	groups := ChronologicalGroups(testZone(), meetings)
	if len(groups) != 1 || len(groups[0].Meetings) != 1 || groups[0].Meetings[0].ID != "ok" {
		t.Errorf("invalid meeting not skipped: %+v", groups)
	}
}
