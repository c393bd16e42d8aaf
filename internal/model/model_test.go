package model

import "testing"

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"board", CategoryBoard},
		{"training", CategoryTraining},
		{"social", CategorySocial},
		{"project", CategoryProject},
		{"", CategoryProject},
		{"standup", CategoryProject},
		{"Board", CategoryProject}, // case-sensitive on purpose
	}
	for _, tc := range tests {
		if got := ParseCategory(tc.in); got != tc.want {
			t.Errorf("ParseCategory(%q): got %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestCategoryColors(t *testing.T) {
	// Every known category has a distinct color, and unknown values get the
	// fallback instead of an empty string.
	seen := map[string]Category{}
	for _, c := range []Category{CategoryBoard, CategoryTraining, CategorySocial, CategoryProject} {
		color := c.Color()
		if color == "" {
			t.Errorf("category %s has empty color", c)
		}
		if prev, dup := seen[color]; dup {
			t.Errorf("categories %s and %s share color %s", prev, c, color)
		}
		seen[color] = c
	}
	if Category("whatever").Color() == "" {
		t.Error("unknown category has empty fallback color")
	}
}

func TestMeetingValidate(t *testing.T) {
	ok := Meeting{ID: "1", Date: "2025-03-10", StartTime: "09:00", DurationMinutes: 30}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid meeting rejected: %v", err)
	}

	cases := []Meeting{
		{Date: "2025-03-10", StartTime: "09:00", DurationMinutes: 30},
		{ID: "1", StartTime: "09:00", DurationMinutes: 30},
		{ID: "1", Date: "2025-03-10", DurationMinutes: 30},
		{ID: "1", Date: "2025-03-10", StartTime: "09:00"},
		{ID: "1", Date: "2025-03-10", StartTime: "09:00", DurationMinutes: -5},
	}
	for i, m := range cases {
		if err := m.Validate(); err == nil {
			t.Errorf("case %d: invalid meeting accepted: %+v", i, m)
		}
	}
}
