package Controllers

import (
	"testing"
	"time"

	"Tracker/Models"
)

func TestGenerateWeekends(t *testing.T) {
	// 2026-01-01 is a Thursday; two full weekends fall inside the window.
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

	weekends := GenerateWeekends(start, end)

	want := []struct {
		date string
		name string
	}{
		{"2026-01-03", "Saturday"},
		{"2026-01-04", "Sunday"},
		{"2026-01-10", "Saturday"},
		{"2026-01-11", "Sunday"},
	}
	if len(weekends) != len(want) {
		t.Fatalf("got %d weekends, want %d: %+v", len(weekends), len(want), weekends)
	}
	for i, w := range want {
		if weekends[i].Date != w.date || weekends[i].Name != w.name {
			t.Fatalf("weekend %d = %s (%s), want %s (%s)", i, weekends[i].Date, weekends[i].Name, w.date, w.name)
		}
		if weekends[i].Type != Models.SpecialDayWeekend || !weekends[i].Active {
			t.Fatalf("weekend %d should be an active weekend row: %+v", i, weekends[i])
		}
	}
}

func TestGenerateWeekends_InclusiveBounds(t *testing.T) {
	saturday := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)

	weekends := GenerateWeekends(saturday, saturday)
	if len(weekends) != 1 || weekends[0].Date != "2026-01-03" {
		t.Fatalf("a single-Saturday window should yield one row, got %+v", weekends)
	}

	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if got := GenerateWeekends(monday, monday); len(got) != 0 {
		t.Fatalf("a single-Monday window should yield nothing, got %+v", got)
	}
}

func TestGenerateWeekends_EmptyRange(t *testing.T) {
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, 7)
	if got := GenerateWeekends(start, end); len(got) != 0 {
		t.Fatalf("an inverted range should yield nothing, got %+v", got)
	}
}
