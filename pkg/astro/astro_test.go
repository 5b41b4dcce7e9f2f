package astro

import (
	"testing"
	"time"

	"github.com/pfeif/pytide/pkg/timetricks"
)

func TestForDay(t *testing.T) {
	// Santa Cruz, CA on a fixed date.
	day := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.Local)
	got := ForDay(36.9741, -122.0308, day)

	if !timetricks.SameDay(got.Sunrise, day) {
		t.Errorf("sunrise %s not on requested day %s", got.Sunrise, day)
	}
	if !got.Sunset.After(got.Sunrise) {
		t.Errorf("sunset %s not after sunrise %s", got.Sunset, got.Sunrise)
	}
	if got.Moon.Name == "" {
		t.Error("moon phase missing")
	}
	if got.Moonrise.IsZero() && got.Moonset.IsZero() {
		t.Error("no moon events for the day")
	}
}

func TestMoonRiseSet(t *testing.T) {
	// Santa Cruz, CA. The moon rose in the small hours and set around
	// midday, so both events sit comfortably inside the day.
	pst := time.FixedZone("PST", -8*3600)
	day := time.Date(2024, time.March, 5, 12, 0, 0, 0, pst)

	rise, set := MoonRiseSet(36.9741, -122.0308, day)
	if rise.IsZero() || set.IsZero() {
		t.Fatalf("rise %v, set %v; want both on %s", rise, set, day.Format(time.DateOnly))
	}
	if !timetricks.SameDay(rise, day) || !timetricks.SameDay(set, day) {
		t.Errorf("rise %s or set %s not on requested day", rise, set)
	}
	if !rise.Before(set) {
		t.Errorf("rise %s not before set %s", rise, set)
	}
	if h := rise.Hour(); h < 1 || h > 5 {
		t.Errorf("moonrise at %s, want the small hours", rise.Format(time.Kitchen))
	}
	if h := set.Hour(); h < 10 || h > 15 {
		t.Errorf("moonset at %s, want around midday", set.Format(time.Kitchen))
	}
}

func TestMoonRiseSetSweep(t *testing.T) {
	// A full lunation. Every day has at least one event, and events land
	// on the day they were asked for.
	pst := time.FixedZone("PST", -8*3600)
	start := time.Date(2024, time.February, 1, 12, 0, 0, 0, pst)

	for d := 0; d < 31; d++ {
		day := start.AddDate(0, 0, d)
		rise, set := MoonRiseSet(36.9741, -122.0308, day)
		if rise.IsZero() && set.IsZero() {
			t.Errorf("no moon event at all on %s", day.Format(time.DateOnly))
		}
		if !rise.IsZero() && !timetricks.SameDay(rise, day) {
			t.Errorf("moonrise %s not on %s", rise, day.Format(time.DateOnly))
		}
		if !set.IsZero() && !timetricks.SameDay(set, day) {
			t.Errorf("moonset %s not on %s", set, day.Format(time.DateOnly))
		}
	}
}

func TestMoonPhase(t *testing.T) {
	table := []struct {
		date time.Time
		want string
	}{
		// The reference lunation itself.
		{time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC), "New Moon"},
		// Known full moon: 2024-01-25.
		{time.Date(2024, time.January, 25, 18, 0, 0, 0, time.UTC), "Full Moon"},
		// Known new moon: 2024-02-09.
		{time.Date(2024, time.February, 9, 23, 0, 0, 0, time.UTC), "New Moon"},
		// Dates before the epoch still normalize.
		{time.Date(1999, time.December, 8, 0, 0, 0, 0, time.UTC), "New Moon"},
	}

	for _, test := range table {
		got := MoonPhase(test.date)
		if got.Name != test.want {
			t.Errorf("MoonPhase(%s) = %q (angle %.1f), want %q",
				test.date.Format(time.DateOnly), got.Name, got.Angle, test.want)
		}
		if got.Icon == "" {
			t.Errorf("MoonPhase(%s) has no icon", test.date.Format(time.DateOnly))
		}
	}
}

func TestMoonPhaseAngleRange(t *testing.T) {
	start := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 60; d++ {
		p := MoonPhase(start.AddDate(0, 0, d))
		if p.Angle < 0 || p.Angle >= 360 {
			t.Errorf("angle %f out of range on day %d", p.Angle, d)
		}
	}
}
