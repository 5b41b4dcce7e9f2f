// Package astro computes the sun and moon data that accompanies each station
// in a tide report: sunrise and sunset, moonrise and moonset, and the current
// phase of the moon.
package astro

import (
	"time"

	"github.com/keep94/sunrise"

	"github.com/pfeif/pytide/pkg/timetricks"
)

// Day holds the astronomical events for one calendar day at a location.
// Moonrise or Moonset is zero on a day the moon does not rise or set.
type Day struct {
	Sunrise  time.Time
	Sunset   time.Time
	Moonrise time.Time
	Moonset  time.Time
	Moon     Phase
}

// ForDay computes the sun and moon events for the calendar day containing t
// at the given coordinates.
func ForDay(lat, lng float64, t time.Time) Day {
	var s sunrise.Sunrise
	s.Around(lat, lng, t)

	// The sunrise package is not very careful with its dates; walk forward
	// until the rise lands on the requested day.
	for i := 0; i < 2 && !timetricks.SameDay(t, s.Sunrise()); i++ {
		s.AddDays(1)
	}

	moonrise, moonset := MoonRiseSet(lat, lng, t)

	return Day{
		Sunrise:  s.Sunrise(),
		Sunset:   s.Sunset(),
		Moonrise: moonrise,
		Moonset:  moonset,
		Moon:     MoonPhase(t),
	}
}
