package astro

import (
	"math"
	"time"

	"github.com/pfeif/pytide/pkg/timetricks"
)

// synodicMonth is the mean length of a lunation in days.
const synodicMonth = 29.53058867

// lunationEpoch is a reference new moon: 2000-01-06 18:14 UTC.
var lunationEpoch = time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)

// Phase is a named phase of the moon with its display glyph.
type Phase struct {
	Angle float64
	Name  string
	Icon  string
}

// The eight conventional phases, bounded by phase angle in degrees. Zero is a
// new moon, 180 is full.
var phases = []struct {
	low, high float64
	name      string
	icon      string
}{
	{0.0, 22.5, "New Moon", "\U0001F311"},
	{22.5, 67.5, "Waxing Crescent", "\U0001F312"},
	{67.5, 112.5, "First Quarter", "\U0001F313"},
	{112.5, 157.5, "Waxing Gibbous", "\U0001F314"},
	{157.5, 202.5, "Full Moon", "\U0001F315"},
	{202.5, 247.5, "Waning Gibbous", "\U0001F316"},
	{247.5, 292.5, "Last Quarter", "\U0001F317"},
	{292.5, 337.5, "Waning Crescent", "\U0001F318"},
	{337.5, 360.0, "New Moon", "\U0001F311"},
}

// MoonPhase approximates the moon's phase at time t from the mean synodic
// month. Mean lunation drifts up to about half a day from the true phase,
// which cannot move the result more than one neighboring phase name.
func MoonPhase(t time.Time) Phase {
	days := t.Sub(lunationEpoch).Hours() / 24
	frac := math.Mod(days/synodicMonth, 1)
	if frac < 0 {
		frac += 1
	}
	angle := frac * 360

	for _, p := range phases {
		if p.low <= angle && angle < p.high {
			return Phase{Angle: angle, Name: p.name, Icon: p.icon}
		}
	}
	return Phase{Angle: angle, Name: "New Moon", Icon: "\U0001F311"}
}

const (
	obliquity = 23.4397 * math.Pi / 180

	// The moon's center crosses this altitude at rise and set: mean
	// horizontal parallax less refraction and semidiameter.
	moonHorizon = 0.125 * math.Pi / 180
)

var j2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// MoonRiseSet finds the moonrise and moonset during the calendar day
// containing t at the given coordinates. Either return may be zero: roughly
// one day per lunation has no rise, and one has no set.
func MoonRiseSet(lat, lng float64, t time.Time) (rise, set time.Time) {
	const step = 10 * time.Minute
	start := timetricks.TrimClock(t)
	end := start.Add(24 * time.Hour)

	prev := moonAltitude(lat, lng, start)
	for cur := start.Add(step); !cur.After(end); cur = cur.Add(step) {
		alt := moonAltitude(lat, lng, cur)
		if prev < moonHorizon && alt >= moonHorizon && rise.IsZero() {
			rise = horizonCrossing(lat, lng, cur.Add(-step), cur)
		}
		if prev >= moonHorizon && alt < moonHorizon && set.IsZero() {
			set = horizonCrossing(lat, lng, cur.Add(-step), cur)
		}
		prev = alt
	}
	return rise, set
}

// horizonCrossing bisects a horizon crossing known to lie between lo and hi
// down to the minute.
func horizonCrossing(lat, lng float64, lo, hi time.Time) time.Time {
	loBelow := moonAltitude(lat, lng, lo) < moonHorizon
	for hi.Sub(lo) > time.Minute {
		mid := lo.Add(hi.Sub(lo) / 2)
		if (moonAltitude(lat, lng, mid) < moonHorizon) == loBelow {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi.Round(time.Minute)
}

// moonAltitude returns the altitude in radians of the moon's center above the
// horizon at t, for an observer at lat/lng in degrees (east positive).
func moonAltitude(lat, lng float64, t time.Time) float64 {
	ra, dec := moonEquatorial(t)

	d := t.Sub(j2000).Hours() / 24
	sidereal := rad(280.16+360.9856235*d) + rad(lng)
	hourAngle := sidereal - ra

	phi := rad(lat)
	return math.Asin(math.Sin(phi)*math.Sin(dec) +
		math.Cos(phi)*math.Cos(dec)*math.Cos(hourAngle))
}

// moonEquatorial returns the moon's right ascension and declination at t,
// from its mean orbital elements plus the principal elliptic term. Good to
// about a degree, which moves a rise or set by minutes.
func moonEquatorial(t time.Time) (ra, dec float64) {
	d := t.Sub(j2000).Hours() / 24

	meanLng := rad(218.316 + 13.176396*d)
	anomaly := rad(134.963 + 13.064993*d)
	node := rad(93.272 + 13.229350*d)

	lng := meanLng + rad(6.289)*math.Sin(anomaly)
	lat := rad(5.128) * math.Sin(node)

	ra = math.Atan2(math.Sin(lng)*math.Cos(obliquity)-math.Tan(lat)*math.Sin(obliquity),
		math.Cos(lng))
	dec = math.Asin(math.Sin(lat)*math.Cos(obliquity) +
		math.Cos(lat)*math.Sin(obliquity)*math.Sin(lng))
	return ra, dec
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
