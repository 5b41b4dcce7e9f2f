// Package tide holds the domain model for a tide report: individual high/low
// events with their water level change expressed in feet and inches.
package tide

import (
	"fmt"
	"math"
	"time"

	"github.com/pfeif/pytide/pkg/noaa"
)

const (
	inchesPerFoot = 12

	clockFormat = "3:04 PM"
)

// Measurement is a water level change relative to the MLLW datum, split into
// whole feet and fractional inches for display.
type Measurement struct {
	AboveDatum bool
	Feet       int
	Inches     float64
}

func (m Measurement) String() string {
	sign := ""
	if !m.AboveDatum {
		sign = "-"
	}
	return fmt.Sprintf("%s%d ft %.1f in", sign, m.Feet, m.Inches)
}

// Tide is a single predicted tide event at a station.
type Tide struct {
	Time   time.Time
	Type   noaa.Tide
	Change Measurement
}

// FromPrediction converts a raw NOAA prediction into a Tide, splitting the
// decimal height into feet and inches.
func FromPrediction(p noaa.Prediction) Tide {
	return Tide{
		Time:   time.Time(p.Time),
		Type:   p.Type,
		Change: splitHeight(float64(p.Height)),
	}
}

// FromPredictions converts a full NOAA prediction series.
func FromPredictions(preds noaa.Predictions) []Tide {
	tides := make([]Tide, 0, len(preds))
	for _, p := range preds {
		tides = append(tides, FromPrediction(p))
	}
	return tides
}

// Clock is the event time as a short local clock reading, e.g. "2:17 AM".
func (t Tide) Clock() string {
	return t.Time.Format(clockFormat)
}

func (t Tide) String() string {
	return fmt.Sprintf("%s tide at %s (%s)", t.Type, t.Clock(), t.Change)
}

func splitHeight(height float64) Measurement {
	absolute := math.Abs(height)
	feet := int(absolute)
	inches := math.Round((absolute-float64(feet))*inchesPerFoot*10) / 10
	return Measurement{
		AboveDatum: height >= 0,
		Feet:       feet,
		Inches:     inches,
	}
}
