package tide

import (
	"testing"
	"time"

	"github.com/pfeif/pytide/pkg/noaa"
)

func TestSplitHeight(t *testing.T) {
	table := []struct {
		height float64
		want   string
	}{
		{4.08, "4 ft 1.0 in"},
		{0.121, "0 ft 1.5 in"},
		{-0.871, "-0 ft 10.5 in"},
		{2.0, "2 ft 0.0 in"},
		{-1.5, "-1 ft 6.0 in"},
	}

	for _, test := range table {
		if got := splitHeight(test.height).String(); got != test.want {
			t.Errorf("splitHeight(%v) = %q, want %q", test.height, got, test.want)
		}
	}
}

func TestFromPrediction(t *testing.T) {
	p := noaa.Prediction{
		Time:   noaa.Time(time.Date(2024, time.March, 1, 2, 17, 0, 0, time.Local)),
		Height: 4.08,
		Type:   noaa.HighTide,
	}

	got := FromPrediction(p)
	if want := "High tide at 2:17 AM (4 ft 1.0 in)"; got.String() != want {
		t.Errorf("got %q, want %q", got.String(), want)
	}
}

func TestClockHasNoLeadingZero(t *testing.T) {
	tide := Tide{Time: time.Date(2024, time.March, 1, 8, 44, 0, 0, time.Local)}
	if got := tide.Clock(); got != "8:44 AM" {
		t.Errorf("got %q, want %q", got, "8:44 AM")
	}
}
