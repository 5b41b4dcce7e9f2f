// Package report assembles the per-station data that goes into a tide report
// email: station metadata, today's tide events, sun and moon data, and a
// static map image.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pfeif/pytide/pkg/astro"
	"github.com/pfeif/pytide/pkg/cache"
	"github.com/pfeif/pytide/pkg/config"
	"github.com/pfeif/pytide/pkg/data"
	"github.com/pfeif/pytide/pkg/maps"
	"github.com/pfeif/pytide/pkg/noaa"
	"github.com/pfeif/pytide/pkg/tide"
	"github.com/pfeif/pytide/pkg/timetricks"
)

const (
	catalogKey = "station-catalog"
	catalogTTL = time.Hour
)

// Image is an inline image attachment. The HTML body references it by
// cid:ContentID.
type Image struct {
	Data      []byte
	ContentID string
}

// Station is one fully hydrated station in the report.
type Station struct {
	ID        string
	Name      string
	Latitude  float64
	Longitude float64
	Tides     []tide.Tide
	Astro     astro.Day
	Map       *Image
}

// String renders the plain text form of the station used in the text/plain
// alternative of the report.
func (s *Station) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID# %s: %s (%f, %f)", s.ID, s.Name, s.Latitude, s.Longitude)
	for _, t := range s.Tides {
		fmt.Fprintf(&b, "\n\t%s", t.String())
	}
	return b.String()
}

// Builder hydrates configured stations into report stations.
type Builder struct {
	noaa       *noaa.Client
	maps       *maps.Client
	persistent *data.Cache
	memo       *cache.Timed
	log        *zap.SugaredLogger
}

// NewBuilder returns a Builder. The maps client and the persistent cache may
// be nil, in which case reports go out without maps and every run hits the
// upstream APIs.
func NewBuilder(noaaClient *noaa.Client, mapsClient *maps.Client, persistent *data.Cache, log *zap.SugaredLogger) *Builder {
	return &Builder{
		noaa:       noaaClient,
		maps:       mapsClient,
		persistent: persistent,
		memo:       cache.NewTimed(catalogTTL),
		log:        log,
	}
}

// Build hydrates every configured station. A station that cannot be resolved
// or has no predictions is logged and dropped; Build only fails when no
// station survives.
func (b *Builder) Build(ctx context.Context, configured []config.Station) ([]*Station, error) {
	stations := make([]*Station, 0, len(configured))
	for _, cs := range configured {
		st, err := b.build(ctx, cs)
		if err != nil {
			b.log.Errorw("skipping station", "station", cs.ID, "error", err)
			continue
		}
		stations = append(stations, st)
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("no usable stations")
	}
	return stations, nil
}

func (b *Builder) build(ctx context.Context, cs config.Station) (*Station, error) {
	meta, dbID, err := b.resolve(ctx, cs.ID)
	if err != nil {
		return nil, err
	}

	st := &Station{
		ID:        meta.ID,
		Name:      meta.Name,
		Latitude:  meta.Latitude,
		Longitude: meta.Longitude,
	}
	// A display name from the config wins over the NOAA name.
	if cs.Name != "" {
		st.Name = cs.Name
	}

	if st.Tides, err = b.tides(ctx, cs.ID, dbID); err != nil {
		return nil, err
	}

	st.Astro = astro.ForDay(st.Latitude, st.Longitude, timetricks.TrimClock(time.Now()))

	// No map is not fatal; the report goes out without it.
	if b.maps != nil {
		if img, err := b.mapImage(ctx, st, dbID); err != nil {
			b.log.Warnw("no map image for station", "station", cs.ID, "error", err)
		} else {
			st.Map = img
		}
	}

	return st, nil
}

// resolve finds metadata for a station ID, preferring the persistent cache
// and falling back to the NOAA catalog. dbID is zero without a cache.
func (b *Builder) resolve(ctx context.Context, stationID string) (noaa.Station, uint, error) {
	if b.persistent != nil {
		if !b.persistent.StationsFresh() {
			catalog, err := b.catalog(ctx)
			if err != nil {
				return noaa.Station{}, 0, err
			}
			if err := b.persistent.SaveStations(catalog); err != nil {
				return noaa.Station{}, 0, fmt.Errorf("cache station catalog: %w", err)
			}
		}
		row, ok := b.persistent.Station(stationID)
		if !ok {
			return noaa.Station{}, 0, fmt.Errorf("station %s not in the NOAA catalog", stationID)
		}
		return noaa.Station{
			ID:        row.NOAAID,
			Name:      row.Name,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
		}, row.ID, nil
	}

	catalog, err := b.catalog(ctx)
	if err != nil {
		return noaa.Station{}, 0, err
	}
	for _, s := range catalog {
		if s.ID == stationID {
			return s, 0, nil
		}
	}
	return noaa.Station{}, 0, fmt.Errorf("station %s not in the NOAA catalog", stationID)
}

// catalog fetches the NOAA station catalog, memoized so one run downloads it
// at most once.
func (b *Builder) catalog(ctx context.Context) ([]noaa.Station, error) {
	if buf, ok := b.memo.Get(catalogKey); ok {
		var catalog []noaa.Station
		if err := json.Unmarshal(buf, &catalog); err == nil {
			return catalog, nil
		}
	}

	catalog, err := b.noaa.Stations(ctx)
	if err != nil {
		return nil, err
	}
	if buf, err := json.Marshal(catalog); err == nil {
		b.memo.Set(catalogKey, buf)
	}
	return catalog, nil
}

func (b *Builder) tides(ctx context.Context, stationID string, dbID uint) ([]tide.Tide, error) {
	if b.persistent != nil && dbID != 0 {
		if tides, ok := b.persistent.Predictions(dbID, time.Now()); ok {
			return tides, nil
		}
	}

	preds, err := b.noaa.Predictions(ctx, stationID)
	if err != nil {
		return nil, err
	}
	tides := tide.FromPredictions(preds)

	if b.persistent != nil && dbID != 0 {
		if err := b.persistent.SavePredictions(dbID, tides); err != nil {
			b.log.Warnw("cache predictions failed", "station", stationID, "error", err)
		}
	}
	return tides, nil
}

func (b *Builder) mapImage(ctx context.Context, st *Station, dbID uint) (*Image, error) {
	if b.persistent != nil && dbID != 0 {
		if row, ok := b.persistent.MapImage(dbID); ok {
			return &Image{Data: row.Image, ContentID: row.ContentID}, nil
		}
	}

	img, err := b.maps.StaticMap(ctx, st.Latitude, st.Longitude)
	if err != nil {
		return nil, err
	}
	image := &Image{Data: img, ContentID: st.ID + ".png"}

	if b.persistent != nil && dbID != 0 {
		if err := b.persistent.SaveMapImage(dbID, image.Data, image.ContentID); err != nil {
			b.log.Warnw("cache map image failed", "station", st.ID, "error", err)
		}
	}
	return image, nil
}
