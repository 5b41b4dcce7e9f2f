// Package data is the persistent cache behind the tide report. It keeps NOAA
// station metadata, tide predictions, and fetched map images in a local
// SQLite file so a scheduled run does not hammer the upstream APIs.
package data

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/pfeif/pytide/pkg/metrics"
	"github.com/pfeif/pytide/pkg/noaa"
	"github.com/pfeif/pytide/pkg/tide"
	"github.com/pfeif/pytide/pkg/timetricks"
)

const (
	stationTTL    = 7 * 24 * time.Hour
	predictionTTL = 3 * time.Hour
	mapImageTTL   = 14 * 24 * time.Hour

	// Prediction rows older than this are pruned on write.
	predictionMaxAge = 24 * time.Hour
)

// Station caches one row of NOAA station metadata.
type Station struct {
	ID        uint   `gorm:"primarykey"`
	NOAAID    string `gorm:"column:noaa_id;uniqueIndex"`
	Name      string
	Latitude  float64
	Longitude float64
	UpdatedAt time.Time
}

// Prediction caches one tide event for a station on a given calendar day.
type Prediction struct {
	ID         uint   `gorm:"primarykey"`
	StationID  uint   `gorm:"index"`
	Day        string `gorm:"index"`
	Time       time.Time
	Type       string
	AboveDatum bool
	Feet       int
	Inches     float64
	UpdatedAt  time.Time
}

// MapImage caches the static map fetched for a station.
type MapImage struct {
	ID        uint `gorm:"primarykey"`
	StationID uint `gorm:"uniqueIndex"`
	Image     []byte
	ContentID string
	UpdatedAt time.Time
}

// Cache wraps the SQLite file holding all cached data.
type Cache struct {
	db *gorm.DB
}

// DefaultPath returns the cache file location under the user cache dir.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate user cache dir: %w", err)
	}
	return filepath.Join(dir, "pytide", "cache.db"), nil
}

// Open opens (creating if necessary) the cache file at path and migrates the
// schema.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Station{}, &Prediction{}, &MapImage{}); err != nil {
		return nil, fmt.Errorf("migrate cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Clear deletes the cache file at path. It reports whether a file existed.
func Clear(path string) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return true, fmt.Errorf("remove cache %s: %w", path, err)
	}
	return true, nil
}

// StationsFresh reports whether the station catalog has been refreshed within
// its TTL.
func (c *Cache) StationsFresh() bool {
	var count int64
	c.db.Model(&Station{}).
		Where("updated_at >= ?", time.Now().Add(-stationTTL)).
		Count(&count)
	return count > 0
}

// Station returns fresh cached metadata for a NOAA station ID.
func (c *Cache) Station(noaaID string) (Station, bool) {
	var st Station
	err := c.db.
		Where("noaa_id = ? AND updated_at >= ?", noaaID, time.Now().Add(-stationTTL)).
		First(&st).Error
	if err != nil {
		metrics.CountCacheMiss("station")
		return Station{}, false
	}
	metrics.CountCacheHit("station")
	return st, true
}

// SaveStations upserts the full station catalog.
func (c *Cache) SaveStations(stations []noaa.Station) error {
	rows := make([]Station, 0, len(stations))
	now := time.Now()
	for _, s := range stations {
		rows = append(rows, Station{
			NOAAID:    s.ID,
			Name:      s.Name,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			UpdatedAt: now,
		})
	}
	return c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "noaa_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "latitude", "longitude", "updated_at"}),
	}).CreateInBatches(rows, 500).Error
}

// Predictions returns fresh cached tide events for the station on the day
// containing now.
func (c *Cache) Predictions(stationID uint, day time.Time) ([]tide.Tide, bool) {
	var rows []Prediction
	err := c.db.
		Where("station_id = ? AND day = ? AND updated_at >= ?",
			stationID, timetricks.UniqueDay(day), time.Now().Add(-predictionTTL)).
		Order("time asc").
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		metrics.CountCacheMiss("prediction")
		return nil, false
	}
	metrics.CountCacheHit("prediction")

	tides := make([]tide.Tide, 0, len(rows))
	for _, row := range rows {
		// SQLite hands times back in UTC; tide clocks are local.
		tides = append(tides, tide.Tide{
			Time: row.Time.In(time.Local),
			Type: tideType(row.Type),
			Change: tide.Measurement{
				AboveDatum: row.AboveDatum,
				Feet:       row.Feet,
				Inches:     row.Inches,
			},
		})
	}
	return tides, true
}

// SavePredictions replaces the cached tide events for the station on the day
// containing their times, and prunes rows past their maximum age.
func (c *Cache) SavePredictions(stationID uint, tides []tide.Tide) error {
	if len(tides) == 0 {
		return nil
	}
	day := timetricks.UniqueDay(tides[0].Time)
	now := time.Now()

	rows := make([]Prediction, 0, len(tides))
	for _, t := range tides {
		rows = append(rows, Prediction{
			StationID:  stationID,
			Day:        timetricks.UniqueDay(t.Time),
			Time:       t.Time,
			Type:       t.Type.String(),
			AboveDatum: t.Change.AboveDatum,
			Feet:       t.Change.Feet,
			Inches:     t.Change.Inches,
			UpdatedAt:  now,
		})
	}

	return c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("station_id = ? AND day = ?", stationID, day).
			Delete(&Prediction{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		return tx.Where("updated_at < ?", now.Add(-predictionMaxAge)).
			Delete(&Prediction{}).Error
	})
}

// MapImage returns the fresh cached map image for a station.
func (c *Cache) MapImage(stationID uint) (MapImage, bool) {
	var img MapImage
	err := c.db.
		Where("station_id = ? AND updated_at >= ?", stationID, time.Now().Add(-mapImageTTL)).
		First(&img).Error
	if err != nil {
		metrics.CountCacheMiss("map_image")
		return MapImage{}, false
	}
	metrics.CountCacheHit("map_image")
	return img, true
}

// SaveMapImage upserts the map image for a station.
func (c *Cache) SaveMapImage(stationID uint, image []byte, contentID string) error {
	return c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "station_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"image", "content_id", "updated_at"}),
	}).Create(&MapImage{
		StationID: stationID,
		Image:     image,
		ContentID: contentID,
		UpdatedAt: time.Now(),
	}).Error
}

func tideType(s string) noaa.Tide {
	if s == "Low" {
		return noaa.LowTide
	}
	return noaa.HighTide
}
