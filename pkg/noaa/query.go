package noaa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pfeif/pytide/pkg/metrics"
)

const (
	predictionsURL = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"
	metadataURL    = "https://api.tidesandcurrents.noaa.gov/mdapi/prod/webapi/stations.json?type=tidepredictions"

	// NOAA asks API consumers to identify themselves.
	application = "Pytide: https://github.com/pfeif/pytide"

	requestTimeout = 10 * time.Second
)

// Client queries the NOAA tides and currents APIs.
type Client struct {
	httpClient *http.Client

	// Endpoint overrides for tests.
	predictionsURL string
	metadataURL    string
}

// NewClient returns a Client with a sane request timeout.
func NewClient() *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: requestTimeout},
		predictionsURL: predictionsURL,
		metadataURL:    metadataURL,
	}
}

// NewClientFor returns a Client pointed at alternate API endpoints. Tests use
// it with httptest servers.
func NewClientFor(predictions, metadata string) *Client {
	c := NewClient()
	c.predictionsURL = predictions
	c.metadataURL = metadata
	return c
}

// Predictions fetches today's high/low tide predictions for a station.
func (c *Client) Predictions(ctx context.Context, stationID string) (Predictions, error) {
	addr, err := url.Parse(c.predictionsURL)
	if err != nil {
		return nil, err
	}
	addr.RawQuery = predictionQuery(stationID).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr.String(), nil)
	if err != nil {
		return nil, err
	}

	metrics.CountFetch("predictions")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch predictions for station %s: %w", stationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch predictions for station %s: %s", stationID, resp.Status)
	}

	var result predictionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode predictions for station %s: %w", stationID, err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("NOAA error for station %s: %s", stationID, result.Error.Message)
	}
	if len(result.Predictions) == 0 {
		return nil, fmt.Errorf("no predictions for station %s", stationID)
	}

	return result.Predictions, nil
}

// Stations fetches the full catalog of tide prediction stations. Coordinates
// are rounded; see Round.
func (c *Client) Stations(ctx context.Context) ([]Station, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.metadataURL, nil)
	if err != nil {
		return nil, err
	}

	metrics.CountFetch("metadata")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch station metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch station metadata: %s", resp.Status)
	}

	var result stationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode station metadata: %w", err)
	}
	if len(result.Stations) == 0 {
		return nil, fmt.Errorf("station metadata response was empty")
	}

	for i := range result.Stations {
		result.Stations[i].Latitude = Round(result.Stations[i].Latitude)
		result.Stations[i].Longitude = Round(result.Stations[i].Longitude)
	}

	return result.Stations, nil
}

func predictionQuery(stationID string) url.Values {
	vals := make(url.Values)
	vals.Add("station", stationID)
	vals.Add("date", "today")
	vals.Add("product", "predictions")
	vals.Add("datum", "MLLW")
	vals.Add("time_zone", "lst_ldt")
	vals.Add("interval", "hilo")
	vals.Add("units", "english")
	vals.Add("format", "json")
	vals.Add("application", application)
	return vals
}
