// Package maps fetches static map images from the Google Maps Static API. A
// map is a small PNG centered on a station's coordinates, embedded inline in
// the tide report.
package maps

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pfeif/pytide/pkg/metrics"
)

const (
	staticMapURL = "https://maps.googleapis.com/maps/api/staticmap"

	requestTimeout = 10 * time.Second
)

// Client queries the Google Maps Static API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
}

// NewClient returns a Client using the given API key.
func NewClient(key string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    staticMapURL,
		key:        key,
	}
}

// NewClientFor returns a Client pointed at an alternate endpoint. Tests use
// it with httptest servers.
func NewClientFor(key, baseURL string) *Client {
	c := NewClient(key)
	c.baseURL = baseURL
	return c
}

// StaticMap fetches a PNG map with a marker at the given coordinates.
func (c *Client) StaticMap(ctx context.Context, lat, lng float64) ([]byte, error) {
	addr, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	addr.RawQuery = c.query(lat, lng).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr.String(), nil)
	if err != nil {
		return nil, err
	}

	metrics.CountFetch("staticmap")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch map for (%f, %f): %w", lat, lng, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch map for (%f, %f): %s", lat, lng, resp.Status)
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read map image: %w", err)
	}
	return image, nil
}

func (c *Client) query(lat, lng float64) url.Values {
	vals := make(url.Values)
	vals.Add("markers", formatCoord(lat)+","+formatCoord(lng))
	vals.Add("size", "320x280")
	vals.Add("scale", "1")
	vals.Add("zoom", "15")
	vals.Add("key", c.key)
	return vals
}

func formatCoord(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}
