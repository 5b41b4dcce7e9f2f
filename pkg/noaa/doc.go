// Package noaa implements queries to NOAA for tide data. Tide predictions are
// requested per station for the current day (see Client.Predictions) and come
// back as a list of high/low events with local time and water level. The
// metadata API (see Client.Stations) supplies names and coordinates for every
// station that publishes predictions.
package noaa
