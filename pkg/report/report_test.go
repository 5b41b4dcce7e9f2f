package report

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pfeif/pytide/pkg/config"
	"github.com/pfeif/pytide/pkg/data"
	"github.com/pfeif/pytide/pkg/maps"
	"github.com/pfeif/pytide/pkg/noaa"
)

// fakeNOAA serves a catalog and predictions and counts requests.
type fakeNOAA struct {
	catalogHits     int
	predictionsHits int
}

func (f *fakeNOAA) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/stations.json", func(w http.ResponseWriter, r *http.Request) {
		f.catalogHits++
		w.Write([]byte(`{"stations":[
			{"id":"8720218","name":"Mayport","lat":30.396667,"lng":-81.430556}]}`))
	})
	mux.HandleFunc("/datagetter", func(w http.ResponseWriter, r *http.Request) {
		f.predictionsHits++
		day := time.Now().Format("2006-01-02")
		fmt.Fprintf(w, `{"predictions":[
			{"t":"%s 02:17","v":"4.080","type":"H"},
			{"t":"%s 08:44","v":"-0.871","type":"L"}]}`, day, day)
	})
	return httptest.NewServer(mux)
}

func testClients(t *testing.T, f *fakeNOAA) (*noaa.Client, *maps.Client) {
	t.Helper()
	srv := f.server(t)
	t.Cleanup(srv.Close)

	mapsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	t.Cleanup(mapsSrv.Close)

	return noaa.NewClientFor(srv.URL+"/datagetter", srv.URL+"/stations.json"),
		maps.NewClientFor("test-key", mapsSrv.URL)
}

func TestBuild(t *testing.T) {
	f := &fakeNOAA{}
	noaaClient, mapsClient := testClients(t, f)

	b := NewBuilder(noaaClient, mapsClient, nil, zap.NewNop().Sugar())
	stations, err := b.Build(context.Background(), []config.Station{
		{ID: "8720218", Name: "Home Dock"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if len(stations) != 1 {
		t.Fatalf("got %d stations, want 1", len(stations))
	}

	st := stations[0]
	if st.Name != "Home Dock" {
		t.Errorf("config display name did not win: got %q", st.Name)
	}
	if st.Latitude != 30.396667 || st.Longitude != -81.430556 {
		t.Errorf("wrong coordinates: %f, %f", st.Latitude, st.Longitude)
	}
	if len(st.Tides) != 2 {
		t.Errorf("got %d tides, want 2", len(st.Tides))
	}
	if st.Map == nil {
		t.Error("no map image attached")
	} else if st.Map.ContentID != "8720218.png" {
		t.Errorf("got content ID %q", st.Map.ContentID)
	}
	if st.Astro.Sunrise.IsZero() || st.Astro.Sunset.IsZero() {
		t.Error("missing sun events")
	}
}

func TestBuildUsesNOAAName(t *testing.T) {
	f := &fakeNOAA{}
	noaaClient, _ := testClients(t, f)

	b := NewBuilder(noaaClient, nil, nil, zap.NewNop().Sugar())
	stations, err := b.Build(context.Background(), []config.Station{{ID: "8720218"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := stations[0].Name; got != "Mayport" {
		t.Errorf("got name %q, want the NOAA name", got)
	}
	if stations[0].Map != nil {
		t.Error("got a map image with no maps client")
	}
}

func TestBuildUnknownStation(t *testing.T) {
	f := &fakeNOAA{}
	noaaClient, _ := testClients(t, f)

	b := NewBuilder(noaaClient, nil, nil, zap.NewNop().Sugar())
	if _, err := b.Build(context.Background(), []config.Station{{ID: "0000000"}}); err == nil {
		t.Error("expected an error when no station is usable")
	}
}

func TestBuildMemoizesCatalog(t *testing.T) {
	f := &fakeNOAA{}
	noaaClient, _ := testClients(t, f)

	b := NewBuilder(noaaClient, nil, nil, zap.NewNop().Sugar())
	_, err := b.Build(context.Background(), []config.Station{
		{ID: "8720218"},
		{ID: "0000000"}, // unknown, still resolved against the catalog
	})
	if err != nil {
		t.Fatal(err)
	}
	if f.catalogHits != 1 {
		t.Errorf("catalog fetched %d times, want 1", f.catalogHits)
	}
}

func TestBuildWithCache(t *testing.T) {
	f := &fakeNOAA{}
	noaaClient, mapsClient := testClients(t, f)

	cache, err := data.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(noaaClient, mapsClient, cache, zap.NewNop().Sugar())
	configured := []config.Station{{ID: "8720218"}}

	if _, err := b.Build(context.Background(), configured); err != nil {
		t.Fatal(err)
	}
	firstPredictionHits := f.predictionsHits

	// A second run should be served from the cache.
	stations, err := b.Build(context.Background(), configured)
	if err != nil {
		t.Fatal(err)
	}
	if f.predictionsHits != firstPredictionHits {
		t.Errorf("second build refetched predictions (%d hits)", f.predictionsHits)
	}
	if f.catalogHits != 1 {
		t.Errorf("second build refetched the catalog (%d hits)", f.catalogHits)
	}
	if len(stations[0].Tides) != 2 {
		t.Errorf("cached build lost tides: got %d", len(stations[0].Tides))
	}
	if stations[0].Map == nil {
		t.Error("cached build lost the map image")
	}
}
