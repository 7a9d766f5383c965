package locator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MaratheHarshad/SIH-PROJECT/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupFunc func(ctx context.Context, lat, lng float64) (string, error)

type stubCity struct{ fn lookupFunc }

func (s stubCity) LookupCity(ctx context.Context, lat, lng float64) (string, error) {
	return s.fn(ctx, lat, lng)
}

type stubRegion struct{ fn lookupFunc }

func (s stubRegion) LookupRegion(ctx context.Context, lat, lng float64) (string, error) {
	return s.fn(ctx, lat, lng)
}

func fixed(value string, err error) lookupFunc {
	return func(context.Context, float64, float64) (string, error) { return value, err }
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) byKind(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestOnLocationChangeReportsLatLngBeforeLookups(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	record := func(name string) {
		mu.Lock()
		calls = append(calls, name)
		mu.Unlock()
	}
	var gotLat, gotLng float64

	setters := Setters{
		Lat:    func(v float64) { gotLat = v; record("lat") },
		Lng:    func(v float64) { gotLng = v; record("lng") },
		City:   func(string) { record("city") },
		Region: func(string) { record("region") },
	}
	city := stubCity{fn: func(context.Context, float64, float64) (string, error) {
		record("city-lookup")
		return "Chennai", nil
	}}
	region := stubRegion{fn: func(context.Context, float64, float64) (string, error) {
		record("region-lookup")
		return "Tamil Nadu", nil
	}}

	r := New(DefaultLocation, city, region, setters.Handle, WithLogger(quietLogger()))
	r.OnLocationChange(12.9, 80.2)
	r.Wait()

	assert.Equal(t, 12.9, gotLat)
	assert.Equal(t, 80.2, gotLng)
	require.GreaterOrEqual(t, len(calls), 2)
	assert.Equal(t, []string{"lat", "lng"}, calls[:2])
	assert.ElementsMatch(t, []string{"lat", "lng", "city-lookup", "region-lookup", "city", "region"}, calls)
	assert.Equal(t, models.Coordinate{Latitude: 12.9, Longitude: 80.2}, r.Selected())
}

func TestSettersInvokedWhenBothLookupsFail(t *testing.T) {
	var gotLat, gotLng float64
	cityCalled, regionCalled := false, false
	setters := Setters{
		Lat:    func(v float64) { gotLat = v },
		Lng:    func(v float64) { gotLng = v },
		City:   func(string) { cityCalled = true },
		Region: func(string) { regionCalled = true },
	}

	r := New(DefaultLocation,
		stubCity{fn: fixed("", errors.New("weather down"))},
		stubRegion{fn: fixed("", errors.New("geocoder down"))},
		setters.Handle, WithLogger(quietLogger()))
	r.OnLocationChange(12.9, 80.2)
	r.Wait()

	assert.Equal(t, 12.9, gotLat)
	assert.Equal(t, 80.2, gotLng)
	assert.False(t, cityCalled)
	assert.False(t, regionCalled)
}

func TestOneLookupFailureDoesNotAffectSibling(t *testing.T) {
	rec := &recorder{}
	r := New(DefaultLocation,
		stubCity{fn: fixed("", errors.New("weather down"))},
		stubRegion{fn: fixed("Tamil Nadu", nil)},
		rec.handle, WithLogger(quietLogger()))

	r.OnLocationChange(13.08, 80.27)
	r.Wait()

	cities := rec.byKind(EventCity)
	require.Len(t, cities, 1)
	assert.Error(t, cities[0].Err)
	regions := rec.byKind(EventRegion)
	require.Len(t, regions, 1)
	assert.NoError(t, regions[0].Err)
	assert.Equal(t, "Tamil Nadu", regions[0].Region)
}

func TestLookupsRunConcurrently(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 2)
	blocking := func(name string) lookupFunc {
		return func(ctx context.Context, lat, lng float64) (string, error) {
			started <- name
			<-release
			return name, nil
		}
	}

	rec := &recorder{}
	r := New(DefaultLocation, stubCity{fn: blocking("city")}, stubRegion{fn: blocking("region")}, rec.handle, WithLogger(quietLogger()))
	r.OnLocationChange(1, 2)

	// Both lookups must be in flight at once before either is released.
	got := []string{<-started, <-started}
	assert.ElementsMatch(t, []string{"city", "region"}, got)
	close(release)
	r.Wait()
}

func TestCloseDropsLateResults(t *testing.T) {
	release := make(chan struct{})
	slow := func(ctx context.Context, lat, lng float64) (string, error) {
		select {
		case <-release:
			return "late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	rec := &recorder{}
	r := New(DefaultLocation, stubCity{fn: slow}, stubRegion{fn: slow}, rec.handle, WithLogger(quietLogger()))
	r.OnLocationChange(1, 2)
	require.NoError(t, r.Close())
	close(release)
	r.Wait()

	assert.Len(t, rec.byKind(EventCoordinate), 1)
	assert.Empty(t, rec.byKind(EventCity))
	assert.Empty(t, rec.byKind(EventRegion))

	r.OnLocationChange(3, 4)
	assert.Len(t, rec.byKind(EventCoordinate), 1)
}

func TestZoomChange(t *testing.T) {
	rec := &recorder{}
	r := New(DefaultLocation, nil, nil, rec.handle)
	assert.Equal(t, DefaultZoom, r.Zoom())

	r.OnZoomChange(14)
	assert.Equal(t, 14, r.Zoom())
	assert.Empty(t, rec.events)
	assert.Equal(t, DefaultLocation, r.Selected())
}

func TestSequenceIncreasesPerChange(t *testing.T) {
	rec := &recorder{}
	r := New(DefaultLocation, stubCity{fn: fixed("A", nil)}, stubRegion{fn: fixed("B", nil)}, rec.handle, WithLogger(quietLogger()))
	r.OnLocationChange(1, 1)
	r.OnLocationChange(2, 2)
	r.Wait()

	coords := rec.byKind(EventCoordinate)
	require.Len(t, coords, 2)
	assert.Equal(t, uint64(1), coords[0].Seq)
	assert.Equal(t, uint64(2), coords[1].Seq)
}

func TestStateDropsStaleLookups(t *testing.T) {
	state := NewState(DefaultLocation)

	state.Apply(Event{Kind: EventCoordinate, Seq: 2, Coordinate: models.Coordinate{Latitude: 2, Longitude: 2}})
	state.Apply(Event{Kind: EventCity, Seq: 2, City: "Newer"})
	state.Apply(Event{Kind: EventCity, Seq: 1, City: "Older"})
	state.Apply(Event{Kind: EventRegion, Seq: 1, Region: "Region"})
	state.Apply(Event{Kind: EventRegion, Seq: 2, Err: errors.New("boom")})

	snap := state.Snapshot()
	assert.Equal(t, 2.0, snap.Latitude)
	assert.Equal(t, "Newer", snap.City)
	assert.Equal(t, "Region", snap.Region)
	assert.Contains(t, snap.LastWarning, "region lookup failed")
}

func TestStateWithResolver(t *testing.T) {
	state := NewState(DefaultLocation)
	r := New(DefaultLocation, stubCity{fn: fixed("Chennai", nil)}, stubRegion{fn: fixed("Tamil Nadu", nil)}, state.Apply, WithLogger(quietLogger()))

	r.OnLocationChange(13.08, 80.27)
	r.Wait()

	snap := state.Snapshot()
	assert.Equal(t, 13.08, snap.Latitude)
	assert.Equal(t, 80.27, snap.Longitude)
	assert.Equal(t, "Chennai", snap.City)
	assert.Equal(t, "Tamil Nadu", snap.Region)
	assert.WithinDuration(t, time.Now(), snap.UpdatedAt, time.Minute)
}

func TestOverlappingPicksKeepNewestSelection(t *testing.T) {
	blocked := make(chan struct{})
	release := make(chan struct{})
	onResolved := func(e Event) {
		if e.Kind == EventCoordinate && e.Seq == 1 {
			close(blocked)
			<-release
		}
	}
	r := New(DefaultLocation, stubCity{fn: fixed("A", nil)}, stubRegion{fn: fixed("B", nil)}, onResolved, WithLogger(quietLogger()))

	done := make(chan struct{})
	go func() {
		r.OnLocationChange(1, 1)
		close(done)
	}()

	select {
	case <-blocked:
	case <-time.After(2 * time.Second):
		t.Fatal("first pick never reported its coordinate")
	}

	r.OnLocationChange(2, 2)
	close(release)
	<-done
	r.Wait()

	assert.Equal(t, models.Coordinate{Latitude: 2, Longitude: 2}, r.Selected())
}
