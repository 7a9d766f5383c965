package locator

import (
	"context"
	"sync"

	"github.com/MaratheHarshad/SIH-PROJECT/internal/geocode"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/models"
	"github.com/sirupsen/logrus"
)

const DefaultZoom = 10

// DefaultLocation is the map center used when no better position is known.
var DefaultLocation = models.Coordinate{Latitude: 12.8996, Longitude: 80.2209}

// EventKind identifies what an Event reports
type EventKind string

const (
	EventCoordinate EventKind = "coordinate"
	EventCity       EventKind = "city"
	EventRegion     EventKind = "region"
)

// Event is delivered to the owner for every reported change. City and
// Region events carry Err instead of a value when the lookup failed.
type Event struct {
	Kind       EventKind         `json:"kind"`
	Seq        uint64            `json:"seq"`
	Coordinate models.Coordinate `json:"coordinate"`
	City       string            `json:"city,omitempty"`
	Region     string            `json:"region,omitempty"`
	Err        error             `json:"-"`
}

// Resolver turns map picks into a coordinate plus city and region names
type Resolver struct {
	city       geocode.CityLookup
	region     geocode.RegionLookup
	onResolved func(Event)
	logger     *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	selected models.Coordinate
	zoom     int
	seq      uint64
	closed   bool
}

// Option configures a Resolver
type Option func(*Resolver)

func WithLogger(logger *logrus.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithZoom(zoom int) Option {
	return func(r *Resolver) {
		r.zoom = zoom
	}
}

// New creates a resolver positioned at initial. onResolved may be called
// from lookup goroutines and must be safe for concurrent use.
func New(initial models.Coordinate, city geocode.CityLookup, region geocode.RegionLookup, onResolved func(Event), opts ...Option) *Resolver {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Resolver{
		city:       city,
		region:     region,
		onResolved: onResolved,
		logger:     logrus.New(),
		ctx:        ctx,
		cancel:     cancel,
		selected:   initial,
		zoom:       DefaultZoom,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnLocationChange reports the picked coordinate to the owner, then starts
// the city and region lookups independently of each other.
func (r *Resolver) OnLocationChange(lat, lng float64) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.seq++
	seq := r.seq
	r.wg.Add(2)
	r.mu.Unlock()

	coord := models.Coordinate{Latitude: lat, Longitude: lng}
	r.emit(Event{Kind: EventCoordinate, Seq: seq, Coordinate: coord})

	go r.lookupCity(seq, coord)
	go r.lookupRegion(seq, coord)

	// An overlapping newer pick owns the pin.
	r.mu.Lock()
	if seq == r.seq {
		r.selected = coord
	}
	r.mu.Unlock()
}

// OnZoomChange records the map zoom level.
func (r *Resolver) OnZoomChange(zoom int) {
	r.mu.Lock()
	r.zoom = zoom
	r.mu.Unlock()
}

// Selected returns the current pin position.
func (r *Resolver) Selected() models.Coordinate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

// Zoom returns the current zoom level.
func (r *Resolver) Zoom() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zoom
}

// Close unmounts the resolver. In-flight lookups are cancelled and their
// results dropped.
func (r *Resolver) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()
	return nil
}

// Wait blocks until all started lookups have returned.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

func (r *Resolver) lookupCity(seq uint64, coord models.Coordinate) {
	defer r.wg.Done()
	event := Event{Kind: EventCity, Seq: seq, Coordinate: coord}
	if r.city == nil {
		return
	}

	city, err := r.city.LookupCity(r.ctx, coord.Latitude, coord.Longitude)
	if err != nil {
		r.logLookupFailure(err, event)
		event.Err = err
	} else {
		event.City = city
	}
	r.emit(event)
}

func (r *Resolver) lookupRegion(seq uint64, coord models.Coordinate) {
	defer r.wg.Done()
	event := Event{Kind: EventRegion, Seq: seq, Coordinate: coord}
	if r.region == nil {
		return
	}

	region, err := r.region.LookupRegion(r.ctx, coord.Latitude, coord.Longitude)
	if err != nil {
		r.logLookupFailure(err, event)
		event.Err = err
	} else {
		event.Region = region
	}
	r.emit(event)
}

func (r *Resolver) logLookupFailure(err error, event Event) {
	if r.ctx.Err() != nil {
		return
	}
	r.logger.WithError(err).WithFields(logrus.Fields{
		"kind": event.Kind,
		"seq":  event.Seq,
		"lat":  event.Coordinate.Latitude,
		"lng":  event.Coordinate.Longitude,
	}).Warn("Reverse lookup failed; keeping previous value")
}

func (r *Resolver) emit(event Event) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed || r.onResolved == nil {
		return
	}
	r.onResolved(event)
}
