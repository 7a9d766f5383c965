package locator

import (
	"sync"
	"time"

	"github.com/MaratheHarshad/SIH-PROJECT/internal/models"
)

// State is an owning context for a Resolver: it keeps the last values
// reported for each field.
type State struct {
	mu        sync.RWMutex
	snapshot  Snapshot
	citySeq   uint64
	regionSeq uint64
	coordSeq  uint64
}

// Snapshot is a point-in-time copy of State
type Snapshot struct {
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	City        string    `json:"city"`
	Region      string    `json:"region"`
	LastWarning string    `json:"last_warning,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewState seeds the state with the initial coordinate.
func NewState(initial models.Coordinate) *State {
	return &State{snapshot: Snapshot{
		Latitude:  initial.Latitude,
		Longitude: initial.Longitude,
		UpdatedAt: time.Now().UTC(),
	}}
}

// Apply records event. An event older than the last applied one of the same
// kind is ignored, so a slow lookup for an earlier pick cannot overwrite a
// newer answer. Failed lookups only record a warning.
func (s *State) Apply(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Err != nil {
		s.snapshot.LastWarning = string(event.Kind) + " lookup failed: " + event.Err.Error()
		return
	}

	switch event.Kind {
	case EventCoordinate:
		if event.Seq < s.coordSeq {
			return
		}
		s.coordSeq = event.Seq
		s.snapshot.Latitude = event.Coordinate.Latitude
		s.snapshot.Longitude = event.Coordinate.Longitude
	case EventCity:
		if event.Seq < s.citySeq {
			return
		}
		s.citySeq = event.Seq
		s.snapshot.City = event.City
	case EventRegion:
		if event.Seq < s.regionSeq {
			return
		}
		s.regionSeq = event.Seq
		s.snapshot.Region = event.Region
	default:
		return
	}
	s.snapshot.UpdatedAt = time.Now().UTC()
}

// Snapshot returns the current values.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}
