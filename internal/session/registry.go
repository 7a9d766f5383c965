package session

import (
	"errors"
	"sync"
	"time"

	"github.com/MaratheHarshad/SIH-PROJECT/internal/metrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned for unknown or already closed session IDs.
var ErrNotFound = errors.New("session not found")

// Closer is any mounted view component
type Closer interface {
	Close() error
}

type entry[T Closer] struct {
	value    T
	lastSeen time.Time
}

// Registry tracks mounted components by ID. Closing a session unmounts the
// component it holds.
type Registry[T Closer] struct {
	kind    string
	logger  *logrus.Logger
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]*entry[T]
}

// NewRegistry creates an empty registry; kind labels its metrics and logs.
func NewRegistry[T Closer](kind string, logger *logrus.Logger) *Registry[T] {
	if logger == nil {
		logger = logrus.New()
	}
	return &Registry[T]{
		kind:    kind,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*entry[T]),
	}
}

// Open builds a component for a fresh ID and registers it.
func (r *Registry[T]) Open(build func(id string) T) (string, T) {
	id := uuid.NewString()
	value := build(id)

	r.mu.Lock()
	r.entries[id] = &entry[T]{value: value, lastSeen: r.now()}
	count := len(r.entries)
	r.mu.Unlock()

	metrics.SessionsActive.WithLabelValues(r.kind).Set(float64(count))
	return id, value
}

// Get returns the component for id and marks the session as used.
func (r *Registry[T]) Get(id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	e.lastSeen = r.now()
	return e.value, nil
}

// Close removes the session and closes its component.
func (r *Registry[T]) Close(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	count := len(r.entries)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	metrics.SessionsActive.WithLabelValues(r.kind).Set(float64(count))
	return e.value.Close()
}

// Sweep closes every session idle for longer than idle and returns how many
// were closed.
func (r *Registry[T]) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	expired := make(map[string]T)
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			expired[id] = e.value
			delete(r.entries, id)
		}
	}
	count := len(r.entries)
	r.mu.Unlock()

	for id, value := range expired {
		r.closeQuietly(id, value)
	}
	if len(expired) > 0 {
		metrics.SessionsActive.WithLabelValues(r.kind).Set(float64(count))
	}
	return len(expired)
}

// CloseAll closes every session; used on shutdown.
func (r *Registry[T]) CloseAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry[T])
	r.mu.Unlock()

	for id, e := range entries {
		r.closeQuietly(id, e.value)
	}
	metrics.SessionsActive.WithLabelValues(r.kind).Set(0)
}

func (r *Registry[T]) closeQuietly(id string, value T) {
	if err := value.Close(); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"kind":       r.kind,
			"session_id": id,
		}).Error("Error closing session")
	}
}

// Len returns the number of mounted sessions.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
