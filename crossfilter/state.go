// Package crossfilter holds the dashboard's explicit selection state: the set
// of highlighted neighbourhoods and an optional price/rating zoom interval.
// Chart builders read immutable Selection snapshots; only State mutates.
package crossfilter

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidInterval = errors.New("invalid zoom interval")
	ErrSessionNotFound = errors.New("session not found")
)

var validate = validator.New()

// Interval is a price × rating rectangle applied to the linked scatter's scales.
type Interval struct {
	PriceMin  float64 `json:"price_min"`
	PriceMax  float64 `json:"price_max" validate:"gtefield=PriceMin"`
	RatingMin float64 `json:"rating_min"`
	RatingMax float64 `json:"rating_max" validate:"gtefield=RatingMin"`
}

// Validate reports ErrInvalidInterval for inverted or non-finite bounds.
func (iv Interval) Validate() error {
	for _, v := range []float64{iv.PriceMin, iv.PriceMax, iv.RatingMin, iv.RatingMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bounds must be finite", ErrInvalidInterval)
		}
	}
	if err := validate.Struct(iv); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, err)
	}
	return nil
}

// Selection is an immutable snapshot of a State. Neighbourhoods is sorted and
// never nil. Version increases by one on every change.
type Selection struct {
	Neighbourhoods []string  `json:"neighbourhoods"`
	Zoom           *Interval `json:"zoom,omitempty"`
	Version        uint64    `json:"version"`
}

// Contains reports whether label is selected.
func (s Selection) Contains(label string) bool {
	i := sort.SearchStrings(s.Neighbourhoods, label)
	return i < len(s.Neighbourhoods) && s.Neighbourhoods[i] == label
}

// Empty reports whether no neighbourhood is selected.
func (s Selection) Empty() bool {
	return len(s.Neighbourhoods) == 0
}

// Observer receives the new snapshot after every change.
type Observer func(Selection)

// State is the mutable cross-filter selection of one dashboard session.
// It starts empty with no zoom. All methods are safe for concurrent use.
type State struct {
	mu        sync.Mutex
	selected  map[string]struct{}
	zoom      *Interval
	version   uint64
	observers map[int]Observer
	nextID    int
}

func NewState() *State {
	return &State{
		selected:  make(map[string]struct{}),
		observers: make(map[int]Observer),
	}
}

// Toggle adds label to the selection if absent and removes it if present.
// Other labels are unaffected.
func (s *State) Toggle(label string) Selection {
	s.mu.Lock()
	if _, ok := s.selected[label]; ok {
		delete(s.selected, label)
	} else {
		s.selected[label] = struct{}{}
	}
	snap, obs := s.changedLocked()
	s.mu.Unlock()

	notify(obs, snap)
	return snap
}

// SetZoom replaces the zoom interval.
func (s *State) SetZoom(iv Interval) (Selection, error) {
	if err := iv.Validate(); err != nil {
		return s.Snapshot(), err
	}

	s.mu.Lock()
	s.zoom = &iv
	snap, obs := s.changedLocked()
	s.mu.Unlock()

	notify(obs, snap)
	return snap, nil
}

// ResetZoom drops the zoom interval, keeping the neighbourhood selection.
func (s *State) ResetZoom() Selection {
	s.mu.Lock()
	s.zoom = nil
	snap, obs := s.changedLocked()
	s.mu.Unlock()

	notify(obs, snap)
	return snap
}

// Clear returns the state to its initial value: nothing selected, no zoom.
func (s *State) Clear() Selection {
	s.mu.Lock()
	s.selected = make(map[string]struct{})
	s.zoom = nil
	snap, obs := s.changedLocked()
	s.mu.Unlock()

	notify(obs, snap)
	return snap
}

func (s *State) Snapshot() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) Contains(label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[label]
	return ok
}

// Subscribe registers fn to be called after every change. Observers run on
// the mutating goroutine, outside the state lock, and must not block.
// The returned function removes the observer and is safe to call twice.
func (s *State) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Observers returns the number of registered observers.
func (s *State) Observers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

func (s *State) changedLocked() (Selection, []Observer) {
	s.version++
	obs := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		obs = append(obs, fn)
	}
	return s.snapshotLocked(), obs
}

func (s *State) snapshotLocked() Selection {
	labels := make([]string, 0, len(s.selected))
	for l := range s.selected {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	var zoom *Interval
	if s.zoom != nil {
		z := *s.zoom
		zoom = &z
	}
	return Selection{Neighbourhoods: labels, Zoom: zoom, Version: s.version}
}

func notify(obs []Observer, snap Selection) {
	for _, fn := range obs {
		fn(snap)
	}
}
