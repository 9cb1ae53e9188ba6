package crossfilter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-dashboard/utils"
)

func newTestRegistry(ttl time.Duration) (*Registry, *time.Time) {
	r := NewRegistry(ttl, utils.NewDiscardLogger())
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }
	return r, &clock
}

func TestRegistryCreateGet(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)

	id, state := r.Create()
	require.NotEmpty(t, id)

	got, err := r.Get(id)
	require.NoError(t, err)
	assert.Same(t, state, got)

	other, _ := r.Create()
	assert.NotEqual(t, id, other)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryUnknownSession(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)
	_, err := r.Get("missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestRegistrySessionsAreIndependent(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)
	_, a := r.Create()
	_, b := r.Create()

	a.Toggle("A")
	assert.True(t, b.Snapshot().Empty())
}

func TestRegistryDelete(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)
	id, _ := r.Create()
	r.Delete(id)
	_, err := r.Get(id)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestRegistryPrune(t *testing.T) {
	r, clock := newTestRegistry(time.Minute)

	idle, _ := r.Create()
	watched, watchedState := r.Create()
	watchedState.Subscribe(func(Selection) {})
	active, _ := r.Create()

	*clock = clock.Add(45 * time.Second)
	_, err := r.Get(active)
	require.NoError(t, err)

	*clock = clock.Add(30 * time.Second)
	assert.Equal(t, 1, r.Prune())

	_, err = r.Get(idle)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	_, err = r.Get(watched)
	assert.NoError(t, err, "sessions with live observers are kept")
	_, err = r.Get(active)
	assert.NoError(t, err)
}

func TestRegistryStartStops(t *testing.T) {
	r := NewRegistry(time.Nanosecond, utils.NewDiscardLogger())
	r.Create()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
}
