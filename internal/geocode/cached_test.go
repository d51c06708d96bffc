package geocode

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/openparcel/parceltrack/internal/geomath"
)

type fakeGeocoder struct {
	forwardCalls int
	reverseCalls int
	coord        *geomath.Coordinate
	name         string
	err          error
}

func (f *fakeGeocoder) Forward(ctx context.Context, q string) (*geomath.Coordinate, string, error) {
	f.forwardCalls++
	return f.coord, f.name, f.err
}

func (f *fakeGeocoder) Reverse(ctx context.Context, c geomath.Coordinate) (string, error) {
	f.reverseCalls++
	return f.name, f.err
}

type fakeCache struct {
	m map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok := c.m[key]
	return b, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.m[key] = value
	return nil
}

type fakeLimiter struct {
	allowed bool
	err     error
}

func (l *fakeLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	return l.allowed, l.err
}

func TestCached_Forward_HitSkipsInner(t *testing.T) {
	inner := &fakeGeocoder{coord: &geomath.Coordinate{Lat: 52.52, Lng: 13.405}, name: "Berlin"}
	c := &fakeCache{m: map[string][]byte{}}
	g := NewCached(inner, c, nil, time.Hour, 0)

	ctx := context.Background()
	coord, name, err := g.Forward(ctx, "Berlin")
	require.NoError(t, err)
	require.NotNil(t, coord)
	require.Equal(t, "Berlin", name)
	require.Equal(t, 1, inner.forwardCalls)

	// Second call, case/space-insensitive key, comes from cache.
	coord, _, err = g.Forward(ctx, "  berlin ")
	require.NoError(t, err)
	require.InDelta(t, 52.52, coord.Lat, 1e-9)
	require.Equal(t, 1, inner.forwardCalls)
}

func TestCached_Forward_NegativeResultIsCached(t *testing.T) {
	inner := &fakeGeocoder{}
	c := &fakeCache{m: map[string][]byte{}}
	g := NewCached(inner, c, nil, time.Hour, 0)

	ctx := context.Background()
	coord, _, err := g.Forward(ctx, "Atlantis")
	require.NoError(t, err)
	require.Nil(t, coord)

	coord, _, err = g.Forward(ctx, "Atlantis")
	require.NoError(t, err)
	require.Nil(t, coord)
	require.Equal(t, 1, inner.forwardCalls)
}

func TestCached_Forward_ErrorNotCached(t *testing.T) {
	inner := &fakeGeocoder{err: ErrUnavailable}
	c := &fakeCache{m: map[string][]byte{}}
	g := NewCached(inner, c, nil, time.Hour, 0)

	_, _, err := g.Forward(context.Background(), "Berlin")
	require.True(t, errors.Is(err, ErrUnavailable))
	require.Empty(t, c.m)
}

func TestCached_Forward_BudgetExhausted(t *testing.T) {
	inner := &fakeGeocoder{coord: &geomath.Coordinate{Lat: 1, Lng: 1}}
	g := NewCached(inner, nil, &fakeLimiter{allowed: false}, time.Hour, 10)

	_, _, err := g.Forward(context.Background(), "Berlin")
	require.True(t, errors.Is(err, ErrUnavailable))
	require.Zero(t, inner.forwardCalls)
}

func TestCached_Forward_BrokenLimiterDoesNotBlock(t *testing.T) {
	inner := &fakeGeocoder{coord: &geomath.Coordinate{Lat: 1, Lng: 1}}
	g := NewCached(inner, nil, &fakeLimiter{err: errors.New("redis down")}, time.Hour, 10)

	coord, _, err := g.Forward(context.Background(), "Berlin")
	require.NoError(t, err)
	require.NotNil(t, coord)
}

func TestCached_Reverse_Passthrough(t *testing.T) {
	inner := &fakeGeocoder{name: "Somewhere"}
	g := NewCached(inner, &fakeCache{m: map[string][]byte{}}, nil, time.Hour, 0)

	addr, err := g.Reverse(context.Background(), geomath.Coordinate{Lat: 1, Lng: 1})
	require.NoError(t, err)
	require.Equal(t, "Somewhere", addr)
	require.Equal(t, 1, inner.reverseCalls)
}

func TestCached_EmptyQuery(t *testing.T) {
	inner := &fakeGeocoder{}
	g := NewCached(inner, nil, nil, 0, 0)
	coord, _, err := g.Forward(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, coord)
	require.Zero(t, inner.forwardCalls)
}
