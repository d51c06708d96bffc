package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openparcel/parceltrack/internal/cache"
	"github.com/openparcel/parceltrack/internal/geomath"
)

// Limiter is the outbound call budget (see rediscache.Allow).
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

const (
	limiterKey    = "geocode:budget"
	limiterWindow = time.Minute
)

type cachedResult struct {
	Found bool    `json:"found"`
	Lat   float64 `json:"lat,omitempty"`
	Lng   float64 `json:"lng,omitempty"`
	Name  string  `json:"name,omitempty"`
}

// Cached wraps a Geocoder with a best-effort result cache and a call
// budget. Cache failures fall through to the inner geocoder; an
// exhausted budget reads as TEMPORARY unavailability, which callers
// already degrade on. Negative results are cached too — the oracle is
// slow and a missing place stays missing.
type Cached struct {
	inner   Geocoder
	cache   cache.BytesCache
	limiter Limiter

	ttl            time.Duration
	limitPerMinute int64
}

func NewCached(inner Geocoder, c cache.BytesCache, limiter Limiter, ttl time.Duration, limitPerMinute int64) *Cached {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cached{inner: inner, cache: c, limiter: limiter, ttl: ttl, limitPerMinute: limitPerMinute}
}

func (g *Cached) Forward(ctx context.Context, query string) (*geomath.Coordinate, string, error) {
	if query == "" {
		return nil, "", nil
	}
	key := forwardKey(query)

	if g.cache != nil {
		if b, ok, err := g.cache.Get(ctx, key); err == nil && ok {
			var r cachedResult
			if json.Unmarshal(b, &r) == nil {
				if !r.Found {
					return nil, "", nil
				}
				return &geomath.Coordinate{Lat: r.Lat, Lng: r.Lng}, r.Name, nil
			}
		}
	}

	if err := g.spend(ctx); err != nil {
		return nil, "", err
	}

	coord, name, err := g.inner.Forward(ctx, query)
	if err != nil {
		return nil, "", err
	}

	if g.cache != nil {
		r := cachedResult{Found: coord != nil, Name: name}
		if coord != nil {
			r.Lat, r.Lng = coord.Lat, coord.Lng
		}
		b, _ := json.Marshal(r)
		if err := g.cache.Set(ctx, key, b, g.ttl); err != nil {
			slog.Debug("geocode cache set failed", "err", err)
		}
	}
	return coord, name, nil
}

// Reverse is not cached: positions rarely repeat exactly, and reverse
// lookups only decorate events that already carry coordinates.
func (g *Cached) Reverse(ctx context.Context, c geomath.Coordinate) (string, error) {
	if err := g.spend(ctx); err != nil {
		return "", err
	}
	return g.inner.Reverse(ctx, c)
}

func (g *Cached) spend(ctx context.Context) error {
	if g.limiter == nil || g.limitPerMinute <= 0 {
		return nil
	}
	ok, err := g.limiter.Allow(ctx, limiterKey, g.limitPerMinute, limiterWindow)
	if err != nil {
		// Broken limiter must not block geocoding.
		slog.Debug("geocode limiter failed", "err", err)
		return nil
	}
	if !ok {
		return ErrUnavailable
	}
	return nil
}

func forwardKey(query string) string {
	return fmt.Sprintf("geocode:fwd:%s", strings.ToLower(strings.TrimSpace(query)))
}

var _ Geocoder = (*Cached)(nil)
