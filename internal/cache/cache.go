package cache

import (
	"context"
	"time"
)

// BytesCache is a best-effort byte cache. Callers tolerate errors and
// misses; a broken cache must never break the request it backs.
type BytesCache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
