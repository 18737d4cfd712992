package ports

import "time"

// Cache lookup results.
const (
	LookupHit     = "hit"
	LookupPartial = "partial"
	LookupMiss    = "miss"
)

// Metrics records cache and generation activity.
// Implementations must be safe for concurrent use.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// CacheLookup records a lookup against the named backend. result is one
	// of LookupHit, LookupPartial or LookupMiss.
	CacheLookup(backend, result string)
	// CacheStore records a write to the named backend.
	CacheStore(backend string)
	// CacheEviction records n entries evicted from the named backend.
	CacheEviction(backend string, n int)
	// Generation records one generation run. mode is "full", "partial" or "fallback".
	Generation(mode string, d time.Duration, err error)
}
