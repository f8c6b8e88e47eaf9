package engine

import (
	"github.com/dgraph-io/ristretto/v2"
)

// EvalCache memoizes static evaluations by position key. It is shared by all
// search workers; a miss only costs a recomputation.
type EvalCache struct {
	cache *ristretto.Cache[uint64, float64]
}

// NewEvalCache creates a cache holding about the given number of entries.
func NewEvalCache(entries int) (*EvalCache, error) {
	if entries < 1 {
		entries = 1
	}
	c, err := ristretto.NewCache(&ristretto.Config[uint64, float64]{
		NumCounters: int64(entries) * 10,
		MaxCost:     int64(entries),
		BufferItems: 64,

		// Every entry costs 1, so MaxCost counts entries
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &EvalCache{cache: c}, nil
}

// Probe looks up a cached evaluation.
func (ec *EvalCache) Probe(key uint64) (float64, bool) {
	if ec == nil {
		return 0, false
	}
	return ec.cache.Get(key)
}

// Store records an evaluation. Writes are buffered and may be dropped.
func (ec *EvalCache) Store(key uint64, score float64) {
	if ec == nil {
		return
	}
	ec.cache.Set(key, score, 1)
}

// Wait blocks until buffered writes are visible to Probe.
func (ec *EvalCache) Wait() {
	if ec != nil {
		ec.cache.Wait()
	}
}

// Clear drops every entry.
func (ec *EvalCache) Clear() {
	if ec != nil {
		ec.cache.Clear()
	}
}

// Close releases the cache goroutines.
func (ec *EvalCache) Close() {
	if ec != nil {
		ec.cache.Close()
	}
}
