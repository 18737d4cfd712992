package cache

import (
	"cmp"
	"maps"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
)

type slot[V any] struct {
	value   V
	lastUse uint64
}

// lruIndex maps unit ID to content hash to value and orders entries of a unit
// by a logical clock that advances on every use.
type lruIndex[V any] struct {
	clock uint64
	units map[string]map[domain.ContentHash]*slot[V]
}

func newLRUIndex[V any]() *lruIndex[V] {
	return &lruIndex[V]{units: make(map[string]map[domain.ContentHash]*slot[V])}
}

func (x *lruIndex[V]) tick() uint64 {
	x.clock++
	return x.clock
}

// get returns the value and marks it as used.
func (x *lruIndex[V]) get(unit string, h domain.ContentHash) (V, bool) {
	s, ok := x.units[unit][h]
	if !ok {
		var zero V
		return zero, false
	}
	s.lastUse = x.tick()
	return s.value, true
}

func (x *lruIndex[V]) peek(unit string, h domain.ContentHash) (V, bool) {
	s, ok := x.units[unit][h]
	if !ok {
		var zero V
		return zero, false
	}
	return s.value, true
}

// put inserts or replaces the value and marks it as used.
func (x *lruIndex[V]) put(unit string, h domain.ContentHash, v V) {
	x.restore(unit, h, v, x.tick())
}

// restore inserts a value with a known last use, as read back from disk.
func (x *lruIndex[V]) restore(unit string, h domain.ContentHash, v V, lastUse uint64) {
	entries, ok := x.units[unit]
	if !ok {
		entries = make(map[domain.ContentHash]*slot[V])
		x.units[unit] = entries
	}
	entries[h] = &slot[V]{value: v, lastUse: lastUse}
	x.clock = max(x.clock, lastUse)
}

// evict drops least recently used entries of unit until at most limit remain.
// The entry for keep is never dropped. A limit of zero keeps everything.
func (x *lruIndex[V]) evict(unit string, limit int, keep domain.ContentHash) map[domain.ContentHash]V {
	entries := x.units[unit]
	if limit <= 0 || len(entries) <= limit {
		return nil
	}

	victims := slices.Collect(maps.Keys(entries))
	victims = slices.DeleteFunc(victims, func(h domain.ContentHash) bool { return h == keep })
	slices.SortFunc(victims, func(a, b domain.ContentHash) int {
		return cmp.Compare(entries[a].lastUse, entries[b].lastUse)
	})

	evicted := make(map[domain.ContentHash]V)
	for _, h := range victims {
		if len(entries) <= limit {
			break
		}
		evicted[h] = entries[h].value
		delete(entries, h)
	}
	return evicted
}

func (x *lruIndex[V]) remove(unit string, h domain.ContentHash) (V, bool) {
	s, ok := x.units[unit][h]
	if !ok {
		var zero V
		return zero, false
	}
	delete(x.units[unit], h)
	if len(x.units[unit]) == 0 {
		delete(x.units, unit)
	}
	return s.value, true
}

func (x *lruIndex[V]) removeUnit(unit string) int {
	n := len(x.units[unit])
	delete(x.units, unit)
	return n
}

func (x *lruIndex[V]) len(unit string) int {
	return len(x.units[unit])
}
