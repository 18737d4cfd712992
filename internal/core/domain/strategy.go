package domain

import (
	"fmt"
	"strings"

	"go.trai.ch/zerr"
)

// CacheKind selects where generated sources are kept.
type CacheKind uint8

const (
	// CacheNone never caches; every request regenerates.
	CacheNone CacheKind = iota
	// CacheInMemory keeps sources in process memory.
	CacheInMemory
	// CacheInFile keeps sources under the project root.
	CacheInFile
)

func (k CacheKind) String() string {
	switch k {
	case CacheNone:
		return "none"
	case CacheInMemory:
		return "memory"
	case CacheInFile:
		return "file"
	default:
		return fmt.Sprintf("CacheKind(%d)", uint8(k))
	}
}

// ParseCacheKind accepts the names produced by CacheKind.String.
func ParseCacheKind(s string) (CacheKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CacheNone, nil
	case "memory", "inmemory", "in_memory":
		return CacheInMemory, nil
	case "file", "infile", "in_file":
		return CacheInFile, nil
	default:
		return CacheNone, zerr.With(ErrInvalidStrategy, "kind", s)
	}
}

// Durability is the eviction policy applied per unit identity.
// A zero Limit keeps every entry.
type Durability struct {
	Limit int
}

// KeepForever never evicts.
func KeepForever() Durability {
	return Durability{}
}

// LimitCountByLastUse keeps at most n entries per unit, evicting the least
// recently used one first.
func LimitCountByLastUse(n int) Durability {
	return Durability{Limit: n}
}

func (d Durability) String() string {
	if d.Limit <= 0 {
		return "KeepForever"
	}
	return fmt.Sprintf("LimitCountByLastUse(%d)", d.Limit)
}

// DurabilityCheck controls when a cache hit is trusted.
type DurabilityCheck uint8

const (
	// CheckAllOnUse re-derives the hash and revalidates stored data on every use.
	CheckAllOnUse DurabilityCheck = iota
)

func (c DurabilityCheck) String() string {
	switch c {
	case CheckAllOnUse:
		return "AllOnUse"
	default:
		return fmt.Sprintf("DurabilityCheck(%d)", uint8(c))
	}
}

// CacheStrategy is a unit's declared caching policy.
type CacheStrategy struct {
	Kind       CacheKind
	Durability Durability
	Check      DurabilityCheck
}

// NoCache is the strategy that always regenerates.
var NoCache = CacheStrategy{Kind: CacheNone}

// InMemory caches in process memory.
func InMemory(d Durability, c DurabilityCheck) CacheStrategy {
	return CacheStrategy{Kind: CacheInMemory, Durability: d, Check: c}
}

// InFile caches under the project root.
func InFile(d Durability, c DurabilityCheck) CacheStrategy {
	return CacheStrategy{Kind: CacheInFile, Durability: d, Check: c}
}

// Validate rejects negative limits and unknown check variants.
func (s CacheStrategy) Validate() error {
	if s.Kind > CacheInFile {
		return zerr.With(ErrInvalidStrategy, "kind", s.Kind.String())
	}
	if s.Durability.Limit < 0 {
		return zerr.With(ErrInvalidStrategy, "limit", s.Durability.Limit)
	}
	if s.Check != CheckAllOnUse {
		return zerr.With(ErrInvalidStrategy, "check", s.Check.String())
	}
	return nil
}

// String describes the strategy, e.g. "InFile(LimitCountByLastUse(2), AllOnUse)".
func (s CacheStrategy) String() string {
	switch s.Kind {
	case CacheNone:
		return "None"
	case CacheInMemory:
		return fmt.Sprintf("InMemory(%s, %s)", s.Durability, s.Check)
	case CacheInFile:
		return fmt.Sprintf("InFile(%s, %s)", s.Durability, s.Check)
	default:
		return s.Kind.String()
	}
}

// CacheScope identifies whose entries a cache request touches.
type CacheScope struct {
	UnitID   string
	Strategy CacheStrategy
}
