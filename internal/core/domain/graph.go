// Package domain contains the core domain models for hash-gated content generation.
package domain

import (
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// UnitSpec is a declared unit before it is instantiated.
type UnitSpec struct {
	ID           string
	Kind         string
	Strategy     CacheStrategy
	Dependencies []string
	// ConfigStore is the unit's own config store path, relative to the root.
	ConfigStore string
	Config      map[string]any
}

// UnitGraph orders unit declarations so that dependencies come first.
type UnitGraph struct {
	units map[string]UnitSpec
	order []string
}

// NewUnitGraph creates an empty graph.
func NewUnitGraph() *UnitGraph {
	return &UnitGraph{units: make(map[string]UnitSpec)}
}

// AddUnit adds a declaration. It returns an error if the ID is empty or taken.
func (g *UnitGraph) AddUnit(spec UnitSpec) error {
	if strings.TrimSpace(spec.ID) == "" {
		return ErrInvalidUnitID
	}
	if _, exists := g.units[spec.ID]; exists {
		return zerr.With(ErrUnitAlreadyExists, "unit_id", spec.ID)
	}
	g.units[spec.ID] = spec
	return nil
}

// Validate checks for missing dependencies and cycles using a depth-first
// topological sort. Units are visited in ID order so Walk is deterministic.
func (g *UnitGraph) Validate() error {
	g.order = make([]string, 0, len(g.units))
	visited := make(map[string]int) // 0: unvisited, 1: visiting, 2: visited
	var path []string

	var visit func(id string) error
	visit = func(id string) error {
		visited[id] = 1
		path = append(path, id)

		for _, dep := range g.units[id].Dependencies {
			if _, exists := g.units[dep]; !exists {
				return zerr.With(zerr.With(ErrMissingDependency, "dependency", dep), "unit_id", id)
			}
			switch visited[dep] {
			case 1:
				return buildCycleError(path, dep)
			case 0:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[id] = 2
		path = path[:len(path)-1]
		g.order = append(g.order, id)
		return nil
	}

	ids := make([]string, 0, len(g.units))
	for id := range g.units {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if visited[id] == 0 {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildCycleError(path []string, dep string) error {
	start := slices.Index(path, dep)
	cycle := append(slices.Clone(path[start:]), dep)
	return zerr.With(ErrCycleDetected, "cycle", strings.Join(cycle, " -> "))
}

// Walk yields declarations with dependencies first.
// It assumes Validate has been called and returned nil.
func (g *UnitGraph) Walk() iter.Seq[UnitSpec] {
	return func(yield func(UnitSpec) bool) {
		for _, id := range g.order {
			if !yield(g.units[id]) {
				return
			}
		}
	}
}
