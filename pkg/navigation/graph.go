package navigation

import (
	"wayfinder/pkg/ontology"
)

// Graph is the read-only query surface over the location catalog. Unknown
// ids yield not-found/empty results, never errors; mutation belongs to the
// catalog service, not the engine.
type Graph interface {
	// Location returns the location with the given id, or false.
	Location(id string) (*ontology.Location, bool)
	// Locations returns every known location in a stable order.
	Locations() []*ontology.Location
	// Adjacent returns the locations directly reachable from id. The
	// result is empty for unknown ids and preserves declaration order.
	Adjacent(id string) []*ontology.Location
	// Exists reports whether id names a known location.
	Exists(id string) bool
}

// MemoryGraph is an immutable in-memory Graph, typically a startup
// snapshot of the catalog database.
type MemoryGraph struct {
	locations map[string]*ontology.Location
	order     []string
}

// NewMemoryGraph builds a graph from the given locations. Later duplicates
// of the same id replace earlier ones.
func NewMemoryGraph(locations ...*ontology.Location) *MemoryGraph {
	g := &MemoryGraph{locations: make(map[string]*ontology.Location, len(locations))}
	for _, loc := range locations {
		if loc == nil || loc.LocationID == "" {
			continue
		}
		if _, seen := g.locations[loc.LocationID]; !seen {
			g.order = append(g.order, loc.LocationID)
		}
		g.locations[loc.LocationID] = loc
	}
	return g
}

func (g *MemoryGraph) Location(id string) (*ontology.Location, bool) {
	loc, ok := g.locations[id]
	return loc, ok
}

func (g *MemoryGraph) Locations() []*ontology.Location {
	out := make([]*ontology.Location, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.locations[id])
	}
	return out
}

func (g *MemoryGraph) Adjacent(id string) []*ontology.Location {
	loc, ok := g.locations[id]
	if !ok {
		return nil
	}
	out := make([]*ontology.Location, 0, len(loc.Adjacent))
	for _, aid := range loc.Adjacent {
		if neighbor, ok := g.locations[aid]; ok {
			out = append(out, neighbor)
		}
	}
	return out
}

func (g *MemoryGraph) Exists(id string) bool {
	_, ok := g.locations[id]
	return ok
}
