package navigation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfinder/pkg/navigation"
	"wayfinder/pkg/ontology"
)

// loc builds a graph fixture node. Name defaults to the id so instruction
// text stays predictable in tests.
func loc(id string, x, y float64, adjacent ...string) *ontology.Location {
	return &ontology.Location{
		LocationID: id,
		Name:       id,
		Position:   ontology.Coordinate{X: x, Y: y},
		Category:   "room",
		Adjacent:   adjacent,
	}
}

func TestMemoryGraphLookup(t *testing.T) {
	g := navigation.NewMemoryGraph(
		loc("entrance", 0, 0, "lobby"),
		loc("lobby", 0, 10, "entrance"),
	)

	found, ok := g.Location("entrance")
	require.True(t, ok)
	assert.Equal(t, "entrance", found.LocationID)

	_, ok = g.Location("basement")
	assert.False(t, ok)

	assert.True(t, g.Exists("lobby"))
	assert.False(t, g.Exists("basement"))
}

func TestMemoryGraphAdjacencyOrder(t *testing.T) {
	g := navigation.NewMemoryGraph(
		loc("hub", 0, 0, "east-wing", "west-wing", "north-wing"),
		loc("east-wing", 10, 0, "hub"),
		loc("west-wing", -10, 0, "hub"),
		loc("north-wing", 0, 10, "hub"),
	)

	neighbors := g.Adjacent("hub")
	require.Len(t, neighbors, 3)
	assert.Equal(t, "east-wing", neighbors[0].LocationID)
	assert.Equal(t, "west-wing", neighbors[1].LocationID)
	assert.Equal(t, "north-wing", neighbors[2].LocationID)
}

func TestMemoryGraphUnknownAdjacencyIsEmpty(t *testing.T) {
	g := navigation.NewMemoryGraph(loc("entrance", 0, 0))

	assert.Empty(t, g.Adjacent("basement"))
	assert.Empty(t, g.Adjacent("entrance"))
}

func TestMemoryGraphSkipsDanglingNeighbors(t *testing.T) {
	// A declared neighbor missing from the catalog is skipped, not an error.
	g := navigation.NewMemoryGraph(loc("entrance", 0, 0, "lobby", "demolished"), loc("lobby", 0, 10))

	neighbors := g.Adjacent("entrance")
	require.Len(t, neighbors, 1)
	assert.Equal(t, "lobby", neighbors[0].LocationID)
}

func TestMemoryGraphStableOrder(t *testing.T) {
	g := navigation.NewMemoryGraph(
		loc("c", 0, 0),
		loc("a", 1, 0),
		loc("b", 2, 0),
	)

	all := g.Locations()
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].LocationID)
	assert.Equal(t, "a", all[1].LocationID)
	assert.Equal(t, "b", all[2].LocationID)
}
