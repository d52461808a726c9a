package ontology_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wayfinder/pkg/ontology"
)

func TestRouteValid(t *testing.T) {
	route := &ontology.Route{
		RouteID: "r1",
		StartID: "a",
		EndID:   "c",
		Path:    []string{"a", "b", "c"},
		Instructions: []ontology.Instruction{
			{Kind: ontology.InstructionStart, FromID: "a", ToID: "b"},
			{Kind: ontology.InstructionDestination, FromID: "b", ToID: "c"},
		},
		DistanceMeters:  12,
		DurationSeconds: 20,
	}
	assert.True(t, route.Valid())

	t.Run("nil route", func(t *testing.T) {
		var r *ontology.Route
		assert.False(t, r.Valid())
	})

	t.Run("empty path", func(t *testing.T) {
		r := *route
		r.Path = nil
		assert.False(t, r.Valid())
	})

	t.Run("endpoint mismatch", func(t *testing.T) {
		r := *route
		r.EndID = "elsewhere"
		assert.False(t, r.Valid())
	})

	t.Run("negative totals", func(t *testing.T) {
		r := *route
		r.DistanceMeters = -1
		assert.False(t, r.Valid())
	})

	t.Run("multi node path without instructions", func(t *testing.T) {
		r := *route
		r.Instructions = nil
		assert.False(t, r.Valid())
	})

	t.Run("single node path without instructions", func(t *testing.T) {
		r := ontology.Route{RouteID: "r2", StartID: "a", EndID: "a", Path: []string{"a"}}
		assert.True(t, r.Valid())
	})
}

func TestRoutePathLookup(t *testing.T) {
	route := &ontology.Route{Path: []string{"a", "b", "c"}}

	assert.Equal(t, 0, route.IndexOf("a"))
	assert.Equal(t, 2, route.IndexOf("c"))
	assert.Equal(t, -1, route.IndexOf("z"))
	assert.True(t, route.Contains("b"))
	assert.False(t, route.Contains("z"))
}

func TestCoordinateDistance(t *testing.T) {
	a := ontology.Coordinate{X: 0, Y: 0}
	b := ontology.Coordinate{X: 3, Y: 4}

	assert.InDelta(t, 5, a.DistanceTo(b), 1e-9)
	assert.InDelta(t, 5, b.DistanceTo(a), 1e-9)
	assert.Zero(t, a.DistanceTo(a))
}

func TestLocationAdjacency(t *testing.T) {
	l := &ontology.Location{LocationID: "lobby", Adjacent: []string{"entrance", "office"}}

	assert.True(t, l.IsAdjacentTo("entrance"))
	assert.False(t, l.IsAdjacentTo("lobby"))
	assert.False(t, l.IsAdjacentTo("basement"))
}
