package navigation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfinder/pkg/navigation"
	"wayfinder/pkg/ontology"
)

func stitchFixture() (*ontology.Route, *ontology.Route) {
	original := &ontology.Route{
		RouteID:         "orig",
		StartID:         "a",
		EndID:           "d",
		Path:            []string{"a", "b", "c", "d"},
		DistanceMeters:  30,
		DurationSeconds: 60,
		Instructions: []ontology.Instruction{
			{InstructionID: "i-ab", Kind: ontology.InstructionStart, FromID: "a", ToID: "b"},
			{InstructionID: "i-bc", Kind: ontology.InstructionStraight, FromID: "b", ToID: "c"},
			{InstructionID: "i-cd", Kind: ontology.InstructionDestination, FromID: "c", ToID: "d"},
		},
	}
	returnRoute := &ontology.Route{
		RouteID:         "return",
		StartID:         "x",
		EndID:           "b",
		Path:            []string{"x", "b"},
		DistanceMeters:  5,
		DurationSeconds: 10,
		Instructions: []ontology.Instruction{
			{InstructionID: "i-xb", Kind: ontology.InstructionDestination, FromID: "x", ToID: "b"},
		},
	}
	return original, returnRoute
}

func TestCombineRoutesSplicesAtRejoin(t *testing.T) {
	original, returnRoute := stitchFixture()

	combined := navigation.CombineRoutes(returnRoute, original, "b")
	require.NotNil(t, combined)

	// The rejoin node appears once, from the return route.
	assert.Equal(t, []string{"x", "b", "c", "d"}, combined.Path)
	assert.Equal(t, "x", combined.StartID)
	assert.Equal(t, "d", combined.EndID)
	assert.NotEqual(t, original.RouteID, combined.RouteID)
}

func TestCombineRoutesProRatesTotals(t *testing.T) {
	original, returnRoute := stitchFixture()

	combined := navigation.CombineRoutes(returnRoute, original, "b")
	require.NotNil(t, combined)

	// Two of the original's four nodes remain past the rejoin, so half of
	// its totals carry over on top of the return route's own.
	assert.InDelta(t, 5+30*0.5, combined.DistanceMeters, 1e-9)
	assert.InDelta(t, 10+60*0.5, combined.DurationSeconds, 1e-9)
}

func TestCombineRoutesFiltersInstructions(t *testing.T) {
	original, returnRoute := stitchFixture()

	combined := navigation.CombineRoutes(returnRoute, original, "b")
	require.NotNil(t, combined)

	// Return instructions survive intact; original instructions are kept
	// only when they depart strictly past the rejoin node.
	require.Len(t, combined.Instructions, 2)
	assert.Equal(t, "i-xb", combined.Instructions[0].InstructionID)
	assert.Equal(t, "i-cd", combined.Instructions[1].InstructionID)
}

func TestCombineRoutesRejoinAtTerminal(t *testing.T) {
	original, _ := stitchFixture()
	returnRoute := &ontology.Route{
		RouteID:         "return",
		StartID:         "x",
		EndID:           "d",
		Path:            []string{"x", "d"},
		DistanceMeters:  8,
		DurationSeconds: 12,
		Instructions: []ontology.Instruction{
			{InstructionID: "i-xd", Kind: ontology.InstructionDestination, FromID: "x", ToID: "d"},
		},
	}

	combined := navigation.CombineRoutes(returnRoute, original, "d")
	require.NotNil(t, combined)

	assert.Equal(t, []string{"x", "d"}, combined.Path)
	assert.InDelta(t, 8, combined.DistanceMeters, 1e-9)
	assert.InDelta(t, 12, combined.DurationSeconds, 1e-9)
	require.Len(t, combined.Instructions, 1)
	assert.Equal(t, "i-xd", combined.Instructions[0].InstructionID)
}

func TestCombineRoutesRejoinAbsent(t *testing.T) {
	original, returnRoute := stitchFixture()

	assert.Nil(t, navigation.CombineRoutes(returnRoute, original, "elsewhere"))
	assert.Nil(t, navigation.CombineRoutes(nil, original, "b"))
	assert.Nil(t, navigation.CombineRoutes(returnRoute, nil, "b"))
}
