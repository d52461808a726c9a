package navigation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfinder/pkg/navigation"
	"wayfinder/pkg/ontology"
)

func buildingGraph() *navigation.MemoryGraph {
	return navigation.NewMemoryGraph(
		loc("entrance", 0, 0, "lobby"),
		loc("lobby", 0, 10, "entrance", "office", "hall-1"),
		loc("office", 10, 10, "lobby"),
		loc("hall-1", 0, 20, "lobby", "hall-2"),
		loc("hall-2", 0, 30, "hall-1"),
		// No edges in or out.
		loc("storage", 100, 100),
	)
}

func TestCalculateRouteDirectAdjacency(t *testing.T) {
	calc := navigation.NewCalculator(buildingGraph())

	route, err := calc.CalculateRoute("entrance", "lobby")
	require.NoError(t, err)
	require.NotNil(t, route)

	assert.Equal(t, []string{"entrance", "lobby"}, route.Path)
	assert.Equal(t, "entrance", route.StartID)
	assert.Equal(t, "lobby", route.EndID)
	assert.InDelta(t, 10*navigation.MetersPerUnit, route.DistanceMeters, 1e-9)
	assert.InDelta(t, 10*navigation.MetersPerUnit/navigation.WalkingSpeedMPS, route.DurationSeconds, 1e-9)

	// A two-node route carries exactly one instruction: the arrival.
	require.Len(t, route.Instructions, 1)
	inst := route.Instructions[0]
	assert.Equal(t, ontology.InstructionDestination, inst.Kind)
	assert.Equal(t, "entrance", inst.FromID)
	assert.Equal(t, "lobby", inst.ToID)
	assert.Equal(t, ontology.DirectionNorth, inst.Direction)
	assert.True(t, route.Valid())
}

func TestCalculateRouteSameLocation(t *testing.T) {
	calc := navigation.NewCalculator(buildingGraph())

	route, err := calc.CalculateRoute("lobby", "lobby")
	require.NoError(t, err)
	require.NotNil(t, route)

	assert.Equal(t, []string{"lobby"}, route.Path)
	assert.Zero(t, route.DistanceMeters)
	assert.Zero(t, route.DurationSeconds)

	require.Len(t, route.Instructions, 1)
	inst := route.Instructions[0]
	assert.Equal(t, ontology.InstructionDestination, inst.Kind)
	assert.Equal(t, "lobby", inst.FromID)
	assert.Equal(t, "lobby", inst.ToID)
	assert.Equal(t, ontology.DirectionNone, inst.Direction)
}

func TestCalculateRouteUnknownLocations(t *testing.T) {
	calc := navigation.NewCalculator(buildingGraph())

	route, err := calc.CalculateRoute("basement", "lobby")
	assert.Nil(t, route)
	assert.ErrorIs(t, err, navigation.ErrLocationUnknown)

	route, err = calc.CalculateRoute("lobby", "basement")
	assert.Nil(t, route)
	assert.ErrorIs(t, err, navigation.ErrLocationUnknown)
}

func TestCalculateRouteUnreachable(t *testing.T) {
	calc := navigation.NewCalculator(buildingGraph())

	route, err := calc.CalculateRoute("entrance", "storage")
	assert.Nil(t, route)
	assert.ErrorIs(t, err, navigation.ErrNoRouteFound)
}

func TestCalculateRoutePrefersLowerTotalDistance(t *testing.T) {
	// Diamond: the hop count is equal but the western branch is shorter.
	g := navigation.NewMemoryGraph(
		loc("start", 0, 0, "near", "far"),
		loc("near", 0, 10, "start", "goal"),
		loc("far", 30, 0, "start", "goal"),
		loc("goal", 0, 20, "near", "far"),
	)
	calc := navigation.NewCalculator(g)

	route, err := calc.CalculateRoute("start", "goal")
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "near", "goal"}, route.Path)
}

func TestCalculateRoutePathIsConnected(t *testing.T) {
	g := buildingGraph()
	calc := navigation.NewCalculator(g)

	route, err := calc.CalculateRoute("entrance", "hall-2")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(route.Path), 2)

	for i := 0; i < len(route.Path)-1; i++ {
		from, ok := g.Location(route.Path[i])
		require.True(t, ok)
		assert.True(t, from.IsAdjacentTo(route.Path[i+1]),
			"hop %s -> %s is not a declared adjacency", route.Path[i], route.Path[i+1])
	}
}

func TestDurationIncludesCheckpointDelay(t *testing.T) {
	direct := navigation.NewMemoryGraph(
		loc("a", 0, 0, "b"),
		loc("b", 0, 28, "a"),
	)
	viaCheckpoint := navigation.NewMemoryGraph(
		loc("a", 0, 0, "mid"),
		loc("mid", 0, 14, "a", "b"),
		loc("b", 0, 28, "mid"),
	)

	directRoute, err := navigation.NewCalculator(direct).CalculateRoute("a", "b")
	require.NoError(t, err)
	hopRoute, err := navigation.NewCalculator(viaCheckpoint).CalculateRoute("a", "b")
	require.NoError(t, err)

	// Same straight-line distance, one extra checkpoint.
	assert.InDelta(t, directRoute.DistanceMeters, hopRoute.DistanceMeters, 1e-9)
	assert.InDelta(t, directRoute.DurationSeconds+navigation.CheckpointDelaySeconds, hopRoute.DurationSeconds, 1e-9)
}

func TestInstructionSequence(t *testing.T) {
	g := navigation.NewMemoryGraph(
		loc("p1", 0, 0, "p2"),
		loc("p2", 0, 10, "p1", "p3"),
		loc("p3", 0, 20, "p2", "p4"),
		loc("p4", 10, 20, "p3", "p5"),
		loc("p5", 10, 30, "p4"),
	)
	calc := navigation.NewCalculator(g)

	route, err := calc.CalculateRoute("p1", "p5")
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2", "p3", "p4", "p5"}, route.Path)
	require.Len(t, route.Instructions, 4)

	assert.Equal(t, ontology.InstructionStart, route.Instructions[0].Kind)
	assert.Equal(t, ontology.DirectionNorth, route.Instructions[0].Direction)

	assert.Equal(t, ontology.InstructionStraight, route.Instructions[1].Kind)
	assert.Equal(t, ontology.DirectionNorth, route.Instructions[1].Direction)

	assert.Equal(t, ontology.InstructionTurn, route.Instructions[2].Kind)
	assert.Equal(t, ontology.DirectionEast, route.Instructions[2].Direction)

	assert.Equal(t, ontology.InstructionDestination, route.Instructions[3].Kind)
	assert.Equal(t, ontology.DirectionNorth, route.Instructions[3].Direction)
}

func TestNextInstruction(t *testing.T) {
	calc := navigation.NewCalculator(buildingGraph())

	route, err := calc.CalculateRoute("entrance", "hall-2")
	require.NoError(t, err)

	first := calc.NextInstruction(route, "entrance")
	require.NotNil(t, first)
	assert.Equal(t, "entrance", first.FromID)
	assert.Equal(t, "lobby", first.ToID)

	// Terminal node has nothing left to do.
	assert.Nil(t, calc.NextInstruction(route, "hall-2"))
	// Off-route ids resolve to no instruction rather than panicking.
	assert.Nil(t, calc.NextInstruction(route, "storage"))
	assert.Nil(t, calc.NextInstruction(nil, "entrance"))
}
