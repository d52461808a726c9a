package navigation

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/google/uuid"

	"wayfinder/pkg/ontology"
)

const (
	// MetersPerUnit converts floor-plan coordinate units to meters.
	MetersPerUnit = 0.5
	// WalkingSpeedMPS is the assumed indoor walking speed.
	WalkingSpeedMPS = 1.4
	// CheckpointDelaySeconds is added per intermediate checkpoint to
	// account for scanning and orientation at each hop.
	CheckpointDelaySeconds = 5.0
)

// Calculator computes shortest-path routes over a Graph. It is read-only
// with respect to the graph and safe for concurrent use.
type Calculator struct {
	graph Graph
}

func NewCalculator(graph Graph) *Calculator {
	return &Calculator{graph: graph}
}

// CalculateRoute returns the shortest route from fromID to toID. Unknown
// ids yield ErrLocationUnknown and disconnected pairs ErrNoRouteFound; the
// calculator never panics for missing data. A same-id pair yields a
// zero-length route with a single destination instruction.
func (c *Calculator) CalculateRoute(fromID, toID string) (*ontology.Route, error) {
	from, ok := c.graph.Location(fromID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLocationUnknown, fromID)
	}
	to, ok := c.graph.Location(toID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLocationUnknown, toID)
	}

	if fromID == toID {
		return c.buildRoute([]string{fromID}), nil
	}

	path, ok := c.shortestPath(from.LocationID, to.LocationID)
	if !ok {
		return nil, fmt.Errorf("%w: %q to %q", ErrNoRouteFound, fromID, toID)
	}
	return c.buildRoute(path), nil
}

// RecalculateFromCurrent has the same contract as CalculateRoute. It is a
// distinct entry point because the state machine always supplies a live
// current position rather than a fixed start.
func (c *Calculator) RecalculateFromCurrent(currentID, destinationID string) (*ontology.Route, error) {
	return c.CalculateRoute(currentID, destinationID)
}

// NextInstruction returns the instruction departing locationID, or nil
// when locationID is the terminal node or absent from the route.
func (c *Calculator) NextInstruction(route *ontology.Route, locationID string) *ontology.Instruction {
	if route == nil {
		return nil
	}
	for i := range route.Instructions {
		if route.Instructions[i].FromID == locationID {
			return &route.Instructions[i]
		}
	}
	return nil
}

// shortestPath runs Dijkstra over the adjacency relation with Euclidean
// edge weights. Lazy decrease-key: improved distances push duplicate heap
// entries and stale ones are skipped via the visited set. Relaxation uses
// strict <, so among equal-weight paths the first-discovered one wins.
func (c *Calculator) shortestPath(fromID, toID string) ([]string, bool) {
	dist := map[string]float64{fromID: 0}
	prev := make(map[string]string)
	visited := make(map[string]bool)

	pq := make(nodePQ, 0)
	heap.Init(&pq)
	heap.Push(&pq, &nodeItem{id: fromID, dist: 0})

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*nodeItem)
		u := item.id
		if visited[u] {
			continue
		}
		visited[u] = true

		if u == toID {
			break
		}

		uLoc, ok := c.graph.Location(u)
		if !ok {
			continue
		}
		for _, v := range c.graph.Adjacent(u) {
			if visited[v.LocationID] {
				continue
			}
			w := uLoc.Position.DistanceTo(v.Position)
			candidate := dist[u] + w
			if best, seen := dist[v.LocationID]; seen && candidate >= best {
				continue
			}
			dist[v.LocationID] = candidate
			prev[v.LocationID] = u
			heap.Push(&pq, &nodeItem{id: v.LocationID, dist: candidate})
		}
	}

	if !visited[toID] {
		return nil, false
	}

	path := []string{toID}
	for at := toID; at != fromID; {
		at = prev[at]
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// buildRoute derives totals and instructions from a path of known ids.
func (c *Calculator) buildRoute(path []string) *ontology.Route {
	route := &ontology.Route{
		RouteID: uuid.New().String(),
		StartID: path[0],
		EndID:   path[len(path)-1],
		Path:    path,
	}

	if len(path) == 1 {
		loc, _ := c.graph.Location(path[0])
		route.Instructions = []ontology.Instruction{{
			InstructionID: uuid.New().String(),
			Kind:          ontology.InstructionDestination,
			Description:   fmt.Sprintf("You are at %s", displayName(loc, path[0])),
			FromID:        path[0],
			ToID:          path[0],
			Direction:     ontology.DirectionNone,
		}}
		return route
	}

	prevDir := ontology.DirectionNone
	for i := 0; i < len(path)-1; i++ {
		from, _ := c.graph.Location(path[i])
		to, _ := c.graph.Location(path[i+1])

		legUnits := from.Position.DistanceTo(to.Position)
		legMeters := legUnits * MetersPerUnit
		dir := legDirection(from.Position, to.Position)

		inst := ontology.Instruction{
			InstructionID:  uuid.New().String(),
			FromID:         from.LocationID,
			ToID:           to.LocationID,
			Direction:      dir,
			DistanceMeters: legMeters,
		}

		switch {
		case i == len(path)-2:
			inst.Kind = ontology.InstructionDestination
			inst.Description = fmt.Sprintf("Arrive at %s", displayName(to, to.LocationID))
		case i == 0:
			inst.Kind = ontology.InstructionStart
			inst.Description = fmt.Sprintf("Start at %s and head %s toward %s",
				displayName(from, from.LocationID), dir, displayName(to, to.LocationID))
		case dir != prevDir:
			inst.Kind = ontology.InstructionTurn
			inst.Description = fmt.Sprintf("Turn %s toward %s", dir, displayName(to, to.LocationID))
		default:
			inst.Kind = ontology.InstructionStraight
			inst.Description = fmt.Sprintf("Continue %s to %s", dir, displayName(to, to.LocationID))
		}

		route.DistanceMeters += legMeters
		route.Instructions = append(route.Instructions, inst)
		prevDir = dir
	}

	intermediate := float64(len(path) - 2)
	route.DurationSeconds = route.DistanceMeters/WalkingSpeedMPS + intermediate*CheckpointDelaySeconds
	return route
}

// legDirection classifies a leg by its dominant coordinate delta. Positive
// Y is north, positive X is east.
func legDirection(from, to ontology.Coordinate) ontology.Direction {
	dx := to.X - from.X
	dy := to.Y - from.Y
	if dx == 0 && dy == 0 {
		return ontology.DirectionNone
	}
	if math.Abs(dx) >= math.Abs(dy) {
		if dx > 0 {
			return ontology.DirectionEast
		}
		return ontology.DirectionWest
	}
	if dy > 0 {
		return ontology.DirectionNorth
	}
	return ontology.DirectionSouth
}

func displayName(loc *ontology.Location, fallback string) string {
	if loc != nil && loc.Name != "" {
		return loc.Name
	}
	return fallback
}

// nodeItem is one (vertex, distance) heap entry.
type nodeItem struct {
	id   string
	dist float64
}

// nodePQ is a min-heap of *nodeItem ordered by distance.
type nodePQ []*nodeItem

func (pq nodePQ) Len() int            { return len(pq) }
func (pq nodePQ) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq nodePQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *nodePQ) Push(x interface{}) { *pq = append(*pq, x.(*nodeItem)) }
func (pq *nodePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
