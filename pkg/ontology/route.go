package ontology

// InstructionKind classifies a navigation instruction.
type InstructionKind string

const (
	InstructionStart       InstructionKind = "start"
	InstructionTurn        InstructionKind = "turn"
	InstructionStraight    InstructionKind = "straight"
	InstructionDestination InstructionKind = "destination"
	InstructionReroute     InstructionKind = "reroute"
)

// Direction is the coarse heading of one route leg.
type Direction string

const (
	DirectionNorth Direction = "north"
	DirectionSouth Direction = "south"
	DirectionEast  Direction = "east"
	DirectionWest  Direction = "west"
	DirectionNone  Direction = "none"
)

// Instruction is one step of a route. Produced only by the route calculator.
type Instruction struct {
	InstructionID  string          `json:"instruction_id"`
	Kind           InstructionKind `json:"kind"`
	Description    string          `json:"description"`
	FromID         string          `json:"from_id"`
	ToID           string          `json:"to_id"`
	Direction      Direction       `json:"direction"`
	DistanceMeters float64         `json:"distance_meters"`
}

// Route is an immutable value object describing a path between two
// locations. Recalculation replaces the whole route, never edits it.
type Route struct {
	RouteID         string        `json:"route_id"`
	StartID         string        `json:"start_id"`
	EndID           string        `json:"end_id"`
	Path            []string      `json:"path"`
	DistanceMeters  float64       `json:"distance_meters"`
	DurationSeconds float64       `json:"duration_seconds"`
	Instructions    []Instruction `json:"instructions"`
}

// Valid reports whether the route satisfies its structural invariant: a
// non-empty path whose endpoints match StartID/EndID, non-negative totals,
// and instructions present whenever the path has more than one location.
func (r *Route) Valid() bool {
	if r == nil || len(r.Path) == 0 {
		return false
	}
	if r.Path[0] != r.StartID || r.Path[len(r.Path)-1] != r.EndID {
		return false
	}
	if r.DistanceMeters < 0 || r.DurationSeconds < 0 {
		return false
	}
	if len(r.Path) > 1 && len(r.Instructions) == 0 {
		return false
	}
	return true
}

// IndexOf returns the position of id in the path, or -1.
func (r *Route) IndexOf(id string) int {
	for i, p := range r.Path {
		if p == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id is on the path.
func (r *Route) Contains(id string) bool {
	return r.IndexOf(id) >= 0
}
