package ontology

import (
	"math"
	"time"
)

// Coordinate is a 2D position in indoor floor-plan units.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the straight-line distance to other, in floor-plan units.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	dx := other.X - c.X
	dy := other.Y - c.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Location is one checkpoint in the facility graph. Adjacency is declared
// per-node and is not mirrored automatically.
type Location struct {
	LocationID  string     `json:"location_id" db:"location_id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description,omitempty" db:"description"`
	Position    Coordinate `json:"position"`
	Category    string     `json:"category" db:"category"`
	Adjacent    []string   `json:"adjacent,omitempty"`
	TagSerial   string     `json:"tag_serial,omitempty" db:"tag_serial"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsAdjacentTo reports whether id is declared as a direct neighbor.
func (l *Location) IsAdjacentTo(id string) bool {
	for _, a := range l.Adjacent {
		if a == id {
			return true
		}
	}
	return false
}

type CreateLocationRequest struct {
	LocationID  string     `json:"location_id" validate:"required"`
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description,omitempty"`
	Position    Coordinate `json:"position"`
	Category    string     `json:"category" validate:"required,oneof=room hallway entrance office"`
	Adjacent    []string   `json:"adjacent,omitempty"`
	TagSerial   string     `json:"tag_serial,omitempty"`
}
