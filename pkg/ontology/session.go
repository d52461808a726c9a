package ontology

import "time"

// SessionState enumerates the navigation state machine.
type SessionState string

const (
	StateIdle                 SessionState = "idle"
	StateSelectingDestination SessionState = "selecting_destination"
	StateCalculating          SessionState = "calculating"
	StateNavigating           SessionState = "navigating"
	StateArrived              SessionState = "arrived"
	StateError                SessionState = "error"
)

// Session is the navigation state for one journey. It is a value: the
// engine builds a new Session for every transition and replaces the old
// one wholesale, so observers never see a half-applied update.
type Session struct {
	CurrentLocationID  string       `json:"current_location_id,omitempty"`
	DestinationID      string       `json:"destination_id,omitempty"`
	Route              *Route       `json:"route,omitempty"`
	State              SessionState `json:"state"`
	CurrentInstruction *Instruction `json:"current_instruction,omitempty"`
	StepIndex          int          `json:"step_index"`
	ErrorMessage       string       `json:"error_message,omitempty"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// NewSession returns the initial idle session.
func NewSession() Session {
	return Session{State: StateIdle, UpdatedAt: time.Now().UTC()}
}
