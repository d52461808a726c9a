// Package navigation implements the indoor navigation engine: the location
// graph query surface, the shortest-path route calculator, and the session
// state machine that reacts to checkpoint tag scans, detects route
// deviations, and drives rerouting.
package navigation

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"wayfinder/pkg/ontology"
	"wayfinder/pkg/tagpayload"
)

// DeviationSeverity classifies how far off-route a reported location is.
type DeviationSeverity string

const (
	DeviationMinor    DeviationSeverity = "minor"
	DeviationModerate DeviationSeverity = "moderate"
	DeviationMajor    DeviationSeverity = "major"
	DeviationUnknown  DeviationSeverity = "unknown"
)

const (
	// ProximityThresholdUnits bounds a plausible checkpoint-to-checkpoint
	// jump when the two are not declared adjacent.
	ProximityThresholdUnits = 100.0
	// MinorDeviationUnits and ModerateDeviationUnits split deviation
	// severity by distance to the nearest on-route node. Strictly-less
	// boundaries: exactly 50 is moderate, exactly 200 is major.
	MinorDeviationUnits    = 50.0
	ModerateDeviationUnits = 200.0
	// ShortReturnMaxUnits bounds the return route a minor deviation may
	// stitch instead of triggering a full reroute.
	ShortReturnMaxUnits = 100.0
)

// ClassifySeverity maps a nearest-route-node distance (floor-plan units)
// to a severity.
func ClassifySeverity(distUnits float64) DeviationSeverity {
	switch {
	case distUnits < MinorDeviationUnits:
		return DeviationMinor
	case distUnits < ModerateDeviationUnits:
		return DeviationModerate
	default:
		return DeviationMajor
	}
}

// Engine owns the navigation session. It is the single writer: every
// transition runs under one mutex, builds a fresh Session value, and
// replaces the old one atomically, so tag events and API calls can never
// interleave a half-applied update. Each new session value is delivered to
// subscribers without blocking.
type Engine struct {
	mu      sync.Mutex
	graph   Graph
	calc    *Calculator
	reader  TagReader
	metrics *Metrics
	session ontology.Session
	subs    []chan ontology.Session
}

func NewEngine(graph Graph, calc *Calculator) *Engine {
	return &Engine{
		graph:   graph,
		calc:    calc,
		reader:  NopReader{},
		session: ontology.NewSession(),
	}
}

// SetReader wires the scanning transport. Call before StartNavigation.
func (e *Engine) SetReader(r TagReader) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r == nil {
		r = NopReader{}
	}
	e.reader = r
}

// SetMetrics wires engine counters; nil disables recording.
func (e *Engine) SetMetrics(m *Metrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = m
}

// Session returns a snapshot of the current session value.
func (e *Engine) Session() ontology.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// ReaderStatus reports the scanning transport's availability.
func (e *Engine) ReaderStatus() ReaderStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reader.Status()
}

// Subscribe returns a channel receiving every session value the engine
// publishes. Slow subscribers miss updates rather than blocking the engine.
func (e *Engine) Subscribe(buffer int) <-chan ontology.Session {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan ontology.Session, buffer)
	e.mu.Lock()
	e.subs = append(e.subs, ch)
	e.mu.Unlock()
	return ch
}

// apply commits a new session value and publishes it. Caller holds e.mu.
func (e *Engine) apply(s ontology.Session) {
	s.UpdatedAt = time.Now().UTC()
	e.session = s
	for _, ch := range e.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// fail transitions to the error state with a message, leaving every other
// session field as given. Caller holds e.mu.
func (e *Engine) fail(s ontology.Session, msg string) {
	s.State = ontology.StateError
	s.ErrorMessage = msg
	e.apply(s)
}

// SetCurrentLocation validates id against the graph, then updates the
// current location and clears any prior error. Unknown ids move the
// session to the error state.
func (e *Engine) SetCurrentLocation(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.graph.Exists(id) {
		e.fail(e.session, fmt.Sprintf("unknown location %q", id))
		return fmt.Errorf("%w: %q", ErrLocationUnknown, id)
	}

	s := e.session
	s.CurrentLocationID = id
	s.ErrorMessage = ""
	if s.State == ontology.StateError {
		s.State = ontology.StateIdle
	}
	e.apply(s)
	return nil
}

// SetDestination validates id and records it. When a current location is
// already known, route calculation is triggered immediately: the session
// passes through calculating and lands in idle with a route, or in error.
func (e *Engine) SetDestination(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.graph.Exists(id) {
		e.fail(e.session, fmt.Sprintf("unknown destination %q", id))
		return fmt.Errorf("%w: %q", ErrLocationUnknown, id)
	}

	s := e.session
	s.DestinationID = id
	s.ErrorMessage = ""

	if s.CurrentLocationID == "" {
		s.State = ontology.StateSelectingDestination
		e.apply(s)
		return nil
	}

	s.State = ontology.StateCalculating
	e.apply(s)

	route, err := e.calc.CalculateRoute(s.CurrentLocationID, id)
	e.metrics.recordCalculation(err == nil)
	if err != nil {
		s.Route = nil
		s.CurrentInstruction = nil
		s.StepIndex = 0
		e.fail(s, fmt.Sprintf("no route from %q to %q", s.CurrentLocationID, id))
		return err
	}

	s.Route = route
	s.CurrentInstruction = nil
	s.StepIndex = 0
	s.State = ontology.StateIdle
	e.apply(s)
	return nil
}

// StartNavigation begins following the active route: it computes the first
// instruction, signals the tag reader to scan, and enters navigating.
// Missing route or current location moves the session to the error state.
func (e *Engine) StartNavigation() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	if s.Route == nil {
		e.fail(s, "cannot start navigation without a route")
		return ErrNoActiveRoute
	}
	if s.CurrentLocationID == "" {
		e.fail(s, "cannot start navigation without a current location")
		return ErrNoCurrentLocation
	}

	if err := e.reader.StartScanning(); err != nil {
		e.fail(s, fmt.Sprintf("tag reader failed to start: %v", err))
		return fmt.Errorf("start scanning: %w", err)
	}

	inst := e.calc.NextInstruction(s.Route, s.CurrentLocationID)
	if inst == nil && len(s.Route.Instructions) > 0 {
		inst = &s.Route.Instructions[0]
	}

	s.State = ontology.StateNavigating
	s.CurrentInstruction = inst
	if idx := s.Route.IndexOf(s.CurrentLocationID); idx >= 0 {
		s.StepIndex = idx
	} else {
		s.StepIndex = 0
	}
	s.ErrorMessage = ""
	e.apply(s)
	return nil
}

// StopNavigation halts scanning and resets to idle, clearing the current
// instruction and step index while preserving the destination.
func (e *Engine) StopNavigation() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	stopErr := e.reader.StopScanning()
	if stopErr != nil {
		log.Printf("Engine: tag reader stop failed: %v", stopErr)
	}

	s := e.session
	s.State = ontology.StateIdle
	s.CurrentInstruction = nil
	s.StepIndex = 0
	s.ErrorMessage = ""
	e.apply(s)
	return stopErr
}

// HandleTag processes one validated checkpoint scan. This is the core
// reactive path: on-route scans advance (or rewind) the step pointer and
// complete navigation at the terminal node; off-route scans are sanity
// checked and then classified into stitch-or-reroute deviation handling.
func (e *Engine) HandleTag(p *tagpayload.Payload) error {
	if p == nil {
		return fmt.Errorf("%w: nil payload", tagpayload.ErrDecode)
	}
	if !p.Valid() {
		// Rejected at the boundary: an integrity failure must not touch
		// the session.
		e.mu.Lock()
		e.metrics.recordTagEvent("rejected")
		e.mu.Unlock()
		return tagpayload.ErrChecksumMismatch
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := p.LocationID
	loc, ok := e.graph.Location(id)
	if !ok {
		e.metrics.recordTagEvent("error")
		e.fail(e.session, fmt.Sprintf("tag reports unknown location %q", id))
		return fmt.Errorf("%w: %q", ErrLocationUnknown, id)
	}

	s := e.session
	if s.State != ontology.StateNavigating || s.Route == nil {
		s.CurrentLocationID = id
		e.apply(s)
		e.metrics.recordTagEvent("accepted")
		return nil
	}

	if idx := s.Route.IndexOf(id); idx >= 0 {
		// On-route: move the pointer to the reported index. Regression to
		// an earlier index is tolerated and does not alter the route.
		s.CurrentLocationID = id
		s.StepIndex = idx
		if id == s.Route.EndID {
			if err := e.reader.StopScanning(); err != nil {
				log.Printf("Engine: tag reader stop failed on arrival: %v", err)
			}
			s.State = ontology.StateArrived
			s.CurrentInstruction = nil
		} else {
			s.CurrentInstruction = e.calc.NextInstruction(s.Route, id)
		}
		e.apply(s)
		e.metrics.recordTagEvent("accepted")
		return nil
	}

	return e.handleDeviation(s, loc)
}

// handleDeviation processes a scan off the active route. Caller holds e.mu
// and has verified the location exists.
func (e *Engine) handleDeviation(s ontology.Session, loc *ontology.Location) error {
	prevLoc, _ := e.graph.Location(s.CurrentLocationID)

	plausible := false
	if prevLoc != nil {
		plausible = prevLoc.IsAdjacentTo(loc.LocationID) ||
			prevLoc.Position.DistanceTo(loc.Position) <= ProximityThresholdUnits
	}
	if !plausible {
		// Physically implausible jump: reject without moving the session's
		// location or touching the route.
		e.metrics.recordTagEvent("rejected")
		e.fail(s, fmt.Sprintf("implausible transition from %q to %q", s.CurrentLocationID, loc.LocationID))
		return fmt.Errorf("%w: %q to %q", ErrTransitionRejected, s.CurrentLocationID, loc.LocationID)
	}

	s.CurrentLocationID = loc.LocationID
	e.metrics.recordTagEvent("accepted")

	severity, nearestID := e.classifyDeviation(loc, s.Route)
	e.metrics.recordDeviation(severity)

	if severity == DeviationMinor {
		if e.tryStitch(&s, loc.LocationID, nearestID) {
			e.apply(s)
			return nil
		}
		// Short return unavailable or too long; fall through to a full
		// reroute.
	}

	return e.reroute(s, loc.LocationID)
}

// tryStitch attempts the minor-deviation shortcut: a short return route to
// the nearest on-route node spliced with the remainder of the original
// route. Reports whether s was updated with the combined route.
func (e *Engine) tryStitch(s *ontology.Session, fromID, rejoinID string) bool {
	if rejoinID == "" {
		return false
	}
	returnRoute, err := e.calc.CalculateRoute(fromID, rejoinID)
	if err != nil {
		e.metrics.recordReroute("stitch", false)
		return false
	}
	if returnRoute.DistanceMeters > ShortReturnMaxUnits*MetersPerUnit {
		e.metrics.recordReroute("stitch", false)
		return false
	}
	combined := CombineRoutes(returnRoute, s.Route, rejoinID)
	if combined == nil {
		e.metrics.recordReroute("stitch", false)
		return false
	}

	s.Route = combined
	s.State = ontology.StateNavigating
	s.StepIndex = 0
	s.CurrentInstruction = e.calc.NextInstruction(combined, fromID)
	e.metrics.recordReroute("stitch", true)
	return true
}

// reroute performs a full recalculation from fromID to the session's
// destination. The session passes through calculating; failure clears the
// route but preserves the destination. Caller holds e.mu.
func (e *Engine) reroute(s ontology.Session, fromID string) error {
	s.State = ontology.StateCalculating
	e.apply(s)

	route, err := e.calc.RecalculateFromCurrent(fromID, s.DestinationID)
	e.metrics.recordReroute("full", err == nil)
	if err != nil {
		s.Route = nil
		s.CurrentInstruction = nil
		s.StepIndex = 0
		e.fail(s, fmt.Sprintf("destination %q is unreachable from %q", s.DestinationID, fromID))
		return err
	}

	s.Route = route
	s.State = ontology.StateNavigating
	s.StepIndex = 0
	s.CurrentInstruction = e.calc.NextInstruction(route, fromID)
	e.apply(s)
	return nil
}

// TriggerRerouting is the manual full-reroute entry point. It is a no-op
// unless the session is navigating with both a current location and a
// destination.
func (e *Engine) TriggerRerouting() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	if s.State != ontology.StateNavigating || s.CurrentLocationID == "" || s.DestinationID == "" {
		return nil
	}
	return e.reroute(s, s.CurrentLocationID)
}

// ClearRoute drops the active route, instruction, and step index, returns
// to idle, and keeps the destination.
func (e *Engine) ClearRoute() {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	s.Route = nil
	s.CurrentInstruction = nil
	s.StepIndex = 0
	s.State = ontology.StateIdle
	e.apply(s)
}

// ClearError acknowledges an error, returning to idle. Legal in any state;
// outside the error state it does nothing.
func (e *Engine) ClearError() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.State != ontology.StateError {
		return
	}
	s := e.session
	s.State = ontology.StateIdle
	s.ErrorMessage = ""
	e.apply(s)
}

// ClearSession resets unconditionally to a fresh idle session, halting
// scanning if it was active.
func (e *Engine) ClearSession() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.State == ontology.StateNavigating {
		if err := e.reader.StopScanning(); err != nil {
			log.Printf("Engine: tag reader stop failed on clear: %v", err)
		}
	}
	e.apply(ontology.NewSession())
}

// classifyDeviation finds the on-route node nearest to loc and classifies
// the deviation by that distance. A failed lookup (no resolvable route
// node) yields DeviationUnknown, which callers treat as moderate-or-worse.
func (e *Engine) classifyDeviation(loc *ontology.Location, route *ontology.Route) (DeviationSeverity, string) {
	best := math.Inf(1)
	nearest := ""
	for _, nodeID := range route.Path {
		node, ok := e.graph.Location(nodeID)
		if !ok {
			continue
		}
		if d := loc.Position.DistanceTo(node.Position); d < best {
			best = d
			nearest = nodeID
		}
	}
	if nearest == "" {
		return DeviationUnknown, ""
	}
	return ClassifySeverity(best), nearest
}
