package navigation

import "errors"

// Sentinel errors for the engine's failure taxonomy. Validation and
// routing failures surface as an error session state; none of them is
// fatal to the process.
var (
	ErrLocationUnknown    = errors.New("location not found")
	ErrNoRouteFound       = errors.New("no route found")
	ErrTransitionRejected = errors.New("transition rejected")
	ErrNoActiveRoute      = errors.New("no active route")
	ErrNoCurrentLocation  = errors.New("no current location")
)
