package shared

import (
	"time"
)

// API Response types
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Event types
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Subject   string                 `json:"subject"`
	Data      map[string]interface{} `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
}

// Health check
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version,omitempty"`
	Uptime    time.Duration     `json:"uptime,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// Constants
const (
	// Location categories
	CategoryRoom     = "room"
	CategoryHallway  = "hallway"
	CategoryEntrance = "entrance"
	CategoryOffice   = "office"

	// Deviation severities
	SeverityMinor    = "minor"
	SeverityModerate = "moderate"
	SeverityMajor    = "major"
	SeverityUnknown  = "unknown"

	// Event Types
	EventTypeLocationCreated = "location_created"
	EventTypeLocationUpdated = "location_updated"
	EventTypeLocationDeleted = "location_deleted"
	EventTypeTagScanned      = "tag_scanned"
	EventTypeSessionUpdated  = "session_updated"
	EventTypeRouteCalculated = "route_calculated"
	EventTypeDeviation       = "deviation_detected"
	EventTypeArrived         = "arrived"
)
