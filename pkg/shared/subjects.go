package shared

import "fmt"

// NATS Subject patterns
const (
	// Base subject prefix
	SubjectPrefix = "wayfinder"

	// Tag scan subjects
	SubjectTags       = "wayfinder.tags"
	SubjectTagsAll    = "wayfinder.tags.>"
	SubjectTagScanned = "wayfinder.tags.%s.scanned" // location_id

	// Session subjects
	SubjectSessions       = "wayfinder.sessions"
	SubjectSessionsAll    = "wayfinder.sessions.>"
	SubjectSessionUpdated = "wayfinder.sessions.updated"

	// Event subjects
	SubjectEvents    = "wayfinder.events"
	SubjectEventsAll = "wayfinder.events.>"
	SubjectEventType = "wayfinder.events.%s" // event type

	// System subjects
	SubjectSystemHealth = "wayfinder.system.health"
	SubjectSystemAlerts = "wayfinder.system.alerts"
)

// Stream names
const (
	StreamTags     = "WAYFINDER_TAGS"
	StreamSessions = "WAYFINDER_SESSIONS"
	StreamEvents   = "WAYFINDER_EVENTS"
)

// Consumer names
const (
	ConsumerTagProcessor   = "tag-processor"
	ConsumerEventProcessor = "event-processor"
)

// Helper functions to generate subjects
func TagScannedSubject(locationID string) string {
	return fmt.Sprintf(SubjectTagScanned, locationID)
}

func EventTypeSubject(eventType string) string {
	return fmt.Sprintf(SubjectEventType, eventType)
}
