package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"wayfinder/pkg/navigation"
	"wayfinder/pkg/ontology"
	embeddednats "wayfinder/pkg/services/embedded-nats"
	"wayfinder/pkg/shared"
	"wayfinder/pkg/tagpayload"
)

// NavigationService fronts the navigation engine for the HTTP surface and
// republishes every session snapshot onto the session stream so
// presentation layers can subscribe instead of polling.
type NavigationService struct {
	engine *navigation.Engine
	nats   *embeddednats.EmbeddedNATS
}

func NewNavigationService(engine *navigation.Engine, nats *embeddednats.EmbeddedNATS) *NavigationService {
	return &NavigationService{
		engine: engine,
		nats:   nats,
	}
}

// Start forwards engine session updates to the session stream until ctx
// is cancelled.
func (s *NavigationService) Start(ctx context.Context) {
	updates := s.engine.Subscribe(32)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case session := <-updates:
				s.publishSession(session)
			}
		}
	}()
}

func (s *NavigationService) Session() ontology.Session {
	return s.engine.Session()
}

func (s *NavigationService) ReaderStatus() navigation.ReaderStatus {
	return s.engine.ReaderStatus()
}

func (s *NavigationService) SetCurrentLocation(locationID string) error {
	return s.engine.SetCurrentLocation(locationID)
}

func (s *NavigationService) SetDestination(locationID string) error {
	return s.engine.SetDestination(locationID)
}

func (s *NavigationService) StartNavigation() error {
	return s.engine.StartNavigation()
}

func (s *NavigationService) StopNavigation() error {
	return s.engine.StopNavigation()
}

func (s *NavigationService) TriggerRerouting() error {
	return s.engine.TriggerRerouting()
}

func (s *NavigationService) ClearRoute() {
	s.engine.ClearRoute()
}

func (s *NavigationService) ClearError() {
	s.engine.ClearError()
}

func (s *NavigationService) ClearSession() {
	s.engine.ClearSession()
}

// SynthesizeTag builds a valid encoded payload for locationID, trimming
// auxiliary data to the byte budget. Used by the provisioning tool when
// writing tags, and by operators to simulate scans.
func (s *NavigationService) SynthesizeTag(locationID string, additional map[string]interface{}) (*tagpayload.Payload, []byte, error) {
	payload := tagpayload.New(locationID, additional)
	if err := payload.FitBudget(); err != nil {
		return nil, nil, err
	}
	data, err := tagpayload.Encode(payload)
	if err != nil {
		return nil, nil, err
	}
	return payload, data, nil
}

// PublishTagScan synthesizes a payload and publishes it onto the tag
// stream, exercising the same path a hardware scan takes.
func (s *NavigationService) PublishTagScan(locationID string, additional map[string]interface{}) (*tagpayload.Payload, error) {
	payload, data, err := s.SynthesizeTag(locationID, additional)
	if err != nil {
		return nil, err
	}

	if s.nats == nil || s.nats.JetStream() == nil {
		return nil, fmt.Errorf("NATS not available for publishing tag scan")
	}

	subject := shared.TagScannedSubject(locationID)
	msgID := fmt.Sprintf("%s-%d", locationID, payload.Timestamp)
	if err := s.nats.PublishWithDedup(subject, data, msgID); err != nil {
		return nil, err
	}

	log.Printf("Published tag scan for location %q on subject: %s", locationID, subject)
	return payload, nil
}

func (s *NavigationService) publishSession(session ontology.Session) {
	if s.nats == nil || s.nats.JetStream() == nil {
		return
	}

	data, err := json.Marshal(session)
	if err != nil {
		log.Printf("Failed to marshal session update: %v", err)
		return
	}

	msgID := fmt.Sprintf("session-%d", session.UpdatedAt.UnixNano())
	if err := s.nats.PublishWithDedup(shared.SubjectSessionUpdated, data, msgID); err != nil {
		log.Printf("Failed to publish session update: %v", err)
		return
	}

	if session.State == ontology.StateArrived {
		s.publishEvent(shared.EventTypeArrived, map[string]interface{}{
			"location_id":    session.CurrentLocationID,
			"destination_id": session.DestinationID,
		})
	}
}

func (s *NavigationService) publishEvent(eventType string, data map[string]interface{}) {
	event := shared.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Subject:   shared.EventTypeSubject(eventType),
		Data:      data,
		Timestamp: time.Now().UTC(),
		Source:    "navigation-service",
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", eventType, err)
		return
	}

	if err := s.nats.PublishWithDedup(event.Subject, payload, event.ID); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}
