package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"wayfinder/pkg/navigation"
	"wayfinder/pkg/ontology"
	embeddednats "wayfinder/pkg/services/embedded-nats"
	"wayfinder/pkg/shared"
)

// LocationService owns the persistent location catalog: the static graph
// of checkpoints and their adjacency. The navigation engine never mutates
// it; provisioning goes through this service.
type LocationService struct {
	db   *sql.DB
	nats *embeddednats.EmbeddedNATS
}

func NewLocationService(db *sql.DB, nats *embeddednats.EmbeddedNATS) *LocationService {
	return &LocationService{
		db:   db,
		nats: nats,
	}
}

func (s *LocationService) DB() *sql.DB {
	return s.db
}

func (s *LocationService) CreateLocation(req *ontology.CreateLocationRequest) (*ontology.Location, error) {
	if req.LocationID == "" {
		return nil, fmt.Errorf("location_id is required")
	}
	now := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO locations (location_id, name, description, x, y, category, tag_serial, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.LocationID, req.Name, req.Description, req.Position.X, req.Position.Y,
		req.Category, req.TagSerial, now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	for i, adjacentID := range req.Adjacent {
		_, err = tx.Exec(
			`INSERT INTO location_adjacency (location_id, adjacent_id, position) VALUES (?, ?, ?)`,
			req.LocationID, adjacentID, i,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to record adjacency %s -> %s: %w", req.LocationID, adjacentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit location: %w", err)
	}

	location := &ontology.Location{
		LocationID:  req.LocationID,
		Name:        req.Name,
		Description: req.Description,
		Position:    req.Position,
		Category:    req.Category,
		Adjacent:    req.Adjacent,
		TagSerial:   req.TagSerial,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	go s.publishLocationEvent(location, shared.EventTypeLocationCreated)

	return location, nil
}

func (s *LocationService) ListLocations() ([]ontology.Location, error) {
	rows, err := s.db.Query(
		`SELECT location_id, name, description, x, y, category, tag_serial, created_at, updated_at
		 FROM locations ORDER BY location_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []ontology.Location
	for rows.Next() {
		location, err := s.scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, *location)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate locations: %w", err)
	}

	for i := range locations {
		adjacent, err := s.adjacentIDs(locations[i].LocationID)
		if err != nil {
			return nil, err
		}
		locations[i].Adjacent = adjacent
	}

	return locations, nil
}

func (s *LocationService) GetLocation(locationID string) (*ontology.Location, error) {
	row := s.db.QueryRow(
		`SELECT location_id, name, description, x, y, category, tag_serial, created_at, updated_at
		 FROM locations WHERE location_id = ?`,
		locationID,
	)

	location, err := s.scanLocation(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("location not found")
	}
	if err != nil {
		return nil, err
	}

	adjacent, err := s.adjacentIDs(locationID)
	if err != nil {
		return nil, err
	}
	location.Adjacent = adjacent

	return location, nil
}

func (s *LocationService) DeleteLocation(locationID string) error {
	location, err := s.GetLocation(locationID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec("DELETE FROM locations WHERE location_id = ?", locationID)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("location not found")
	}

	go s.publishLocationEvent(location, shared.EventTypeLocationDeleted)

	return nil
}

// LoadGraph snapshots the whole catalog into an immutable in-memory graph
// for the navigation engine.
func (s *LocationService) LoadGraph() (*navigation.MemoryGraph, error) {
	locations, err := s.ListLocations()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	ptrs := make([]*ontology.Location, len(locations))
	for i := range locations {
		ptrs[i] = &locations[i]
	}
	return navigation.NewMemoryGraph(ptrs...), nil
}

// RecordTagScan stores a raw scan row for provisioning diagnostics.
func (s *LocationService) RecordTagScan(locationID, checksum, payload string) error {
	_, err := s.db.Exec(
		`INSERT INTO tag_scans (scan_id, location_id, checksum, payload, scanned_at)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), locationID, checksum, payload, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record tag scan: %w", err)
	}
	return nil
}

func (s *LocationService) adjacentIDs(locationID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT adjacent_id FROM location_adjacency WHERE location_id = ? ORDER BY position`,
		locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjacency: %w", err)
	}
	defer rows.Close()

	var adjacent []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan adjacency: %w", err)
		}
		adjacent = append(adjacent, id)
	}
	return adjacent, rows.Err()
}

func (s *LocationService) publishLocationEvent(location *ontology.Location, eventType string) {
	if s.nats == nil || s.nats.JetStream() == nil {
		log.Printf("NATS not available for publishing event")
		return
	}

	event := shared.Event{
		ID:      uuid.New().String(),
		Type:    eventType,
		Subject: shared.EventTypeSubject(eventType),
		Data: map[string]interface{}{
			"location_id": location.LocationID,
			"name":        location.Name,
			"category":    location.Category,
		},
		Timestamp: time.Now().UTC(),
		Source:    "location-service",
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal location event: %v", err)
		return
	}

	msgID := fmt.Sprintf("%s-%s-%d", location.LocationID, eventType, time.Now().UnixNano())

	if err := s.nats.PublishWithDedup(event.Subject, data, msgID); err != nil {
		log.Printf("Failed to publish location event: %v", err)
	} else {
		log.Printf("Published location event: %s on subject: %s", eventType, event.Subject)
	}
}

func (s *LocationService) scanLocation(scanner interface{ Scan(...interface{}) error }) (*ontology.Location, error) {
	var location ontology.Location
	var description, tagSerial sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(
		&location.LocationID, &location.Name, &description,
		&location.Position.X, &location.Position.Y,
		&location.Category, &tagSerial, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan location: %w", err)
	}

	if description.Valid {
		location.Description = description.String
	}
	if tagSerial.Valid {
		location.TagSerial = tagSerial.String
	}

	location.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	location.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &location, nil
}
