package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"wayfinder/api/middleware"
	"wayfinder/api/services"
	"wayfinder/pkg/navigation"
	"wayfinder/pkg/ontology"
	embeddednats "wayfinder/pkg/services/embedded-nats"
	"wayfinder/pkg/shared"
)

type Handlers struct {
	locationService   *services.LocationService
	navigationService *services.NavigationService
}

func NewHandlers(db *sql.DB, nats *embeddednats.EmbeddedNATS, engine *navigation.Engine) *Handlers {
	return &Handlers{
		locationService:   services.NewLocationService(db, nats),
		navigationService: services.NewNavigationService(engine, nats),
	}
}

// NavigationService exposes the wrapped service so the session publisher
// can be started from main.
func (h *Handlers) NavigationService() *services.NavigationService {
	return h.navigationService
}

// Location handlers
func (h *Handlers) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req ontology.CreateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	location, err := h.locationService.CreateLocation(&req)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "CREATE_FAILED", err.Error())
		return
	}

	sendSuccess(w, http.StatusCreated, location)
}

func (h *Handlers) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.locationService.ListLocations()
	if err != nil {
		sendError(w, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}

	sendSuccess(w, http.StatusOK, locations)
}

func (h *Handlers) GetLocation(w http.ResponseWriter, r *http.Request) {
	locationID := r.URL.Query().Get("location_id")
	if locationID == "" {
		sendError(w, http.StatusBadRequest, "MISSING_LOCATION_ID", "location_id is required")
		return
	}

	location, err := h.locationService.GetLocation(locationID)
	if err != nil {
		if err.Error() == "location not found" {
			sendError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		} else {
			sendError(w, http.StatusInternalServerError, "GET_FAILED", err.Error())
		}
		return
	}

	sendSuccess(w, http.StatusOK, location)
}

func (h *Handlers) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	locationID := r.URL.Query().Get("location_id")
	if locationID == "" {
		sendError(w, http.StatusBadRequest, "MISSING_LOCATION_ID", "location_id is required")
		return
	}

	if err := h.locationService.DeleteLocation(locationID); err != nil {
		if err.Error() == "location not found" {
			sendError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		} else {
			sendError(w, http.StatusInternalServerError, "DELETE_FAILED", err.Error())
		}
		return
	}

	sendSuccess(w, http.StatusOK, map[string]string{"message": "Location deleted successfully"})
}

// Navigation handlers
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, http.StatusOK, map[string]interface{}{
		"session":       h.navigationService.Session(),
		"reader_status": h.navigationService.ReaderStatus(),
	})
}

type locationRequest struct {
	LocationID string `json:"location_id"`
}

func (h *Handlers) SetCurrentLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := h.navigationService.SetCurrentLocation(req.LocationID); err != nil {
		sendError(w, http.StatusUnprocessableEntity, "INVALID_LOCATION", err.Error())
		return
	}

	sendSuccess(w, http.StatusOK, h.navigationService.Session())
}

func (h *Handlers) SetDestination(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := h.navigationService.SetDestination(req.LocationID); err != nil {
		sendError(w, http.StatusUnprocessableEntity, "ROUTE_FAILED", err.Error())
		return
	}

	sendSuccess(w, http.StatusOK, h.navigationService.Session())
}

func (h *Handlers) StartNavigation(w http.ResponseWriter, r *http.Request) {
	if err := h.navigationService.StartNavigation(); err != nil {
		sendError(w, http.StatusConflict, "START_FAILED", err.Error())
		return
	}
	sendSuccess(w, http.StatusOK, h.navigationService.Session())
}

func (h *Handlers) StopNavigation(w http.ResponseWriter, r *http.Request) {
	if err := h.navigationService.StopNavigation(); err != nil {
		sendError(w, http.StatusInternalServerError, "STOP_FAILED", err.Error())
		return
	}
	sendSuccess(w, http.StatusOK, h.navigationService.Session())
}

func (h *Handlers) TriggerRerouting(w http.ResponseWriter, r *http.Request) {
	if err := h.navigationService.TriggerRerouting(); err != nil {
		sendError(w, http.StatusUnprocessableEntity, "REROUTE_FAILED", err.Error())
		return
	}
	sendSuccess(w, http.StatusOK, h.navigationService.Session())
}

type clearRequest struct {
	Target string `json:"target"` // route, error, session
}

func (h *Handlers) Clear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	switch req.Target {
	case "route":
		h.navigationService.ClearRoute()
	case "error":
		h.navigationService.ClearError()
	case "session":
		h.navigationService.ClearSession()
	default:
		sendError(w, http.StatusBadRequest, "INVALID_TARGET", "target must be route, error, or session")
		return
	}

	sendSuccess(w, http.StatusOK, h.navigationService.Session())
}

type tagRequest struct {
	LocationID     string                 `json:"location_id"`
	AdditionalData map[string]interface{} `json:"additional_data,omitempty"`
	Publish        bool                   `json:"publish,omitempty"`
}

// SynthesizeTag builds a valid tag payload for provisioning; with publish
// set it also pushes the payload onto the tag stream, simulating a scan.
func (h *Handlers) SynthesizeTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if req.LocationID == "" {
		sendError(w, http.StatusBadRequest, "MISSING_LOCATION_ID", "location_id is required")
		return
	}

	if req.Publish {
		payload, err := h.navigationService.PublishTagScan(req.LocationID, req.AdditionalData)
		if err != nil {
			sendError(w, http.StatusInternalServerError, "PUBLISH_FAILED", err.Error())
			return
		}
		_ = h.locationService.RecordTagScan(payload.LocationID, payload.Checksum, "")
		sendSuccess(w, http.StatusOK, payload)
		return
	}

	payload, encoded, err := h.navigationService.SynthesizeTag(req.LocationID, req.AdditionalData)
	if err != nil {
		sendError(w, http.StatusUnprocessableEntity, "SYNTHESIZE_FAILED", err.Error())
		return
	}

	sendSuccess(w, http.StatusOK, map[string]interface{}{
		"payload": payload,
		"encoded": string(encoded),
	})
}

// Health check
func (h *Handlers) HealthCheck(nats *embeddednats.EmbeddedNATS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := shared.HealthStatus{
			Status:    "healthy",
			Service:   "wayfinder",
			Timestamp: time.Now(),
			Details:   make(map[string]string),
		}

		// Check database
		if err := h.locationService.DB().Ping(); err != nil {
			health.Status = "unhealthy"
			health.Details["database"] = "unhealthy: " + err.Error()
		} else {
			health.Details["database"] = "healthy"
		}

		// Check NATS
		if err := nats.HealthCheck(); err != nil {
			health.Status = "unhealthy"
			health.Details["nats"] = "unhealthy: " + err.Error()
		} else {
			health.Details["nats"] = "healthy"
		}

		health.Details["tag_reader"] = string(h.navigationService.ReaderStatus())

		statusCode := http.StatusOK
		if health.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}

		sendSuccess(w, statusCode, health)
	}
}

// Helper functions
func sendSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := shared.Response{
		Success: true,
		Data:    data,
	}

	json.NewEncoder(w).Encode(response)
}

func sendError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := shared.Response{
		Success: false,
		Error: &shared.Error{
			Code:    code,
			Message: message,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes sets up all API routes
func (h *Handlers) RegisterRoutes(mux *http.ServeMux, nats *embeddednats.EmbeddedNATS) {
	// Health check (no auth required)
	mux.HandleFunc("/health", h.HealthCheck(nats))

	// Location catalog endpoints
	mux.HandleFunc("/api/v1/locations", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			middleware.BearerAuth(h.CreateLocation)(w, r)
		case http.MethodGet:
			if r.URL.Query().Get("location_id") != "" {
				middleware.BearerAuth(h.GetLocation)(w, r)
			} else {
				middleware.BearerAuth(h.ListLocations)(w, r)
			}
		case http.MethodDelete:
			middleware.BearerAuth(h.DeleteLocation)(w, r)
		default:
			sendError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
		}
	})

	// Navigation session endpoints
	mux.HandleFunc("/api/v1/navigation/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			sendError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
			return
		}
		middleware.BearerAuth(h.GetSession)(w, r)
	})

	post := func(handler http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				sendError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
				return
			}
			middleware.BearerAuth(handler)(w, r)
		}
	}

	mux.HandleFunc("/api/v1/navigation/location", post(h.SetCurrentLocation))
	mux.HandleFunc("/api/v1/navigation/destination", post(h.SetDestination))
	mux.HandleFunc("/api/v1/navigation/start", post(h.StartNavigation))
	mux.HandleFunc("/api/v1/navigation/stop", post(h.StopNavigation))
	mux.HandleFunc("/api/v1/navigation/reroute", post(h.TriggerRerouting))
	mux.HandleFunc("/api/v1/navigation/clear", post(h.Clear))
	mux.HandleFunc("/api/v1/tags", post(h.SynthesizeTag))
}
