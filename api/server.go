package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/mars-rover/rover/mission"
	"github.com/wricardo/mars-rover/rover/service"
	"github.com/wricardo/mars-rover/transport/websocket"
)

// Broadcaster streams simulation results to websocket subscribers
type Broadcaster interface {
	PublishResult(result *service.SimulationResult)
	ServeWS(w http.ResponseWriter, r *http.Request, channel string)
}

// Server represents the REST API server
type Server struct {
	service service.Simulator
	hub     Broadcaster
	router  *mux.Router
	logger  *zap.Logger
}

// NewServer creates a new API server. hub may be nil, in which case results
// are not broadcast and /ws is unavailable.
func NewServer(simulator service.Simulator, hub Broadcaster, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: simulator,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Simulation
	api.HandleFunc("/simulate", s.handleSimulate).Methods("POST")

	// Missions
	api.HandleFunc("/missions", s.handleListMissions).Methods("GET")
	api.HandleFunc("/missions", s.handleSaveMission).Methods("POST")
	api.HandleFunc("/missions/{name}", s.handleGetMission).Methods("GET")
	api.HandleFunc("/missions/{name}/run", s.handleRunMission).Methods("POST")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// Router exposes the mux so callers can mount extra endpoints such as /mcp
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, mission.ErrMissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, mission.ErrInvalidMission), errors.Is(err, service.ErrNilRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publish logs a result and hands it to the hub
func (s *Server) publish(result *service.SimulationResult) {
	fields := []zap.Field{
		zap.String("id", result.ID),
		zap.String("channel", result.Channel()),
		zap.Bool("success", result.Success),
		zap.String("stage", string(result.Stage)),
	}
	if result.Success {
		fields = append(fields, zap.String("final", result.Output), zap.Int("segments", len(result.Segments)))
	} else {
		fields = append(fields, zap.String("error_code", result.ErrorCode))
	}
	s.logger.Info("simulation", fields...)

	if s.hub != nil {
		s.hub.PublishResult(result)
	}
}

// Simulation Handlers

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req service.SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Simulate(r.Context(), &req)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	s.publish(result)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleRunMission(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	result, err := s.service.RunMission(r.Context(), name)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	s.publish(result)
	respondJSON(w, http.StatusOK, result)
}

// Mission Handlers

func (s *Server) handleListMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := s.service.ListMissions(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(missions),
		"missions": missions,
	})
}

func (s *Server) handleGetMission(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	m, err := s.service.GetMission(r.Context(), name)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, m)
}

func (s *Server) handleSaveMission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MissionID string `json:"mission_id,omitempty"`
		mission.Mission
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Mission name is required")
		return
	}

	id := req.MissionID
	if id == "" {
		id = req.Name
	}

	m := req.Mission
	if err := s.service.SaveMission(r.Context(), id, &m); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			respondError(w, status, fmt.Sprintf("Failed to save mission: %v", err))
			return
		}
		respondError(w, status, err.Error())
		return
	}

	s.logger.Info("mission saved", zap.String("mission_id", id))
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Mission saved successfully",
		"mission_id": id,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket streaming disabled", http.StatusServiceUnavailable)
		return
	}

	channel := r.URL.Query().Get("channel")
	if channel == "" {
		channel = websocket.AllChannel
	}

	s.hub.ServeWS(w, r, channel)
}

// subscriberCounter is implemented by hubs that can report their audience
type subscriberCounter interface {
	ClientCount(channel string) int
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "healthy",
	}
	if counter, ok := s.hub.(subscriberCounter); ok {
		resp["subscribers"] = counter.ClientCount(websocket.AllChannel)
	}
	respondJSON(w, http.StatusOK, resp)
}
