// Package server exposes the SupplyGuard HTTP API: natural-language and
// domain-scoped risk analysis, record CRUD, dashboard statistics, and
// operational endpoints (health, metrics, Prometheus exposition).
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"supplyguard/agents"
	"supplyguard/shared/logger"
	"supplyguard/store"
)

// Server wires the orchestrator and store behind the HTTP API.
type Server struct {
	store   store.Store
	orch    *agents.Orchestrator
	limiter *RateLimiter
	log     *logger.Logger
	router  *mux.Router
}

// NewServer builds the server and registers all routes. limiter may be
// nil, which disables rate limiting.
func NewServer(st store.Store, orch *agents.Orchestrator, limiter *RateLimiter) *Server {
	s := &Server{
		store:   st,
		orch:    orch,
		limiter: limiter,
		log:     logger.New("API"),
		router:  mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Router returns the configured route handler.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.metricsMiddleware)

	// Operational endpoints
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods("GET")
	s.router.Handle("/prometheus", promhttp.Handler()).Methods("GET")

	// Analysis endpoints, rate limited when a limiter is configured
	analyze := s.router.PathPrefix("/api/v1/analyze").Subrouter()
	if s.limiter != nil {
		analyze.Use(s.limiter.Middleware)
	}
	analyze.HandleFunc("/query", s.handleAnalyzeQuery).Methods("POST")
	analyze.HandleFunc("/scheduler", s.handleAnalyzeScheduler).Methods("POST")
	analyze.HandleFunc("/political", s.handleAnalyzePolitical).Methods("POST")
	analyze.HandleFunc("/logistics", s.handleAnalyzeLogistics).Methods("POST")
	analyze.HandleFunc("/tariff", s.handleAnalyzeTariff).Methods("POST")
	analyze.HandleFunc("/health", s.handleAnalysisHealth).Methods("GET")

	s.router.HandleFunc("/api/v1/agents/capabilities", s.handleCapabilities).Methods("GET")

	// Record CRUD
	s.router.HandleFunc("/api/v1/equipment", s.handleListEquipment).Methods("GET")
	s.router.HandleFunc("/api/v1/equipment", s.handleCreateEquipment).Methods("POST")
	s.router.HandleFunc("/api/v1/equipment/{id:[0-9]+}", s.handleGetEquipment).Methods("GET")
	s.router.HandleFunc("/api/v1/equipment/{id:[0-9]+}", s.handleUpdateEquipment).Methods("PUT")
	s.router.HandleFunc("/api/v1/equipment/{id:[0-9]+}", s.handleDeleteEquipment).Methods("DELETE")
	s.router.HandleFunc("/api/v1/equipment/{id:[0-9]+}/risks", s.handleEquipmentRisks).Methods("GET")

	s.router.HandleFunc("/api/v1/schedules", s.handleListSchedules).Methods("GET")
	s.router.HandleFunc("/api/v1/schedules", s.handleCreateSchedule).Methods("POST")
	s.router.HandleFunc("/api/v1/schedules/{id:[0-9]+}", s.handleGetSchedule).Methods("GET")
	s.router.HandleFunc("/api/v1/schedules/{id:[0-9]+}", s.handleUpdateSchedule).Methods("PUT")
	s.router.HandleFunc("/api/v1/schedules/{id:[0-9]+}", s.handleDeleteSchedule).Methods("DELETE")

	s.router.HandleFunc("/api/v1/news-events", s.handleListNewsEvents).Methods("GET")
	s.router.HandleFunc("/api/v1/news-events", s.handleCreateNewsEvent).Methods("POST")
	s.router.HandleFunc("/api/v1/news-events/{id:[0-9]+}", s.handleGetNewsEvent).Methods("GET")
	s.router.HandleFunc("/api/v1/news-events/{id:[0-9]+}", s.handleUpdateNewsEvent).Methods("PUT")
	s.router.HandleFunc("/api/v1/news-events/{id:[0-9]+}", s.handleDeleteNewsEvent).Methods("DELETE")

	s.router.HandleFunc("/api/v1/risk-assessments", s.handleListRiskAssessments).Methods("GET")
	s.router.HandleFunc("/api/v1/risk-assessments", s.handleCreateRiskAssessment).Methods("POST")
	s.router.HandleFunc("/api/v1/risk-assessments/{id:[0-9]+}", s.handleGetRiskAssessment).Methods("GET")
	s.router.HandleFunc("/api/v1/risk-assessments/{id:[0-9]+}", s.handleUpdateRiskAssessment).Methods("PUT")
	s.router.HandleFunc("/api/v1/risk-assessments/{id:[0-9]+}", s.handleDeleteRiskAssessment).Methods("DELETE")

	s.router.HandleFunc("/api/v1/dashboard/stats", s.handleDashboardStats).Methods("GET")
	s.router.HandleFunc("/api/v1/countries/{name}/risks", s.handleCountryRisks).Methods("GET")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "supplyguard-api",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// requestIDMiddleware tags every request with an ID for log correlation.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("", "failed to encode response", map[string]any{"error": err.Error()})
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.log.ErrorWithCode(requestID(r), message, status, nil, nil)
	s.writeJSON(w, status, map[string]any{"error": message})
}

// storeError maps persistence failures to 404 or 500.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, "record not found")
		return
	}
	s.writeError(w, r, http.StatusInternalServerError, err.Error())
}

func pathID(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}

func muxVar(r *http.Request, key string) string {
	return mux.Vars(r)[key]
}
