package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"supplyguard/agents"
	"supplyguard/shared/types"
)

// analyzeRequest is the payload for every analysis endpoint. The generic
// query endpoint uses Query and Context; domain endpoints additionally
// accept scope fields and fall back to a fleet-wide analysis when the
// scope is absent.
type analyzeRequest struct {
	Query   string         `json:"query"`
	Context map[string]any `json:"context,omitempty"`

	EquipmentID        int    `json:"equipment_id,omitempty"`
	Country            string `json:"country,omitempty"`
	OriginCountry      string `json:"origin_country,omitempty"`
	DestinationCountry string `json:"destination_country,omitempty"`
	Country1           string `json:"country1,omitempty"`
	Country2           string `json:"country2,omitempty"`
}

func (s *Server) decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) (*analyzeRequest, bool) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return &req, true
}

// handleAnalyzeQuery routes a natural-language query through the
// orchestrator. POST /api/v1/analyze/query
func (s *Server) handleAnalyzeQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, r, http.StatusBadRequest, "query is required")
		return
	}

	s.log.Info(requestID(r), "processing analysis query", map[string]any{"query": req.Query})
	result := s.orch.ProcessQuery(r.Context(), req.Query, req.Context)
	s.finishAnalysis(w, r, result)
}

// handleAnalyzeScheduler runs the schedule agent. An equipment_id in the
// payload scopes the analysis to that equipment's schedules.
func (s *Server) handleAnalyzeScheduler(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	var (
		result *types.AgentResult
		err    error
	)
	if req.EquipmentID > 0 {
		result, err = s.orch.Scheduler().AnalyzeEquipmentSchedule(r.Context(), req.EquipmentID)
	} else {
		result, err = s.orch.Scheduler().Analyze(r.Context(), agents.Request{Query: req.Query, Context: req.Context})
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	s.finishAnalysis(w, r, result)
}

// handleAnalyzePolitical runs the political agent, scoped to one country
// when the payload names it.
func (s *Server) handleAnalyzePolitical(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	var (
		result *types.AgentResult
		err    error
	)
	if req.Country != "" {
		result, err = s.orch.Political().AnalyzeCountryRisk(r.Context(), req.Country)
	} else {
		result, err = s.orch.Political().Analyze(r.Context(), agents.Request{Query: req.Query, Context: req.Context})
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	s.finishAnalysis(w, r, result)
}

// handleAnalyzeLogistics runs the logistics agent, scoped to one route
// when both endpoints are in the payload.
func (s *Server) handleAnalyzeLogistics(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	var (
		result *types.AgentResult
		err    error
	)
	if req.OriginCountry != "" && req.DestinationCountry != "" {
		result, err = s.orch.Logistics().AnalyzeRouteRisk(r.Context(), req.OriginCountry, req.DestinationCountry)
	} else {
		result, err = s.orch.Logistics().Analyze(r.Context(), agents.Request{Query: req.Query, Context: req.Context})
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	s.finishAnalysis(w, r, result)
}

// handleAnalyzeTariff runs the tariff agent, scoped to one bilateral
// relationship when both countries are in the payload.
func (s *Server) handleAnalyzeTariff(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	var (
		result *types.AgentResult
		err    error
	)
	if req.Country1 != "" && req.Country2 != "" {
		result, err = s.orch.Tariff().AnalyzeTradeRelationship(r.Context(), req.Country1, req.Country2)
	} else {
		result, err = s.orch.Tariff().Analyze(r.Context(), agents.Request{Query: req.Query, Context: req.Context})
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	s.finishAnalysis(w, r, result)
}

// finishAnalysis persists the result as a risk assessment and writes the
// response. Persistence is best effort: a storage failure is logged and
// never fails the analysis response.
func (s *Server) finishAnalysis(w http.ResponseWriter, r *http.Request, result *types.AgentResult) {
	promAnalysesTotal.WithLabelValues(result.AnalysisType).Inc()

	if !result.Error {
		assessment := types.RiskAssessment{
			RiskType:        result.AnalysisType,
			RiskLevel:       result.RiskLevel,
			RiskScore:       result.RiskScore,
			Description:     result.Summary,
			Recommendations: strings.Join(result.Recommendations, "\n"),
			AgentName:       result.AgentName,
		}
		if result.Equipment != nil {
			id := result.Equipment.ID
			assessment.EquipmentID = &id
		}
		if err := s.store.CreateRiskAssessment(r.Context(), &assessment); err != nil {
			s.log.Warn(requestID(r), "failed to persist risk assessment", map[string]any{
				"risk_type": result.AnalysisType,
				"error":     err.Error(),
			})
		}
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleCapabilities describes every agent. GET /api/v1/agents/capabilities
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	caps := s.orch.Capabilities()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"agents":       caps,
		"total_agents": len(caps),
	})
}

// handleAnalysisHealth reports orchestrator and agent status.
// GET /api/v1/analyze/health
func (s *Server) handleAnalysisHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orch.HealthCheck(r.Context()))
}

// handleCountryRisks runs a country-scoped political analysis.
// GET /api/v1/countries/{name}/risks
func (s *Server) handleCountryRisks(w http.ResponseWriter, r *http.Request) {
	country := muxVar(r, "name")
	if country == "" {
		s.writeError(w, r, http.StatusBadRequest, "country name is required")
		return
	}

	result, err := s.orch.Political().AnalyzeCountryRisk(r.Context(), country)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	s.finishAnalysis(w, r, result)
}
