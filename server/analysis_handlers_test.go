package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyguard/agents"
	"supplyguard/shared/types"
	"supplyguard/store"
)

func newTestServer(t *testing.T, seed bool) (*Server, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	if seed {
		require.NoError(t, store.Seed(context.Background(), m))
	}
	orch := agents.NewOrchestrator(m, nil, agents.DefaultRulebook())
	return NewServer(m, orch, nil), m
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) *types.AgentResult {
	t.Helper()
	var result types.AgentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return &result
}

func TestAnalyzeQueryMissingQuery(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doJSON(t, srv, "POST", "/api/v1/analyze/query", map[string]any{"query": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "query is required", resp["error"])
}

func TestAnalyzeQueryInvalidBody(t *testing.T) {
	srv, _ := newTestServer(t, false)

	req := httptest.NewRequest("POST", "/api/v1/analyze/query", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeQueryRoutesAndPersists(t *testing.T) {
	srv, m := newTestServer(t, true)

	rec := doJSON(t, srv, "POST", "/api/v1/analyze/query", map[string]any{
		"query": "分析德國的政治風險",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	result := decodeResult(t, rec)
	assert.Equal(t, "political", result.AnalysisType)
	assert.Equal(t, "POLITICAL_RISK_AGENT", result.AgentName)
	assert.Equal(t, "分析德國的政治風險", result.OriginalQuery)

	// Successful analyses land in the risk assessment store.
	assessments, err := m.ListRiskAssessments(context.Background(), store.AssessmentFilter{})
	require.NoError(t, err)
	require.Len(t, assessments, 1)
	assert.Equal(t, "political", assessments[0].RiskType)
	assert.Equal(t, result.Summary, assessments[0].Description)
}

func TestAnalyzeSchedulerEquipmentScope(t *testing.T) {
	srv, m := newTestServer(t, true)

	equipment, err := m.ListEquipment(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, equipment)

	rec := doJSON(t, srv, "POST", "/api/v1/analyze/scheduler", map[string]any{
		"equipment_id": equipment[0].ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	assert.Equal(t, "equipment_schedule", result.AnalysisType)
	require.NotNil(t, result.Equipment)
	assert.Equal(t, equipment[0].ID, result.Equipment.ID)

	// The equipment scope carries through to the persisted assessment.
	assessments, err := m.ListRiskAssessments(context.Background(), store.AssessmentFilter{EquipmentID: &equipment[0].ID})
	require.NoError(t, err)
	require.Len(t, assessments, 1)
}

func TestAnalyzeSchedulerGenericFallback(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, "POST", "/api/v1/analyze/scheduler", map[string]any{
		"query": "overall schedule health",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "schedule", decodeResult(t, rec).AnalysisType)
}

func TestAnalyzePoliticalCountryScope(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, "POST", "/api/v1/analyze/political", map[string]any{
		"country": "德國",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	assert.Equal(t, "country_political", result.AnalysisType)
	assert.Equal(t, "德國", result.Country)
}

func TestAnalyzeLogisticsRouteScope(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, "POST", "/api/v1/analyze/logistics", map[string]any{
		"origin_country":      "中國",
		"destination_country": "德國",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	assert.Equal(t, "route_logistics", result.AnalysisType)
	assert.Equal(t, "亞洲-歐洲", result.RouteInfo["route_type"])
}

func TestAnalyzeTariffBilateralScope(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, "POST", "/api/v1/analyze/tariff", map[string]any{
		"country1": "美國",
		"country2": "中國",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	assert.Equal(t, "bilateral_tariff", result.AnalysisType)
	assert.Equal(t, "美國", result.TradeRelationship["country1"])
}

func TestCapabilitiesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doJSON(t, srv, "GET", "/api/v1/agents/capabilities", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Agents      map[string]agents.Capability `json:"agents"`
		TotalAgents int                          `json:"total_agents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.TotalAgents)
	assert.Equal(t, "SCHEDULER_AGENT", resp.Agents["scheduler"].Name)
}

func TestAnalysisHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doJSON(t, srv, "GET", "/api/v1/analyze/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var h agents.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, "healthy", h.OverallHealth)
	assert.Equal(t, 4, h.HealthyAgents)
}

func TestServiceHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doJSON(t, srv, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "supplyguard-api", resp["service"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, false)

	// One request to have something on the counters.
	doJSON(t, srv, "GET", "/health", nil)

	rec := doJSON(t, srv, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "total_requests")
	assert.Contains(t, resp, "success_rate_percent")
}
