package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyguard/shared/types"
	"supplyguard/store"
)

func TestEquipmentCRUD(t *testing.T) {
	srv, _ := newTestServer(t, false)

	// Create
	rec := doJSON(t, srv, "POST", "/api/v1/equipment", types.Equipment{
		Name:                 "精密車床 CNC-500",
		Category:             "工具機",
		Manufacturer:         "Hermle",
		ManufacturingCountry: "德國",
		DestinationCountry:   "台灣",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created types.Equipment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	// Get
	rec = doJSON(t, srv, "GET", "/api/v1/equipment/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got types.Equipment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "精密車床 CNC-500", got.Name)

	// Update
	got.DestinationCountry = "日本"
	rec = doJSON(t, srv, "PUT", "/api/v1/equipment/1", got)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, "GET", "/api/v1/equipment/1", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "日本", got.DestinationCountry)

	// List
	rec = doJSON(t, srv, "GET", "/api/v1/equipment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []types.Equipment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	// Delete
	rec = doJSON(t, srv, "DELETE", "/api/v1/equipment/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, "GET", "/api/v1/equipment/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateEquipmentValidation(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doJSON(t, srv, "POST", "/api/v1/equipment", types.Equipment{Category: "工具機"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListEquipmentByCountry(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, "GET", "/api/v1/equipment?country="+url.QueryEscape("德國"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []types.Equipment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.NotEmpty(t, list)
	for _, eq := range list {
		touchesGermany := eq.ManufacturingCountry == "德國" || eq.DestinationCountry == "德國"
		assert.True(t, touchesGermany, "equipment %d does not touch 德國", eq.ID)
	}
}

func TestScheduleCreateAndListByEquipment(t *testing.T) {
	srv, m := newTestServer(t, false)

	eq := types.Equipment{Name: "測試設備", Category: "test"}
	require.NoError(t, m.CreateEquipment(context.Background(), &eq))

	rec := doJSON(t, srv, "POST", "/api/v1/schedules", types.Schedule{
		EquipmentID:      eq.ID,
		PlannedStartDate: time.Now(),
		PlannedEndDate:   time.Now().AddDate(0, 1, 0),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created types.Schedule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	// Defaults applied when the payload omits them.
	assert.Equal(t, types.SchedulePlanned, created.Status)
	assert.Equal(t, types.RiskLow, created.RiskLevel)

	rec = doJSON(t, srv, "GET", "/api/v1/schedules?equipment_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []types.Schedule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestCreateScheduleRequiresEquipment(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doJSON(t, srv, "POST", "/api/v1/schedules", types.Schedule{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListNewsEventsFilters(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, "GET", "/api/v1/news-events?category=political", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []types.NewsEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.NotEmpty(t, list)
	for _, e := range list {
		assert.Equal(t, types.CategoryPolitical, e.Category)
	}

	rec = doJSON(t, srv, "GET", "/api/v1/news-events?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = doJSON(t, srv, "GET", "/api/v1/news-events?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRiskAssessmentCRUD(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doJSON(t, srv, "POST", "/api/v1/risk-assessments", types.RiskAssessment{
		RiskType:    "political",
		RiskLevel:   types.RiskMedium,
		RiskScore:   45,
		Description: "manual assessment",
		AgentName:   "POLITICAL_RISK_AGENT",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created types.RiskAssessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	rec = doJSON(t, srv, "GET", "/api/v1/risk-assessments?risk_type=political", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []types.RiskAssessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = doJSON(t, srv, "DELETE", "/api/v1/risk-assessments/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestEquipmentRisksEndpoint(t *testing.T) {
	srv, m := newTestServer(t, false)

	eq := types.Equipment{Name: "測試設備", Category: "test"}
	require.NoError(t, m.CreateEquipment(context.Background(), &eq))
	assessment := types.RiskAssessment{
		EquipmentID: &eq.ID,
		RiskType:    "schedule",
		RiskLevel:   types.RiskHigh,
		RiskScore:   70,
		Description: "延遲風險",
		AgentName:   "SCHEDULER_AGENT",
	}
	require.NoError(t, m.CreateRiskAssessment(context.Background(), &assessment))

	rec := doJSON(t, srv, "GET", "/api/v1/equipment/1/risks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Equipment       types.Equipment        `json:"equipment"`
		RiskAssessments []types.RiskAssessment `json:"risk_assessments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, eq.ID, resp.Equipment.ID)
	require.Len(t, resp.RiskAssessments, 1)
	assert.Equal(t, "schedule", resp.RiskAssessments[0].RiskType)

	rec = doJSON(t, srv, "GET", "/api/v1/equipment/99/risks", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCountryRisksEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, "GET", "/api/v1/countries/"+url.PathEscape("德國")+"/risks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	assert.Equal(t, "country_political", result.AnalysisType)
	assert.Equal(t, "德國", result.Country)
}

func TestDashboardStats(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, "GET", "/api/v1/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats store.DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 8, stats.TotalEquipment)
	assert.Equal(t, 8, stats.TotalSchedules)
	assert.Equal(t, 3, stats.DelayedSchedules)
	assert.Equal(t, 2, stats.HighRiskSchedules)
	assert.Equal(t, 7, stats.TotalNewsEvents)
	assert.Equal(t, 3, stats.HighImpactEvents)
	assert.Equal(t, 0, stats.TotalRiskAssessments)
}
