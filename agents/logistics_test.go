package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyguard/shared/types"
	"supplyguard/store"
)

func TestLogisticsScoring(t *testing.T) {
	m := store.NewMemory()
	seedEquipment(t, m, "中國", "德國")
	seedEquipment(t, m, "巴西", "埃及")

	// One recent high-impact event in China touches the Asia routes.
	seedEvent(t, m, types.CategoryLogistics, types.ImpactHigh, "中國", time.Hour)

	agent := NewLogistics(m, nil, DefaultRulebook())
	result, err := agent.Analyze(context.Background(), Request{})
	require.NoError(t, err)

	// high impact 1*7=7, recent 1*4=4, exposure 50%*0.4=20, no port events.
	assert.Equal(t, 31.0, result.RiskScore)
	assert.Equal(t, types.RiskLow, result.RiskLevel)

	// China sits on three of the four major routes.
	routes := result.Details["affected_routes"].([]string)
	assert.Len(t, routes, 3)

	exposure := result.Details["logistics_exposure"].(map[string]any)
	assert.Equal(t, 1, exposure["exposed_equipment"])
}

func TestLogisticsPortEvents(t *testing.T) {
	m := store.NewMemory()
	seedEquipment(t, m, "中國", "台灣")

	for i := 0; i < 2; i++ {
		e := types.NewsEvent{
			Title:         "上海港口罷工",
			Content:       "港口貨物積壓嚴重",
			Source:        "wire",
			Country:       "中國",
			Category:      types.CategoryLogistics,
			ImpactLevel:   types.ImpactHigh,
			PublishedDate: time.Now().Add(-time.Hour),
		}
		require.NoError(t, m.CreateNewsEvent(context.Background(), &e))
	}

	agent := NewLogistics(m, nil, DefaultRulebook())
	result, err := agent.Analyze(context.Background(), Request{})
	require.NoError(t, err)

	ports := result.Details["port_risks"].(map[string]any)
	assert.Equal(t, 2, ports["total_port_events"])
	// Two port events in one country flags it high risk.
	assert.Equal(t, []string{"中國"}, ports["high_risk_ports"])
	assert.Contains(t, result.Summary, "發現 2 個港口相關風險事件")
}

func TestAnalyzeRouteRiskKnownRoute(t *testing.T) {
	m := store.NewMemory()
	eq := seedEquipment(t, m, "中國", "德國")
	seedEquipment(t, m, "德國", "中國")
	seedEvent(t, m, types.CategoryLogistics, types.ImpactHigh, "中國", time.Hour)
	seedEvent(t, m, types.CategoryLogistics, types.ImpactLow, "德國", 10*24*time.Hour)
	// Event outside the pair is excluded.
	seedEvent(t, m, types.CategoryLogistics, types.ImpactHigh, "美國", time.Hour)

	agent := NewLogistics(m, nil, DefaultRulebook())
	result, err := agent.AnalyzeRouteRisk(context.Background(), "中國", "德國")
	require.NoError(t, err)

	assert.Equal(t, "route_logistics", result.AnalysisType)
	// high 1*15=15, recent(30d) 2*8=16, total 2*2=4.
	assert.Equal(t, 35.0, result.RiskScore)
	assert.Equal(t, "亞洲-歐洲", result.RouteInfo["route_type"])
	// Route equipment is directional.
	require.Len(t, result.RouteEquipment, 1)
	assert.Equal(t, eq.ID, result.RouteEquipment[0].ID)
	assert.Equal(t, 2, result.Details["total_events"])
}

func TestAnalyzeRouteRiskUnknownRoute(t *testing.T) {
	m := store.NewMemory()

	agent := NewLogistics(m, nil, DefaultRulebook())
	result, err := agent.AnalyzeRouteRisk(context.Background(), "巴西", "埃及")
	require.NoError(t, err)
	assert.Equal(t, "其他路線", result.RouteInfo["route_type"])
	assert.Zero(t, result.RiskScore)
	assert.Equal(t, types.RiskLow, result.RiskLevel)
}
