package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyguard/shared/logger"
	"supplyguard/shared/types"
	"supplyguard/store"
)

func seededStore(t *testing.T) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	require.NoError(t, store.Seed(context.Background(), m))
	return m
}

func TestProcessQueryRoutesToPolitical(t *testing.T) {
	o := NewOrchestrator(seededStore(t), nil, DefaultRulebook())

	result := o.ProcessQuery(context.Background(), "Analyze political risk in Germany", nil)
	assert.Equal(t, "political", result.AnalysisType)
	assert.Equal(t, "POLITICAL_RISK_AGENT", result.AgentName)
	assert.Equal(t, "Analyze political risk in Germany", result.OriginalQuery)
	require.NotNil(t, result.DetectedIntent)
	assert.Equal(t, types.AgentPolitical, result.DetectedIntent.AgentType)
	assert.Contains(t, result.DetectedIntent.Entities.Countries, "germany")
	assert.False(t, result.Error)
}

func TestProcessQueryUnmatchedRunsComprehensive(t *testing.T) {
	o := NewOrchestrator(seededStore(t), nil, DefaultRulebook())

	result := o.ProcessQuery(context.Background(), "what should I worry about", nil)
	assert.Equal(t, "comprehensive", result.AnalysisType)
	assert.Equal(t, "ORCHESTRATOR", result.AgentName)
	assert.Len(t, result.Details, 4)
}

func TestComprehensiveAggregation(t *testing.T) {
	o := NewOrchestrator(seededStore(t), nil, DefaultRulebook())

	result := o.Comprehensive(context.Background(), "overall risk", nil)

	// Overall score is the mean of the four agent scores.
	total := 0.0
	for _, agentType := range types.AgentPriority {
		agentResult, ok := result.Details[string(agentType)].(*types.AgentResult)
		require.True(t, ok, "agent %s", agentType)
		total += agentResult.RiskScore
	}
	assert.InDelta(t, total/4, result.RiskScore, 0.01)
	assert.Equal(t, types.RiskLevelFromScore(result.RiskScore), result.RiskLevel)

	// Summary joins the four parts in priority order.
	parts := strings.Split(result.Summary, " | ")
	require.Len(t, parts, 4)
	assert.True(t, strings.HasPrefix(parts[0], "SCHEDULER風險("))
	assert.True(t, strings.HasPrefix(parts[1], "POLITICAL風險("))

	// Two tagged recommendations per agent, capped at eight total.
	assert.Len(t, result.Recommendations, 8)
	assert.True(t, strings.HasPrefix(result.Recommendations[0], "[SCHEDULER] "))
	assert.True(t, strings.HasPrefix(result.Recommendations[2], "[POLITICAL] "))
}

func TestComprehensiveIsolatesFailingAgent(t *testing.T) {
	broken := &brokenScheduleStore{Memory: seededStore(t)}
	o := NewOrchestrator(broken, nil, DefaultRulebook())

	result := o.Comprehensive(context.Background(), "overall risk", nil)

	// The scheduler slot carries an error entry.
	errEntry, ok := result.Details["scheduler"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errEntry["error"], "schedules table unavailable")

	// The mean covers only the three surviving agents.
	total := 0.0
	for _, agentType := range []types.AgentType{types.AgentPolitical, types.AgentLogistics, types.AgentTariff} {
		agentResult, ok := result.Details[string(agentType)].(*types.AgentResult)
		require.True(t, ok)
		total += agentResult.RiskScore
	}
	assert.InDelta(t, total/3, result.RiskScore, 0.01)

	// No scheduler part in the summary or recommendations.
	assert.NotContains(t, result.Summary, "SCHEDULER風險")
	for _, rec := range result.Recommendations {
		assert.False(t, strings.HasPrefix(rec, "[SCHEDULER]"))
	}
}

func TestProcessQueryAgentFailureReturnsErrorResult(t *testing.T) {
	broken := &brokenScheduleStore{Memory: seededStore(t)}
	o := NewOrchestrator(broken, nil, DefaultRulebook())

	result := o.ProcessQuery(context.Background(), "analyze schedule risk", nil)
	assert.Equal(t, "error", result.AnalysisType)
	assert.Equal(t, "ORCHESTRATOR", result.AgentName)
	assert.Equal(t, types.RiskUnknown, result.RiskLevel)
	assert.Zero(t, result.RiskScore)
	assert.True(t, result.Error)
	assert.Contains(t, result.Summary, "處理查詢時發生錯誤")
	assert.Equal(t, []string{"請檢查查詢格式並重試", "聯繫系統管理員獲取支援"}, result.Recommendations)
}

func TestProcessQueryRecoversAgentPanic(t *testing.T) {
	o := NewOrchestrator(store.NewMemory(), nil, DefaultRulebook())
	o.agents[types.AgentScheduler] = panickyAgent{}

	result := o.ProcessQuery(context.Background(), "analyze schedule risk", nil)
	assert.Equal(t, "error", result.AnalysisType)
	assert.True(t, result.Error)
	assert.Contains(t, result.Summary, "agent panic")
}

func TestComprehensiveAllAgentsFailed(t *testing.T) {
	o := &Orchestrator{
		rb:  DefaultRulebook(),
		log: logger.New("test"),
	}
	o.agents = map[types.AgentType]Agent{
		types.AgentScheduler: failingAgent{},
		types.AgentPolitical: failingAgent{},
		types.AgentLogistics: failingAgent{},
		types.AgentTariff:    failingAgent{},
	}

	result := o.Comprehensive(context.Background(), "overall risk", nil)
	assert.Zero(t, result.RiskScore)
	assert.Equal(t, types.RiskLow, result.RiskLevel)
	assert.Equal(t, "無法生成綜合分析摘要，所有代理都遇到錯誤。", result.Summary)
	// Only the three generic recommendations remain.
	assert.Len(t, result.Recommendations, 3)
}

func TestOrchestratorBuildRequestPayloads(t *testing.T) {
	o := NewOrchestrator(store.NewMemory(), nil, DefaultRulebook())

	intent := o.rb.ClassifyIntent("物流運輸：中國 到 德國")
	require.Equal(t, types.AgentLogistics, intent.AgentType)
	req := o.buildRequest("q", intent, nil)
	assert.Equal(t, "中國", req.OriginCountry)
	assert.Equal(t, "德國", req.DestinationCountry)

	// Entities come back in vocabulary order, not query order.
	intent = o.rb.ClassifyIntent("美國 中國 關稅 貿易")
	require.Equal(t, types.AgentTariff, intent.AgentType)
	req = o.buildRequest("q", intent, nil)
	assert.Equal(t, "中國", req.Country1)
	assert.Equal(t, "美國", req.Country2)

	intent = o.rb.ClassifyIntent("德國的政治制裁")
	require.Equal(t, types.AgentPolitical, intent.AgentType)
	req = o.buildRequest("q", intent, nil)
	assert.Equal(t, []string{"德國"}, req.TargetCountries)
}

func TestProcessQueryDispatchesScopedAnalyses(t *testing.T) {
	o := NewOrchestrator(seededStore(t), nil, DefaultRulebook())

	// Two countries in a logistics query scope the analysis to that route.
	result := o.ProcessQuery(context.Background(), "物流運輸：中國 到 德國", nil)
	assert.Equal(t, "route_logistics", result.AnalysisType)
	assert.Equal(t, "物流運輸：中國 到 德國", result.OriginalQuery)

	result = o.ProcessQuery(context.Background(), "美國 中國 關稅 貿易", nil)
	assert.Equal(t, "bilateral_tariff", result.AnalysisType)

	// One country is not enough for a route; the fleet-wide pass runs.
	result = o.ProcessQuery(context.Background(), "中國 物流 運輸 風險", nil)
	assert.Equal(t, "logistics", result.AnalysisType)
}

func TestCapabilities(t *testing.T) {
	o := NewOrchestrator(store.NewMemory(), nil, DefaultRulebook())

	caps := o.Capabilities()
	require.Len(t, caps, 4)
	political := caps["political"]
	assert.Equal(t, "POLITICAL_RISK_AGENT", political.Name)
	assert.Contains(t, political.Keywords, "sanction")
	assert.Len(t, political.ExampleQueries, 3)
}

func TestHealthCheck(t *testing.T) {
	o := NewOrchestrator(store.NewMemory(), nil, DefaultRulebook())

	h := o.HealthCheck(context.Background())
	assert.Equal(t, "healthy", h.Orchestrator)
	assert.Equal(t, 4, h.TotalAgents)
	assert.Equal(t, 4, h.HealthyAgents)
	assert.Equal(t, "healthy", h.OverallHealth)
	assert.Equal(t, "healthy", h.Agents["scheduler"])
}

type panickyAgent struct{}

func (panickyAgent) Name() string        { return "PANICKY_AGENT" }
func (panickyAgent) Description() string { return "always panics" }
func (panickyAgent) Analyze(context.Context, Request) (*types.AgentResult, error) {
	panic("boom")
}

type failingAgent struct{}

func (failingAgent) Name() string        { return "FAILING_AGENT" }
func (failingAgent) Description() string { return "always fails" }
func (failingAgent) Analyze(context.Context, Request) (*types.AgentResult, error) {
	return nil, context.DeadlineExceeded
}
