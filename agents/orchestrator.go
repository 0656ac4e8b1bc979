package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"supplyguard/llm"
	"supplyguard/shared/logger"
	"supplyguard/shared/types"
	"supplyguard/store"
)

// Orchestrator routes natural language queries to domain agents and runs
// the comprehensive fan-out when no single domain wins.
type Orchestrator struct {
	rb        *Rulebook
	agents    map[types.AgentType]Agent
	scheduler *Scheduler
	political *Political
	logistics *Logistics
	tariff    *Tariff
	log       *logger.Logger
}

// NewOrchestrator wires the four domain agents against one store and one
// AI client.
func NewOrchestrator(st store.Store, ai llm.Client, rb *Rulebook) *Orchestrator {
	o := &Orchestrator{
		rb:        rb,
		scheduler: NewScheduler(st, ai),
		political: NewPolitical(st, ai, rb),
		logistics: NewLogistics(st, ai, rb),
		tariff:    NewTariff(st, ai, rb),
		log:       logger.New("ORCHESTRATOR"),
	}
	o.agents = map[types.AgentType]Agent{
		types.AgentScheduler: o.scheduler,
		types.AgentPolitical: o.political,
		types.AgentLogistics: o.logistics,
		types.AgentTariff:    o.tariff,
	}
	return o
}

// Scheduler exposes the schedule agent for equipment-scoped analysis.
func (o *Orchestrator) Scheduler() *Scheduler { return o.scheduler }

// Political exposes the political agent for country-scoped analysis.
func (o *Orchestrator) Political() *Political { return o.political }

// Logistics exposes the logistics agent for route-scoped analysis.
func (o *Orchestrator) Logistics() *Logistics { return o.logistics }

// Tariff exposes the tariff agent for bilateral analysis.
func (o *Orchestrator) Tariff() *Tariff { return o.tariff }

// ProcessQuery classifies the query and routes it to the winning agent,
// or runs the comprehensive fan-out when no domain scores above zero.
// Agent failures produce an error result rather than an error return so
// callers always get a renderable response.
func (o *Orchestrator) ProcessQuery(ctx context.Context, query string, contextData map[string]any) *types.AgentResult {
	o.log.Info("", "processing query", map[string]any{"query": query})

	intent := o.rb.ClassifyIntent(query)
	if intent.AgentType == "" {
		return o.Comprehensive(ctx, query, contextData)
	}

	agent := o.agents[intent.AgentType]
	req := o.buildRequest(query, intent, contextData)

	result, err := o.safeAnalyze(ctx, agent, req)
	if err != nil {
		o.log.Error("", "agent analysis failed", map[string]any{
			"agent": string(intent.AgentType),
			"error": err.Error(),
		})
		return o.errorResult(query, err)
	}

	result.OriginalQuery = query
	result.DetectedIntent = intent
	return result
}

// safeAnalyze converts an agent panic into an error so a single bad
// agent can never take down the query path.
func (o *Orchestrator) safeAnalyze(ctx context.Context, agent Agent, req Request) (result *types.AgentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent panic: %v", r)
		}
	}()
	return agent.Analyze(ctx, req)
}

// buildRequest fills the domain payload from extracted entities. The
// political agent takes every country; logistics and tariff need two.
func (o *Orchestrator) buildRequest(query string, intent *types.Intent, contextData map[string]any) Request {
	req := Request{
		Query:   query,
		Intent:  intent,
		Context: contextData,
	}

	countries := intent.Entities.Countries
	switch intent.AgentType {
	case types.AgentPolitical:
		req.TargetCountries = countries
	case types.AgentLogistics:
		if len(countries) >= 2 {
			req.OriginCountry = countries[0]
			req.DestinationCountry = countries[1]
		}
	case types.AgentTariff:
		if len(countries) >= 2 {
			req.Country1 = countries[0]
			req.Country2 = countries[1]
		}
	}
	return req
}

// Comprehensive fans the query out to all four agents concurrently. A
// failing agent is isolated: its slot carries an error entry and the
// overall score averages the successes only.
func (o *Orchestrator) Comprehensive(ctx context.Context, query string, contextData map[string]any) *types.AgentResult {
	o.log.Info("", "performing comprehensive analysis", map[string]any{"query": query})

	results := make(map[types.AgentType]*types.AgentResult, len(o.agents))
	errs := make(map[types.AgentType]error, len(o.agents))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, agentType := range types.AgentPriority {
		wg.Add(1)
		go func(agentType types.AgentType) {
			defer wg.Done()
			result, err := o.safeAnalyze(ctx, o.agents[agentType], Request{Query: query, Context: contextData})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.log.Error("", "comprehensive agent failed", map[string]any{
					"agent": string(agentType),
					"error": err.Error(),
				})
				errs[agentType] = err
				return
			}
			results[agentType] = result
		}(agentType)
	}
	wg.Wait()

	details := make(map[string]any, len(o.agents))
	total := 0.0
	valid := 0
	for _, agentType := range types.AgentPriority {
		if err, ok := errs[agentType]; ok {
			details[string(agentType)] = map[string]any{
				"error":      err.Error(),
				"agent_name": string(agentType),
			}
			continue
		}
		details[string(agentType)] = results[agentType]
		total += results[agentType].RiskScore
		valid++
	}

	score := 0.0
	if valid > 0 {
		score = total / float64(valid)
	}

	out := newResult("comprehensive", "ORCHESTRATOR", score,
		o.comprehensiveSummary(results), details, o.comprehensiveRecommendations(results))
	out.OriginalQuery = query
	return out
}

func (o *Orchestrator) comprehensiveSummary(results map[types.AgentType]*types.AgentResult) string {
	var parts []string
	for _, agentType := range types.AgentPriority {
		result, ok := results[agentType]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s風險(%s): %s",
			strings.ToUpper(string(agentType)), result.RiskLevel, result.Summary))
	}
	if len(parts) == 0 {
		return "無法生成綜合分析摘要，所有代理都遇到錯誤。"
	}
	return strings.Join(parts, " | ")
}

func (o *Orchestrator) comprehensiveRecommendations(results map[types.AgentType]*types.AgentResult) []string {
	var recs []string
	for _, agentType := range types.AgentPriority {
		result, ok := results[agentType]
		if !ok {
			continue
		}
		for _, rec := range capList(result.Recommendations, 2) {
			recs = append(recs, fmt.Sprintf("[%s] %s", strings.ToUpper(string(agentType)), rec))
		}
	}
	recs = append(recs,
		"建立跨領域風險監控機制",
		"定期更新風險評估模型",
		"加強供應鏈韌性建設",
	)
	return capList(recs, 8)
}

func (o *Orchestrator) errorResult(query string, err error) *types.AgentResult {
	return &types.AgentResult{
		AnalysisType: "error",
		AgentName:    "ORCHESTRATOR",
		RiskLevel:    types.RiskUnknown,
		RiskScore:    0,
		Summary:      fmt.Sprintf("處理查詢時發生錯誤: %s", err.Error()),
		Details:      map[string]any{"error": err.Error()},
		Recommendations: []string{
			"請檢查查詢格式並重試",
			"聯繫系統管理員獲取支援",
		},
		Timestamp:     time.Now().UTC(),
		OriginalQuery: query,
		Error:         true,
	}
}

// Capability describes one agent for the capabilities endpoint.
type Capability struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Keywords       []string `json:"keywords"`
	ExampleQueries []string `json:"example_queries"`
}

var exampleQueries = map[types.AgentType][]string{
	types.AgentScheduler: {
		"What are the schedule risks?",
		"分析設備交付排程的風險",
		"檢查延遲的項目",
	},
	types.AgentPolitical: {
		"What are the political risks?",
		"分析德國的政治風險",
		"評估地緣政治影響",
	},
	types.AgentLogistics: {
		"What are the logistics risks?",
		"分析物流運輸風險",
		"檢查港口擁堵情況",
	},
	types.AgentTariff: {
		"What are the tariff risks?",
		"分析貿易關稅風險",
		"評估貿易戰影響",
	},
}

// Capabilities returns the static description of every agent.
func (o *Orchestrator) Capabilities() map[string]Capability {
	caps := make(map[string]Capability, len(o.agents))
	for agentType, agent := range o.agents {
		caps[string(agentType)] = Capability{
			Name:           agent.Name(),
			Description:    agent.Description(),
			Keywords:       o.rb.Routing[agentType].Keywords,
			ExampleQueries: exampleQueries[agentType],
		}
	}
	return caps
}

// Health summarizes orchestrator and per-agent status.
type Health struct {
	Orchestrator  string            `json:"orchestrator"`
	Agents        map[string]string `json:"agents"`
	TotalAgents   int               `json:"total_agents"`
	HealthyAgents int               `json:"healthy_agents"`
	OverallHealth string            `json:"overall_health"`
}

// HealthCheck probes each agent with a minimal validation request.
func (o *Orchestrator) HealthCheck(ctx context.Context) *Health {
	h := &Health{
		Orchestrator: "healthy",
		Agents:       make(map[string]string, len(o.agents)),
		TotalAgents:  len(o.agents),
	}
	for _, agentType := range types.AgentPriority {
		if err := o.probe(ctx, agentType); err != nil {
			h.Agents[string(agentType)] = "error: " + err.Error()
			continue
		}
		h.Agents[string(agentType)] = "healthy"
		h.HealthyAgents++
	}

	h.OverallHealth = "healthy"
	if h.HealthyAgents != h.TotalAgents {
		h.OverallHealth = "degraded"
	}
	return h
}

func (o *Orchestrator) probe(ctx context.Context, agentType types.AgentType) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if o.agents[agentType] == nil {
		return fmt.Errorf("agent %s not configured", agentType)
	}
	return nil
}
