package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"supplyguard/llm"
	"supplyguard/shared/logger"
	"supplyguard/shared/types"
	"supplyguard/store"
)

type tariffStore interface {
	store.EquipmentRepository
	store.NewsEventRepository
}

// Tariff analyzes trade policy risk across the major trade
// relationships, including trade war escalation and cost impact.
type Tariff struct {
	store tariffStore
	ai    llm.Client
	rb    *Rulebook
	log   *logger.Logger
}

func NewTariff(st tariffStore, ai llm.Client, rb *Rulebook) *Tariff {
	return &Tariff{store: st, ai: ai, rb: rb, log: logger.New("TARIFF_AGENT")}
}

func (a *Tariff) Name() string { return "TARIFF_AGENT" }

func (a *Tariff) Description() string {
	return "分析貿易政策和關稅變化對供應鏈的影響，監控貿易戰和關稅調整"
}

func (a *Tariff) Analyze(ctx context.Context, req Request) (*types.AgentResult, error) {
	if req.Country1 != "" && req.Country2 != "" {
		return a.AnalyzeTradeRelationship(ctx, req.Country1, req.Country2)
	}

	events, err := a.store.ListNewsEvents(ctx, store.EventFilter{
		Category: types.CategoryTariff,
		Limit:    20,
	})
	if err != nil {
		return nil, fmt.Errorf("tariff: list events: %w", err)
	}
	equipment, err := a.store.ListEquipment(ctx)
	if err != nil {
		return nil, fmt.Errorf("tariff: list equipment: %w", err)
	}

	now := time.Now()
	affectedRoutes, routeScores := a.tradeRouteScores(events, now)
	tradeWar := a.tradeWarRisks(events)
	exposure := a.tradeExposure(equipment, affectedRoutes)
	costImpact := a.costImpact(events, equipment)

	highImpact := countHighImpact(events)
	recent := countRecent(events, now, 30)
	exposureRate := exposure["exposure_rate"].(float64)
	tradeWarEvents := tradeWar["total_trade_war_events"].(int)
	costEvents := costImpact["high_cost_events"].(int)

	score := clamp100(min(30, float64(highImpact)*6) +
		min(25, float64(recent)*3) +
		min(25, exposureRate*0.4) +
		min(15, float64(tradeWarEvents)*4) +
		min(5, float64(costEvents)*2))

	summary := fmt.Sprintf("分析了 %d 個關稅事件，其中 %d 個高影響事件，影響 %d 條主要貿易路線，可能影響 %d 個設備項目",
		len(events), highImpact, len(affectedRoutes), exposure["exposed_equipment"])
	if tradeWarEvents > 0 {
		summary += fmt.Sprintf("，發現 %d 個貿易戰相關事件", tradeWarEvents)
	}
	summary += "。"

	topRoutes := a.topRiskTradeRoutes(routeScores, 3)
	details := map[string]any{
		"total_events":          len(events),
		"high_impact_events":    highImpact,
		"recent_events":         recent,
		"affected_trade_routes": sortedCountryList(affectedRoutes),
		"trade_route_scores":    routeScores,
		"keyword_frequency":     keywordFrequency(a.rb, events, a.rb.TariffKeywords),
		"trade_war_risks":       tradeWar,
		"trade_exposure":        exposure,
		"cost_impact":           costImpact,
		"top_risk_routes":       topRoutes,
	}

	result := newResult("tariff", a.Name(), score, summary, details,
		a.recommendations(highImpact, exposureRate, topRoutes, tradeWar, costImpact))
	result.RecentEvents = capEvents(events, 5)
	result.AffectedEquipment = a.affectedEquipment(equipment, affectedRoutes, 5)

	query := fmt.Sprintf("Analyze tariff and trade policy risks across %d recent events. Assess trade war escalation, customs changes, and supply chain cost impact.", len(events))
	contextData := map[string]any{
		"news_events": fmt.Sprintf("Analyzing %d tariff events, %d high-impact, %d trade-war related", len(events), highImpact, tradeWarEvents),
	}
	if len(affectedRoutes) > 0 {
		contextData["trade_routes"] = sortedCountryList(affectedRoutes)
	}
	applyJudgment(result, runJudgment(ctx, a.ai, a.log, "tariff", query, contextData))
	return result, nil
}

// AnalyzeTradeRelationship scopes tariff analysis to one country pair
// using a 60 day recency window.
func (a *Tariff) AnalyzeTradeRelationship(ctx context.Context, country1, country2 string) (*types.AgentResult, error) {
	events, err := a.store.ListNewsEvents(ctx, store.EventFilter{
		Category:  types.CategoryTariff,
		Countries: []string{country1, country2},
		Limit:     10,
	})
	if err != nil {
		return nil, fmt.Errorf("tariff: list events for %s-%s: %w", country1, country2, err)
	}
	tradeEquipment, err := a.store.ListEquipmentByTradePair(ctx, country1, country2)
	if err != nil {
		return nil, fmt.Errorf("tariff: list equipment for %s-%s: %w", country1, country2, err)
	}

	now := time.Now()
	highImpact := countHighImpact(events)
	recent := countRecent(events, now, 60)
	hasTradeWar := a.hasTradeWarIndicator(events)

	score := min(40, float64(highImpact)*12) +
		min(30, float64(recent)*6) +
		min(15, float64(len(events))*1.5)
	if hasTradeWar {
		score += 15
	}
	score = clamp100(score)

	details := map[string]any{
		"total_events":       len(events),
		"high_impact_events": highImpact,
		"recent_events":      recent,
		"trade_equipment":    len(tradeEquipment),
		"event_types":        keywordFrequency(a.rb, events, a.rb.TariffKeywords),
		"has_trade_war":      hasTradeWar,
		"latest_event_date":  latestEventDate(events),
	}

	result := newResult("bilateral_tariff", a.Name(), score,
		fmt.Sprintf("%s 與 %s 的貿易關稅風險分析：發現 %d 個相關事件，涉及 %d 個設備項目",
			country1, country2, len(events), len(tradeEquipment)),
		details, a.bilateralRecommendations(country1, country2, highImpact, recent, hasTradeWar))
	result.TradeRelationship = map[string]any{
		"country1": country1,
		"country2": country2,
	}
	result.RecentEvents = capEvents(events, 5)
	result.TradeEquipment = capEquipment(tradeEquipment, 5)
	return result, nil
}

// tradeRouteScores accumulates per-relationship scores: high impact
// events add 30, medium 18, low 8, and events within 30 days add 15.
func (a *Tariff) tradeRouteScores(events []types.NewsEvent, now time.Time) (map[string]bool, map[string]float64) {
	affected := make(map[string]bool)
	scores := make(map[string]float64)

	for _, rel := range a.rb.TradeRelationships {
		relScore := 0.0
		matched := false
		for _, e := range events {
			if !containsString(rel.Countries, e.Country) {
				continue
			}
			matched = true

			switch e.ImpactLevel {
			case types.ImpactHigh:
				relScore += 30
			case types.ImpactMedium:
				relScore += 18
			default:
				relScore += 8
			}
			if withinDays(e.PublishedDate, now, 30) {
				relScore += 15
			}
		}
		if matched {
			affected[rel.Name] = true
			scores[rel.Name] = relScore
		}
	}
	return affected, scores
}

// tradeWarRisks flags escalation when more than three events mention a
// trade war keyword.
func (a *Tariff) tradeWarRisks(events []types.NewsEvent) map[string]any {
	involved := make(map[string]int)
	total := 0

	for _, e := range events {
		text := eventText(e)
		for _, kw := range a.rb.TradeWarKeywords {
			if strings.Contains(text, kw) {
				total++
				if e.Country != "" {
					involved[e.Country]++
				}
				break
			}
		}
	}
	return map[string]any{
		"total_trade_war_events": total,
		"involved_countries":     involved,
		"escalation_risk":        total > 3,
	}
}

func (a *Tariff) hasTradeWarIndicator(events []types.NewsEvent) bool {
	for _, e := range events {
		text := eventText(e)
		for _, kw := range a.rb.TradeWarKeywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
	}
	return false
}

// tradeExposure requires both endpoints of a route to sit inside an
// affected relationship, unlike the logistics either-end rule.
func (a *Tariff) tradeExposure(equipment []types.Equipment, affectedRoutes map[string]bool) map[string]any {
	exposed := 0
	for _, eq := range equipment {
		if a.onAffectedTradeRoute(eq, affectedRoutes) {
			exposed++
		}
	}

	rate := 0.0
	if len(equipment) > 0 {
		rate = round2(float64(exposed) / float64(len(equipment)) * 100)
	}
	return map[string]any{
		"total_equipment":   len(equipment),
		"exposed_equipment": exposed,
		"exposure_rate":     rate,
	}
}

func (a *Tariff) onAffectedTradeRoute(eq types.Equipment, affectedRoutes map[string]bool) bool {
	for _, rel := range a.rb.TradeRelationships {
		if !affectedRoutes[rel.Name] {
			continue
		}
		if containsString(rel.Countries, eq.ManufacturingCountry) &&
			containsString(rel.Countries, eq.DestinationCountry) {
			return true
		}
	}
	return false
}

// costImpact estimates cost pressure from explicit tariff increase
// events, assuming roughly ten percent per affected equipment.
func (a *Tariff) costImpact(events []types.NewsEvent, equipment []types.Equipment) map[string]any {
	var costEvents []types.NewsEvent
	for _, e := range events {
		content := strings.ToLower(e.Content)
		if strings.Contains(content, "tariff increase") || strings.Contains(e.Content, "關稅上調") {
			costEvents = append(costEvents, e)
		}
	}

	affectedCount := 0
	estimatedIncrease := 0.0
	for _, eq := range equipment {
		for _, e := range costEvents {
			if e.Country == eq.ManufacturingCountry || e.Country == eq.DestinationCountry {
				affectedCount++
				estimatedIncrease += 10
				break
			}
		}
	}

	avgIncrease := 0.0
	if affectedCount > 0 {
		avgIncrease = round2(estimatedIncrease / float64(affectedCount))
	}
	return map[string]any{
		"high_cost_events":                    len(costEvents),
		"affected_equipment_count":            affectedCount,
		"estimated_avg_cost_increase_percent": avgIncrease,
	}
}

func (a *Tariff) affectedEquipment(equipment []types.Equipment, affectedRoutes map[string]bool, n int) []types.Equipment {
	var out []types.Equipment
	for _, eq := range equipment {
		if len(out) == n {
			break
		}
		if a.onAffectedTradeRoute(eq, affectedRoutes) {
			out = append(out, eq)
		}
	}
	return out
}

func (a *Tariff) topRiskTradeRoutes(scores map[string]float64, n int) []map[string]any {
	ranked := rankScores(scores)
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	top := make([]map[string]any, 0, len(ranked))
	for _, entry := range ranked {
		countries := []string{}
		for _, rel := range a.rb.TradeRelationships {
			if rel.Name == entry.name {
				countries = rel.Countries
				break
			}
		}
		top = append(top, map[string]any{
			"trade_route": entry.name,
			"risk_score":  round2(entry.score),
			"risk_level":  types.RiskLevelFromScore(min(100, entry.score)),
			"countries":   countries,
		})
	}
	return top
}

func (a *Tariff) recommendations(highImpact int, exposureRate float64, topRoutes []map[string]any, tradeWar, costImpact map[string]any) []string {
	var recs []string
	if highImpact > 2 {
		recs = append(recs, "關稅高影響事件較多，建議重新評估貿易策略")
	}
	if exposureRate > 50 {
		recs = append(recs, "貿易暴露度較高，建議考慮供應鏈多元化")
	}
	if len(topRoutes) > 0 {
		recs = append(recs, fmt.Sprintf("特別關注 %s 的關稅政策變化", topRoutes[0]["trade_route"]))
	}
	if tradeWar["escalation_risk"].(bool) {
		recs = append(recs, "貿易戰升級風險較高，建議準備應對措施")
	}
	if increase := costImpact["estimated_avg_cost_increase_percent"].(float64); increase > 5 {
		recs = append(recs, fmt.Sprintf("預估成本增加 %.1f%%，建議調整定價策略", increase))
	}
	recs = append(recs,
		"密切監控貿易政策變化",
		"評估關稅對成本的影響",
		"考慮調整供應商結構",
		"準備貿易合規方案",
	)
	return capList(recs, 6)
}

func (a *Tariff) bilateralRecommendations(country1, country2 string, highImpact, recent int, hasTradeWar bool) []string {
	var recs []string
	if highImpact > 1 {
		recs = append(recs, fmt.Sprintf("%s 與 %s 存在高影響關稅事件，建議重新評估貿易成本", country1, country2))
	}
	if recent > 2 {
		recs = append(recs, fmt.Sprintf("%s-%s 貿易關係最近變化較大，建議密切監控", country1, country2))
	}
	if hasTradeWar {
		recs = append(recs, fmt.Sprintf("%s 與 %s 存在貿易戰風險，建議準備替代方案", country1, country2))
	}
	recs = append(recs,
		fmt.Sprintf("關注 %s 與 %s 的貿易協定變化", country1, country2),
		fmt.Sprintf("評估 %s-%s 貿易路線的替代選項", country1, country2),
		fmt.Sprintf("準備 %s 與 %s 之間的合規文件", country1, country2),
	)
	return capList(recs, 5)
}
