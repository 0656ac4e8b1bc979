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

type logisticsStore interface {
	store.EquipmentRepository
	store.NewsEventRepository
}

// Logistics monitors transport disruption risk across the major shipping
// routes, including port congestion signals.
type Logistics struct {
	store logisticsStore
	ai    llm.Client
	rb    *Rulebook
	log   *logger.Logger
}

func NewLogistics(st logisticsStore, ai llm.Client, rb *Rulebook) *Logistics {
	return &Logistics{store: st, ai: ai, rb: rb, log: logger.New("LOGISTICS_AGENT")}
}

func (a *Logistics) Name() string { return "LOGISTICS_AGENT" }

func (a *Logistics) Description() string {
	return "監控運輸和物流中斷風險，分析港口、航運、陸運等物流環節的風險"
}

func (a *Logistics) Analyze(ctx context.Context, req Request) (*types.AgentResult, error) {
	if req.OriginCountry != "" && req.DestinationCountry != "" {
		return a.AnalyzeRouteRisk(ctx, req.OriginCountry, req.DestinationCountry)
	}

	events, err := a.store.ListNewsEvents(ctx, store.EventFilter{
		Category: types.CategoryLogistics,
		Limit:    20,
	})
	if err != nil {
		return nil, fmt.Errorf("logistics: list events: %w", err)
	}
	equipment, err := a.store.ListEquipment(ctx)
	if err != nil {
		return nil, fmt.Errorf("logistics: list equipment: %w", err)
	}

	now := time.Now()
	affectedRoutes, routeScores := a.routeRiskScores(events, now)
	portRisks := a.portRisks(events)
	exposure := a.routeExposure(equipment, affectedRoutes)

	highImpact := countHighImpact(events)
	recent := countRecent(events, now, 7)
	exposureRate := exposure["exposure_rate"].(float64)
	portEvents := portRisks["total_port_events"].(int)

	score := clamp100(min(35, float64(highImpact)*7) +
		min(25, float64(recent)*4) +
		min(25, exposureRate*0.4) +
		min(15, float64(portEvents)*3))

	summary := fmt.Sprintf("分析了 %d 個物流事件，其中 %d 個高影響事件，影響 %d 條主要物流路線，可能影響 %d 個設備項目",
		len(events), highImpact, len(affectedRoutes), exposure["exposed_equipment"])
	if portEvents > 0 {
		summary += fmt.Sprintf("，發現 %d 個港口相關風險事件", portEvents)
	}
	summary += "。"

	topRoutes := a.topRiskRoutes(routeScores, 3)
	details := map[string]any{
		"total_events":       len(events),
		"high_impact_events": highImpact,
		"recent_events":      recent,
		"affected_routes":    sortedCountryList(affectedRoutes),
		"route_risk_scores":  routeScores,
		"keyword_frequency":  keywordFrequency(a.rb, events, a.rb.LogisticsKeywords),
		"port_risks":         portRisks,
		"logistics_exposure": exposure,
		"top_risk_routes":    topRoutes,
	}

	result := newResult("logistics", a.Name(), score, summary, details,
		a.recommendations(highImpact, exposureRate, topRoutes, portEvents))
	result.RecentEvents = capEvents(events, 5)
	result.AffectedEquipment = a.affectedEquipment(equipment, affectedRoutes, 5)

	query := fmt.Sprintf("Analyze logistics and transportation risks across %d recent events. Evaluate route disruptions, port conditions, and shipping delays.", len(events))
	contextData := map[string]any{
		"news_events": fmt.Sprintf("Analyzing %d logistics events, %d high-impact, %d port-related", len(events), highImpact, portEvents),
	}
	if len(affectedRoutes) > 0 {
		contextData["trade_routes"] = sortedCountryList(affectedRoutes)
	}
	applyJudgment(result, runJudgment(ctx, a.ai, a.log, "logistics", query, contextData))
	return result, nil
}

// AnalyzeRouteRisk scopes logistics analysis to one origin/destination
// pair using a 30 day recency window.
func (a *Logistics) AnalyzeRouteRisk(ctx context.Context, origin, destination string) (*types.AgentResult, error) {
	events, err := a.store.ListNewsEvents(ctx, store.EventFilter{
		Category:  types.CategoryLogistics,
		Countries: []string{origin, destination},
		Limit:     10,
	})
	if err != nil {
		return nil, fmt.Errorf("logistics: list events for route %s-%s: %w", origin, destination, err)
	}
	routeEquipment, err := a.store.ListEquipmentByRoute(ctx, origin, destination)
	if err != nil {
		return nil, fmt.Errorf("logistics: list equipment for route %s-%s: %w", origin, destination, err)
	}

	routeType := a.rb.RouteFor(origin, destination)
	if routeType == "" {
		routeType = "其他路線"
	}

	now := time.Now()
	highImpact := countHighImpact(events)
	recent := countRecent(events, now, 30)

	score := clamp100(min(45, float64(highImpact)*15) +
		min(35, float64(recent)*8) +
		min(20, float64(len(events))*2))

	details := map[string]any{
		"total_events":       len(events),
		"high_impact_events": highImpact,
		"recent_events":      recent,
		"route_equipment":    len(routeEquipment),
		"route_type":         routeType,
		"event_types":        keywordFrequency(a.rb, events, a.rb.LogisticsKeywords),
		"latest_event_date":  latestEventDate(events),
	}

	result := newResult("route_logistics", a.Name(), score,
		fmt.Sprintf("%s 到 %s 的物流風險分析：發現 %d 個相關事件，涉及 %d 個設備項目",
			origin, destination, len(events), len(routeEquipment)),
		details, a.routeRecommendations(origin, destination, routeType, highImpact, recent))
	result.RouteInfo = map[string]any{
		"origin":      origin,
		"destination": destination,
		"route_type":  routeType,
	}
	result.RecentEvents = capEvents(events, 5)
	result.RouteEquipment = capEquipment(routeEquipment, 5)
	return result, nil
}

// routeRiskScores accumulates per-route scores: high impact events add
// 25, medium 15, low 5, and events within 7 days add another 10.
func (a *Logistics) routeRiskScores(events []types.NewsEvent, now time.Time) (map[string]bool, map[string]float64) {
	affected := make(map[string]bool)
	scores := make(map[string]float64)

	for _, route := range a.rb.MajorRoutes {
		routeScore := 0.0
		matched := false
		for _, e := range events {
			if !containsString(route.Countries, e.Country) {
				continue
			}
			matched = true

			switch e.ImpactLevel {
			case types.ImpactHigh:
				routeScore += 25
			case types.ImpactMedium:
				routeScore += 15
			default:
				routeScore += 5
			}
			if withinDays(e.PublishedDate, now, 7) {
				routeScore += 10
			}
		}
		if matched {
			affected[route.Name] = true
			scores[route.Name] = routeScore
		}
	}
	return affected, scores
}

// portRisks counts events mentioning port keywords; a country with two
// or more such events is flagged high risk.
func (a *Logistics) portRisks(events []types.NewsEvent) map[string]any {
	portCountries := make(map[string]int)
	portEvents := 0

	for _, e := range events {
		text := eventText(e)
		for _, kw := range a.rb.PortKeywords {
			if strings.Contains(text, kw) {
				portEvents++
				if e.Country != "" {
					portCountries[e.Country]++
				}
				break
			}
		}
	}

	var highRiskPorts []string
	for _, country := range sortedKeys(portCountries) {
		if portCountries[country] >= 2 {
			highRiskPorts = append(highRiskPorts, country)
		}
	}
	return map[string]any{
		"total_port_events":       portEvents,
		"affected_port_countries": portCountries,
		"high_risk_ports":         highRiskPorts,
	}
}

func (a *Logistics) routeExposure(equipment []types.Equipment, affectedRoutes map[string]bool) map[string]any {
	exposed := 0
	for _, eq := range equipment {
		if a.onAffectedRoute(eq, affectedRoutes) {
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

func (a *Logistics) onAffectedRoute(eq types.Equipment, affectedRoutes map[string]bool) bool {
	for _, route := range a.rb.MajorRoutes {
		if !affectedRoutes[route.Name] {
			continue
		}
		if containsString(route.Countries, eq.ManufacturingCountry) ||
			containsString(route.Countries, eq.DestinationCountry) {
			return true
		}
	}
	return false
}

func (a *Logistics) affectedEquipment(equipment []types.Equipment, affectedRoutes map[string]bool, n int) []types.Equipment {
	var out []types.Equipment
	for _, eq := range equipment {
		if len(out) == n {
			break
		}
		if a.onAffectedRoute(eq, affectedRoutes) {
			out = append(out, eq)
		}
	}
	return out
}

func (a *Logistics) topRiskRoutes(scores map[string]float64, n int) []map[string]any {
	ranked := rankScores(scores)
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	top := make([]map[string]any, 0, len(ranked))
	for _, entry := range ranked {
		countries := []string{}
		for _, route := range a.rb.MajorRoutes {
			if route.Name == entry.name {
				countries = route.Countries
				break
			}
		}
		top = append(top, map[string]any{
			"route":      entry.name,
			"risk_score": round2(entry.score),
			"risk_level": types.RiskLevelFromScore(min(100, entry.score)),
			"countries":  countries,
		})
	}
	return top
}

func (a *Logistics) recommendations(highImpact int, exposureRate float64, topRoutes []map[string]any, portEvents int) []string {
	var recs []string
	if highImpact > 2 {
		recs = append(recs, "物流高影響事件較多，建議加強運輸風險管控")
	}
	if exposureRate > 60 {
		recs = append(recs, "物流暴露度較高，建議考慮多元化運輸路線")
	}
	if len(topRoutes) > 0 {
		recs = append(recs, fmt.Sprintf("特別關注 %s 路線的物流狀況", topRoutes[0]["route"]))
	}
	if portEvents > 3 {
		recs = append(recs, "港口風險事件頻發，建議評估替代港口選項")
	}
	recs = append(recs,
		"密切監控主要物流路線狀況",
		"與物流服務商保持密切溝通",
		"準備備用運輸方案",
		"考慮增加庫存緩衝",
	)
	return capList(recs, 6)
}

func (a *Logistics) routeRecommendations(origin, destination, routeType string, highImpact, recent int) []string {
	var recs []string
	if highImpact > 1 {
		recs = append(recs, fmt.Sprintf("%s 到 %s 路線存在高影響物流事件，建議評估替代路線", origin, destination))
	}
	if recent > 2 {
		recs = append(recs, fmt.Sprintf("%s 最近物流活動異常，建議密切監控", routeType))
	}
	recs = append(recs,
		fmt.Sprintf("與 %s 和 %s 的物流合作夥伴保持聯繫", origin, destination),
		fmt.Sprintf("評估 %s 的替代運輸方案", routeType),
		fmt.Sprintf("關注 %s-%s 路線的海關政策變化", origin, destination),
	)
	return capList(recs, 5)
}
