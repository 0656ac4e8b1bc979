package agents

import (
	"context"
	"fmt"
	"sort"
	"time"

	"supplyguard/llm"
	"supplyguard/shared/logger"
	"supplyguard/shared/types"
	"supplyguard/store"
)

type politicalStore interface {
	store.EquipmentRepository
	store.NewsEventRepository
}

// Political assesses geopolitical risk: political events, per-country
// risk scores, and supply chain exposure.
type Political struct {
	store politicalStore
	ai    llm.Client
	rb    *Rulebook
	log   *logger.Logger
}

func NewPolitical(st politicalStore, ai llm.Client, rb *Rulebook) *Political {
	return &Political{store: st, ai: ai, rb: rb, log: logger.New("POLITICAL_RISK_AGENT")}
}

func (a *Political) Name() string { return "POLITICAL_RISK_AGENT" }

func (a *Political) Description() string {
	return "Assess geopolitical risk impact on supply chain, monitor political events and policy changes"
}

func (a *Political) Analyze(ctx context.Context, req Request) (*types.AgentResult, error) {
	events, err := a.store.ListNewsEvents(ctx, store.EventFilter{
		Category: types.CategoryPolitical,
		Limit:    20,
	})
	if err != nil {
		return nil, fmt.Errorf("political: list events: %w", err)
	}
	equipment, err := a.store.ListEquipment(ctx)
	if err != nil {
		return nil, fmt.Errorf("political: list equipment: %w", err)
	}

	now := time.Now()
	affectedCountries, countryScores := a.countryRiskScores(events, now)
	exposure := exposureByCountry(equipment, affectedCountries)

	highImpact := countHighImpact(events)
	recent := countRecent(events, now, 7)
	exposureRate := exposure["exposure_rate"].(float64)

	score := clamp100(min(40, float64(highImpact)*8) +
		min(30, float64(recent)*5) +
		min(30, exposureRate*0.5))

	summary := fmt.Sprintf("分析了 %d 個政治事件，其中 %d 個高影響事件，涉及 %d 個國家，可能影響 %d 個設備項目。",
		len(events), highImpact, len(affectedCountries), exposure["exposed_equipment"])

	topCountries := a.topRiskCountries(countryScores, 5)
	details := map[string]any{
		"total_events":          len(events),
		"high_impact_events":    highImpact,
		"recent_events":         recent,
		"affected_countries":    sortedCountryList(affectedCountries),
		"country_risk_scores":   countryScores,
		"keyword_frequency":     keywordFrequency(a.rb, events, a.rb.PoliticalKeywords),
		"supply_chain_exposure": exposure,
		"top_risk_countries":    topCountries,
	}

	result := newResult("political", a.Name(), score, summary, details, a.recommendations(highImpact, exposureRate, topCountries))
	result.RecentEvents = capEvents(events, 5)
	result.AffectedEquipment = capEquipmentByCountry(equipment, affectedCountries, 5)

	focus := "global regions"
	if len(req.TargetCountries) > 0 {
		focus = req.TargetCountries[0]
	}
	query := fmt.Sprintf("Analyze political risks affecting supply chain operations in %s. Consider geopolitical events, policy changes, and their impact on procurement and logistics.", focus)
	contextData := map[string]any{
		"news_events": fmt.Sprintf("Analyzing %d political events, %d high-impact, %d recent", len(events), highImpact, recent),
	}
	if len(req.TargetCountries) > 0 {
		contextData["country"] = req.TargetCountries[0]
	}
	applyJudgment(result, runJudgment(ctx, a.ai, a.log, "political", query, contextData))
	return result, nil
}

// AnalyzeCountryRisk scopes political analysis to a single country using
// a 30 day recency window.
func (a *Political) AnalyzeCountryRisk(ctx context.Context, country string) (*types.AgentResult, error) {
	events, err := a.store.ListNewsEvents(ctx, store.EventFilter{
		Category: types.CategoryPolitical,
		Country:  country,
		Limit:    10,
	})
	if err != nil {
		return nil, fmt.Errorf("political: list events for %s: %w", country, err)
	}
	related, err := a.store.ListEquipmentByCountry(ctx, country)
	if err != nil {
		return nil, fmt.Errorf("political: list equipment for %s: %w", country, err)
	}

	if len(events) == 0 {
		result := newResult("country_political", a.Name(), 20,
			fmt.Sprintf("%s 暫無政治風險事件記錄", country),
			map[string]any{"total_events": 0, "related_equipment": len(related)},
			[]string{fmt.Sprintf("持續監控 %s 的政治局勢", country)})
		result.Country = country
		return result, nil
	}

	now := time.Now()
	highImpact := countHighImpact(events)
	recent := countRecent(events, now, 30)

	score := clamp100(min(50, float64(highImpact)*15) +
		min(30, float64(recent)*8) +
		min(20, float64(len(events))*2))

	details := map[string]any{
		"total_events":       len(events),
		"high_impact_events": highImpact,
		"recent_events":      recent,
		"related_equipment":  len(related),
		"event_types":        keywordFrequency(a.rb, events, a.rb.PoliticalKeywords),
		"latest_event_date":  latestEventDate(events),
	}

	result := newResult("country_political", a.Name(), score,
		fmt.Sprintf("%s 政治風險分析：發現 %d 個政治事件，可能影響 %d 個設備項目", country, len(events), len(related)),
		details, a.countryRecommendations(country, highImpact, recent))
	result.Country = country
	result.RecentEvents = capEvents(events, 5)
	result.RelatedEquipment = capEquipment(related, 5)
	return result, nil
}

// countryRiskScores accumulates per-country scores: high impact events
// add 30, medium 15, low 5, and events within 7 days add another 10.
func (a *Political) countryRiskScores(events []types.NewsEvent, now time.Time) (map[string]bool, map[string]float64) {
	affected := make(map[string]bool)
	scores := make(map[string]float64)

	for _, e := range events {
		if e.Country == "" {
			continue
		}
		affected[e.Country] = true

		switch e.ImpactLevel {
		case types.ImpactHigh:
			scores[e.Country] += 30
		case types.ImpactMedium:
			scores[e.Country] += 15
		default:
			scores[e.Country] += 5
		}
		if withinDays(e.PublishedDate, now, 7) {
			scores[e.Country] += 10
		}
	}
	return affected, scores
}

func (a *Political) topRiskCountries(scores map[string]float64, n int) []map[string]any {
	ranked := rankScores(scores)
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	top := make([]map[string]any, 0, len(ranked))
	for _, entry := range ranked {
		top = append(top, map[string]any{
			"country":    entry.name,
			"risk_score": round2(entry.score),
			"risk_level": types.RiskLevelFromScore(min(100, entry.score)),
		})
	}
	return top
}

func (a *Political) recommendations(highImpact int, exposureRate float64, topCountries []map[string]any) []string {
	var recs []string
	if highImpact > 3 {
		recs = append(recs, "高影響政治事件頻發，建議加強風險監控")
	}
	if exposureRate > 50 {
		recs = append(recs, "供應鏈暴露度較高，建議考慮多元化策略")
	}
	if len(topCountries) > 0 {
		recs = append(recs, fmt.Sprintf("特別關注 %s 的政治局勢發展", topCountries[0]["country"]))
	}
	recs = append(recs,
		"持續監控政治局勢發展",
		"評估供應鏈多元化選項",
		"與當地合作夥伴保持密切聯繫",
		"準備應急採購計劃",
	)
	return capList(recs, 6)
}

func (a *Political) countryRecommendations(country string, highImpact, recent int) []string {
	var recs []string
	if highImpact > 2 {
		recs = append(recs, fmt.Sprintf("%s 存在多個高影響政治事件，建議重新評估供應鏈風險", country))
	}
	if recent > 3 {
		recs = append(recs, fmt.Sprintf("%s 最近政治活動頻繁，建議密切監控", country))
	}
	recs = append(recs,
		fmt.Sprintf("與 %s 當地合作夥伴保持聯繫", country),
		fmt.Sprintf("評估 %s 供應鏈的替代方案", country),
		fmt.Sprintf("關注 %s 的政策法規變化", country),
	)
	return capList(recs, 5)
}

// exposureByCountry measures how much of the fleet touches an affected
// country on either end of its route.
func exposureByCountry(equipment []types.Equipment, affected map[string]bool) map[string]any {
	exposed := 0
	for _, eq := range equipment {
		if affected[eq.ManufacturingCountry] || affected[eq.DestinationCountry] {
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

func capEquipmentByCountry(equipment []types.Equipment, affected map[string]bool, n int) []types.Equipment {
	var out []types.Equipment
	for _, eq := range equipment {
		if len(out) == n {
			break
		}
		if affected[eq.ManufacturingCountry] || affected[eq.DestinationCountry] {
			out = append(out, eq)
		}
	}
	return out
}

func capEquipment(equipment []types.Equipment, n int) []types.Equipment {
	if len(equipment) > n {
		return equipment[:n]
	}
	return equipment
}

func capEvents(events []types.NewsEvent, n int) []types.NewsEvent {
	if len(events) > n {
		return events[:n]
	}
	return events
}

func sortedCountryList(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
