// Package agents implements the SupplyGuard analysis core: entity
// extraction, intent routing, the four domain risk agents, AI/heuristic
// result merging, and the orchestrator that ties them together.
package agents

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"supplyguard/shared/types"
)

// RoutingRule holds the keyword and pattern lists used to score a query
// against one agent domain.
type RoutingRule struct {
	Keywords []string `yaml:"keywords"`
	Patterns []string `yaml:"patterns"`

	compiled []*regexp.Regexp
}

// CountryGroup is a named set of countries, used for logistics routes and
// trade relationships. Groups are ordered so analysis output is stable.
type CountryGroup struct {
	Name      string   `yaml:"name"`
	Countries []string `yaml:"countries"`
}

// Rulebook is the data-driven configuration for routing and entity
// extraction. The built-in defaults mirror production behavior; a YAML
// file can override any list for tuning without a redeploy.
type Rulebook struct {
	Routing map[types.AgentType]*RoutingRule `yaml:"routing"`

	// Entity extraction vocabularies (bilingual).
	Countries      []string `yaml:"countries"`
	EquipmentTypes []string `yaml:"equipment_types"`
	TimePatterns   []string `yaml:"time_patterns"`

	// Domain keyword vocabularies used for event classification.
	RiskKeywords      []string `yaml:"risk_keywords"`
	PoliticalKeywords []string `yaml:"political_keywords"`
	LogisticsKeywords []string `yaml:"logistics_keywords"`
	TariffKeywords    []string `yaml:"tariff_keywords"`
	PortKeywords      []string `yaml:"port_keywords"`
	TradeWarKeywords  []string `yaml:"trade_war_keywords"`

	// Named country groups.
	MajorRoutes        []CountryGroup `yaml:"major_routes"`
	TradeRelationships []CountryGroup `yaml:"trade_relationships"`

	timeCompiled []*regexp.Regexp
}

// DefaultRulebook returns the built-in rule tables.
func DefaultRulebook() *Rulebook {
	rb := &Rulebook{
		Routing: map[types.AgentType]*RoutingRule{
			types.AgentScheduler: {
				Keywords: []string{
					"schedule", "delivery", "timeline", "delay", "deadline",
					"排程", "交付", "時間表", "延遲", "截止日期", "進度",
				},
				Patterns: []string{
					`schedule.*risk`,
					`delivery.*delay`,
					`排程.*風險`,
					`交付.*延遲`,
				},
			},
			types.AgentPolitical: {
				Keywords: []string{
					"political", "government", "policy", "election", "sanction",
					"政治", "政府", "政策", "選舉", "制裁", "外交",
				},
				Patterns: []string{
					`political.*risk`,
					`government.*change`,
					`政治.*風險`,
					`政府.*變化`,
				},
			},
			types.AgentLogistics: {
				Keywords: []string{
					"logistics", "transport", "shipping", "port", "cargo",
					"物流", "運輸", "航運", "港口", "貨物", "運送",
				},
				Patterns: []string{
					`logistics.*risk`,
					`transport.*delay`,
					`物流.*風險`,
					`運輸.*延遲`,
				},
			},
			types.AgentTariff: {
				Keywords: []string{
					"tariff", "trade", "customs", "duty", "import", "export",
					"關稅", "貿易", "海關", "稅收", "進口", "出口",
				},
				Patterns: []string{
					`tariff.*risk`,
					`trade.*war`,
					`關稅.*風險`,
					`貿易.*戰`,
				},
			},
		},
		Countries: []string{
			"中國", "美國", "日本", "德國", "韓國", "台灣", "荷蘭", "英國",
			"china", "usa", "japan", "germany", "korea", "taiwan", "netherlands", "uk",
		},
		EquipmentTypes: []string{
			"機器人", "設備", "機械", "電子", "醫療", "化工",
			"robot", "equipment", "machinery", "electronic", "medical", "chemical",
		},
		TimePatterns: []string{
			`最近.*天`, `過去.*週`, `未來.*月`,
			`recent.*days?`, `past.*weeks?`, `next.*months?`,
		},
		RiskKeywords: []string{
			"delay", "disruption", "shortage", "conflict", "strike", "embargo",
			"tariff", "sanction", "earthquake", "flood", "hurricane", "pandemic",
			"延遲", "中斷", "短缺", "衝突", "罷工", "禁運", "關稅", "制裁",
			"地震", "洪水", "颶風", "疫情",
		},
		PoliticalKeywords: []string{
			"election", "government", "policy", "regulation", "sanction", "embargo",
			"trade war", "diplomatic", "political", "conflict", "protest", "coup",
		},
		LogisticsKeywords: []string{
			"port", "shipping", "transport", "logistics", "cargo", "freight",
			"delay", "congestion", "strike", "blockage", "route", "customs",
			"港口", "航運", "運輸", "物流", "貨物", "貨運", "延遲", "擁堵",
			"罷工", "阻塞", "路線", "海關",
		},
		TariffKeywords: []string{
			"tariff", "trade war", "customs", "duty", "import", "export",
			"trade policy", "trade agreement", "wto", "quota", "embargo",
			"關稅", "貿易戰", "海關", "稅收", "進口", "出口", "貿易政策",
			"貿易協定", "配額", "禁運",
		},
		PortKeywords:     []string{"port", "harbor", "dock", "港口", "碼頭"},
		TradeWarKeywords: []string{"trade war", "tariff war", "貿易戰", "關稅戰"},
		MajorRoutes: []CountryGroup{
			{Name: "亞洲-歐洲", Countries: []string{"中國", "日本", "韓國", "德國", "荷蘭", "英國"}},
			{Name: "亞洲-北美", Countries: []string{"中國", "日本", "韓國", "美國", "加拿大"}},
			{Name: "歐洲-北美", Countries: []string{"德國", "荷蘭", "英國", "美國", "加拿大"}},
			{Name: "亞洲內部", Countries: []string{"中國", "日本", "韓國", "台灣", "新加坡"}},
		},
		TradeRelationships: []CountryGroup{
			{Name: "美中貿易", Countries: []string{"美國", "中國"}},
			{Name: "歐美貿易", Countries: []string{"德國", "法國", "荷蘭", "美國"}},
			{Name: "亞洲貿易", Countries: []string{"中國", "日本", "韓國", "台灣"}},
			{Name: "跨太平洋貿易", Countries: []string{"美國", "日本", "韓國", "台灣", "澳洲"}},
		},
	}

	if err := rb.compile(); err != nil {
		// Built-in patterns are static and known-good.
		panic(fmt.Sprintf("agents: invalid built-in rulebook: %v", err))
	}
	return rb
}

// LoadRulebook reads a YAML rulebook from path. Lists present in the file
// replace the built-in defaults; absent lists keep them.
func LoadRulebook(path string) (*Rulebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rulebook: %w", err)
	}

	rb := DefaultRulebook()
	if err := yaml.Unmarshal(data, rb); err != nil {
		return nil, fmt.Errorf("parse rulebook: %w", err)
	}
	if err := rb.compile(); err != nil {
		return nil, err
	}
	return rb, nil
}

func (rb *Rulebook) compile() error {
	for agent, rule := range rb.Routing {
		rule.compiled = rule.compiled[:0]
		for _, p := range rule.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return fmt.Errorf("compile %s pattern %q: %w", agent, p, err)
			}
			rule.compiled = append(rule.compiled, re)
		}
	}

	rb.timeCompiled = rb.timeCompiled[:0]
	for _, p := range rb.TimePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("compile time pattern %q: %w", p, err)
		}
		rb.timeCompiled = append(rb.timeCompiled, re)
	}
	return nil
}

// RouteFor returns the named country group containing both origin and
// destination, or the empty string when no group covers the pair.
func (rb *Rulebook) RouteFor(origin, destination string) string {
	for _, route := range rb.MajorRoutes {
		if containsString(route.Countries, origin) && containsString(route.Countries, destination) {
			return route.Name
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
