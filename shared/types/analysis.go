package types

import "time"

// AgentType identifies one of the four risk analysis domains.
type AgentType string

const (
	AgentScheduler AgentType = "scheduler"
	AgentPolitical AgentType = "political"
	AgentLogistics AgentType = "logistics"
	AgentTariff    AgentType = "tariff"
)

// AgentPriority is the fixed iteration order for routing and fan-out.
// Ties in intent classification break toward the earliest entry, which
// keeps routing deterministic for equal scores.
var AgentPriority = []AgentType{AgentScheduler, AgentPolitical, AgentLogistics, AgentTariff}

// Entities holds the entities extracted from a natural-language query.
// Lists preserve match order and may contain duplicates.
type Entities struct {
	Countries      []string `json:"countries"`
	EquipmentTypes []string `json:"equipment_types"`
	TimePeriods    []string `json:"time_periods"`
}

// Intent is the result of classifying a query against the per-domain
// routing rules. AgentType is empty when no domain scored above zero,
// which routes the query to comprehensive mode.
type Intent struct {
	AgentType  AgentType         `json:"agent_type,omitempty"`
	Confidence int               `json:"confidence"`
	Entities   Entities          `json:"entities"`
	AllScores  map[AgentType]int `json:"all_scores"`
}

// AgentResult is the structured output of one agent analysis, or of the
// orchestrator's comprehensive aggregation. Domain-specific extras are
// optional and omitted when not produced by the analysis path.
type AgentResult struct {
	AnalysisType    string         `json:"analysis_type"`
	AgentName       string         `json:"agent_name"`
	RiskLevel       RiskLevel      `json:"risk_level"`
	RiskScore       float64        `json:"risk_score"`
	Summary         string         `json:"summary"`
	Details         map[string]any `json:"details"`
	Recommendations []string       `json:"recommendations"`
	Timestamp       time.Time      `json:"timestamp"`

	// Domain-specific extras.
	AffectedEquipment []Equipment    `json:"affected_equipment,omitempty"`
	RecentEvents      []NewsEvent    `json:"recent_events,omitempty"`
	Equipment         *Equipment     `json:"equipment,omitempty"`
	Country           string         `json:"country,omitempty"`
	RouteInfo         map[string]any `json:"route_info,omitempty"`
	TradeRelationship map[string]any `json:"trade_relationship,omitempty"`
	RouteEquipment    []Equipment    `json:"route_equipment,omitempty"`
	TradeEquipment    []Equipment    `json:"trade_equipment,omitempty"`
	RelatedEquipment  []Equipment    `json:"related_equipment,omitempty"`

	// Orchestrator envelope fields.
	OriginalQuery  string  `json:"original_query,omitempty"`
	DetectedIntent *Intent `json:"detected_intent,omitempty"`
	Error          bool    `json:"error,omitempty"`
}
