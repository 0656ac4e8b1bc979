// Package types provides shared type definitions used across SupplyGuard
// components. It is the single source of truth for the supply-chain records
// stored in PostgreSQL and the value objects produced by the analysis pipeline.
package types

import "time"

// RiskLevel represents a bucketed risk severity.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
	// RiskUnknown is only produced by the orchestrator's error response.
	RiskUnknown RiskLevel = "unknown"
)

// RiskLevelFromScore buckets a 0-100 risk score into a RiskLevel.
// The thresholds are shared by every agent: >=80 critical, >=60 high,
// >=40 medium, otherwise low.
func RiskLevelFromScore(score float64) RiskLevel {
	switch {
	case score >= 80:
		return RiskCritical
	case score >= 60:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ScheduleStatus enumerates the lifecycle states of a delivery schedule.
type ScheduleStatus string

const (
	SchedulePlanned    ScheduleStatus = "planned"
	ScheduleInProgress ScheduleStatus = "in_progress"
	ScheduleDelayed    ScheduleStatus = "delayed"
	ScheduleCompleted  ScheduleStatus = "completed"
	ScheduleAtRisk     ScheduleStatus = "at_risk"
)

// EventCategory enumerates news event categories.
type EventCategory string

const (
	CategoryPolitical       EventCategory = "political"
	CategoryEconomic        EventCategory = "economic"
	CategoryLogistics       EventCategory = "logistics"
	CategoryTariff          EventCategory = "tariff"
	CategoryNaturalDisaster EventCategory = "natural_disaster"
	CategoryTrade           EventCategory = "trade"
)

// ImpactLevel enumerates news event impact levels.
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)

// Equipment is a piece of supply-chain equipment moving between countries.
type Equipment struct {
	ID                   int       `json:"id"`
	Name                 string    `json:"name"`
	Category             string    `json:"category"`
	Manufacturer         string    `json:"manufacturer"`
	ManufacturingCountry string    `json:"manufacturing_country"`
	DestinationCountry   string    `json:"destination_country"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Schedule is a delivery schedule for one piece of equipment.
type Schedule struct {
	ID               int            `json:"id"`
	EquipmentID      int            `json:"equipment_id"`
	PlannedStartDate time.Time      `json:"planned_start_date"`
	PlannedEndDate   time.Time      `json:"planned_end_date"`
	ActualStartDate  *time.Time     `json:"actual_start_date,omitempty"`
	ActualEndDate    *time.Time     `json:"actual_end_date,omitempty"`
	Status           ScheduleStatus `json:"status"`
	DelayDays        int            `json:"delay_days"`
	RiskLevel        RiskLevel      `json:"risk_level"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// NewsEvent is an external event that may affect the supply chain.
// Events are immutable once created and ordered newest-first for
// "recent" queries.
type NewsEvent struct {
	ID            int           `json:"id"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	Source        string        `json:"source"`
	URL           string        `json:"url,omitempty"`
	Country       string        `json:"country,omitempty"`
	Category      EventCategory `json:"category"`
	ImpactLevel   ImpactLevel   `json:"impact_level"`
	PublishedDate time.Time     `json:"published_date"`
	CreatedAt     time.Time     `json:"created_at"`
}

// RiskAssessment is a persisted analysis result produced by an agent.
type RiskAssessment struct {
	ID              int       `json:"id"`
	EquipmentID     *int      `json:"equipment_id,omitempty"`
	RiskType        string    `json:"risk_type"`
	RiskLevel       RiskLevel `json:"risk_level"`
	RiskScore       float64   `json:"risk_score"`
	Description     string    `json:"description"`
	Recommendations string    `json:"recommendations,omitempty"`
	Sources         string    `json:"sources,omitempty"`
	AgentName       string    `json:"agent_name"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
