// Package store provides the persistence layer for SupplyGuard records.
// It defines repository interfaces consumed by the analysis pipeline and
// the HTTP layer, a PostgreSQL implementation, and an in-memory
// implementation used for tests and database-less development runs.
package store

import (
	"context"
	"errors"

	"supplyguard/shared/types"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// EventFilter narrows news event queries. Results are always ordered by
// published date descending (newest first).
type EventFilter struct {
	// Category restricts to one event category when non-empty.
	Category types.EventCategory
	// Country restricts to an exact country match when non-empty.
	Country string
	// Countries restricts to events whose country is in the set.
	Countries []string
	// Limit bounds the result count (0 = unlimited).
	Limit int
}

// AssessmentFilter narrows risk assessment queries. Results are ordered by
// creation date descending.
type AssessmentFilter struct {
	EquipmentID *int
	RiskType    string
	Limit       int
}

// DashboardStats summarizes stored records for the dashboard endpoint.
type DashboardStats struct {
	TotalEquipment       int `json:"total_equipment"`
	TotalSchedules       int `json:"total_schedules"`
	DelayedSchedules     int `json:"delayed_schedules"`
	HighRiskSchedules    int `json:"high_risk_schedules"`
	TotalNewsEvents      int `json:"total_news_events"`
	HighImpactEvents     int `json:"high_impact_events"`
	TotalRiskAssessments int `json:"total_risk_assessments"`
}

// EquipmentRepository provides access to equipment records.
type EquipmentRepository interface {
	ListEquipment(ctx context.Context) ([]types.Equipment, error)
	// ListEquipmentByCountry returns equipment manufactured in or destined
	// for the given country.
	ListEquipmentByCountry(ctx context.Context, country string) ([]types.Equipment, error)
	// ListEquipmentByRoute returns equipment manufactured in origin and
	// destined for destination.
	ListEquipmentByRoute(ctx context.Context, origin, destination string) ([]types.Equipment, error)
	// ListEquipmentByTradePair returns equipment flowing between the two
	// countries in either direction.
	ListEquipmentByTradePair(ctx context.Context, country1, country2 string) ([]types.Equipment, error)
	GetEquipment(ctx context.Context, id int) (*types.Equipment, error)
	CreateEquipment(ctx context.Context, eq *types.Equipment) error
	UpdateEquipment(ctx context.Context, eq *types.Equipment) error
	DeleteEquipment(ctx context.Context, id int) error
}

// ScheduleRepository provides access to delivery schedules.
type ScheduleRepository interface {
	ListSchedules(ctx context.Context) ([]types.Schedule, error)
	ListSchedulesByEquipment(ctx context.Context, equipmentID int) ([]types.Schedule, error)
	GetSchedule(ctx context.Context, id int) (*types.Schedule, error)
	CreateSchedule(ctx context.Context, s *types.Schedule) error
	UpdateSchedule(ctx context.Context, s *types.Schedule) error
	DeleteSchedule(ctx context.Context, id int) error
}

// NewsEventRepository provides access to news events.
type NewsEventRepository interface {
	ListNewsEvents(ctx context.Context, f EventFilter) ([]types.NewsEvent, error)
	GetNewsEvent(ctx context.Context, id int) (*types.NewsEvent, error)
	CreateNewsEvent(ctx context.Context, e *types.NewsEvent) error
	UpdateNewsEvent(ctx context.Context, e *types.NewsEvent) error
	DeleteNewsEvent(ctx context.Context, id int) error
}

// RiskAssessmentRepository provides access to persisted analysis results.
type RiskAssessmentRepository interface {
	ListRiskAssessments(ctx context.Context, f AssessmentFilter) ([]types.RiskAssessment, error)
	GetRiskAssessment(ctx context.Context, id int) (*types.RiskAssessment, error)
	CreateRiskAssessment(ctx context.Context, a *types.RiskAssessment) error
	UpdateRiskAssessment(ctx context.Context, a *types.RiskAssessment) error
	DeleteRiskAssessment(ctx context.Context, id int) error
}

// Store is the full persistence surface consumed by the HTTP layer.
// The analysis pipeline depends only on the narrower repository interfaces.
type Store interface {
	EquipmentRepository
	ScheduleRepository
	NewsEventRepository
	RiskAssessmentRepository
	Stats(ctx context.Context) (*DashboardStats, error)
}
