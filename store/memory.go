package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"supplyguard/shared/types"
)

// Memory is an in-memory Store used by tests and database-less
// development runs. All methods are safe for concurrent use.
type Memory struct {
	mu sync.RWMutex

	equipment   map[int]types.Equipment
	schedules   map[int]types.Schedule
	events      map[int]types.NewsEvent
	assessments map[int]types.RiskAssessment

	nextEquipmentID  int
	nextScheduleID   int
	nextEventID      int
	nextAssessmentID int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		equipment:        make(map[int]types.Equipment),
		schedules:        make(map[int]types.Schedule),
		events:           make(map[int]types.NewsEvent),
		assessments:      make(map[int]types.RiskAssessment),
		nextEquipmentID:  1,
		nextScheduleID:   1,
		nextEventID:      1,
		nextAssessmentID: 1,
	}
}

func (m *Memory) ListEquipment(_ context.Context) ([]types.Equipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.equipmentWhere(func(types.Equipment) bool { return true }), nil
}

func (m *Memory) ListEquipmentByCountry(_ context.Context, country string) ([]types.Equipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.equipmentWhere(func(eq types.Equipment) bool {
		return eq.ManufacturingCountry == country || eq.DestinationCountry == country
	}), nil
}

func (m *Memory) ListEquipmentByRoute(_ context.Context, origin, destination string) ([]types.Equipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.equipmentWhere(func(eq types.Equipment) bool {
		return eq.ManufacturingCountry == origin && eq.DestinationCountry == destination
	}), nil
}

func (m *Memory) ListEquipmentByTradePair(_ context.Context, country1, country2 string) ([]types.Equipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.equipmentWhere(func(eq types.Equipment) bool {
		return (eq.ManufacturingCountry == country1 && eq.DestinationCountry == country2) ||
			(eq.ManufacturingCountry == country2 && eq.DestinationCountry == country1)
	}), nil
}

// equipmentWhere returns matching equipment ordered by id. Callers hold mu.
func (m *Memory) equipmentWhere(match func(types.Equipment) bool) []types.Equipment {
	var out []types.Equipment
	for _, eq := range m.equipment {
		if match(eq) {
			out = append(out, eq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) GetEquipment(_ context.Context, id int) (*types.Equipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eq, ok := m.equipment[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &eq, nil
}

func (m *Memory) CreateEquipment(_ context.Context, eq *types.Equipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	eq.ID = m.nextEquipmentID
	m.nextEquipmentID++
	eq.CreatedAt = now
	eq.UpdatedAt = now
	m.equipment[eq.ID] = *eq
	return nil
}

func (m *Memory) UpdateEquipment(_ context.Context, eq *types.Equipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.equipment[eq.ID]; !ok {
		return ErrNotFound
	}
	eq.UpdatedAt = time.Now().UTC()
	m.equipment[eq.ID] = *eq
	return nil
}

func (m *Memory) DeleteEquipment(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.equipment[id]; !ok {
		return ErrNotFound
	}
	delete(m.equipment, id)
	return nil
}

func (m *Memory) ListSchedules(_ context.Context) ([]types.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.schedulesWhere(func(types.Schedule) bool { return true }), nil
}

func (m *Memory) ListSchedulesByEquipment(_ context.Context, equipmentID int) ([]types.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.schedulesWhere(func(s types.Schedule) bool { return s.EquipmentID == equipmentID }), nil
}

func (m *Memory) schedulesWhere(match func(types.Schedule) bool) []types.Schedule {
	var out []types.Schedule
	for _, s := range m.schedules {
		if match(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) GetSchedule(_ context.Context, id int) (*types.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) CreateSchedule(_ context.Context, s *types.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	s.ID = m.nextScheduleID
	m.nextScheduleID++
	s.CreatedAt = now
	s.UpdatedAt = now
	m.schedules[s.ID] = *s
	return nil
}

func (m *Memory) UpdateSchedule(_ context.Context, s *types.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[s.ID]; !ok {
		return ErrNotFound
	}
	s.UpdatedAt = time.Now().UTC()
	m.schedules[s.ID] = *s
	return nil
}

func (m *Memory) DeleteSchedule(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return ErrNotFound
	}
	delete(m.schedules, id)
	return nil
}

func (m *Memory) ListNewsEvents(_ context.Context, f EventFilter) ([]types.NewsEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.NewsEvent
	for _, e := range m.events {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.Country != "" && e.Country != f.Country {
			continue
		}
		if len(f.Countries) > 0 && !containsString(f.Countries, e.Country) {
			continue
		}
		out = append(out, e)
	}
	// Newest first, id as tiebreak for equal timestamps.
	sort.Slice(out, func(i, j int) bool {
		if out[i].PublishedDate.Equal(out[j].PublishedDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].PublishedDate.After(out[j].PublishedDate)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) GetNewsEvent(_ context.Context, id int) (*types.NewsEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *Memory) CreateNewsEvent(_ context.Context, e *types.NewsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextEventID
	m.nextEventID++
	e.CreatedAt = time.Now().UTC()
	if e.PublishedDate.IsZero() {
		e.PublishedDate = e.CreatedAt
	}
	m.events[e.ID] = *e
	return nil
}

func (m *Memory) UpdateNewsEvent(_ context.Context, e *types.NewsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; !ok {
		return ErrNotFound
	}
	m.events[e.ID] = *e
	return nil
}

func (m *Memory) DeleteNewsEvent(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *Memory) ListRiskAssessments(_ context.Context, f AssessmentFilter) ([]types.RiskAssessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.RiskAssessment
	for _, a := range m.assessments {
		if f.EquipmentID != nil && (a.EquipmentID == nil || *a.EquipmentID != *f.EquipmentID) {
			continue
		}
		if f.RiskType != "" && a.RiskType != f.RiskType {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) GetRiskAssessment(_ context.Context, id int) (*types.RiskAssessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assessments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *Memory) CreateRiskAssessment(_ context.Context, a *types.RiskAssessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	a.ID = m.nextAssessmentID
	m.nextAssessmentID++
	a.CreatedAt = now
	a.UpdatedAt = now
	m.assessments[a.ID] = *a
	return nil
}

func (m *Memory) UpdateRiskAssessment(_ context.Context, a *types.RiskAssessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assessments[a.ID]; !ok {
		return ErrNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	m.assessments[a.ID] = *a
	return nil
}

func (m *Memory) DeleteRiskAssessment(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assessments[id]; !ok {
		return ErrNotFound
	}
	delete(m.assessments, id)
	return nil
}

func (m *Memory) Stats(_ context.Context) (*DashboardStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &DashboardStats{
		TotalEquipment:       len(m.equipment),
		TotalSchedules:       len(m.schedules),
		TotalNewsEvents:      len(m.events),
		TotalRiskAssessments: len(m.assessments),
	}
	for _, s := range m.schedules {
		if s.DelayDays > 0 {
			stats.DelayedSchedules++
		}
		if s.RiskLevel == types.RiskHigh || s.RiskLevel == types.RiskCritical {
			stats.HighRiskSchedules++
		}
	}
	for _, e := range m.events {
		if e.ImpactLevel == types.ImpactHigh {
			stats.HighImpactEvents++
		}
	}
	return stats, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
