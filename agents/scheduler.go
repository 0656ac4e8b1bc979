package agents

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"supplyguard/llm"
	"supplyguard/shared/logger"
	"supplyguard/shared/types"
	"supplyguard/store"
)

type schedulerStore interface {
	store.ScheduleRepository
	store.EquipmentRepository
}

// Scheduler analyzes equipment delivery schedule risk: delays, high-risk
// schedules, and upcoming deadlines.
type Scheduler struct {
	store schedulerStore
	ai    llm.Client
	log   *logger.Logger
}

func NewScheduler(st schedulerStore, ai llm.Client) *Scheduler {
	return &Scheduler{store: st, ai: ai, log: logger.New("SCHEDULER_AGENT")}
}

func (a *Scheduler) Name() string { return "SCHEDULER_AGENT" }

func (a *Scheduler) Description() string {
	return "Analyze equipment delivery schedule risks, identify potential delays and timeline issues"
}

func (a *Scheduler) Analyze(ctx context.Context, req Request) (*types.AgentResult, error) {
	schedules, err := a.store.ListSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduler: list schedules: %w", err)
	}
	if len(schedules) == 0 {
		return newResult("schedule", a.Name(), 0,
			"No schedule data found",
			map[string]any{"total_schedules": 0},
			[]string{"Add schedule data for analysis"}), nil
	}

	equipmentByID, err := a.equipmentIndex(ctx)
	if err != nil {
		return nil, err
	}

	stats := analyzeSchedules(schedules, equipmentByID, time.Now())
	result := newResult("schedule", a.Name(), stats.score(), stats.summary(), stats.details(), stats.recommendations())
	result.AffectedEquipment = stats.affectedEquipment(equipmentByID)

	query := fmt.Sprintf("Analyze the delivery schedule risks for %d equipment schedules. Identify delays, bottlenecks, and potential timeline issues.", len(schedules))
	contextData := map[string]any{
		"schedule_data": fmt.Sprintf("Total: %d, Delayed: %d, Upcoming: %d, Critical: %d",
			stats.total, stats.delayed, stats.upcoming, stats.highRisk),
	}
	applyJudgment(result, runJudgment(ctx, a.ai, a.log, "scheduler", query, contextData))
	return result, nil
}

// AnalyzeEquipmentSchedule scopes the schedule analysis to one piece of
// equipment.
func (a *Scheduler) AnalyzeEquipmentSchedule(ctx context.Context, equipmentID int) (*types.AgentResult, error) {
	schedules, err := a.store.ListSchedulesByEquipment(ctx, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("scheduler: list schedules for equipment %d: %w", equipmentID, err)
	}

	equipment, err := a.store.GetEquipment(ctx, equipmentID)
	if err != nil && err != store.ErrNotFound {
		return nil, fmt.Errorf("scheduler: get equipment %d: %w", equipmentID, err)
	}
	label := strconv.Itoa(equipmentID)
	if equipment != nil {
		label = equipment.Name
	}

	if len(schedules) == 0 {
		return newResult("equipment_schedule", a.Name(), 0,
			fmt.Sprintf("設備 %s 沒有排程數據", label),
			map[string]any{"total_schedules": 0},
			[]string{"為該設備添加排程數據"}), nil
	}

	index := map[int]types.Equipment{}
	if equipment != nil {
		index[equipment.ID] = *equipment
	}

	stats := analyzeSchedules(schedules, index, time.Now())
	result := newResult("equipment_schedule", a.Name(), stats.score(),
		fmt.Sprintf("設備 %s 的排程分析：%s", label, stats.summary()),
		stats.details(), stats.recommendations())
	result.Equipment = equipment
	return result, nil
}

func (a *Scheduler) equipmentIndex(ctx context.Context) (map[int]types.Equipment, error) {
	equipment, err := a.store.ListEquipment(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduler: list equipment: %w", err)
	}
	index := make(map[int]types.Equipment, len(equipment))
	for _, eq := range equipment {
		index[eq.ID] = eq
	}
	return index, nil
}

// scheduleStats holds the heuristic breakdown of one schedule set.
type scheduleStats struct {
	total        int
	delayed      int
	highRisk     int
	upcoming     int
	delayRate    float64
	highRiskRate float64
	avgDelayDays float64

	upcomingDetail    []map[string]any
	highRiskSchedules []types.Schedule
}

// analyzeSchedules computes delay, risk, and deadline statistics. A
// schedule counts as upcoming when its planned end falls within the next
// 30 days.
func analyzeSchedules(schedules []types.Schedule, equipmentByID map[int]types.Equipment, now time.Time) *scheduleStats {
	stats := &scheduleStats{total: len(schedules)}

	totalDelayDays := 0
	for _, s := range schedules {
		if s.DelayDays > 0 {
			stats.delayed++
		}
		totalDelayDays += s.DelayDays

		if s.RiskLevel == types.RiskHigh || s.RiskLevel == types.RiskCritical {
			stats.highRisk++
			stats.highRiskSchedules = append(stats.highRiskSchedules, s)
		}

		daysToDeadline := int(s.PlannedEndDate.Sub(now).Hours() / 24)
		if daysToDeadline >= 0 && daysToDeadline <= 30 {
			stats.upcoming++
			if len(stats.upcomingDetail) < 5 {
				name := "Unknown"
				if eq, ok := equipmentByID[s.EquipmentID]; ok {
					name = eq.Name
				}
				stats.upcomingDetail = append(stats.upcomingDetail, map[string]any{
					"schedule_id":      s.ID,
					"equipment_name":   name,
					"days_to_deadline": daysToDeadline,
					"planned_end_date": s.PlannedEndDate.Format(time.RFC3339),
				})
			}
		}
	}

	if stats.total > 0 {
		stats.delayRate = round2(float64(stats.delayed) / float64(stats.total) * 100)
		stats.highRiskRate = round2(float64(stats.highRisk) / float64(stats.total) * 100)
		stats.avgDelayDays = round2(float64(totalDelayDays) / float64(stats.total))
	}
	return stats
}

// score weights delays up to 40 points, high-risk share up to 30, and
// upcoming deadlines up to 30.
func (s *scheduleStats) score() float64 {
	delayScore := min(40, s.delayRate*1.5)
	highRiskScore := min(30, s.highRiskRate*1.2)
	deadlineScore := min(30, float64(s.upcoming)/float64(s.total)*100)
	return clamp100(delayScore + highRiskScore + deadlineScore)
}

func (s *scheduleStats) summary() string {
	summary := fmt.Sprintf("分析了 %d 個排程項目，發現 %d 個延遲項目，%d 個高風險項目", s.total, s.delayed, s.highRisk)
	if s.upcoming > 0 {
		summary += fmt.Sprintf("，%d 個項目即將到期", s.upcoming)
	}
	return summary + "。"
}

func (s *scheduleStats) details() map[string]any {
	return map[string]any{
		"total_schedules":           s.total,
		"delayed_schedules":         s.delayed,
		"high_risk_schedules":       s.highRisk,
		"upcoming_deadlines":        s.upcoming,
		"delay_rate":                s.delayRate,
		"high_risk_rate":            s.highRiskRate,
		"avg_delay_days":            s.avgDelayDays,
		"upcoming_deadlines_detail": s.upcomingDetail,
	}
}

func (s *scheduleStats) recommendations() []string {
	var recs []string
	if s.delayRate > 20 {
		recs = append(recs, "延遲率較高，建議重新評估項目時間表和資源配置")
	}
	if s.highRiskRate > 30 {
		recs = append(recs, "高風險項目比例偏高，需要加強風險管控措施")
	}
	if s.upcoming > 5 {
		recs = append(recs, "多個項目即將到期，建議優先處理緊急項目")
	}
	recs = append(recs,
		"密切監控高風險排程項目",
		"與供應商確認交付時間表",
		"準備備用供應商方案",
		"提前安排物流資源",
	)
	return capList(recs, 6)
}

func (s *scheduleStats) affectedEquipment(equipmentByID map[int]types.Equipment) []types.Equipment {
	var affected []types.Equipment
	for _, sched := range s.highRiskSchedules {
		if len(affected) == 5 {
			break
		}
		if eq, ok := equipmentByID[sched.EquipmentID]; ok {
			affected = append(affected, eq)
		}
	}
	return affected
}
