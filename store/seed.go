package store

import (
	"context"
	"fmt"
	"time"

	"supplyguard/shared/types"
)

// Seed populates the store with demo equipment, schedules, and news
// events. It is deterministic so tests and demo environments behave the
// same on every run, and it only runs against an empty store.
func Seed(ctx context.Context, s Store) error {
	existing, err := s.ListEquipment(ctx)
	if err != nil {
		return fmt.Errorf("seed: list equipment: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	now := time.Now().UTC()

	equipment := []types.Equipment{
		{Name: "工業機器人 ARM-2000", Category: "自動化設備", Manufacturer: "RoboTech Industries", ManufacturingCountry: "德國", DestinationCountry: "台灣"},
		{Name: "CNC 精密加工中心", Category: "機械設備", Manufacturer: "Precision Machinery Co.", ManufacturingCountry: "日本", DestinationCountry: "台灣"},
		{Name: "半導體測試設備 ST-500", Category: "電子設備", Manufacturer: "SemiTest Corp", ManufacturingCountry: "韓國", DestinationCountry: "台灣"},
		{Name: "太陽能電池板生產線", Category: "能源設備", Manufacturer: "Solar Manufacturing Ltd", ManufacturingCountry: "中國", DestinationCountry: "台灣"},
		{Name: "醫療影像設備 MRI-X1", Category: "醫療設備", Manufacturer: "MedTech Solutions", ManufacturingCountry: "美國", DestinationCountry: "台灣"},
		{Name: "化工反應器 CR-1000", Category: "化工設備", Manufacturer: "ChemReactor Inc", ManufacturingCountry: "荷蘭", DestinationCountry: "台灣"},
		{Name: "電動車電池組裝線", Category: "汽車設備", Manufacturer: "EV Battery Systems", ManufacturingCountry: "中國", DestinationCountry: "台灣"},
		{Name: "5G 基站設備 BS-5000", Category: "通訊設備", Manufacturer: "TelecomTech Ltd", ManufacturingCountry: "芬蘭", DestinationCountry: "台灣"},
	}
	for i := range equipment {
		if err := s.CreateEquipment(ctx, &equipment[i]); err != nil {
			return fmt.Errorf("seed equipment: %w", err)
		}
	}

	// One schedule per equipment, spread over the risk spectrum.
	scheduleSpecs := []struct {
		startOffset int // days from now for planned start
		duration    int
		delayDays   int
		status      types.ScheduleStatus
	}{
		{10, 60, 0, types.SchedulePlanned},
		{-20, 45, 0, types.ScheduleInProgress},
		{-60, 30, 8, types.ScheduleDelayed},
		{-90, 40, 20, types.ScheduleDelayed},
		{-120, 50, 35, types.ScheduleDelayed},
		{5, 90, 0, types.SchedulePlanned},
		{25, 60, 0, types.SchedulePlanned},
		{-30, 30, 0, types.ScheduleCompleted},
	}
	for i, spec := range scheduleSpecs {
		start := now.AddDate(0, 0, spec.startOffset)
		sched := types.Schedule{
			EquipmentID:      equipment[i].ID,
			PlannedStartDate: start,
			PlannedEndDate:   start.AddDate(0, 0, spec.duration),
			Status:           spec.status,
			DelayDays:        spec.delayDays,
			RiskLevel:        scheduleRiskLevel(spec.delayDays),
		}
		if err := s.CreateSchedule(ctx, &sched); err != nil {
			return fmt.Errorf("seed schedule: %w", err)
		}
	}

	events := []types.NewsEvent{
		{Title: "德國工業4.0政策更新，影響製造業出口", Content: "德國政府宣布新的工業4.0政策框架，將對製造業出口產生重大影響...", Source: "Industrial News", URL: "https://example.com/news1", Country: "德國", Category: types.CategoryPolitical, ImpactLevel: types.ImpactMedium, PublishedDate: now.AddDate(0, 0, -2)},
		{Title: "日本地震影響精密機械生產", Content: "日本東部發生6.2級地震，多家精密機械製造商暫停生產...", Source: "Earthquake Monitor", URL: "https://example.com/news2", Country: "日本", Category: types.CategoryNaturalDisaster, ImpactLevel: types.ImpactHigh, PublishedDate: now.AddDate(0, 0, -1)},
		{Title: "韓國半導體出口關稅調整", Content: "韓國政府調整半導體相關設備的出口關稅政策...", Source: "Trade Weekly", URL: "https://example.com/news3", Country: "韓國", Category: types.CategoryEconomic, ImpactLevel: types.ImpactMedium, PublishedDate: now.AddDate(0, 0, -3)},
		{Title: "中國港口罷工影響貨物運輸", Content: "上海港工人罷工，導致大量貨物積壓，影響全球供應鏈...", Source: "Shipping Times", URL: "https://example.com/news4", Country: "中國", Category: types.CategoryLogistics, ImpactLevel: types.ImpactHigh, PublishedDate: now.AddDate(0, 0, -1)},
		{Title: "美國FDA加強醫療設備審查", Content: "FDA宣布加強對進口醫療設備的審查程序，可能延長審批時間...", Source: "Medical Device News", URL: "https://example.com/news5", Country: "美國", Category: types.CategoryPolitical, ImpactLevel: types.ImpactMedium, PublishedDate: now.AddDate(0, 0, -4)},
		{Title: "荷蘭化工廠爆炸事故", Content: "阿姆斯特丹附近化工廠發生爆炸，影響化工設備生產...", Source: "Safety News", URL: "https://example.com/news6", Country: "荷蘭", Category: types.CategoryNaturalDisaster, ImpactLevel: types.ImpactHigh, PublishedDate: now.AddDate(0, 0, -2)},
		{Title: "芬蘭5G技術出口新規定", Content: "芬蘭政府發布5G設備出口的新安全規定...", Source: "Tech Policy", URL: "https://example.com/news7", Country: "芬蘭", Category: types.CategoryPolitical, ImpactLevel: types.ImpactLow, PublishedDate: now.AddDate(0, 0, -5)},
	}
	for i := range events {
		if err := s.CreateNewsEvent(ctx, &events[i]); err != nil {
			return fmt.Errorf("seed news event: %w", err)
		}
	}
	return nil
}

// scheduleRiskLevel maps delay days to the stored risk bucket.
func scheduleRiskLevel(delayDays int) types.RiskLevel {
	switch {
	case delayDays > 30:
		return types.RiskCritical
	case delayDays > 15:
		return types.RiskHigh
	case delayDays > 5:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}
