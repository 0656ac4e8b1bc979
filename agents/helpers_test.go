package agents

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"supplyguard/llm"
	"supplyguard/shared/types"
	"supplyguard/store"
)

// fakeAI returns a canned judgment or error without network calls.
type fakeAI struct {
	judgment *llm.Judgment
	err      error
	calls    int
}

func (f *fakeAI) Judge(_ context.Context, _, _ string, _ map[string]any) (*llm.Judgment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.judgment, nil
}

func (f *fakeAI) Ping(context.Context) error { return nil }

// brokenScheduleStore fails schedule listing to exercise agent isolation.
type brokenScheduleStore struct {
	*store.Memory
}

func (b *brokenScheduleStore) ListSchedules(context.Context) ([]types.Schedule, error) {
	return nil, errors.New("schedules table unavailable")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func seedEquipment(t *testing.T, m *store.Memory, manufacturing, destination string) types.Equipment {
	t.Helper()
	eq := types.Equipment{
		Name:                 "test equipment",
		Category:             "machinery",
		Manufacturer:         "Maker Co",
		ManufacturingCountry: manufacturing,
		DestinationCountry:   destination,
	}
	require.NoError(t, m.CreateEquipment(context.Background(), &eq))
	return eq
}

func seedEvent(t *testing.T, m *store.Memory, category types.EventCategory, impact types.ImpactLevel, country string, age time.Duration) types.NewsEvent {
	t.Helper()
	e := types.NewsEvent{
		Title:         "event",
		Content:       "content",
		Source:        "test",
		Country:       country,
		Category:      category,
		ImpactLevel:   impact,
		PublishedDate: time.Now().Add(-age),
	}
	require.NoError(t, m.CreateNewsEvent(context.Background(), &e))
	return e
}

func seedSchedule(t *testing.T, m *store.Memory, equipmentID, delayDays int, riskLevel types.RiskLevel, endInDays int) types.Schedule {
	t.Helper()
	end := time.Now().AddDate(0, 0, endInDays)
	s := types.Schedule{
		EquipmentID:      equipmentID,
		PlannedStartDate: end.AddDate(0, 0, -30),
		PlannedEndDate:   end,
		Status:           types.SchedulePlanned,
		DelayDays:        delayDays,
		RiskLevel:        riskLevel,
	}
	require.NoError(t, m.CreateSchedule(context.Background(), &s))
	return s
}
