package store

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS equipment (
		id SERIAL PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		category VARCHAR(100) NOT NULL,
		manufacturer VARCHAR(200) NOT NULL,
		manufacturing_country VARCHAR(100) NOT NULL,
		destination_country VARCHAR(100) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id SERIAL PRIMARY KEY,
		equipment_id INTEGER NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
		planned_start_date TIMESTAMPTZ NOT NULL,
		planned_end_date TIMESTAMPTZ NOT NULL,
		actual_start_date TIMESTAMPTZ,
		actual_end_date TIMESTAMPTZ,
		status VARCHAR(50) NOT NULL DEFAULT 'planned',
		delay_days INTEGER NOT NULL DEFAULT 0,
		risk_level VARCHAR(20) NOT NULL DEFAULT 'low',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS news_events (
		id SERIAL PRIMARY KEY,
		title VARCHAR(500) NOT NULL,
		content TEXT NOT NULL,
		source VARCHAR(200) NOT NULL,
		url VARCHAR(1000),
		country VARCHAR(100),
		category VARCHAR(100) NOT NULL,
		impact_level VARCHAR(20) NOT NULL DEFAULT 'medium',
		published_date TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS risk_assessments (
		id SERIAL PRIMARY KEY,
		equipment_id INTEGER REFERENCES equipment(id) ON DELETE SET NULL,
		risk_type VARCHAR(100) NOT NULL,
		risk_level VARCHAR(20) NOT NULL,
		risk_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		description TEXT NOT NULL,
		recommendations TEXT,
		sources TEXT,
		agent_name VARCHAR(100) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_equipment ON schedules(equipment_id)`,
	`CREATE INDEX IF NOT EXISTS idx_news_events_category ON news_events(category)`,
	`CREATE INDEX IF NOT EXISTS idx_news_events_country ON news_events(country)`,
	`CREATE INDEX IF NOT EXISTS idx_news_events_published ON news_events(published_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_risk_assessments_equipment ON risk_assessments(equipment_id)`,
}

// EnsureSchema creates the SupplyGuard tables and indexes if they do not
// exist. Safe to call on every startup.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
