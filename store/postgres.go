package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"supplyguard/shared/types"
)

// Postgres implements Store on top of a PostgreSQL database.
type Postgres struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// Open connects to PostgreSQL using the given DSN and verifies the
// connection before returning.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgres(db), nil
}

// NewPostgres wraps an existing database handle. Used by tests with sqlmock.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

var equipmentColumns = []string{
	"id", "name", "category", "manufacturer",
	"manufacturing_country", "destination_country", "created_at", "updated_at",
}

func scanEquipment(rows *sql.Rows) ([]types.Equipment, error) {
	var out []types.Equipment
	for rows.Next() {
		var eq types.Equipment
		if err := rows.Scan(
			&eq.ID, &eq.Name, &eq.Category, &eq.Manufacturer,
			&eq.ManufacturingCountry, &eq.DestinationCountry,
			&eq.CreatedAt, &eq.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		out = append(out, eq)
	}
	return out, rows.Err()
}

func (p *Postgres) queryEquipment(ctx context.Context, b sq.SelectBuilder) ([]types.Equipment, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build equipment query: %w", err)
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query equipment: %w", err)
	}
	defer rows.Close()
	return scanEquipment(rows)
}

func (p *Postgres) ListEquipment(ctx context.Context) ([]types.Equipment, error) {
	return p.queryEquipment(ctx, p.sb.
		Select(equipmentColumns...).
		From("equipment").
		OrderBy("id"))
}

func (p *Postgres) ListEquipmentByCountry(ctx context.Context, country string) ([]types.Equipment, error) {
	return p.queryEquipment(ctx, p.sb.
		Select(equipmentColumns...).
		From("equipment").
		Where(sq.Or{
			sq.Eq{"manufacturing_country": country},
			sq.Eq{"destination_country": country},
		}).
		OrderBy("id"))
}

func (p *Postgres) ListEquipmentByRoute(ctx context.Context, origin, destination string) ([]types.Equipment, error) {
	return p.queryEquipment(ctx, p.sb.
		Select(equipmentColumns...).
		From("equipment").
		Where(sq.And{
			sq.Eq{"manufacturing_country": origin},
			sq.Eq{"destination_country": destination},
		}).
		OrderBy("id"))
}

func (p *Postgres) ListEquipmentByTradePair(ctx context.Context, country1, country2 string) ([]types.Equipment, error) {
	return p.queryEquipment(ctx, p.sb.
		Select(equipmentColumns...).
		From("equipment").
		Where(sq.Or{
			sq.And{
				sq.Eq{"manufacturing_country": country1},
				sq.Eq{"destination_country": country2},
			},
			sq.And{
				sq.Eq{"manufacturing_country": country2},
				sq.Eq{"destination_country": country1},
			},
		}).
		OrderBy("id"))
}

func (p *Postgres) GetEquipment(ctx context.Context, id int) (*types.Equipment, error) {
	query, args, err := p.sb.
		Select(equipmentColumns...).
		From("equipment").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build equipment query: %w", err)
	}

	var eq types.Equipment
	err = p.db.QueryRowContext(ctx, query, args...).Scan(
		&eq.ID, &eq.Name, &eq.Category, &eq.Manufacturer,
		&eq.ManufacturingCountry, &eq.DestinationCountry,
		&eq.CreatedAt, &eq.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get equipment %d: %w", id, err)
	}
	return &eq, nil
}

func (p *Postgres) CreateEquipment(ctx context.Context, eq *types.Equipment) error {
	now := time.Now().UTC()
	eq.CreatedAt = now
	eq.UpdatedAt = now

	query, args, err := p.sb.
		Insert("equipment").
		Columns("name", "category", "manufacturer",
			"manufacturing_country", "destination_country", "created_at", "updated_at").
		Values(eq.Name, eq.Category, eq.Manufacturer,
			eq.ManufacturingCountry, eq.DestinationCountry, eq.CreatedAt, eq.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build equipment insert: %w", err)
	}
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&eq.ID); err != nil {
		return fmt.Errorf("insert equipment: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateEquipment(ctx context.Context, eq *types.Equipment) error {
	eq.UpdatedAt = time.Now().UTC()

	query, args, err := p.sb.
		Update("equipment").
		Set("name", eq.Name).
		Set("category", eq.Category).
		Set("manufacturer", eq.Manufacturer).
		Set("manufacturing_country", eq.ManufacturingCountry).
		Set("destination_country", eq.DestinationCountry).
		Set("updated_at", eq.UpdatedAt).
		Where(sq.Eq{"id": eq.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build equipment update: %w", err)
	}
	return p.execAffectingOne(ctx, query, args, "equipment", eq.ID)
}

func (p *Postgres) DeleteEquipment(ctx context.Context, id int) error {
	query, args, err := p.sb.Delete("equipment").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build equipment delete: %w", err)
	}
	return p.execAffectingOne(ctx, query, args, "equipment", id)
}

var scheduleColumns = []string{
	"id", "equipment_id", "planned_start_date", "planned_end_date",
	"actual_start_date", "actual_end_date", "status", "delay_days",
	"risk_level", "created_at", "updated_at",
}

func scanSchedules(rows *sql.Rows) ([]types.Schedule, error) {
	var out []types.Schedule
	for rows.Next() {
		var s types.Schedule
		if err := rows.Scan(
			&s.ID, &s.EquipmentID, &s.PlannedStartDate, &s.PlannedEndDate,
			&s.ActualStartDate, &s.ActualEndDate, &s.Status, &s.DelayDays,
			&s.RiskLevel, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) querySchedules(ctx context.Context, b sq.SelectBuilder) ([]types.Schedule, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build schedule query: %w", err)
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

func (p *Postgres) ListSchedules(ctx context.Context) ([]types.Schedule, error) {
	return p.querySchedules(ctx, p.sb.
		Select(scheduleColumns...).
		From("schedules").
		OrderBy("id"))
}

func (p *Postgres) ListSchedulesByEquipment(ctx context.Context, equipmentID int) ([]types.Schedule, error) {
	return p.querySchedules(ctx, p.sb.
		Select(scheduleColumns...).
		From("schedules").
		Where(sq.Eq{"equipment_id": equipmentID}).
		OrderBy("id"))
}

func (p *Postgres) GetSchedule(ctx context.Context, id int) (*types.Schedule, error) {
	query, args, err := p.sb.
		Select(scheduleColumns...).
		From("schedules").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build schedule query: %w", err)
	}

	var s types.Schedule
	err = p.db.QueryRowContext(ctx, query, args...).Scan(
		&s.ID, &s.EquipmentID, &s.PlannedStartDate, &s.PlannedEndDate,
		&s.ActualStartDate, &s.ActualEndDate, &s.Status, &s.DelayDays,
		&s.RiskLevel, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule %d: %w", id, err)
	}
	return &s, nil
}

func (p *Postgres) CreateSchedule(ctx context.Context, s *types.Schedule) error {
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	query, args, err := p.sb.
		Insert("schedules").
		Columns("equipment_id", "planned_start_date", "planned_end_date",
			"actual_start_date", "actual_end_date", "status", "delay_days",
			"risk_level", "created_at", "updated_at").
		Values(s.EquipmentID, s.PlannedStartDate, s.PlannedEndDate,
			s.ActualStartDate, s.ActualEndDate, s.Status, s.DelayDays,
			s.RiskLevel, s.CreatedAt, s.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build schedule insert: %w", err)
	}
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&s.ID); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateSchedule(ctx context.Context, s *types.Schedule) error {
	s.UpdatedAt = time.Now().UTC()

	query, args, err := p.sb.
		Update("schedules").
		Set("equipment_id", s.EquipmentID).
		Set("planned_start_date", s.PlannedStartDate).
		Set("planned_end_date", s.PlannedEndDate).
		Set("actual_start_date", s.ActualStartDate).
		Set("actual_end_date", s.ActualEndDate).
		Set("status", s.Status).
		Set("delay_days", s.DelayDays).
		Set("risk_level", s.RiskLevel).
		Set("updated_at", s.UpdatedAt).
		Where(sq.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build schedule update: %w", err)
	}
	return p.execAffectingOne(ctx, query, args, "schedule", s.ID)
}

func (p *Postgres) DeleteSchedule(ctx context.Context, id int) error {
	query, args, err := p.sb.Delete("schedules").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build schedule delete: %w", err)
	}
	return p.execAffectingOne(ctx, query, args, "schedule", id)
}

var newsEventColumns = []string{
	"id", "title", "content", "source", "url", "country",
	"category", "impact_level", "published_date", "created_at",
}

func (p *Postgres) ListNewsEvents(ctx context.Context, f EventFilter) ([]types.NewsEvent, error) {
	b := p.sb.
		Select(newsEventColumns...).
		From("news_events").
		OrderBy("published_date DESC")
	if f.Category != "" {
		b = b.Where(sq.Eq{"category": f.Category})
	}
	if f.Country != "" {
		b = b.Where(sq.Eq{"country": f.Country})
	}
	if len(f.Countries) > 0 {
		b = b.Where(sq.Eq{"country": f.Countries})
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build news event query: %w", err)
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query news events: %w", err)
	}
	defer rows.Close()

	var out []types.NewsEvent
	for rows.Next() {
		var e types.NewsEvent
		var url, country sql.NullString
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Content, &e.Source, &url, &country,
			&e.Category, &e.ImpactLevel, &e.PublishedDate, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan news event: %w", err)
		}
		e.URL = url.String
		e.Country = country.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) GetNewsEvent(ctx context.Context, id int) (*types.NewsEvent, error) {
	query, args, err := p.sb.
		Select(newsEventColumns...).
		From("news_events").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build news event query: %w", err)
	}

	var e types.NewsEvent
	var url, country sql.NullString
	err = p.db.QueryRowContext(ctx, query, args...).Scan(
		&e.ID, &e.Title, &e.Content, &e.Source, &url, &country,
		&e.Category, &e.ImpactLevel, &e.PublishedDate, &e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get news event %d: %w", id, err)
	}
	e.URL = url.String
	e.Country = country.String
	return &e, nil
}

func (p *Postgres) CreateNewsEvent(ctx context.Context, e *types.NewsEvent) error {
	e.CreatedAt = time.Now().UTC()
	if e.PublishedDate.IsZero() {
		e.PublishedDate = e.CreatedAt
	}

	query, args, err := p.sb.
		Insert("news_events").
		Columns("title", "content", "source", "url", "country",
			"category", "impact_level", "published_date", "created_at").
		Values(e.Title, e.Content, e.Source, e.URL, e.Country,
			e.Category, e.ImpactLevel, e.PublishedDate, e.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build news event insert: %w", err)
	}
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&e.ID); err != nil {
		return fmt.Errorf("insert news event: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateNewsEvent(ctx context.Context, e *types.NewsEvent) error {
	query, args, err := p.sb.
		Update("news_events").
		Set("title", e.Title).
		Set("content", e.Content).
		Set("source", e.Source).
		Set("url", e.URL).
		Set("country", e.Country).
		Set("category", e.Category).
		Set("impact_level", e.ImpactLevel).
		Set("published_date", e.PublishedDate).
		Where(sq.Eq{"id": e.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build news event update: %w", err)
	}
	return p.execAffectingOne(ctx, query, args, "news event", e.ID)
}

func (p *Postgres) DeleteNewsEvent(ctx context.Context, id int) error {
	query, args, err := p.sb.Delete("news_events").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build news event delete: %w", err)
	}
	return p.execAffectingOne(ctx, query, args, "news event", id)
}

var assessmentColumns = []string{
	"id", "equipment_id", "risk_type", "risk_level", "risk_score",
	"description", "recommendations", "sources", "agent_name",
	"created_at", "updated_at",
}

func (p *Postgres) ListRiskAssessments(ctx context.Context, f AssessmentFilter) ([]types.RiskAssessment, error) {
	b := p.sb.
		Select(assessmentColumns...).
		From("risk_assessments").
		OrderBy("created_at DESC")
	if f.EquipmentID != nil {
		b = b.Where(sq.Eq{"equipment_id": *f.EquipmentID})
	}
	if f.RiskType != "" {
		b = b.Where(sq.Eq{"risk_type": f.RiskType})
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build assessment query: %w", err)
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	var out []types.RiskAssessment
	for rows.Next() {
		var a types.RiskAssessment
		var recs, sources sql.NullString
		if err := rows.Scan(
			&a.ID, &a.EquipmentID, &a.RiskType, &a.RiskLevel, &a.RiskScore,
			&a.Description, &recs, &sources, &a.AgentName,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		a.Recommendations = recs.String
		a.Sources = sources.String
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) GetRiskAssessment(ctx context.Context, id int) (*types.RiskAssessment, error) {
	query, args, err := p.sb.
		Select(assessmentColumns...).
		From("risk_assessments").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build assessment query: %w", err)
	}

	var a types.RiskAssessment
	var recs, sources sql.NullString
	err = p.db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID, &a.EquipmentID, &a.RiskType, &a.RiskLevel, &a.RiskScore,
		&a.Description, &recs, &sources, &a.AgentName,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment %d: %w", id, err)
	}
	a.Recommendations = recs.String
	a.Sources = sources.String
	return &a, nil
}

func (p *Postgres) CreateRiskAssessment(ctx context.Context, a *types.RiskAssessment) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	query, args, err := p.sb.
		Insert("risk_assessments").
		Columns("equipment_id", "risk_type", "risk_level", "risk_score",
			"description", "recommendations", "sources", "agent_name",
			"created_at", "updated_at").
		Values(a.EquipmentID, a.RiskType, a.RiskLevel, a.RiskScore,
			a.Description, a.Recommendations, a.Sources, a.AgentName,
			a.CreatedAt, a.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build assessment insert: %w", err)
	}
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&a.ID); err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateRiskAssessment(ctx context.Context, a *types.RiskAssessment) error {
	a.UpdatedAt = time.Now().UTC()

	query, args, err := p.sb.
		Update("risk_assessments").
		Set("equipment_id", a.EquipmentID).
		Set("risk_type", a.RiskType).
		Set("risk_level", a.RiskLevel).
		Set("risk_score", a.RiskScore).
		Set("description", a.Description).
		Set("recommendations", a.Recommendations).
		Set("sources", a.Sources).
		Set("agent_name", a.AgentName).
		Set("updated_at", a.UpdatedAt).
		Where(sq.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build assessment update: %w", err)
	}
	return p.execAffectingOne(ctx, query, args, "assessment", a.ID)
}

func (p *Postgres) DeleteRiskAssessment(ctx context.Context, id int) error {
	query, args, err := p.sb.Delete("risk_assessments").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build assessment delete: %w", err)
	}
	return p.execAffectingOne(ctx, query, args, "assessment", id)
}

// Stats aggregates record counts for the dashboard endpoint in one round
// trip per table.
func (p *Postgres) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	err := p.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM equipment),
			(SELECT COUNT(*) FROM schedules),
			(SELECT COUNT(*) FROM schedules WHERE delay_days > 0),
			(SELECT COUNT(*) FROM schedules WHERE risk_level IN ('high', 'critical')),
			(SELECT COUNT(*) FROM news_events),
			(SELECT COUNT(*) FROM news_events WHERE impact_level = 'high'),
			(SELECT COUNT(*) FROM risk_assessments)
	`).Scan(
		&stats.TotalEquipment,
		&stats.TotalSchedules,
		&stats.DelayedSchedules,
		&stats.HighRiskSchedules,
		&stats.TotalNewsEvents,
		&stats.HighImpactEvents,
		&stats.TotalRiskAssessments,
	)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}

func (p *Postgres) execAffectingOne(ctx context.Context, query string, args []any, kind string, id int) error {
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec %s %d: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s %d: %w", kind, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
