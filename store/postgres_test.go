package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyguard/shared/types"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresListNewsEventsFilter(t *testing.T) {
	p, mock := newMockStore(t)

	published := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "title", "content", "source", "url", "country",
		"category", "impact_level", "published_date", "created_at",
	}).AddRow(3, "port strike", "dock workers on strike", "wire", "", "中國",
		"logistics", "high", published, published)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, title, content, source, url, country, category, impact_level, published_date, created_at " +
			"FROM news_events WHERE category = $1 ORDER BY published_date DESC LIMIT 20",
	)).WithArgs("logistics").WillReturnRows(rows)

	events, err := p.ListNewsEvents(context.Background(), EventFilter{
		Category: types.CategoryLogistics,
		Limit:    20,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "port strike", events[0].Title)
	assert.Equal(t, types.ImpactHigh, events[0].ImpactLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetEquipmentNotFound(t *testing.T) {
	p, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, name, category, manufacturer, manufacturing_country, destination_country, created_at, updated_at " +
			"FROM equipment WHERE id = $1",
	)).WithArgs(42).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := p.GetEquipment(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateEquipmentReturnsID(t *testing.T) {
	p, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO equipment (name,category,manufacturer,manufacturing_country,destination_country,created_at,updated_at) "+
			"VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id",
	)).WithArgs("robot arm", "automation", "RoboTech", "德國", "台灣",
		sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	eq := &types.Equipment{
		Name:                 "robot arm",
		Category:             "automation",
		Manufacturer:         "RoboTech",
		ManufacturingCountry: "德國",
		DestinationCountry:   "台灣",
	}
	require.NoError(t, p.CreateEquipment(context.Background(), eq))
	assert.Equal(t, 7, eq.ID)
	assert.False(t, eq.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteScheduleNotFound(t *testing.T) {
	p, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1")).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := p.DeleteSchedule(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListEquipmentByTradePair(t *testing.T) {
	p, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "name", "category", "manufacturer",
		"manufacturing_country", "destination_country", "created_at", "updated_at",
	}).AddRow(1, "tester", "electronics", "SemiTest", "美國", "中國", now, now)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, name, category, manufacturer, manufacturing_country, destination_country, created_at, updated_at "+
			"FROM equipment WHERE ((manufacturing_country = $1 AND destination_country = $2) OR "+
			"(manufacturing_country = $3 AND destination_country = $4)) ORDER BY id",
	)).WithArgs("美國", "中國", "中國", "美國").WillReturnRows(rows)

	out, err := p.ListEquipmentByTradePair(context.Background(), "美國", "中國")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "tester", out[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
