package emissions_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Gkaczkowski/emissions-app/internal/cache"
	"github.com/Gkaczkowski/emissions-app/internal/emissions"
	"github.com/Gkaczkowski/emissions-app/internal/support/exception"
	"github.com/Gkaczkowski/emissions-app/internal/warehouse"
	"github.com/Gkaczkowski/emissions-app/internal/warehouse/gormadapter"
)

// mockConnector opens warehouse sessions backed by a fresh sqlmock database,
// handing the per-session expectation setup to the test.
type mockConnector struct {
	t     *testing.T
	setup func(mock sqlmock.Sqlmock)
	mocks []sqlmock.Sqlmock
}

func (c *mockConnector) Open(ctx context.Context) (warehouse.Connection, error) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(c.t, err)
	c.setup(mock)
	mock.ExpectClose()
	c.mocks = append(c.mocks, mock)

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(c.t, err)
	return gormadapter.NewGormConnection(db), nil
}

func (c *mockConnector) Driver() string { return "mysql" }

func (c *mockConnector) assertExpectations() {
	for _, mock := range c.mocks {
		assert.NoError(c.t, mock.ExpectationsWereMet())
	}
}

const moerQuery = `SELECT moers_timestamp, moer_tons_per_mwh FROM "CASESTUDY"."marginal_operating_emissions_rate";`

func TestFetch_LowercasesColumns(t *testing.T) {
	connector := &mockConnector{t: t, setup: func(mock sqlmock.Sqlmock) {
		rows := sqlmock.NewRows([]string{"MOERS_TIMESTAMP", "MOER_TONS_PER_MWH"}).
			AddRow(time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC), 0.4375).
			AddRow(time.Date(2023, 5, 10, 1, 0, 0, 0, time.UTC), nil)
		mock.ExpectQuery("SELECT moers_timestamp").WillReturnRows(rows)
	}}

	f := emissions.NewFetcher(connector, nil, nil)
	got, err := f.Fetch(context.Background(), emissions.MarginalRateTable, moerQuery)
	require.NoError(t, err)

	assert.Equal(t, []string{"moers_timestamp", "moer_tons_per_mwh"}, got.Columns())
	require.Equal(t, 2, got.NumRows())

	v, _ := got.Cell(0, "moer_tons_per_mwh")
	assert.Equal(t, 0.4375, v)
	v, _ = got.Cell(1, "moer_tons_per_mwh")
	assert.Nil(t, v)

	connector.assertExpectations()
}

func TestFetch_ServesSecondCallFromCache(t *testing.T) {
	opened := 0
	connector := &mockConnector{t: t, setup: func(mock sqlmock.Sqlmock) {
		opened++
		rows := sqlmock.NewRows([]string{"moer_tons_per_mwh"}).AddRow(0.5)
		mock.ExpectQuery("SELECT").WillReturnRows(rows)
	}}

	f := emissions.NewFetcher(connector, cache.New(time.Hour, nil), nil)

	_, err := f.Fetch(context.Background(), emissions.MarginalRateTable, moerQuery)
	require.NoError(t, err)
	got, err := f.Fetch(context.Background(), emissions.MarginalRateTable, moerQuery)
	require.NoError(t, err)

	assert.Equal(t, 1, opened, "second fetch must not reach the warehouse")
	v, _ := got.Cell(0, "moer_tons_per_mwh")
	assert.Equal(t, 0.5, v)

	connector.assertExpectations()
}

func TestFetch_QueryErrorIsClassified(t *testing.T) {
	connector := &mockConnector{t: t, setup: func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)
	}}

	f := emissions.NewFetcher(connector, nil, nil)
	_, err := f.Fetch(context.Background(), emissions.MarginalRateTable, moerQuery)
	require.Error(t, err)
	assert.True(t, exception.IsKind(err, exception.KindQuery))
}
