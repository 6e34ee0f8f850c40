package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sced-data/internal/domain"
	"sced-data/internal/observability"
	"sced-data/internal/repository"
)

var ingestNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type capturedAlert struct {
	alerts []*domain.Alert
}

func (c *capturedAlert) NotifyAlert(_ context.Context, alert *domain.Alert) error {
	c.alerts = append(c.alerts, alert)
	return nil
}

func setupIngest(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *IngestService, *capturedAlert) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	notifier := &capturedAlert{}
	svc := NewIngestService(
		repository.NewPostgresDevicesRepo(db, logger),
		repository.NewPostgresReadingsRepo(db, logger),
		repository.NewPostgresAlertsRepo(db, logger),
		repository.NewTxRunner(db, logger),
		clockwork.NewFakeClockAt(ingestNow),
		observability.NewMetricsForTesting(),
		notifier,
		logger,
	)
	return db, mock, svc, notifier
}

func expectDeviceRow(mock sqlmock.Sqlmock, id int64, deviceType, status string, lat, lng float64) {
	rows := sqlmock.NewRows([]string{"device_id", "device_type", "status", "latitude", "longitude"}).
		AddRow(id, deviceType, status, lat, lng)
	mock.ExpectQuery(`SELECT device_id, device_type, status`).
		WithArgs(id).
		WillReturnRows(rows)
}

func TestReceiveData_FloodAlertGenerated(t *testing.T) {
	db, mock, svc, notifier := setupIngest(t)
	defer db.Close()

	mock.ExpectBegin()
	expectDeviceRow(mock, 1, "WaterLevelSensor", "Operational", 10.0, 20.0)
	mock.ExpectQuery(`INSERT INTO device_data`).
		WithArgs(int64(1), 150.0, ingestNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectQuery(`INSERT INTO alerts`).
		WithArgs("Flood", 5, 10.0, 20.0, ingestNow, "High water level detected: 150cm").
		WillReturnRows(sqlmock.NewRows([]string{"alert_id"}).AddRow(200))
	mock.ExpectCommit()

	reading, alert, err := svc.ReceiveData(context.Background(), 1, 150.0)

	require.NoError(t, err)
	assert.Equal(t, int64(100), reading.ID)
	assert.Equal(t, 150.0, reading.Value)
	require.NotNil(t, alert)
	assert.Equal(t, int64(200), alert.ID)
	assert.Equal(t, domain.AlertFlood, alert.Type)
	assert.Equal(t, 5, alert.Severity)
	assert.Equal(t, 10.0, alert.Latitude)
	assert.Equal(t, 20.0, alert.Longitude)
	assert.Contains(t, alert.Description, "150")

	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, int64(200), notifier.alerts[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiveData_NoAlertBelowThreshold(t *testing.T) {
	db, mock, svc, notifier := setupIngest(t)
	defer db.Close()

	mock.ExpectBegin()
	expectDeviceRow(mock, 2, "TemperatureSensor", "Operational", 1.0, 2.0)
	mock.ExpectQuery(`INSERT INTO device_data`).
		WithArgs(int64(2), 25.0, ingestNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectCommit()

	reading, alert, err := svc.ReceiveData(context.Background(), 2, 25.0)

	require.NoError(t, err)
	assert.Equal(t, int64(101), reading.ID)
	assert.Nil(t, alert)
	assert.Empty(t, notifier.alerts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiveData_UnknownDevice(t *testing.T) {
	db, mock, svc, notifier := setupIngest(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT device_id`).
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	reading, alert, err := svc.ReceiveData(context.Background(), 999, 10.0)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, reading)
	assert.Nil(t, alert)
	assert.Empty(t, notifier.alerts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiveData_InvalidDeviceID(t *testing.T) {
	db, _, svc, _ := setupIngest(t)
	defer db.Close()

	_, _, err := svc.ReceiveData(context.Background(), 0, 10.0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestReceiveData_AlertInsertFailureRollsBackReading(t *testing.T) {
	db, mock, svc, notifier := setupIngest(t)
	defer db.Close()

	mock.ExpectBegin()
	expectDeviceRow(mock, 1, "WaterLevelSensor", "Operational", 10.0, 20.0)
	mock.ExpectQuery(`INSERT INTO device_data`).
		WithArgs(int64(1), 150.0, ingestNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectQuery(`INSERT INTO alerts`).
		WillReturnError(&pq.Error{Code: "23502"})
	mock.ExpectRollback()

	// 读数和告警整体回滚，调用方看不到半提交状态
	reading, alert, err := svc.ReceiveData(context.Background(), 1, 150.0)

	require.Error(t, err)
	assert.Nil(t, reading)
	assert.Nil(t, alert)
	assert.Empty(t, notifier.alerts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiveData_TransientFailureRetriesWholeUnit(t *testing.T) {
	db, mock, svc, notifier := setupIngest(t)
	defer db.Close()

	// 第一次提交前死锁，第二次从查设备开始整体重放
	mock.ExpectBegin()
	expectDeviceRow(mock, 1, "WaterLevelSensor", "Operational", 10.0, 20.0)
	mock.ExpectQuery(`INSERT INTO device_data`).
		WithArgs(int64(1), 150.0, ingestNow).
		WillReturnError(&pq.Error{Code: "40P01"})
	mock.ExpectRollback()

	mock.ExpectBegin()
	expectDeviceRow(mock, 1, "WaterLevelSensor", "Operational", 10.0, 20.0)
	mock.ExpectQuery(`INSERT INTO device_data`).
		WithArgs(int64(1), 150.0, ingestNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectQuery(`INSERT INTO alerts`).
		WithArgs("Flood", 5, 10.0, 20.0, ingestNow, "High water level detected: 150cm").
		WillReturnRows(sqlmock.NewRows([]string{"alert_id"}).AddRow(200))
	mock.ExpectCommit()

	reading, alert, err := svc.ReceiveData(context.Background(), 1, 150.0)

	require.NoError(t, err)
	assert.Equal(t, int64(100), reading.ID)
	require.NotNil(t, alert)
	assert.Len(t, notifier.alerts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
