package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"prawncare-monitor/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSensorArchiveInsert(t *testing.T) {
	rdb, mock := setupRepoDB(t)
	repo := NewSensorArchiveRepository(rdb, zap.NewNop())

	captured := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	ph := 7.8
	snapshot := &models.TelemetrySnapshot{
		PondID:     "pond-1",
		WaterLevel: 33,
		WaterTemp:  27.5,
		TDS:        410,
		PH:         &ph,
		CapturedAt: captured,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sensor_archive")).
		WithArgs("pond-1", 33.0, 27.5, 410.0, &ph, captured).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), snapshot))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSensorArchiveInsert_NilPH(t *testing.T) {
	rdb, mock := setupRepoDB(t)
	repo := NewSensorArchiveRepository(rdb, zap.NewNop())

	snapshot := &models.TelemetrySnapshot{
		PondID:     "pond-1",
		WaterLevel: 33,
		CapturedAt: time.Now(),
	}

	// 硬件没有 pH 探头时写 NULL
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sensor_archive")).
		WithArgs("pond-1", 33.0, 0.0, 0.0, (*float64)(nil), snapshot.CapturedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), snapshot))
}

func TestSensorArchiveListRecent(t *testing.T) {
	rdb, mock := setupRepoDB(t)
	repo := NewSensorArchiveRepository(rdb, zap.NewNop())

	now := time.Now()
	rows := sqlmock.NewRows([]string{"pond_id", "water_level", "water_temp", "tds", "ph", "captured_at"}).
		AddRow("pond-1", 33.0, 27.5, 410.0, 7.8, now).
		AddRow("pond-1", 32.0, 27.1, 405.0, nil, now.Add(-6*time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY captured_at DESC")).
		WithArgs(10).
		WillReturnRows(rows)

	snapshots, err := repo.ListRecent(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	require.NotNil(t, snapshots[0].PH)
	assert.Equal(t, 7.8, *snapshots[0].PH)
	assert.Nil(t, snapshots[1].PH)
}

func TestSensorArchiveListRecent_DefaultLimit(t *testing.T) {
	rdb, mock := setupRepoDB(t)
	repo := NewSensorArchiveRepository(rdb, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta("FROM sensor_archive")).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"pond_id", "water_level", "water_temp", "tds", "ph", "captured_at"}))

	snapshots, err := repo.ListRecent(context.Background(), 0)

	require.NoError(t, err)
	assert.Empty(t, snapshots)
	assert.NoError(t, mock.ExpectationsWereMet())
}
