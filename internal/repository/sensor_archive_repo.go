package repository

import (
	"context"
	"fmt"

	"prawncare-monitor/internal/database"
	"prawncare-monitor/internal/models"

	"go.uber.org/zap"
)

// SensorArchiveRepository 遥测归档Repository
// 归档任务原样写入快照，核心不做任何加工
type SensorArchiveRepository struct {
	db     *database.ResilientDB
	logger *zap.Logger
}

// NewSensorArchiveRepository 创建遥测归档Repository
func NewSensorArchiveRepository(db *database.ResilientDB, logger *zap.Logger) *SensorArchiveRepository {
	return &SensorArchiveRepository{db: db, logger: logger}
}

// Insert 追加一条遥测快照
func (r *SensorArchiveRepository) Insert(ctx context.Context, snapshot *models.TelemetrySnapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sensor_archive (pond_id, water_level, water_temp, tds, ph, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		snapshot.PondID,
		snapshot.WaterLevel,
		snapshot.WaterTemp,
		snapshot.TDS,
		snapshot.PH,
		snapshot.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sensor archive: %w", err)
	}

	r.logger.Debug("Archived telemetry snapshot",
		zap.String("pond_id", snapshot.PondID),
		zap.Time("captured_at", snapshot.CapturedAt),
	)

	return nil
}

// ListRecent 按采集时间倒序返回最近的归档记录
func (r *SensorArchiveRepository) ListRecent(ctx context.Context, limit int) ([]models.TelemetrySnapshot, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT pond_id, water_level, water_temp, tds, ph, captured_at
		FROM sensor_archive
		ORDER BY captured_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor archive: %w", err)
	}
	defer rows.Close()

	var snapshots []models.TelemetrySnapshot
	for rows.Next() {
		var s models.TelemetrySnapshot
		if err := rows.Scan(&s.PondID, &s.WaterLevel, &s.WaterTemp, &s.TDS, &s.PH, &s.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sensor archive row: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sensor archive rows: %w", err)
	}

	return snapshots, nil
}
