package repository

import (
	"context"
	"fmt"

	"prawncare-monitor/internal/database"
	"prawncare-monitor/internal/models"

	"go.uber.org/zap"
)

// ThresholdRepository 阈值配置Repository
// 每个评估周期重新读取，阈值修改即时生效
type ThresholdRepository struct {
	db     *database.ResilientDB
	logger *zap.Logger
}

// NewThresholdRepository 创建阈值配置Repository
func NewThresholdRepository(db *database.ResilientDB, logger *zap.Logger) *ThresholdRepository {
	return &ThresholdRepository{db: db, logger: logger}
}

// GetThresholds 读取全部指标阈值
// 任一指标缺少配置行返回 ConfigurationError，绝不能被当作"一切正常"
func (r *ThresholdRepository) GetThresholds(ctx context.Context) (*models.ThresholdConfig, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT metric, min_value, max_value
		FROM sensor_thresholds`)
	if err != nil {
		return nil, fmt.Errorf("failed to query thresholds: %w", err)
	}
	defer rows.Close()

	found := make(map[string]models.MetricRange)
	for rows.Next() {
		var metric string
		var rng models.MetricRange
		if err := rows.Scan(&metric, &rng.Min, &rng.Max); err != nil {
			return nil, fmt.Errorf("failed to scan threshold row: %w", err)
		}
		found[metric] = rng
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate threshold rows: %w", err)
	}

	cfg := &models.ThresholdConfig{}
	for _, metric := range []string{models.MetricWaterLevel, models.MetricWaterTemp, models.MetricTDS} {
		rng, ok := found[metric]
		if !ok {
			return nil, &models.ConfigurationError{
				Reason: fmt.Sprintf("threshold not configured for metric %q", metric),
			}
		}
		switch metric {
		case models.MetricWaterLevel:
			cfg.WaterLevel = rng
		case models.MetricWaterTemp:
			cfg.WaterTemp = rng
		case models.MetricTDS:
			cfg.TDS = rng
		}
	}

	return cfg, nil
}
