package repository

import (
	"context"
	"fmt"
	"time"

	"prawncare-monitor/internal/database"
	"prawncare-monitor/internal/models"

	"go.uber.org/zap"
)

// DeviceTokenRepository 推送设备令牌Repository
type DeviceTokenRepository struct {
	db     *database.ResilientDB
	logger *zap.Logger
}

// NewDeviceTokenRepository 创建设备令牌Repository
func NewDeviceTokenRepository(db *database.ResilientDB, logger *zap.Logger) *DeviceTokenRepository {
	return &DeviceTokenRepository{db: db, logger: logger}
}

// Upsert 幂等注册设备令牌
// 重复注册同一 token 更新关联工人和注册时间，不报错
func (r *DeviceTokenRepository) Upsert(ctx context.Context, token string, workerID *string) (*models.DeviceToken, error) {
	if token == "" {
		return nil, fmt.Errorf("token is required")
	}

	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO device_tokens (token, worker_id, registered_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token)
		DO UPDATE SET worker_id = EXCLUDED.worker_id,
		              registered_at = EXCLUDED.registered_at`,
		token, workerID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert device token: %w", err)
	}

	r.logger.Debug("Device token registered",
		zap.String("token", token),
	)

	return &models.DeviceToken{
		Token:        token,
		WorkerID:     workerID,
		RegisteredAt: now,
	}, nil
}
