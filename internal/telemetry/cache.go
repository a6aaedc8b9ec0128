package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"prawncare-monitor/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrCacheMiss 池塘没有缓存的遥测快照
var ErrCacheMiss = errors.New("telemetry snapshot not cached")

// SnapshotCache 最新遥测快照的 Redis 缓存
// 由状态检查扫描和 MQTT 接入写入，API 层读取
type SnapshotCache struct {
	redisClient *redis.Client
	ttl         time.Duration
	logger      *zap.Logger
}

// NewSnapshotCache 创建快照缓存
func NewSnapshotCache(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	return &SnapshotCache{
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

func snapshotKey(pondID string) string {
	return fmt.Sprintf("prawncare:pond:%s:latest", pondID)
}

// Set 写入最新快照（带 TTL）
func (c *SnapshotCache) Set(ctx context.Context, snapshot *models.TelemetrySnapshot) error {
	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := c.redisClient.Set(ctx, snapshotKey(snapshot.PondID), jsonData, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot cache: %w", err)
	}

	c.logger.Debug("Updated snapshot cache",
		zap.String("pond_id", snapshot.PondID),
	)

	return nil
}

// Get 读取最新快照，缓存未命中返回 ErrCacheMiss
func (c *SnapshotCache) Get(ctx context.Context, pondID string) (*models.TelemetrySnapshot, error) {
	val, err := c.redisClient.Get(ctx, snapshotKey(pondID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get snapshot cache: %w", err)
	}

	var snapshot models.TelemetrySnapshot
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached snapshot: %w", err)
	}

	return &snapshot, nil
}
