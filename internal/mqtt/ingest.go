package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"prawncare-monitor/internal/models"
	"prawncare-monitor/internal/telemetry"

	"go.uber.org/zap"
)

// TelemetryIngest 硬件 MQTT 推送接入
// 硬件控制器除了提供 HTTP 拉取接口，还会把遥测推到 MQTT 主题；
// 这里解码同样的线上格式并刷新快照缓存，供 API 层低延迟读取
type TelemetryIngest struct {
	cache  *telemetry.SnapshotCache
	pondID string
	logger *zap.Logger
}

// NewTelemetryIngest 创建遥测接入
func NewTelemetryIngest(cache *telemetry.SnapshotCache, pondID string, logger *zap.Logger) *TelemetryIngest {
	return &TelemetryIngest{
		cache:  cache,
		pondID: pondID,
		logger: logger,
	}
}

// HandleMessage 处理一条硬件推送消息
// 格式与 HTTP 实时接口一致：{waterLevelInside, waterTemp, tds}
func (t *TelemetryIngest) HandleMessage(topic string, payload []byte) error {
	var msg struct {
		WaterLevel float64 `json:"waterLevelInside"`
		WaterTemp  float64 `json:"waterTemp"`
		TDS        float64 `json:"tds"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal telemetry message: %w", err)
	}

	snapshot := &models.TelemetrySnapshot{
		PondID:     t.pondID,
		WaterLevel: msg.WaterLevel,
		WaterTemp:  msg.WaterTemp,
		TDS:        msg.TDS,
		CapturedAt: time.Now(),
	}

	if err := t.cache.Set(context.Background(), snapshot); err != nil {
		return fmt.Errorf("failed to cache pushed snapshot: %w", err)
	}

	t.logger.Debug("Cached telemetry from MQTT push",
		zap.String("topic", topic),
		zap.String("pond_id", t.pondID),
	)

	return nil
}
