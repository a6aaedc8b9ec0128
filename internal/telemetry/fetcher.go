package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"prawncare-monitor/internal/config"
	"prawncare-monitor/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// TimeoutError 遥测请求超时
// 调用方据此快速跳过本周期，不产生长响应尾部
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("telemetry fetch timed out after %s", e.Timeout)
}

// TransportError 遥测请求到达对端但结果非成功（含响应体解析失败）
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("telemetry transport error: %v", e.Err)
	}
	return fmt.Sprintf("telemetry endpoint returned status %d: %s", e.Status, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// sensorPayload 硬件实时接口的响应格式
type sensorPayload struct {
	WaterLevel float64 `json:"waterLevelInside"`
	WaterTemp  float64 `json:"waterTemp"`
	TDS        float64 `json:"tds"`
}

// Fetcher 硬件遥测拉取器
// 单次 GET，固定超时，不重试——重试策略属于调度器的下一个周期
type Fetcher struct {
	httpClient *resty.Client
	pondID     string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewFetcher 创建遥测拉取器
func NewFetcher(cfg *config.SensorConfig, logger *zap.Logger) *Fetcher {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.FetchTimeout).
		SetHeader("Accept", "application/json")

	return &Fetcher{
		httpClient: client,
		pondID:     cfg.PondID,
		timeout:    cfg.FetchTimeout,
		logger:     logger,
	}
}

// Fetch 拉取一次遥测快照
// 超时返回 TimeoutError；非 2xx 或响应体无法解析返回 TransportError
func (f *Fetcher) Fetch(ctx context.Context) (*models.TelemetrySnapshot, error) {
	resp, err := f.httpClient.R().
		SetContext(ctx).
		Get("/sensor")

	if err != nil {
		if isTimeout(err) {
			f.logger.Warn("Telemetry fetch timed out",
				zap.Duration("timeout", f.timeout),
			)
			return nil, &TimeoutError{Timeout: f.timeout}
		}
		return nil, &TransportError{Err: err}
	}

	if !resp.IsSuccess() {
		f.logger.Warn("Telemetry endpoint returned non-success status",
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, &TransportError{
			Status: resp.StatusCode(),
			Body:   string(resp.Body()),
		}
	}

	var payload sensorPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &TransportError{
			Status: resp.StatusCode(),
			Err:    fmt.Errorf("failed to unmarshal sensor payload: %w", err),
		}
	}

	return &models.TelemetrySnapshot{
		PondID:     f.pondID,
		WaterLevel: payload.WaterLevel,
		WaterTemp:  payload.WaterTemp,
		TDS:        payload.TDS,
		CapturedAt: time.Now(),
	}, nil
}

// isTimeout 判断是否为超时类错误
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
