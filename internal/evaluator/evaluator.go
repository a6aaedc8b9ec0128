package evaluator

import (
	"fmt"
	"math"

	"prawncare-monitor/internal/models"
)

// Evaluate 阈值评估（纯函数）
// 按固定顺序检查：水位 -> 水温 -> TDS，保证下游消息格式确定
// 严格越界才告警，落在 [min, max] 边界上视为正常
// 观测值非法（NaN）返回 ConfigurationError，绝不静默跳过
func Evaluate(snapshot *models.TelemetrySnapshot, thresholds *models.ThresholdConfig) ([]models.AlertCondition, error) {
	if snapshot == nil {
		return nil, &models.ConfigurationError{Reason: "telemetry snapshot is nil"}
	}
	if thresholds == nil {
		return nil, &models.ConfigurationError{Reason: "threshold config is nil"}
	}

	checks := []struct {
		metric string
		label  string
		value  float64
		rng    models.MetricRange
	}{
		{models.MetricWaterLevel, "Water level", snapshot.WaterLevel, thresholds.WaterLevel},
		{models.MetricWaterTemp, "Water temperature", snapshot.WaterTemp, thresholds.WaterTemp},
		{models.MetricTDS, "TDS", snapshot.TDS, thresholds.TDS},
	}

	var conditions []models.AlertCondition
	for _, c := range checks {
		if math.IsNaN(c.value) {
			return nil, &models.ConfigurationError{
				Reason: fmt.Sprintf("observed value for %q is not a number", c.metric),
			}
		}

		switch {
		case c.value < c.rng.Min:
			conditions = append(conditions, models.AlertCondition{
				Metric: c.metric,
				Value:  c.value,
				Bound:  models.BoundMin,
				Limit:  c.rng.Min,
				Message: fmt.Sprintf("%s %.1f is below the minimum threshold %.1f",
					c.label, c.value, c.rng.Min),
			})
		case c.value > c.rng.Max:
			conditions = append(conditions, models.AlertCondition{
				Metric: c.metric,
				Value:  c.value,
				Bound:  models.BoundMax,
				Limit:  c.rng.Max,
				Message: fmt.Sprintf("%s %.1f is above the maximum threshold %.1f",
					c.label, c.value, c.rng.Max),
			})
		}
	}

	return conditions, nil
}
