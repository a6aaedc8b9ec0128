package models

import "time"

// TelemetrySnapshot 一次池塘硬件遥测快照
// 硬件实时接口只上报水位/水温/TDS，pH 仅在人工录入时存在
type TelemetrySnapshot struct {
	PondID     string    `json:"pond_id"`
	WaterLevel float64   `json:"waterLevelInside"`
	WaterTemp  float64   `json:"waterTemp"`
	TDS        float64   `json:"tds"`
	PH         *float64  `json:"ph,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// MetricRange 单个指标的安全区间（闭区间，边界值视为正常）
type MetricRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ThresholdConfig 阈值配置（每个评估周期从数据库重新读取，不缓存）
type ThresholdConfig struct {
	WaterLevel MetricRange `json:"water_level"`
	WaterTemp  MetricRange `json:"water_temp"`
	TDS        MetricRange `json:"tds"`
}

// 指标名称常量（评估输出的固定顺序：水位 -> 水温 -> TDS）
const (
	MetricWaterLevel = "water_level"
	MetricWaterTemp  = "water_temp"
	MetricTDS        = "tds"
)

// AlertCondition 一条阈值越界告警（仅在单个评估-分发周期内存在）
type AlertCondition struct {
	Metric  string  `json:"metric"`
	Value   float64 `json:"value"`
	Bound   string  `json:"bound"` // "min" 或 "max"
	Limit   float64 `json:"limit"`
	Message string  `json:"message"`
}

const (
	BoundMin = "min"
	BoundMax = "max"
)
