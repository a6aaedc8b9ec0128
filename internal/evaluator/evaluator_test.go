package evaluator

import (
	"math"
	"testing"
	"time"

	"prawncare-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testThresholds() *models.ThresholdConfig {
	return &models.ThresholdConfig{
		WaterLevel: models.MetricRange{Min: 10, Max: 50},
		WaterTemp:  models.MetricRange{Min: 20, Max: 32},
		TDS:        models.MetricRange{Min: 0, Max: 500},
	}
}

func testSnapshot(level, temp, tds float64) *models.TelemetrySnapshot {
	return &models.TelemetrySnapshot{
		PondID:     "pond-1",
		WaterLevel: level,
		WaterTemp:  temp,
		TDS:        tds,
		CapturedAt: time.Now(),
	}
}

func TestEvaluate_AllInRange(t *testing.T) {
	conditions, err := Evaluate(testSnapshot(30, 26, 300), testThresholds())

	require.NoError(t, err)
	assert.Empty(t, conditions)
}

func TestEvaluate_BoundaryValuesAreNotAlerts(t *testing.T) {
	// 边界值（min 和 max 本身）视为正常
	conditions, err := Evaluate(testSnapshot(10, 32, 500), testThresholds())
	require.NoError(t, err)
	assert.Empty(t, conditions)

	conditions, err = Evaluate(testSnapshot(50, 20, 0), testThresholds())
	require.NoError(t, err)
	assert.Empty(t, conditions)
}

func TestEvaluate_OneUnitOutsideBoundary(t *testing.T) {
	conditions, err := Evaluate(testSnapshot(9, 26, 300), testThresholds())

	require.NoError(t, err)
	require.Len(t, conditions, 1)
	assert.Equal(t, models.MetricWaterLevel, conditions[0].Metric)
	assert.Equal(t, models.BoundMin, conditions[0].Bound)
	assert.Equal(t, 9.0, conditions[0].Value)
	assert.Equal(t, 10.0, conditions[0].Limit)
	assert.Equal(t, "Water level 9.0 is below the minimum threshold 10.0", conditions[0].Message)

	conditions, err = Evaluate(testSnapshot(30, 33, 300), testThresholds())

	require.NoError(t, err)
	require.Len(t, conditions, 1)
	assert.Equal(t, models.MetricWaterTemp, conditions[0].Metric)
	assert.Equal(t, models.BoundMax, conditions[0].Bound)
	assert.Equal(t, "Water temperature 33.0 is above the maximum threshold 32.0", conditions[0].Message)
}

func TestEvaluate_DeterministicOrder(t *testing.T) {
	// 三个指标全部越界：输出固定顺序 水位 -> 水温 -> TDS
	conditions, err := Evaluate(testSnapshot(5, 40, 600), testThresholds())

	require.NoError(t, err)
	require.Len(t, conditions, 3)
	assert.Equal(t, models.MetricWaterLevel, conditions[0].Metric)
	assert.Equal(t, models.MetricWaterTemp, conditions[1].Metric)
	assert.Equal(t, models.MetricTDS, conditions[2].Metric)
}

func TestEvaluate_LowWaterLevelScenario(t *testing.T) {
	// 水位 5 低于下限 10，其余指标正常
	conditions, err := Evaluate(testSnapshot(5, 26, 300), testThresholds())

	require.NoError(t, err)
	require.Len(t, conditions, 1)
	assert.Equal(t, models.MetricWaterLevel, conditions[0].Metric)
	assert.Equal(t, 5.0, conditions[0].Value)
}

func TestEvaluate_NaNValueIsConfigurationError(t *testing.T) {
	conditions, err := Evaluate(testSnapshot(math.NaN(), 26, 300), testThresholds())

	assert.Nil(t, conditions)
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestEvaluate_NilArguments(t *testing.T) {
	var cfgErr *models.ConfigurationError

	_, err := Evaluate(nil, testThresholds())
	require.ErrorAs(t, err, &cfgErr)

	_, err = Evaluate(testSnapshot(30, 26, 300), nil)
	require.ErrorAs(t, err, &cfgErr)
}
