package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"prawncare-monitor/internal/models"
	"prawncare-monitor/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeMonitor is a hand-rolled MonitorAPI stand-in; each field overrides one call.
type fakeMonitor struct {
	reminders    []models.Reminder
	ackResult    bool
	ackedID      string
	registerErr  error
	checkReport  *models.DispatchReport
	checkErr     error
	latest       *models.TelemetrySnapshot
	latestErr    error
	archive      []models.TelemetrySnapshot
	archiveErr   error
	archiveLimit int
}

func (f *fakeMonitor) ListActiveReminders() []models.Reminder { return f.reminders }

func (f *fakeMonitor) AcknowledgeReminder(feedingID string) bool {
	f.ackedID = feedingID
	return f.ackResult
}

func (f *fakeMonitor) RegisterDeviceToken(ctx context.Context, token string, workerID *string) (*models.DeviceToken, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.DeviceToken{Token: token, WorkerID: workerID, RegisteredAt: time.Now()}, nil
}

func (f *fakeMonitor) TriggerConditionCheck(ctx context.Context) (*models.DispatchReport, error) {
	return f.checkReport, f.checkErr
}

func (f *fakeMonitor) LatestSnapshot(ctx context.Context) (*models.TelemetrySnapshot, error) {
	return f.latest, f.latestErr
}

func (f *fakeMonitor) RecentArchive(ctx context.Context, limit int) ([]models.TelemetrySnapshot, error) {
	f.archiveLimit = limit
	return f.archive, f.archiveErr
}

func setupTestRouter(fake *fakeMonitor) *Router {
	handler := NewMonitorHandler(fake, zap.NewNop())
	router := NewRouter(zap.NewNop())
	router.RegisterMonitorRoutes(handler, func(w http.ResponseWriter, r *http.Request) {})
	return router
}

func doRequest(t *testing.T, router *Router, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope
}

func TestListReminders(t *testing.T) {
	fake := &fakeMonitor{reminders: []models.Reminder{
		{ReminderID: "rem-1", FeedingID: "feed-1", PondID: "pond-1", Message: "Feeding time"},
	}}
	router := setupTestRouter(fake)

	rec, envelope := doRequest(t, router, http.MethodGet, "/monitor/api/v1/reminders", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(ResultSuccess), envelope["code"])
	result := envelope["result"].(map[string]any)
	assert.Equal(t, float64(1), result["total"])
}

func TestListReminders_MethodNotAllowed(t *testing.T) {
	router := setupTestRouter(&fakeMonitor{})

	rec, _ := doRequest(t, router, http.MethodPost, "/monitor/api/v1/reminders", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAcknowledgeReminder(t *testing.T) {
	fake := &fakeMonitor{ackResult: true}
	router := setupTestRouter(fake)

	rec, envelope := doRequest(t, router, http.MethodPost, "/monitor/api/v1/reminders/feed-1/ack", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "feed-1", fake.ackedID)
	result := envelope["result"].(map[string]any)
	assert.Equal(t, true, result["acknowledged"])
	assert.Equal(t, "feed-1", result["feeding_id"])
}

func TestAcknowledgeReminder_UnknownIDStillOK(t *testing.T) {
	fake := &fakeMonitor{ackResult: false}
	router := setupTestRouter(fake)

	// 确认不存在的提醒不是错误，acknowledged=false
	rec, envelope := doRequest(t, router, http.MethodPost, "/monitor/api/v1/reminders/never/ack", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	result := envelope["result"].(map[string]any)
	assert.Equal(t, false, result["acknowledged"])
}

func TestAcknowledgeReminder_MalformedPath(t *testing.T) {
	router := setupTestRouter(&fakeMonitor{})

	rec, _ := doRequest(t, router, http.MethodPost, "/monitor/api/v1/reminders/feed-1/extra/ack", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doRequest(t, router, http.MethodPost, "/monitor/api/v1/reminders/feed-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterDeviceToken(t *testing.T) {
	router := setupTestRouter(&fakeMonitor{})

	rec, envelope := doRequest(t, router, http.MethodPost, "/monitor/api/v1/device-tokens",
		`{"token": "tok-abc", "worker_id": "worker-1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", envelope["type"])
	result := envelope["result"].(map[string]any)
	assert.Equal(t, "tok-abc", result["token"])
}

func TestRegisterDeviceToken_BadRequest(t *testing.T) {
	router := setupTestRouter(&fakeMonitor{})

	rec, envelope := doRequest(t, router, http.MethodPost, "/monitor/api/v1/device-tokens", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", envelope["type"])

	rec, envelope = doRequest(t, router, http.MethodPost, "/monitor/api/v1/device-tokens", `{"token": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "token is required", envelope["message"])
}

func TestTriggerCheck_ReportReturned(t *testing.T) {
	fake := &fakeMonitor{checkReport: &models.DispatchReport{Event: "sensor.alert"}}
	router := setupTestRouter(fake)

	rec, envelope := doRequest(t, router, http.MethodPost, "/monitor/api/v1/check", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(ResultSuccess), envelope["code"])
	result := envelope["result"].(map[string]any)
	report := result["report"].(map[string]any)
	assert.Equal(t, "sensor.alert", report["event"])
}

func TestTriggerCheck_AllInRange(t *testing.T) {
	// 没有越界时 report 为 null，仍是 success 信封
	router := setupTestRouter(&fakeMonitor{})

	rec, envelope := doRequest(t, router, http.MethodPost, "/monitor/api/v1/check", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", envelope["type"])
	result := envelope["result"].(map[string]any)
	assert.Nil(t, result["report"])
}

func TestTriggerCheck_FetchFailure(t *testing.T) {
	fake := &fakeMonitor{checkErr: errors.New("telemetry fetch failed: timeout")}
	router := setupTestRouter(fake)

	rec, envelope := doRequest(t, router, http.MethodPost, "/monitor/api/v1/check", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error", envelope["type"])
	assert.Contains(t, envelope["message"], "telemetry fetch failed")
}

func TestLatestTelemetry(t *testing.T) {
	fake := &fakeMonitor{latest: &models.TelemetrySnapshot{PondID: "pond-1", WaterLevel: 33}}
	router := setupTestRouter(fake)

	rec, envelope := doRequest(t, router, http.MethodGet, "/monitor/api/v1/telemetry/latest", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	result := envelope["result"].(map[string]any)
	assert.Equal(t, 33.0, result["waterLevelInside"])
}

func TestLatestTelemetry_CacheMiss(t *testing.T) {
	fake := &fakeMonitor{latestErr: telemetry.ErrCacheMiss}
	router := setupTestRouter(fake)

	rec, envelope := doRequest(t, router, http.MethodGet, "/monitor/api/v1/telemetry/latest", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error", envelope["type"])
	assert.Equal(t, "no telemetry available yet", envelope["message"])
}

func TestArchivedTelemetry_LimitParsing(t *testing.T) {
	fake := &fakeMonitor{archive: []models.TelemetrySnapshot{{PondID: "pond-1"}}}
	router := setupTestRouter(fake)

	_, envelope := doRequest(t, router, http.MethodGet, "/monitor/api/v1/telemetry/archive?limit=5", "")
	assert.Equal(t, 5, fake.archiveLimit)
	result := envelope["result"].(map[string]any)
	assert.Equal(t, float64(1), result["total"])

	// 非法 limit 回落到默认值
	doRequest(t, router, http.MethodGet, "/monitor/api/v1/telemetry/archive?limit=abc", "")
	assert.Equal(t, 50, fake.archiveLimit)

	doRequest(t, router, http.MethodGet, "/monitor/api/v1/telemetry/archive?limit=-3", "")
	assert.Equal(t, 50, fake.archiveLimit)
}
