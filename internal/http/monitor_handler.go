package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"prawncare-monitor/internal/models"
	"prawncare-monitor/internal/telemetry"

	"go.uber.org/zap"
)

// MonitorAPI is the slice of the monitor service consumed by the handlers.
type MonitorAPI interface {
	ListActiveReminders() []models.Reminder
	AcknowledgeReminder(feedingID string) bool
	RegisterDeviceToken(ctx context.Context, token string, workerID *string) (*models.DeviceToken, error)
	TriggerConditionCheck(ctx context.Context) (*models.DispatchReport, error)
	LatestSnapshot(ctx context.Context) (*models.TelemetrySnapshot, error)
	RecentArchive(ctx context.Context, limit int) ([]models.TelemetrySnapshot, error)
}

// MonitorHandler exposes the monitoring core over HTTP.
// Routing glue only: all decisions live in the service layer.
type MonitorHandler struct {
	api    MonitorAPI
	logger *zap.Logger
}

func NewMonitorHandler(api MonitorAPI, logger *zap.Logger) *MonitorHandler {
	return &MonitorHandler{api: api, logger: logger}
}

// ListReminders handles GET /monitor/api/v1/reminders
func (h *MonitorHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	reminders := h.api.ListActiveReminders()
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": reminders,
		"total": len(reminders),
	}))
}

// AcknowledgeReminder handles POST /monitor/api/v1/reminders/{feedingID}/ack
func (h *MonitorHandler) AcknowledgeReminder(w http.ResponseWriter, r *http.Request, feedingID string) {
	removed := h.api.AcknowledgeReminder(feedingID)
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"feeding_id":   feedingID,
		"acknowledged": removed,
	}))
}

// RegisterDeviceToken handles POST /monitor/api/v1/device-tokens
func (h *MonitorHandler) RegisterDeviceToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string  `json:"token"`
		WorkerID *string `json:"worker_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.Token == "" {
		writeJSON(w, http.StatusBadRequest, Fail("token is required"))
		return
	}

	dt, err := h.api.RegisterDeviceToken(r.Context(), req.Token, req.WorkerID)
	if err != nil {
		h.logger.Error("Device token registration failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to register device token"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(dt))
}

// TriggerCheck handles POST /monitor/api/v1/check (manual condition-scan trigger).
// Returns the dispatch report; result is null when all metrics are in range.
func (h *MonitorHandler) TriggerCheck(w http.ResponseWriter, r *http.Request) {
	report, err := h.api.TriggerConditionCheck(r.Context())
	if err != nil {
		h.logger.Warn("Manual condition check failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"report": report,
	}))
}

// LatestTelemetry handles GET /monitor/api/v1/telemetry/latest
func (h *MonitorHandler) LatestTelemetry(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.api.LatestSnapshot(r.Context())
	if err != nil {
		if errors.Is(err, telemetry.ErrCacheMiss) {
			writeJSON(w, http.StatusOK, Fail("no telemetry available yet"))
			return
		}
		h.logger.Error("Failed to read latest telemetry", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to read latest telemetry"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(snapshot))
}

// ArchivedTelemetry handles GET /monitor/api/v1/telemetry/archive?limit=N
func (h *MonitorHandler) ArchivedTelemetry(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	snapshots, err := h.api.RecentArchive(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to read telemetry archive", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to read telemetry archive"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": snapshots,
		"total": len(snapshots),
	}))
}
