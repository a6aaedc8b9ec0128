package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router wraps the standard http.ServeMux (no third-party router needed).
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterMonitorRoutes mounts the monitoring endpoints.
func (r *Router) RegisterMonitorRoutes(h *MonitorHandler, ws http.HandlerFunc) {
	r.Handle("/monitor/api/v1/reminders", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListReminders(w, req)
	})

	// reminders/{feedingID}/ack
	r.Handle("/monitor/api/v1/reminders/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(req.URL.Path, "/monitor/api/v1/reminders/")
		feedingID, ok := strings.CutSuffix(rest, "/ack")
		if !ok || feedingID == "" || strings.Contains(feedingID, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.AcknowledgeReminder(w, req, feedingID)
	})

	r.Handle("/monitor/api/v1/device-tokens", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.RegisterDeviceToken(w, req)
	})

	r.Handle("/monitor/api/v1/check", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.TriggerCheck(w, req)
	})

	r.Handle("/monitor/api/v1/telemetry/latest", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.LatestTelemetry(w, req)
	})

	r.Handle("/monitor/api/v1/telemetry/archive", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ArchivedTelemetry(w, req)
	})

	// realtime broadcast channel
	r.Handle("/ws", ws)
}
