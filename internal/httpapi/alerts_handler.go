package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"sced-data/internal/domain"
	"sced-data/internal/service"
)

// AlertsHandler 告警查询与人工告警管理
type AlertsHandler struct {
	alerts *service.AlertService
	logger *zap.Logger
}

func NewAlertsHandler(alerts *service.AlertService, logger *zap.Logger) *AlertsHandler {
	return &AlertsHandler{alerts: alerts, logger: logger}
}

type createAlertRequest struct {
	Type        string  `json:"type"`
	Severity    int     `json:"severity"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timestamp   string  `json:"timestamp"`
	Description string  `json:"description"`
}

// Create POST /api/v1/alerts
func (h *AlertsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeServiceError(w, h.logger, fmt.Errorf("%w: malformed request body", domain.ErrInvalidArgument))
		return
	}

	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		writeServiceError(w, h.logger, fmt.Errorf("%w: invalid timestamp %q", domain.ErrInvalidArgument, req.Timestamp))
		return
	}

	alert, err := h.alerts.CreateAlert(r.Context(), &domain.Alert{
		Type:        domain.AlertType(req.Type),
		Severity:    req.Severity,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Timestamp:   ts,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(alert.ToJSON()))
}

// List GET /api/v1/alerts（可选 type / severity / since 过滤，只取其一）
func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	var (
		alerts []domain.Alert
		err    error
	)
	switch {
	case q.Get("type") != "":
		alerts, err = h.alerts.ListAlertsByType(ctx, domain.AlertType(q.Get("type")))
	case q.Get("severity") != "":
		alerts, err = h.alerts.ListAlertsBySeverity(ctx, parseInt(q.Get("severity"), 0))
	case q.Get("since") != "":
		var since time.Time
		since, err = time.Parse(time.RFC3339, q.Get("since"))
		if err != nil {
			writeServiceError(w, h.logger, fmt.Errorf("%w: invalid since timestamp", domain.ErrInvalidArgument))
			return
		}
		alerts, err = h.alerts.ListAlertsSince(ctx, since)
	default:
		alerts, err = h.alerts.ListAlerts(ctx)
	}
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(alertsToJSON(alerts)))
}

// Nearby GET /api/v1/alerts/nearby?lat&lng&radiusKm
func (h *AlertsHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, lng, radius, err := parseNearbyParams(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	ranked, err := h.alerts.AlertsInRadius(r.Context(), lat, lng, radius)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	items := make([]map[string]any, 0, len(ranked))
	for _, entry := range ranked {
		item := entry.Item.ToJSON()
		item["distanceKm"] = entry.DistanceKm
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

// ByID GET|DELETE /api/v1/alerts/{id}
func (h *AlertsHandler) ByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		alert, err := h.alerts.GetAlert(r.Context(), id)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(alert.ToJSON()))
	case http.MethodDelete:
		if err := h.alerts.DeleteAlert(r.Context(), id); err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": id}))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func alertsToJSON(alerts []domain.Alert) []map[string]any {
	items := make([]map[string]any, 0, len(alerts))
	for i := range alerts {
		items = append(items, alerts[i].ToJSON())
	}
	return items
}

func parseNearbyParams(r *http.Request) (lat, lng, radius float64, err error) {
	q := r.URL.Query()
	if lat, err = parseFloat(q.Get("lat")); err != nil {
		return
	}
	if lng, err = parseFloat(q.Get("lng")); err != nil {
		return
	}
	radius, err = parseFloat(q.Get("radiusKm"))
	return
}
