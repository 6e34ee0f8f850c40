package httpapi

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"sced-data/internal/domain"
	"sced-data/internal/service"
)

// StatisticsHandler 统计查询入口
type StatisticsHandler struct {
	stats  *service.StatisticsService
	logger *zap.Logger
}

func NewStatisticsHandler(stats *service.StatisticsService, logger *zap.Logger) *StatisticsHandler {
	return &StatisticsHandler{stats: stats, logger: logger}
}

// Dashboard GET /api/v1/statistics/dashboard
func (h *StatisticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	dashboard, err := h.stats.DashboardStatistics(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(dashboard))
}

// Locations GET /api/v1/statistics/locations
// radiusKm/centerLat/centerLng 三个参数要么都给要么都不给
func (h *StatisticsHandler) Locations(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var filter *service.RadiusFilter
	q := r.URL.Query()
	radius, centerLat, centerLng := q.Get("radiusKm"), q.Get("centerLat"), q.Get("centerLng")
	if radius != "" || centerLat != "" || centerLng != "" {
		if radius == "" || centerLat == "" || centerLng == "" {
			writeServiceError(w, h.logger,
				fmt.Errorf("%w: radiusKm, centerLat and centerLng must be supplied together", domain.ErrInvalidArgument))
			return
		}
		filter = &service.RadiusFilter{}
		if filter.RadiusKm, err = parseFloat(radius); err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		if filter.CenterLat, err = parseFloat(centerLat); err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		if filter.CenterLng, err = parseFloat(centerLng); err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
	}

	stats, err := h.stats.LocationStatistics(r.Context(), from, to, filter)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(stats))
}

// DeviceTypes GET /api/v1/statistics/device-types
func (h *StatisticsHandler) DeviceTypes(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	stats, err := h.stats.DeviceTypeStatistics(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(stats))
}

// Trends GET /api/v1/statistics/trends
func (h *StatisticsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	trends, err := h.stats.AlertTrends(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(trends))
}

// Hotspots GET /api/v1/statistics/hotspots
func (h *StatisticsHandler) Hotspots(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	topN := parseInt(r.URL.Query().Get("topN"), 10)

	hotspots, err := h.stats.GeographicHotspots(r.Context(), from, to, topN)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(hotspots))
}

// Export GET /api/v1/statistics/export
// 整个面板导出为 .xlsx
func (h *StatisticsHandler) Export(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	dashboard, err := h.stats.DashboardStatistics(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	raw, err := service.ExportDashboardExcel(dashboard)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="dashboard.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
