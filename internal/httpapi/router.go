package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
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

// HandleHandler 支持 http.Handler 接口（用于 promhttp 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler 带访问日志中间件的最终 handler
func (r *Router) Handler() http.Handler {
	return WithRequestLog(r.logger, r.mux)
}

func requireMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterDeviceDataRoutes 读数上报
func (r *Router) RegisterDeviceDataRoutes(h *DeviceDataHandler) {
	r.Handle("/api/v1/device-data", requireMethod(http.MethodPost, h.Receive))
}

// RegisterDeviceRoutes 设备注册中心只读查询
func (r *Router) RegisterDeviceRoutes(h *DevicesHandler) {
	r.Handle("/api/v1/devices", requireMethod(http.MethodGet, h.List))
	r.Handle("/api/v1/devices/nearby", requireMethod(http.MethodGet, h.Nearby))
	r.Handle("/api/v1/devices/", requireMethod(http.MethodGet, h.ByID))
}

// RegisterStatisticsRoutes 统计查询
func (r *Router) RegisterStatisticsRoutes(h *StatisticsHandler) {
	r.Handle("/api/v1/statistics/dashboard", requireMethod(http.MethodGet, h.Dashboard))
	r.Handle("/api/v1/statistics/locations", requireMethod(http.MethodGet, h.Locations))
	r.Handle("/api/v1/statistics/device-types", requireMethod(http.MethodGet, h.DeviceTypes))
	r.Handle("/api/v1/statistics/trends", requireMethod(http.MethodGet, h.Trends))
	r.Handle("/api/v1/statistics/hotspots", requireMethod(http.MethodGet, h.Hotspots))
	r.Handle("/api/v1/statistics/export", requireMethod(http.MethodGet, h.Export))
}

// RegisterAlertRoutes 告警管理
func (r *Router) RegisterAlertRoutes(h *AlertsHandler) {
	r.Handle("/api/v1/alerts", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/api/v1/alerts/nearby", requireMethod(http.MethodGet, h.Nearby))
	r.Handle("/api/v1/alerts/", h.ByID)
}

// RegisterShelterRoutes 避难所
func (r *Router) RegisterShelterRoutes(h *SheltersHandler) {
	r.Handle("/api/v1/shelters", requireMethod(http.MethodGet, h.List))
	r.Handle("/api/v1/shelters/available", requireMethod(http.MethodGet, h.Available))
	r.Handle("/api/v1/shelters/nearby", requireMethod(http.MethodGet, h.Nearby))
	r.Handle("/api/v1/shelters/", h.ByID)
}

// RegisterResourceRoutes 应急物资
func (r *Router) RegisterResourceRoutes(h *ResourcesHandler) {
	r.Handle("/api/v1/resources", requireMethod(http.MethodGet, h.List))
	r.Handle("/api/v1/resources/available", requireMethod(http.MethodGet, h.Available))
	r.Handle("/api/v1/resources/nearby", requireMethod(http.MethodGet, h.Nearby))
	r.Handle("/api/v1/resources/", requireMethod(http.MethodGet, h.ByID))
}

// RegisterOpsRoutes 健康检查与指标
func (r *Router) RegisterOpsRoutes() {
	r.Handle("/healthz", requireMethod(http.MethodGet, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]any{"status": "ok"}))
	}))
	r.HandleHandler("/metrics", promhttp.Handler())
}
