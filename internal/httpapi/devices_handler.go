package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"sced-data/internal/domain"
	"sced-data/internal/service"
)

// DevicesHandler 设备注册中心只读查询
type DevicesHandler struct {
	devices *service.DeviceService
	logger  *zap.Logger
}

func NewDevicesHandler(devices *service.DeviceService, logger *zap.Logger) *DevicesHandler {
	return &DevicesHandler{devices: devices, logger: logger}
}

// List GET /api/v1/devices（可选 type / status 过滤，只取其一）
func (h *DevicesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		devices []domain.Device
		err     error
	)
	switch {
	case q.Get("type") != "":
		devices, err = h.devices.ListDevicesByType(ctx, domain.DeviceType(q.Get("type")))
	case q.Get("status") != "":
		devices, err = h.devices.ListDevicesByStatus(ctx, domain.DeviceStatus(q.Get("status")))
	default:
		devices, err = h.devices.ListDevices(ctx)
	}
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(devicesToJSON(devices)))
}

// Nearby GET /api/v1/devices/nearby?lat&lng&radiusKm
func (h *DevicesHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, lng, radius, err := parseNearbyParams(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	ranked, err := h.devices.DevicesInRadius(r.Context(), lat, lng, radius)
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

// ByID GET /api/v1/devices/{id}
func (h *DevicesHandler) ByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(strings.TrimPrefix(r.URL.Path, "/api/v1/devices/"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	device, err := h.devices.GetDevice(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(device.ToJSON()))
}

func devicesToJSON(devices []domain.Device) []map[string]any {
	items := make([]map[string]any, 0, len(devices))
	for i := range devices {
		items = append(items, devices[i].ToJSON())
	}
	return items
}
