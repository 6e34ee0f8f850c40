package httpapi

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"sced-data/internal/domain"
	"sced-data/internal/service"
)

// DeviceDataHandler 读数上报入口
type DeviceDataHandler struct {
	ingest *service.IngestService
	logger *zap.Logger
}

func NewDeviceDataHandler(ingest *service.IngestService, logger *zap.Logger) *DeviceDataHandler {
	return &DeviceDataHandler{ingest: ingest, logger: logger}
}

type deviceDataRequest struct {
	DeviceID int64   `json:"deviceId"`
	Value    float64 `json:"value"`
}

// Receive POST /api/v1/device-data
func (h *DeviceDataHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req deviceDataRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeServiceError(w, h.logger, fmt.Errorf("%w: malformed request body", domain.ErrInvalidArgument))
		return
	}

	reading, alert, err := h.ingest.ReceiveData(r.Context(), req.DeviceID, req.Value)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	result := map[string]any{
		"reading": reading.ToJSON(),
	}
	if alert != nil {
		result["alert"] = alert.ToJSON()
	}
	writeJSON(w, http.StatusCreated, Ok(result))
}
