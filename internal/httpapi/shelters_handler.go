package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"sced-data/internal/domain"
	"sced-data/internal/service"
)

// SheltersHandler 避难所查询与入住维护
type SheltersHandler struct {
	shelters *service.ShelterService
	logger   *zap.Logger
}

func NewSheltersHandler(shelters *service.ShelterService, logger *zap.Logger) *SheltersHandler {
	return &SheltersHandler{shelters: shelters, logger: logger}
}

// List GET /api/v1/shelters
func (h *SheltersHandler) List(w http.ResponseWriter, r *http.Request) {
	shelters, err := h.shelters.ListShelters(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sheltersToJSON(shelters)))
}

// Available GET /api/v1/shelters/available
func (h *SheltersHandler) Available(w http.ResponseWriter, r *http.Request) {
	shelters, err := h.shelters.ListAvailableShelters(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sheltersToJSON(shelters)))
}

// Nearby GET /api/v1/shelters/nearby?lat&lng&radiusKm
func (h *SheltersHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, lng, radius, err := parseNearbyParams(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	ranked, err := h.shelters.SheltersInRadius(r.Context(), lat, lng, radius)
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

// ByID GET /api/v1/shelters/{id}，PUT /api/v1/shelters/{id}/occupancy
func (h *SheltersHandler) ByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/shelters/")
	parts := strings.SplitN(rest, "/", 2)

	id, err := parseID(parts[0])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if len(parts) == 2 && parts[1] == "occupancy" {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.updateOccupancy(w, r, id)
		return
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	shelter, err := h.shelters.GetShelter(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(shelter.ToJSON()))
}

type occupancyRequest struct {
	Occupancy int `json:"occupancy"`
}

func (h *SheltersHandler) updateOccupancy(w http.ResponseWriter, r *http.Request, id int64) {
	req := occupancyRequest{Occupancy: -1}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeServiceError(w, h.logger, fmt.Errorf("%w: malformed request body", domain.ErrInvalidArgument))
		return
	}

	if err := h.shelters.UpdateOccupancy(r.Context(), id, req.Occupancy); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"id": id, "occupancy": req.Occupancy}))
}

func sheltersToJSON(shelters []domain.Shelter) []map[string]any {
	items := make([]map[string]any, 0, len(shelters))
	for i := range shelters {
		items = append(items, shelters[i].ToJSON())
	}
	return items
}
