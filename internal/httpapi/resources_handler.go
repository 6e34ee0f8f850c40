package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"sced-data/internal/domain"
	"sced-data/internal/service"
)

// ResourcesHandler 应急物资查询
type ResourcesHandler struct {
	resources *service.ResourceService
	logger    *zap.Logger
}

func NewResourcesHandler(resources *service.ResourceService, logger *zap.Logger) *ResourcesHandler {
	return &ResourcesHandler{resources: resources, logger: logger}
}

// List GET /api/v1/resources（可选 type 过滤）
func (h *ResourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		resources []domain.Resource
		err       error
	)
	if t := r.URL.Query().Get("type"); t != "" {
		resources, err = h.resources.ListResourcesByType(ctx, domain.ResourceType(t))
	} else {
		resources, err = h.resources.ListResources(ctx)
	}
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resourcesToJSON(resources)))
}

// Available GET /api/v1/resources/available
func (h *ResourcesHandler) Available(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resources.ListAvailableResources(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resourcesToJSON(resources)))
}

// Nearby GET /api/v1/resources/nearby?lat&lng&radiusKm
func (h *ResourcesHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, lng, radius, err := parseNearbyParams(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	ranked, err := h.resources.ResourcesInRadius(r.Context(), lat, lng, radius)
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

// ByID GET /api/v1/resources/{id}
func (h *ResourcesHandler) ByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(strings.TrimPrefix(r.URL.Path, "/api/v1/resources/"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resource, err := h.resources.GetResource(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resource.ToJSON()))
}

func resourcesToJSON(resources []domain.Resource) []map[string]any {
	items := make([]map[string]any, 0, len(resources))
	for i := range resources {
		items = append(items, resources[i].ToJSON())
	}
	return items
}
