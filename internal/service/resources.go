package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sced-data/internal/domain"
	"sced-data/internal/geo"
	"sced-data/internal/repository"
)

// ResourceService 应急物资查询
type ResourceService struct {
	resources repository.ResourcesRepo
	logger    *zap.Logger
}

func NewResourceService(resources repository.ResourcesRepo, logger *zap.Logger) *ResourceService {
	return &ResourceService{resources: resources, logger: logger}
}

func (s *ResourceService) GetResource(ctx context.Context, id int64) (*domain.Resource, error) {
	return s.resources.GetResource(ctx, id)
}

func (s *ResourceService) ListResources(ctx context.Context) ([]domain.Resource, error) {
	return s.resources.ListResources(ctx)
}

func (s *ResourceService) ListResourcesByType(ctx context.Context, resourceType domain.ResourceType) ([]domain.Resource, error) {
	if !resourceType.Valid() {
		return nil, fmt.Errorf("%w: unknown resource type %q", domain.ErrInvalidArgument, resourceType)
	}
	return s.resources.ListResourcesByType(ctx, resourceType)
}

func (s *ResourceService) ListAvailableResources(ctx context.Context) ([]domain.Resource, error) {
	return s.resources.ListAvailableResources(ctx)
}

// ResourcesInRadius 半径内的物资，按距离升序
func (s *ResourceService) ResourcesInRadius(ctx context.Context, lat, lng, radiusKm float64) ([]geo.Ranked[domain.Resource], error) {
	if !domain.ValidCoordinates(lat, lng) {
		return nil, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidArgument)
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", domain.ErrInvalidArgument)
	}

	resources, err := s.resources.ListResources(ctx)
	if err != nil {
		return nil, err
	}

	inRadius := []domain.Resource{}
	for _, res := range resources {
		if geo.WithinRadius(lat, lng, res.Latitude, res.Longitude, radiusKm) {
			inRadius = append(inRadius, res)
		}
	}
	return geo.RankByProximity(lat, lng, inRadius, func(res domain.Resource) (float64, float64) {
		return res.Latitude, res.Longitude
	}), nil
}
