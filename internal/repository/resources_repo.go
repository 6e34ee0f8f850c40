package repository

import (
	"context"

	"sced-data/internal/domain"
)

// ResourcesRepo 应急物资仓库接口
type ResourcesRepo interface {
	GetResource(ctx context.Context, id int64) (*domain.Resource, error)
	ListResources(ctx context.Context) ([]domain.Resource, error)
	ListResourcesByType(ctx context.Context, resourceType domain.ResourceType) ([]domain.Resource, error)
	// ListAvailableResources 状态可用且数量大于零的物资
	ListAvailableResources(ctx context.Context) ([]domain.Resource, error)
	CountResources(ctx context.Context) (int, error)
}
