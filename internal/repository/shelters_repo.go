package repository

import (
	"context"

	"sced-data/internal/domain"
)

// SheltersRepo 避难所仓库接口
type SheltersRepo interface {
	GetShelter(ctx context.Context, id int64) (*domain.Shelter, error)
	ListShelters(ctx context.Context) ([]domain.Shelter, error)
	// ListAvailableShelters 仍有空位的避难所，按当前入住人数升序
	ListAvailableShelters(ctx context.Context) ([]domain.Shelter, error)
	CountShelters(ctx context.Context) (int, error)
	// UpdateOccupancy 更新入住人数；不存在返回 domain.ErrNotFound
	UpdateOccupancy(ctx context.Context, id int64, occupancy int) error
}
