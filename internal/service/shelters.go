package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sced-data/internal/domain"
	"sced-data/internal/geo"
	"sced-data/internal/repository"
)

// ShelterService 避难所查询与入住人数维护
type ShelterService struct {
	shelters repository.SheltersRepo
	logger   *zap.Logger
}

func NewShelterService(shelters repository.SheltersRepo, logger *zap.Logger) *ShelterService {
	return &ShelterService{shelters: shelters, logger: logger}
}

func (s *ShelterService) GetShelter(ctx context.Context, id int64) (*domain.Shelter, error) {
	return s.shelters.GetShelter(ctx, id)
}

func (s *ShelterService) ListShelters(ctx context.Context) ([]domain.Shelter, error) {
	return s.shelters.ListShelters(ctx)
}

func (s *ShelterService) ListAvailableShelters(ctx context.Context) ([]domain.Shelter, error) {
	return s.shelters.ListAvailableShelters(ctx)
}

func (s *ShelterService) UpdateOccupancy(ctx context.Context, id int64, occupancy int) error {
	if err := s.shelters.UpdateOccupancy(ctx, id, occupancy); err != nil {
		return err
	}
	s.logger.Info("shelter occupancy updated",
		zap.Int64("shelter_id", id),
		zap.Int("occupancy", occupancy),
	)
	return nil
}

// SheltersInRadius 半径内的避难所，按距离升序
func (s *ShelterService) SheltersInRadius(ctx context.Context, lat, lng, radiusKm float64) ([]geo.Ranked[domain.Shelter], error) {
	if !domain.ValidCoordinates(lat, lng) {
		return nil, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidArgument)
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", domain.ErrInvalidArgument)
	}

	shelters, err := s.shelters.ListShelters(ctx)
	if err != nil {
		return nil, err
	}

	inRadius := []domain.Shelter{}
	for _, sh := range shelters {
		if geo.WithinRadius(lat, lng, sh.Latitude, sh.Longitude, radiusKm) {
			inRadius = append(inRadius, sh)
		}
	}
	return geo.RankByProximity(lat, lng, inRadius, func(sh domain.Shelter) (float64, float64) {
		return sh.Latitude, sh.Longitude
	}), nil
}
