package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sced-data/internal/domain"
	"sced-data/internal/geo"
	"sced-data/internal/repository"
)

// DeviceService 设备注册中心只读查询
type DeviceService struct {
	devices repository.DevicesRepo
	logger  *zap.Logger
}

func NewDeviceService(devices repository.DevicesRepo, logger *zap.Logger) *DeviceService {
	return &DeviceService{devices: devices, logger: logger}
}

func (s *DeviceService) GetDevice(ctx context.Context, id int64) (*domain.Device, error) {
	return s.devices.GetDevice(ctx, nil, id)
}

func (s *DeviceService) ListDevices(ctx context.Context) ([]domain.Device, error) {
	return s.devices.ListDevices(ctx)
}

func (s *DeviceService) ListDevicesByStatus(ctx context.Context, status domain.DeviceStatus) ([]domain.Device, error) {
	return s.devices.ListDevicesByStatus(ctx, status)
}

func (s *DeviceService) ListDevicesByType(ctx context.Context, deviceType domain.DeviceType) ([]domain.Device, error) {
	return s.devices.ListDevicesByType(ctx, deviceType)
}

// DevicesInRadius 半径内的设备，按距离升序
func (s *DeviceService) DevicesInRadius(ctx context.Context, lat, lng, radiusKm float64) ([]geo.Ranked[domain.Device], error) {
	if !domain.ValidCoordinates(lat, lng) {
		return nil, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidArgument)
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", domain.ErrInvalidArgument)
	}

	devices, err := s.devices.ListDevices(ctx)
	if err != nil {
		return nil, err
	}

	inRadius := []domain.Device{}
	for _, d := range devices {
		if geo.WithinRadius(lat, lng, d.Latitude, d.Longitude, radiusKm) {
			inRadius = append(inRadius, d)
		}
	}
	return geo.RankByProximity(lat, lng, inRadius, func(d domain.Device) (float64, float64) {
		return d.Latitude, d.Longitude
	}), nil
}
