package repository

import (
	"context"

	"sced-data/internal/domain"
)

// DevicesRepo 设备仓库接口（只读：设备注册中心归外部系统所有）
type DevicesRepo interface {
	// GetDevice 按 ID 查询单个设备；不存在返回 domain.ErrNotFound
	// q 由调用方传入，采集事务内传 *sql.Tx
	GetDevice(ctx context.Context, q Queryer, id int64) (*domain.Device, error)
	ListDevices(ctx context.Context) ([]domain.Device, error)
	ListDevicesByStatus(ctx context.Context, status domain.DeviceStatus) ([]domain.Device, error)
	ListDevicesByType(ctx context.Context, deviceType domain.DeviceType) ([]domain.Device, error)
	CountOperationalDevices(ctx context.Context) (int, error)
}
