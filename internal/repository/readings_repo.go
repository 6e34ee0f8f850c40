package repository

import (
	"context"
	"time"

	"sced-data/internal/domain"
)

// ReadingsRepo 读数仓库接口
type ReadingsRepo interface {
	// InsertReading 写入一条读数并返回持久化后的实体（带生成的 ID）
	// q 由调用方传入，采集事务内传 *sql.Tx
	InsertReading(ctx context.Context, q Queryer, reading *domain.Reading) (*domain.Reading, error)
	// ListReadingsForDevices 查询一组设备在时间窗口内的全部读数
	ListReadingsForDevices(ctx context.Context, deviceIDs []int64, from, to time.Time) ([]domain.Reading, error)
	// ListReadingsByDevice 查询单个设备在时间窗口内的读数
	ListReadingsByDevice(ctx context.Context, deviceID int64, from, to time.Time) ([]domain.Reading, error)
}
