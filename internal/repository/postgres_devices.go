package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"sced-data/internal/domain"
)

// PostgresDevicesRepo 设备仓库 PostgreSQL 实现
type PostgresDevicesRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresDevicesRepo(db *sql.DB, logger *zap.Logger) *PostgresDevicesRepo {
	return &PostgresDevicesRepo{db: db, logger: logger}
}

const deviceColumns = `device_id, device_type, status, latitude, longitude`

func (r *PostgresDevicesRepo) GetDevice(ctx context.Context, q Queryer, id int64) (*domain.Device, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: device id must be positive", domain.ErrInvalidArgument)
	}
	if q == nil {
		q = r.db
	}

	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE device_id = $1
	`

	var d domain.Device
	err := q.QueryRowContext(ctx, query, id).Scan(
		&d.ID,
		&d.Type,
		&d.Status,
		&d.Latitude,
		&d.Longitude,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("device %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return &d, nil
}

func (r *PostgresDevicesRepo) ListDevices(ctx context.Context) ([]domain.Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		ORDER BY device_id
	`
	return r.queryDevices(ctx, query)
}

func (r *PostgresDevicesRepo) ListDevicesByStatus(ctx context.Context, status domain.DeviceStatus) ([]domain.Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE status = $1
		ORDER BY device_id
	`
	return r.queryDevices(ctx, query, string(status))
}

func (r *PostgresDevicesRepo) ListDevicesByType(ctx context.Context, deviceType domain.DeviceType) ([]domain.Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE device_type = $1
		ORDER BY device_id
	`
	return r.queryDevices(ctx, query, string(deviceType))
}

func (r *PostgresDevicesRepo) CountOperationalDevices(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM devices WHERE status = $1`

	var total int
	if err := r.db.QueryRowContext(ctx, query, string(domain.DeviceOperational)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count operational devices: %w", err)
	}
	return total, nil
}

func (r *PostgresDevicesRepo) queryDevices(ctx context.Context, query string, args ...any) ([]domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	devices := []domain.Device{}
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.ID, &d.Type, &d.Status, &d.Latitude, &d.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}

	return devices, nil
}
