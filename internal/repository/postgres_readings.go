package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"sced-data/internal/domain"
)

// PostgresReadingsRepo 读数仓库 PostgreSQL 实现（device_data 表）
type PostgresReadingsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresReadingsRepo(db *sql.DB, logger *zap.Logger) *PostgresReadingsRepo {
	return &PostgresReadingsRepo{db: db, logger: logger}
}

func (r *PostgresReadingsRepo) InsertReading(ctx context.Context, q Queryer, reading *domain.Reading) (*domain.Reading, error) {
	if reading == nil {
		return nil, fmt.Errorf("%w: reading is required", domain.ErrInvalidArgument)
	}
	if q == nil {
		q = r.db
	}

	query := `
		INSERT INTO device_data (device_id, value, timestamp)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	stored := *reading
	err := q.QueryRowContext(ctx, query,
		reading.DeviceID,
		reading.Value,
		reading.Timestamp,
	).Scan(&stored.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reading: %w", err)
	}

	return &stored, nil
}

func (r *PostgresReadingsRepo) ListReadingsForDevices(ctx context.Context, deviceIDs []int64, from, to time.Time) ([]domain.Reading, error) {
	if len(deviceIDs) == 0 {
		return []domain.Reading{}, nil
	}

	query := `
		SELECT id, device_id, value, timestamp
		FROM device_data
		WHERE device_id = ANY($1)
		  AND timestamp >= $2
		  AND timestamp <= $3
		ORDER BY timestamp
	`

	return r.queryReadings(ctx, query, pq.Array(deviceIDs), from, to)
}

func (r *PostgresReadingsRepo) ListReadingsByDevice(ctx context.Context, deviceID int64, from, to time.Time) ([]domain.Reading, error) {
	if deviceID <= 0 {
		return nil, fmt.Errorf("%w: device id must be positive", domain.ErrInvalidArgument)
	}

	query := `
		SELECT id, device_id, value, timestamp
		FROM device_data
		WHERE device_id = $1
		  AND timestamp >= $2
		  AND timestamp <= $3
		ORDER BY timestamp
	`

	return r.queryReadings(ctx, query, deviceID, from, to)
}

func (r *PostgresReadingsRepo) queryReadings(ctx context.Context, query string, args ...any) ([]domain.Reading, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	readings := []domain.Reading{}
	for rows.Next() {
		var rd domain.Reading
		if err := rows.Scan(&rd.ID, &rd.DeviceID, &rd.Value, &rd.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate readings: %w", err)
	}

	return readings, nil
}
