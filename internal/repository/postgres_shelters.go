package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"sced-data/internal/domain"
)

// PostgresSheltersRepo 避难所仓库 PostgreSQL 实现
type PostgresSheltersRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresSheltersRepo(db *sql.DB, logger *zap.Logger) *PostgresSheltersRepo {
	return &PostgresSheltersRepo{db: db, logger: logger}
}

const shelterColumns = `shelter_id, name, address, capacity, current_occupancy, latitude, longitude`

func (r *PostgresSheltersRepo) GetShelter(ctx context.Context, id int64) (*domain.Shelter, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: shelter id must be positive", domain.ErrInvalidArgument)
	}

	query := `
		SELECT ` + shelterColumns + `
		FROM shelters
		WHERE shelter_id = $1
	`

	var s domain.Shelter
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Address, &s.Capacity, &s.CurrentOccupancy, &s.Latitude, &s.Longitude,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("shelter %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get shelter: %w", err)
	}

	return &s, nil
}

func (r *PostgresSheltersRepo) ListShelters(ctx context.Context) ([]domain.Shelter, error) {
	query := `
		SELECT ` + shelterColumns + `
		FROM shelters
		ORDER BY shelter_id
	`
	return r.queryShelters(ctx, query)
}

func (r *PostgresSheltersRepo) ListAvailableShelters(ctx context.Context) ([]domain.Shelter, error) {
	query := `
		SELECT ` + shelterColumns + `
		FROM shelters
		WHERE current_occupancy < capacity
		ORDER BY current_occupancy
	`
	return r.queryShelters(ctx, query)
}

func (r *PostgresSheltersRepo) CountShelters(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shelters`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count shelters: %w", err)
	}
	return total, nil
}

func (r *PostgresSheltersRepo) UpdateOccupancy(ctx context.Context, id int64, occupancy int) error {
	if id <= 0 {
		return fmt.Errorf("%w: shelter id must be positive", domain.ErrInvalidArgument)
	}
	if occupancy < 0 {
		return fmt.Errorf("%w: occupancy must not be negative", domain.ErrInvalidArgument)
	}

	// capacity 上限校验放在 SQL 里，避免读取-修改竞争
	query := `
		UPDATE shelters
		SET current_occupancy = $1
		WHERE shelter_id = $2
		  AND capacity >= $1
	`

	result, err := r.db.ExecContext(ctx, query, occupancy, id)
	if err != nil {
		return fmt.Errorf("failed to update shelter occupancy: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// 不存在或超出容量，二者对调用方都是拒绝
		if _, getErr := r.GetShelter(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: occupancy exceeds capacity", domain.ErrInvalidArgument)
	}

	return nil
}

func (r *PostgresSheltersRepo) queryShelters(ctx context.Context, query string, args ...any) ([]domain.Shelter, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shelters: %w", err)
	}
	defer rows.Close()

	shelters := []domain.Shelter{}
	for rows.Next() {
		var s domain.Shelter
		err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.Capacity, &s.CurrentOccupancy, &s.Latitude, &s.Longitude)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shelter: %w", err)
		}
		shelters = append(shelters, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shelters: %w", err)
	}

	return shelters, nil
}
