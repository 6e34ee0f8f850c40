package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"sced-data/internal/domain"
)

// PostgresResourcesRepo 应急物资仓库 PostgreSQL 实现
type PostgresResourcesRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresResourcesRepo(db *sql.DB, logger *zap.Logger) *PostgresResourcesRepo {
	return &PostgresResourcesRepo{db: db, logger: logger}
}

const resourceColumns = `resource_id, resource_type, quantity, latitude, longitude, status`

func (r *PostgresResourcesRepo) GetResource(ctx context.Context, id int64) (*domain.Resource, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: resource id must be positive", domain.ErrInvalidArgument)
	}

	query := `
		SELECT ` + resourceColumns + `
		FROM resources
		WHERE resource_id = $1
	`

	var res domain.Resource
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&res.ID, &res.Type, &res.Quantity, &res.Latitude, &res.Longitude, &res.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("resource %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}

	return &res, nil
}

func (r *PostgresResourcesRepo) ListResources(ctx context.Context) ([]domain.Resource, error) {
	query := `
		SELECT ` + resourceColumns + `
		FROM resources
		ORDER BY resource_id
	`
	return r.queryResources(ctx, query)
}

func (r *PostgresResourcesRepo) ListResourcesByType(ctx context.Context, resourceType domain.ResourceType) ([]domain.Resource, error) {
	query := `
		SELECT ` + resourceColumns + `
		FROM resources
		WHERE resource_type = $1
		ORDER BY resource_id
	`
	return r.queryResources(ctx, query, string(resourceType))
}

func (r *PostgresResourcesRepo) ListAvailableResources(ctx context.Context) ([]domain.Resource, error) {
	query := `
		SELECT ` + resourceColumns + `
		FROM resources
		WHERE status = $1
		  AND quantity > 0
		ORDER BY resource_id
	`
	return r.queryResources(ctx, query, string(domain.ResourceAvailable))
}

func (r *PostgresResourcesRepo) CountResources(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return total, nil
}

func (r *PostgresResourcesRepo) queryResources(ctx context.Context, query string, args ...any) ([]domain.Resource, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	resources := []domain.Resource{}
	for rows.Next() {
		var res domain.Resource
		err := rows.Scan(&res.ID, &res.Type, &res.Quantity, &res.Latitude, &res.Longitude, &res.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resources: %w", err)
	}

	return resources, nil
}
