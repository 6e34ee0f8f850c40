package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sced-data/internal/domain"
)

// PostgresAlertsRepo 告警仓库 PostgreSQL 实现
type PostgresAlertsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresAlertsRepo(db *sql.DB, logger *zap.Logger) *PostgresAlertsRepo {
	return &PostgresAlertsRepo{db: db, logger: logger}
}

const alertColumns = `alert_id, alert_type, severity, latitude, longitude, timestamp, description`

func (r *PostgresAlertsRepo) InsertAlert(ctx context.Context, q Queryer, alert *domain.Alert) (*domain.Alert, error) {
	if alert == nil {
		return nil, fmt.Errorf("%w: alert is required", domain.ErrInvalidArgument)
	}
	if q == nil {
		q = r.db
	}

	query := `
		INSERT INTO alerts (alert_type, severity, latitude, longitude, timestamp, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING alert_id
	`

	stored := *alert
	err := q.QueryRowContext(ctx, query,
		string(alert.Type),
		alert.Severity,
		alert.Latitude,
		alert.Longitude,
		alert.Timestamp,
		alert.Description,
	).Scan(&stored.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert alert: %w", err)
	}

	return &stored, nil
}

func (r *PostgresAlertsRepo) GetAlert(ctx context.Context, id int64) (*domain.Alert, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: alert id must be positive", domain.ErrInvalidArgument)
	}

	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE alert_id = $1
	`

	var a domain.Alert
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.Type,
		&a.Severity,
		&a.Latitude,
		&a.Longitude,
		&a.Timestamp,
		&a.Description,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("alert %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return &a, nil
}

func (r *PostgresAlertsRepo) ListAlerts(ctx context.Context) ([]domain.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		ORDER BY timestamp DESC
	`
	return r.queryAlerts(ctx, query)
}

func (r *PostgresAlertsRepo) ListAlertsInWindow(ctx context.Context, from, to time.Time) ([]domain.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE timestamp >= $1
		  AND timestamp <= $2
		ORDER BY timestamp
	`
	return r.queryAlerts(ctx, query, from, to)
}

func (r *PostgresAlertsRepo) ListAlertsByType(ctx context.Context, alertType domain.AlertType) ([]domain.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE alert_type = $1
		ORDER BY timestamp DESC
	`
	return r.queryAlerts(ctx, query, string(alertType))
}

func (r *PostgresAlertsRepo) ListAlertsBySeverity(ctx context.Context, severity int) ([]domain.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE severity = $1
		ORDER BY timestamp DESC
	`
	return r.queryAlerts(ctx, query, severity)
}

func (r *PostgresAlertsRepo) ListAlertsSince(ctx context.Context, since time.Time) ([]domain.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE timestamp >= $1
		ORDER BY timestamp DESC
	`
	return r.queryAlerts(ctx, query, since)
}

func (r *PostgresAlertsRepo) CountAlertsInWindow(ctx context.Context, from, to time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM alerts WHERE timestamp >= $1 AND timestamp <= $2`

	var total int
	if err := r.db.QueryRowContext(ctx, query, from, to).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return total, nil
}

func (r *PostgresAlertsRepo) DeleteAlert(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: alert id must be positive", domain.ErrInvalidArgument)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE alert_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("alert %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresAlertsRepo) queryAlerts(ctx context.Context, query string, args ...any) ([]domain.Alert, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []domain.Alert{}
	for rows.Next() {
		var a domain.Alert
		err := rows.Scan(
			&a.ID,
			&a.Type,
			&a.Severity,
			&a.Latitude,
			&a.Longitude,
			&a.Timestamp,
			&a.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}
