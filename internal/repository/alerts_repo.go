package repository

import (
	"context"
	"time"

	"sced-data/internal/domain"
)

// AlertsRepo 告警仓库接口
type AlertsRepo interface {
	// InsertAlert 写入一条告警并返回持久化后的实体（带生成的 ID）
	// q 由调用方传入，采集事务内传 *sql.Tx
	InsertAlert(ctx context.Context, q Queryer, alert *domain.Alert) (*domain.Alert, error)
	// GetAlert 按 ID 查询；不存在返回 domain.ErrNotFound
	GetAlert(ctx context.Context, id int64) (*domain.Alert, error)
	ListAlerts(ctx context.Context) ([]domain.Alert, error)
	// ListAlertsInWindow 查询时间窗口 [from, to] 内的全部告警
	ListAlertsInWindow(ctx context.Context, from, to time.Time) ([]domain.Alert, error)
	ListAlertsByType(ctx context.Context, alertType domain.AlertType) ([]domain.Alert, error)
	ListAlertsBySeverity(ctx context.Context, severity int) ([]domain.Alert, error)
	// ListAlertsSince 查询 since 之后的告警，按时间倒序
	ListAlertsSince(ctx context.Context, since time.Time) ([]domain.Alert, error)
	CountAlertsInWindow(ctx context.Context, from, to time.Time) (int, error)
	// DeleteAlert 删除；不存在返回 domain.ErrNotFound
	DeleteAlert(ctx context.Context, id int64) error
}
