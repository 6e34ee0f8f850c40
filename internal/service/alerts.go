package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"sced-data/internal/domain"
	"sced-data/internal/geo"
	"sced-data/internal/repository"
)

// AlertService 人工告警管理与告警查询
// 系统告警由采集管道生成；这里只负责外部权威（运维人员）手工建的告警
type AlertService struct {
	alerts repository.AlertsRepo
	clock  clockwork.Clock
	logger *zap.Logger
}

func NewAlertService(alerts repository.AlertsRepo, clock clockwork.Clock, logger *zap.Logger) *AlertService {
	return &AlertService{alerts: alerts, clock: clock, logger: logger}
}

const maxDescriptionLen = 1000

// CreateAlert 手工创建告警
// 时间戳必须落在 (now−1年, now+1小时] 区间内
func (s *AlertService) CreateAlert(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
	if alert == nil {
		return nil, fmt.Errorf("%w: alert is required", domain.ErrInvalidArgument)
	}
	if !alert.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown alert type %q", domain.ErrInvalidArgument, alert.Type)
	}
	if alert.Severity < 1 || alert.Severity > 5 {
		return nil, fmt.Errorf("%w: severity must be between 1 and 5", domain.ErrInvalidArgument)
	}
	if alert.Description == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrInvalidArgument)
	}
	if len(alert.Description) > maxDescriptionLen {
		return nil, fmt.Errorf("%w: description must not exceed %d characters", domain.ErrInvalidArgument, maxDescriptionLen)
	}
	if !domain.ValidCoordinates(alert.Latitude, alert.Longitude) {
		return nil, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidArgument)
	}

	now := s.clock.Now().UTC()
	if alert.Timestamp.After(now.Add(time.Hour)) {
		return nil, fmt.Errorf("%w: timestamp must not be more than 1 hour in the future", domain.ErrInvalidArgument)
	}
	if !alert.Timestamp.After(now.AddDate(-1, 0, 0)) {
		return nil, fmt.Errorf("%w: timestamp must not be more than 1 year in the past", domain.ErrInvalidArgument)
	}

	stored, err := s.alerts.InsertAlert(ctx, nil, alert)
	if err != nil {
		return nil, err
	}

	s.logger.Info("manual alert created",
		zap.Int64("alert_id", stored.ID),
		zap.String("type", string(stored.Type)),
		zap.Int("severity", stored.Severity),
	)
	return stored, nil
}

func (s *AlertService) GetAlert(ctx context.Context, id int64) (*domain.Alert, error) {
	return s.alerts.GetAlert(ctx, id)
}

func (s *AlertService) ListAlerts(ctx context.Context) ([]domain.Alert, error) {
	return s.alerts.ListAlerts(ctx)
}

func (s *AlertService) ListAlertsByType(ctx context.Context, alertType domain.AlertType) ([]domain.Alert, error) {
	if !alertType.Valid() {
		return nil, fmt.Errorf("%w: unknown alert type %q", domain.ErrInvalidArgument, alertType)
	}
	return s.alerts.ListAlertsByType(ctx, alertType)
}

func (s *AlertService) ListAlertsBySeverity(ctx context.Context, severity int) ([]domain.Alert, error) {
	if severity < 1 || severity > 5 {
		return nil, fmt.Errorf("%w: severity must be between 1 and 5", domain.ErrInvalidArgument)
	}
	return s.alerts.ListAlertsBySeverity(ctx, severity)
}

func (s *AlertService) ListAlertsSince(ctx context.Context, since time.Time) ([]domain.Alert, error) {
	return s.alerts.ListAlertsSince(ctx, since)
}

func (s *AlertService) DeleteAlert(ctx context.Context, id int64) error {
	if err := s.alerts.DeleteAlert(ctx, id); err != nil {
		return err
	}
	s.logger.Info("alert deleted", zap.Int64("alert_id", id))
	return nil
}

// AlertsInRadius 半径内的告警，按距离升序
func (s *AlertService) AlertsInRadius(ctx context.Context, lat, lng, radiusKm float64) ([]geo.Ranked[domain.Alert], error) {
	if !domain.ValidCoordinates(lat, lng) {
		return nil, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidArgument)
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", domain.ErrInvalidArgument)
	}

	alerts, err := s.alerts.ListAlerts(ctx)
	if err != nil {
		return nil, err
	}

	inRadius := []domain.Alert{}
	for _, a := range alerts {
		if geo.WithinRadius(lat, lng, a.Latitude, a.Longitude, radiusKm) {
			inRadius = append(inRadius, a)
		}
	}
	return geo.RankByProximity(lat, lng, inRadius, func(a domain.Alert) (float64, float64) {
		return a.Latitude, a.Longitude
	}), nil
}
