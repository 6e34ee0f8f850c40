package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"sced-data/internal/domain"
	"sced-data/internal/observability"
	"sced-data/internal/repository"
	"sced-data/internal/rules"
)

// AlertNotifier 告警外发端口（webhook 等），提交事务之后才调用
type AlertNotifier interface {
	NotifyAlert(ctx context.Context, alert *domain.Alert) error
}

// IngestService 采集管道
// 单事务内完成：查设备 → 写读数 → 规则评估 → 条件写告警。
// 读数和告警要么一起落库要么都不落；暂时性存储错误由 TxRunner
// 重放整个闭包，闭包内除仓库调用外没有副作用。
type IngestService struct {
	devices  repository.DevicesRepo
	readings repository.ReadingsRepo
	alerts   repository.AlertsRepo
	tx       *repository.TxRunner
	clock    clockwork.Clock
	metrics  *observability.Metrics
	notifier AlertNotifier
	logger   *zap.Logger
}

func NewIngestService(
	devices repository.DevicesRepo,
	readings repository.ReadingsRepo,
	alerts repository.AlertsRepo,
	tx *repository.TxRunner,
	clock clockwork.Clock,
	metrics *observability.Metrics,
	notifier AlertNotifier,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		devices:  devices,
		readings: readings,
		alerts:   alerts,
		tx:       tx,
		clock:    clock,
		metrics:  metrics,
		notifier: notifier,
		logger:   logger,
	}
}

// ReceiveData 接收一条设备读数
// 返回已提交的读数，以及规则命中时生成的告警（未命中为 nil）
func (s *IngestService) ReceiveData(ctx context.Context, deviceID int64, value float64) (*domain.Reading, *domain.Alert, error) {
	if deviceID <= 0 {
		return nil, nil, fmt.Errorf("%w: device id must be positive", domain.ErrInvalidArgument)
	}

	var (
		stored *domain.Reading
		alert  *domain.Alert
	)

	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		// 重放时重置，避免上一次尝试的残留
		stored, alert = nil, nil

		device, err := s.devices.GetDevice(ctx, tx, deviceID)
		if err != nil {
			return err
		}

		reading := &domain.Reading{
			DeviceID:  deviceID,
			Value:     value,
			Timestamp: s.clock.Now().UTC(),
		}
		stored, err = s.readings.InsertReading(ctx, tx, reading)
		if err != nil {
			return err
		}

		// 告警草稿携带设备坐标和读数时间戳
		draft := rules.Evaluate(device.Type, value, device.Latitude, device.Longitude, stored.Timestamp)
		if draft == nil {
			return nil
		}

		alert, err = s.alerts.InsertAlert(ctx, tx, draft)
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.metrics.IngestFailures.Inc()
		return nil, nil, err
	}

	s.metrics.ReadingsIngested.Inc()
	s.logger.Debug("reading ingested",
		zap.Int64("device_id", deviceID),
		zap.Float64("value", value),
	)

	if alert != nil {
		s.metrics.AlertsGenerated.WithLabelValues(string(alert.Type)).Inc()
		s.logger.Info("alert generated",
			zap.Int64("alert_id", alert.ID),
			zap.String("type", string(alert.Type)),
			zap.Int("severity", alert.Severity),
		)
		s.notify(ctx, alert)
	}

	return stored, alert, nil
}

// notify 外发不参与事务，失败只记日志不回滚
func (s *IngestService) notify(ctx context.Context, alert *domain.Alert) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAlert(ctx, alert); err != nil {
		s.metrics.WebhookDeliveries.WithLabelValues("error").Inc()
		s.logger.Warn("alert notification failed",
			zap.Int64("alert_id", alert.ID),
			zap.Error(err),
		)
		return
	}
	s.metrics.WebhookDeliveries.WithLabelValues("success").Inc()
}
