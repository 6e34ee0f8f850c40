package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"sced-data/internal/domain"
)

// WebhookNotifier 把新生成的告警 POST 到外部接收端（调度台 / 通知网关）
type WebhookNotifier struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewWebhookNotifier 创建 webhook 通知器
func NewWebhookNotifier(webhookURL string, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetBaseURL(webhookURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &WebhookNotifier{
		httpClient: client,
		logger:     logger,
	}
}

// NotifyAlert 推送一条告警；非 2xx 响应视为失败
func (n *WebhookNotifier) NotifyAlert(ctx context.Context, alert *domain.Alert) error {
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(alert.ToJSON()).
		Post("")
	if err != nil {
		return fmt.Errorf("failed to deliver alert webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("alert webhook rejected: status %d", resp.StatusCode())
	}

	n.logger.Debug("alert webhook delivered",
		zap.Int64("alert_id", alert.ID),
		zap.Int("status_code", resp.StatusCode()),
	)
	return nil
}
