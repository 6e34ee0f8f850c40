package mqttin

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"sced-data/internal/domain"
)

// 读数主题：sced/devices/+/data，payload 为 {"device_id":N,"value":V}。
// 坏报文记日志后丢弃，不进采集管道。

const readingsTopic = "sced/devices/+/data"

// Ingestor 采集管道端口
type Ingestor interface {
	ReceiveData(ctx context.Context, deviceID int64, value float64) (*domain.Reading, *domain.Alert, error)
}

type readingPayload struct {
	DeviceID int64   `json:"device_id"`
	Value    float64 `json:"value"`
}

// Consumer MQTT 读数消费者
type Consumer struct {
	client   mqtt.Client
	ingestor Ingestor
	logger   *zap.Logger
}

// NewConsumer 连接 broker 并创建消费者
func NewConsumer(broker, clientID, username, password string, ingestor Ingestor, logger *zap.Logger) (*Consumer, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	if username != "" {
		opts.SetUsername(username)
	}
	if password != "" {
		opts.SetPassword(password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Consumer{
		client:   client,
		ingestor: ingestor,
		logger:   logger,
	}, nil
}

// Start 订阅读数主题
func (c *Consumer) Start(ctx context.Context) error {
	token := c.client.Subscribe(readingsTopic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		c.handleMessage(ctx, msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", readingsTopic, token.Error())
	}

	c.logger.Info("mqtt consumer started", zap.String("topic", readingsTopic))
	return nil
}

// handleMessage 解析并转发一条读数报文
func (c *Consumer) handleMessage(ctx context.Context, topic string, payload []byte) {
	var p readingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("dropping malformed reading payload",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return
	}
	if p.DeviceID <= 0 {
		c.logger.Warn("dropping reading with invalid device id",
			zap.String("topic", topic),
			zap.Int64("device_id", p.DeviceID),
		)
		return
	}

	if _, _, err := c.ingestor.ReceiveData(ctx, p.DeviceID, p.Value); err != nil {
		c.logger.Error("failed to ingest mqtt reading",
			zap.String("topic", topic),
			zap.Int64("device_id", p.DeviceID),
			zap.Error(err),
		)
	}
}

// Stop 取消订阅并断开连接
func (c *Consumer) Stop() {
	if token := c.client.Unsubscribe(readingsTopic); token.Wait() && token.Error() != nil {
		c.logger.Warn("failed to unsubscribe", zap.Error(token.Error()))
	}
	c.client.Disconnect(250)
}
