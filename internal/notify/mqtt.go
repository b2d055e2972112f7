package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"medimate-backend/internal/config"
)

const mqttPublishTimeout = 5 * time.Second

// DeviceNotifier 把通知镜像到用户的床旁设备
type DeviceNotifier interface {
	NotifyDevice(ctx context.Context, userID int64, payload any) error
}

// ConnectMQTT 连接 MQTT Broker
func ConnectMQTT(cfg config.MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}

// MQTTPublisher 发布到 {prefix}/users/{id}/notifications
type MQTTPublisher struct {
	client mqtt.Client
	prefix string
}

func NewMQTTPublisher(client mqtt.Client, topicPrefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: topicPrefix}
}

var _ DeviceNotifier = (*MQTTPublisher)(nil)

// Topic 用户的通知主题
func (p *MQTTPublisher) Topic(userID int64) string {
	return fmt.Sprintf("%s/users/%d/notifications", p.prefix, userID)
}

func (p *MQTTPublisher) NotifyDevice(ctx context.Context, userID int64, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal device payload: %w", err)
	}

	topic := p.Topic(userID)
	token := p.client.Publish(topic, 1, false, body)

	timeout := mqttPublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish to topic %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}
	return nil
}

// Close 断开连接
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
