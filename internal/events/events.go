package events

import (
	"context"
	"errors"
	"time"
)

// 事件类型
const (
	TypeEmergencyTriggered = "emergency.triggered"
	TypeEmergencyResolved  = "emergency.resolved"
)

// Event 发给下游（事件流、WebSocket 订阅者）的告警事件
type Event struct {
	Type    string    `json:"type"`
	UserID  int64     `json:"user_id"`
	AlertID int64     `json:"alert_id"`
	Data    any       `json:"data,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop 丢弃所有事件
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Fanout 依次发给每个 Publisher，返回合并后的错误
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
