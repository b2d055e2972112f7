package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"medimate-backend/internal/config"
)

// PushMessage 一条推送（Expo 消息格式）
type PushMessage struct {
	To       string         `json:"to"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Data     map[string]any `json:"data,omitempty"`
	Sound    string         `json:"sound,omitempty"`
	Priority string         `json:"priority,omitempty"`
}

// PushTicket 推送服务对单条消息的回执
type PushTicket struct {
	Status  string `json:"status"` // ok | error
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// PushSender 批量推送
type PushSender interface {
	SendPush(ctx context.Context, msgs []PushMessage) ([]PushTicket, error)
}

type expoResponse struct {
	Data   []PushTicket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// ExpoPush Expo Push API 客户端
type ExpoPush struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewExpoPush 未启用时返回 ErrNotConfigured
func NewExpoPush(cfg config.ExpoConfig, logger *zap.Logger) (*ExpoPush, error) {
	if !cfg.Enabled {
		return nil, ErrNotConfigured
	}
	client := resty.New().
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.AccessToken != "" {
		client.SetAuthToken(cfg.AccessToken)
	}
	return &ExpoPush{httpClient: client, url: cfg.URL, logger: logger}, nil
}

var _ PushSender = (*ExpoPush)(nil)

func (e *ExpoPush) SendPush(ctx context.Context, msgs []PushMessage) ([]PushTicket, error) {
	if len(msgs) == 0 {
		return nil, nil
	}

	var result expoResponse
	resp, err := e.httpClient.R().
		SetContext(ctx).
		SetBody(msgs).
		SetResult(&result).
		SetError(&result).
		Post(e.url)
	if err != nil {
		return nil, fmt.Errorf("failed to call Expo push API: %w", err)
	}
	if resp.IsError() || len(result.Errors) > 0 {
		msg := resp.Status()
		if len(result.Errors) > 0 {
			msg = result.Errors[0].Message
		}
		e.logger.Error("Expo push API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", msg),
		)
		return nil, fmt.Errorf("expo push error: %s", msg)
	}

	e.logger.Debug("push delivered to Expo", zap.Int("ticket_count", len(result.Data)))
	return result.Data, nil
}
