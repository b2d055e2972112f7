package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"medimate-backend/internal/config"
)

// ErrNotConfigured 对应通道没有配置凭据
var ErrNotConfigured = errors.New("notification channel not configured")

// SMSSender 发送短信，返回服务商的消息 id
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

// twilioMessage Twilio Messages API 响应
type twilioMessage struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// TwilioSMS Twilio REST 客户端
type TwilioSMS struct {
	httpClient *resty.Client
	accountSID string
	from       string
	logger     *zap.Logger
}

// NewTwilioSMS 凭据不完整时返回 ErrNotConfigured
func NewTwilioSMS(cfg config.TwilioConfig, logger *zap.Logger) (*TwilioSMS, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetHeader("Accept", "application/json")

	return &TwilioSMS{
		httpClient: client,
		accountSID: cfg.AccountSID,
		from:       cfg.FromNumber,
		logger:     logger,
	}, nil
}

var _ SMSSender = (*TwilioSMS)(nil)

func (t *TwilioSMS) SendSMS(ctx context.Context, to, body string) (string, error) {
	var result twilioMessage
	resp, err := t.httpClient.R().
		SetContext(ctx).
		SetPathParam("sid", t.accountSID).
		SetFormData(map[string]string{
			"To":   to,
			"From": t.from,
			"Body": body,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/2010-04-01/Accounts/{sid}/Messages.json")
	if err != nil {
		return "", fmt.Errorf("failed to call Twilio API: %w", err)
	}
	if resp.IsError() {
		t.logger.Error("Twilio API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.Int("code", result.Code),
			zap.String("msg", result.Message),
		)
		return "", fmt.Errorf("twilio error: %s (status: %d)", result.Message, resp.StatusCode())
	}
	return result.SID, nil
}
