package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medimate-backend/internal/auth"
	"medimate-backend/internal/config"
	"medimate-backend/internal/events"
	httpapi "medimate-backend/internal/http"
	"medimate-backend/internal/logger"
	"medimate-backend/internal/notify"
	"medimate-backend/internal/repository"
	"medimate-backend/internal/service"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "medimate-backend")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	selection := repository.Open(ctx, cfg.Supabase, log)

	hub := httpapi.NewAlertHub(cfg.HTTP.CORSOrigins, log)
	publishers := events.Fanout{hub}

	// Redis 告警流（可选）
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		client := events.NewRedisClient(cfg.Redis)
		if err := events.Ping(ctx, client); err != nil {
			log.Warn("redis unavailable, alert stream disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = client.Close()
		} else {
			redisClient = client
			publishers = append(publishers, events.NewRedisPublisher(client, cfg.Redis.Stream))
			log.Info("redis alert stream enabled", zap.String("stream", cfg.Redis.Stream))
		}
	}

	// 床旁设备（可选）
	var devices notify.DeviceNotifier
	var mqttPub *notify.MQTTPublisher
	if cfg.MQTT.Enabled {
		client, err := notify.ConnectMQTT(cfg.MQTT)
		if err != nil {
			log.Warn("mqtt unavailable, device mirroring disabled", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		} else {
			mqttPub = notify.NewMQTTPublisher(client, cfg.MQTT.TopicPrefix)
			devices = mqttPub
		}
	}

	var sms notify.SMSSender
	if twilio, err := notify.NewTwilioSMS(cfg.Twilio, log); err == nil {
		sms = twilio
	} else {
		log.Warn("twilio not configured, emergency sms disabled")
	}

	var push notify.PushSender
	if expo, err := notify.NewExpoPush(cfg.Expo, log); err == nil {
		push = expo
	} else {
		log.Info("expo push disabled, notifications will be queued only")
	}

	model, err := service.NewGeminiModel(cfg.Gemini)
	if err != nil {
		log.Warn("gemini client init failed, chat uses fallback replies", zap.Error(err))
		model = nil
	}

	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		log.Fatal("failed to create token manager", zap.Error(err))
	}

	notifications := service.NewNotificationService(selection.Store, push, devices, log)
	emergency, err := service.NewEmergencyService(selection.Store, sms, notifications, publishers, service.DefaultSMSWorkers, log)
	if err != nil {
		log.Fatal("failed to create emergency service", zap.Error(err))
	}
	defer emergency.Release()

	handler := httpapi.NewHandler(httpapi.Deps{
		Store:         selection.Store,
		Backend:       selection.Backend,
		DB:            selection.DB(),
		Redis:         redisClient,
		Tokens:        tokens,
		Auth:          service.NewAuthService(selection.Store, tokens, log),
		Chat:          service.NewChatService(model, selection.Store, log),
		Emergency:     emergency,
		Caregivers:    service.NewCaregiverService(selection.Store, log),
		Notifications: notifications,
		Hub:           hub,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		Logger:        log,
	})

	srv := service.NewServer(cfg.HTTP.Addr, handler, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Error("http server stopped", zap.Error(err))
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if mqttPub != nil {
		mqttPub.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	_ = selection.Close()
}
