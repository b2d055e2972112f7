package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Version 服务版本
const Version = "1.0.0"

// DoctorHandler 健康检查处理器
type DoctorHandler struct {
	backend     string
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewDoctorHandler 创建健康检查处理器；db 与 redisClient 可为 nil
func NewDoctorHandler(backend string, db *sql.DB, redisClient *redis.Client, logger *zap.Logger) *DoctorHandler {
	return &DoctorHandler{
		backend:     backend,
		db:          db,
		redisClient: redisClient,
		logger:      logger,
	}
}

// HealthCheck 存活检查，附带当前存储后端与依赖状态
func (d *DoctorHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "MediMate Backend API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
		"backend":   d.backend,
		"services":  d.services(r.Context(), 2*time.Second),
	})
}

// Ready 就绪检查：已配置的依赖都可用时返回 200
func (d *DoctorHandler) Ready(w http.ResponseWriter, r *http.Request) {
	services := d.services(r.Context(), time.Second)
	ready := true
	for _, s := range services {
		if s == "unhealthy" {
			ready = false
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"ready": ready, "services": services})
}

func (d *DoctorHandler) services(ctx context.Context, timeout time.Duration) map[string]string {
	services := make(map[string]string)

	if d.db != nil {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := d.db.PingContext(ctx); err != nil {
			d.logger.Warn("database ping failed", zap.Error(err))
			services["database"] = "unhealthy"
		} else {
			services["database"] = "healthy"
		}
	} else {
		services["database"] = "not configured"
	}

	if d.redisClient != nil {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := d.redisClient.Ping(ctx).Err(); err != nil {
			d.logger.Warn("redis ping failed", zap.Error(err))
			services["redis"] = "unhealthy"
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "not configured"
	}

	return services
}
