package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"medimate-backend/internal/auth"
	"medimate-backend/internal/repository"
	"medimate-backend/internal/service"
)

// Deps 组装路由所需的依赖；DB、Redis、Hub 可为 nil
type Deps struct {
	Store         repository.Store
	Backend       string
	DB            *sql.DB
	Redis         *redis.Client
	Tokens        *auth.TokenManager
	Auth          *service.AuthService
	Chat          *service.ChatService
	Emergency     *service.EmergencyService
	Caregivers    *service.CaregiverService
	Notifications *service.NotificationService
	Hub           *AlertHub
	CORSOrigins   []string
	Logger        *zap.Logger
}

// NewHandler 注册全部路由并套上全局中间件
func NewHandler(d Deps) http.Handler {
	r := NewRouter(NewAuthGate(d.Tokens), d.Logger)

	r.RegisterDoctorRoutes(NewDoctorHandler(d.Backend, d.DB, d.Redis, d.Logger))
	r.RegisterAuthRoutes(NewAuthHandler(d.Auth, d.Logger))
	r.RegisterUserRoutes(NewUsersHandler(d.Store, d.Logger))
	r.RegisterMedicationRoutes(NewMedicationsHandler(d.Store, d.Logger))
	r.RegisterChatRoutes(NewChatHandler(d.Chat, d.Store, d.Logger))
	r.RegisterEmergencyRoutes(NewEmergencyHandler(d.Emergency, d.Store, d.Hub, d.Logger))
	r.RegisterHealthRoutes(NewHealthHandler(d.Store, d.Logger))
	r.RegisterCaregiverRoutes(NewCaregiversHandler(d.Caregivers, d.Store, d.Logger))
	r.RegisterNotificationRoutes(NewNotificationsHandler(d.Notifications, d.Store, d.Logger))
	r.RegisterSpeechRoutes(NewSpeechHandler())

	return r.Handler(d.CORSOrigins)
}
