package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（Go 1.22 方法 + 路径参数模式）
type Router struct {
	mux    *http.ServeMux
	auth   *AuthGate
	logger *zap.Logger
}

func NewRouter(auth *AuthGate, logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		auth:   auth,
		logger: logger,
	}
}

// Handle 公开路由
func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleAuth 需要 Bearer 令牌的路由
func (r *Router) HandleAuth(pattern string, h http.HandlerFunc) {
	r.mux.Handle(pattern, r.auth.Require(h))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler 带全局中间件的根 handler
func (r *Router) Handler(corsOrigins []string) http.Handler {
	var h http.Handler = r
	h = notFound(r.mux, h)
	h = CORS(corsOrigins)(h)
	h = AccessLog(r.logger)(h)
	h = Recover(r.logger)(h)
	h = RequestID(h)
	return h
}

// notFound 未匹配的路由返回 JSON 404
func notFound(mux *http.ServeMux, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodOptions {
			if _, pattern := mux.Handler(req); pattern == "" {
				writeJSON(w, http.StatusNotFound, map[string]any{
					"error": "Route not found",
					"path":  req.URL.Path,
				})
				return
			}
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Router) RegisterDoctorRoutes(d *DoctorHandler) {
	r.Handle("GET /api/health", d.HealthCheck)
	r.Handle("GET /api/ready", d.Ready)
}

func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("POST /api/auth/register", h.Register)
	r.Handle("POST /api/auth/login", h.Login)
}

func (r *Router) RegisterUserRoutes(h *UsersHandler) {
	r.HandleAuth("GET /api/users/{id}", h.Get)
	r.HandleAuth("GET /api/users/{id}/stats", h.Stats)
}

func (r *Router) RegisterMedicationRoutes(h *MedicationsHandler) {
	r.HandleAuth("POST /api/medications", h.Create)
	r.HandleAuth("GET /api/medications/{userId}", h.List)
	r.HandleAuth("PUT /api/medications/{id}", h.Update)
	r.HandleAuth("DELETE /api/medications/{id}", h.Delete)

	r.HandleAuth("POST /api/reminders", h.CreateReminder)
	r.HandleAuth("GET /api/reminders/pending/{userId}", h.PendingReminders)
	r.HandleAuth("POST /api/reminders/{id}/confirm", h.ConfirmReminder)
}

func (r *Router) RegisterChatRoutes(h *ChatHandler) {
	r.HandleAuth("POST /api/chat", h.Chat)
	r.HandleAuth("POST /api/chat/health-advice", h.HealthAdvice)
	r.HandleAuth("GET /api/chat/history/{userId}", h.History)
}

func (r *Router) RegisterEmergencyRoutes(h *EmergencyHandler) {
	r.HandleAuth("POST /api/emergency/trigger", h.Trigger)
	r.HandleAuth("GET /api/emergency/status/{userId}", h.Status)
	r.HandleAuth("POST /api/emergency/contacts", h.AddContact)
	r.HandleAuth("GET /api/emergency/contacts/{userId}", h.Contacts)
	r.HandleAuth("DELETE /api/emergency/contacts/{id}", h.DeleteContact)
	r.HandleAuth("POST /api/emergency/resolve/{alertId}", h.Resolve)
	r.HandleAuth("GET /api/emergency/ws/{userId}", h.Subscribe)
}

func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.HandleAuth("POST /api/health/vitals", h.AddVital)
	r.HandleAuth("GET /api/health/vitals/{userId}", h.Vitals)
	r.HandleAuth("GET /api/health/vitals/{userId}/export", h.ExportVitals)
	r.HandleAuth("GET /api/health/trends/{userId}", h.Trends)
	r.HandleAuth("POST /api/health/appointments", h.AddAppointment)
	r.HandleAuth("GET /api/health/appointments/{userId}", h.Appointments)
	r.HandleAuth("PUT /api/health/appointments/{id}", h.UpdateAppointment)
	r.HandleAuth("DELETE /api/health/appointments/{id}", h.DeleteAppointment)
}

func (r *Router) RegisterCaregiverRoutes(h *CaregiversHandler) {
	r.HandleAuth("POST /api/caregivers/invite", h.Invite)
	r.HandleAuth("POST /api/caregivers/accept-invite", h.Accept)
	r.HandleAuth("GET /api/caregivers/patients/{caregiverPhone}", h.Patients)
	r.HandleAuth("GET /api/caregivers/patient-status/{patientId}", h.PatientStatus)
	r.HandleAuth("GET /api/caregivers/{patientId}", h.Caregivers)
	r.HandleAuth("DELETE /api/caregivers/{id}", h.Remove)
}

func (r *Router) RegisterNotificationRoutes(h *NotificationsHandler) {
	r.HandleAuth("POST /api/notifications/register", h.Register)
	r.HandleAuth("POST /api/notifications/send", h.Send)
	r.HandleAuth("POST /api/notifications/medication-reminder", h.MedicationReminder)
	r.HandleAuth("POST /api/notifications/appointment-reminder", h.AppointmentReminder)
	r.HandleAuth("DELETE /api/notifications/unregister", h.Unregister)
	r.HandleAuth("GET /api/notifications/devices/{userId}", h.Devices)
}

func (r *Router) RegisterSpeechRoutes(h *SpeechHandler) {
	r.HandleAuth("POST /api/speech/text-to-speech", h.TextToSpeech)
	r.HandleAuth("GET /api/speech/voice-settings/{language}", h.VoiceSettings)
	r.HandleAuth("POST /api/speech/speech-to-text", h.SpeechToText)
	r.HandleAuth("GET /api/speech/supported-languages", h.SupportedLanguages)
}
