package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config medimate-backend 配置
type Config struct {
	HTTP struct {
		Addr        string
		CORSOrigins []string
	}
	Supabase SupabaseConfig
	JWT      JWTConfig
	Gemini   GeminiConfig
	Twilio   TwilioConfig
	Expo     ExpoConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	Log      struct {
		Level  string
		Format string
	}
}

// SupabaseConfig 托管数据库配置
// URL 为 postgres 连接串，Key 作为连接密码注入；两者缺一即使用内存存储
type SupabaseConfig struct {
	URL          string
	Key          string
	MaxConns     int
	MaxIdle      int
	ProbeTimeout time.Duration
}

// Configured URL 与 Key 都已提供
func (c SupabaseConfig) Configured() bool {
	return c.URL != "" && c.Key != ""
}

// JWTConfig 登录令牌配置
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// GeminiConfig 对话模型配置（OpenAI 兼容接口）；APIKey 为空时使用本地模拟回复
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// TwilioConfig 短信配置；任一字段为空时短信只记日志
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
}

// Configured 三项凭据齐全
func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

// ExpoConfig Expo 推送配置
type ExpoConfig struct {
	Enabled     bool
	URL         string
	AccessToken string
}

// RedisConfig 告警事件流配置
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Stream   string
}

// MQTTConfig 床旁设备通知配置
type MQTTConfig struct {
	Enabled     bool
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string // 发布到 {TopicPrefix}/users/{id}/notifications
}

// Load 读取环境变量；当前目录存在 .env 时先加载（不覆盖已有变量）
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":"+getEnv("PORT", "3000"))
	cfg.HTTP.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))

	cfg.Supabase.URL = getEnv("SUPABASE_URL", "")
	cfg.Supabase.Key = getEnv("SUPABASE_KEY", getEnv("SUPABASE_ANON_KEY", ""))
	cfg.Supabase.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Supabase.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)
	cfg.Supabase.ProbeTimeout = parseDuration(getEnv("DB_PROBE_TIMEOUT", "5s"), 5*time.Second)

	cfg.JWT.Secret = getEnv("JWT_SECRET", "medimate-dev-secret")
	cfg.JWT.TTL = parseDuration(getEnv("JWT_TTL", "720h"), 30*24*time.Hour)

	cfg.Gemini.APIKey = getEnv("GEMINI_API_KEY", "")
	cfg.Gemini.BaseURL = getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/")
	cfg.Gemini.Model = getEnv("GEMINI_MODEL", "gemini-1.5-flash")

	cfg.Twilio.AccountSID = getEnv("TWILIO_ACCOUNT_SID", "")
	cfg.Twilio.AuthToken = getEnv("TWILIO_AUTH_TOKEN", "")
	cfg.Twilio.FromNumber = getEnv("TWILIO_PHONE_NUMBER", "")
	cfg.Twilio.BaseURL = getEnv("TWILIO_BASE_URL", "https://api.twilio.com")

	cfg.Expo.Enabled = parseBool(getEnv("EXPO_PUSH_ENABLED", "false"), false)
	cfg.Expo.URL = getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send")
	cfg.Expo.AccessToken = getEnv("EXPO_ACCESS_TOKEN", "")

	cfg.Redis.Enabled = parseBool(getEnv("REDIS_ENABLED", "false"), false)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)
	cfg.Redis.Stream = getEnv("REDIS_ALERT_STREAM", "medimate:emergency:alerts")

	cfg.MQTT.Enabled = parseBool(getEnv("MQTT_ENABLED", "false"), false)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "medimate-backend")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "medimate")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
