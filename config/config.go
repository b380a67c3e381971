package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server  ServerConfig
	AWS     AWSConfig
	Tables  TablesConfig
	Face    FaceConfig
	LLM     LLMConfig
	Twilio  TwilioConfig
	Event   EventConfig
	Session SessionConfig
	Redis   RedisConfig
	Admin   AdminConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	Env          string // development | production
	ReadTimeout  int
	WriteTimeout int
	FrontendURL  string // allowed CORS origin for the kiosk/dashboard frontend
	MaxUploadMB  int64  // photo upload ceiling in megabytes
}

// AWSConfig holds region, credentials and optional endpoint override
// (e.g. a local DynamoDB/S3 stack).
type AWSConfig struct {
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	EndpointURL     string
}

// TablesConfig holds DynamoDB table names.
type TablesConfig struct {
	Participants string
	Checkins     string
}

// FaceConfig holds Rekognition collection and photo bucket settings.
type FaceConfig struct {
	Collection     string
	Bucket         string
	MatchThreshold float32
}

// LLMConfig holds Bedrock model settings.
type LLMConfig struct {
	ModelID   string
	MaxTokens int
}

// TwilioConfig holds WhatsApp messaging credentials. When AccountSID or
// AuthToken is empty the dispatcher falls back to a logged mock.
type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
}

// EventConfig holds event identity used in messages and the timezone
// that defines the check-in "day" boundary.
type EventConfig struct {
	Name     string
	Timezone string // IANA name; empty = server local
}

// SessionConfig holds chat-registration session store settings.
type SessionConfig struct {
	Backend    string // memory | redis
	TTLMinutes int
}

// RedisConfig holds Redis connection settings (used when Session.Backend is redis).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AdminConfig holds the optional admin dashboard credential. When
// PasswordHash is empty the admin routes are left unauthenticated.
type AdminConfig struct {
	Email        string
	PasswordHash string // bcrypt hash
	JWTSecret    string
	ExpireHours  int
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3001"),
			Env:          getEnv("APP_ENV", "development"),
			ReadTimeout:  getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout: getEnvInt("WRITE_TIMEOUT_SEC", 60),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),
			MaxUploadMB:  int64(getEnvInt("MAX_UPLOAD_MB", 5)),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Profile:         getEnv("AWS_PROFILE", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			EndpointURL:     getEnv("AWS_ENDPOINT_URL", ""),
		},
		Tables: TablesConfig{
			Participants: getEnv("PARTICIPANTS_TABLE", "event-participants"),
			Checkins:     getEnv("CHECKINS_TABLE", "event-checkins"),
		},
		Face: FaceConfig{
			Collection:     getEnv("REKOGNITION_COLLECTION", "event-faces"),
			Bucket:         getEnv("S3_BUCKET", "event-photos"),
			MatchThreshold: float32(getEnvInt("FACE_MATCH_THRESHOLD", 80)),
		},
		LLM: LLMConfig{
			ModelID:   getEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-sonnet-20240229-v1:0"),
			MaxTokens: getEnvInt("BEDROCK_MAX_TOKENS", 300),
		},
		Twilio: TwilioConfig{
			AccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
			WhatsAppFrom: getEnv("TWILIO_WHATSAPP_FROM", "whatsapp:+14155238886"),
		},
		Event: EventConfig{
			Name:     getEnv("EVENT_NAME", "TDC Event"),
			Timezone: getEnv("EVENT_TIMEZONE", ""),
		},
		Session: SessionConfig{
			Backend:    strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
			TTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 30),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Admin: AdminConfig{
			Email:        getEnv("ADMIN_EMAIL", ""),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:    getEnv("ADMIN_JWT_SECRET", "change-me-in-production"),
			ExpireHours:  getEnvInt("ADMIN_JWT_EXPIRE_HOURS", 12),
		},
	}
	return cfg, nil
}

// AuthEnabled reports whether the admin routes require a JWT.
func (c AdminConfig) AuthEnabled() bool {
	return c.PasswordHash != ""
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
