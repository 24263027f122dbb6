package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Upstream UpstreamConfig
	Chat     ChatConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	// Connection is the postgres DSN for custom collections. Empty keeps them in memory.
	Connection string
}

// UpstreamConfig points at the remote dataset/conversation API.
type UpstreamConfig struct {
	BaseURL     string
	Timeout     time.Duration
	ResultCount int
}

type ChatConfig struct {
	SettleWindow    time.Duration
	AIResponseDelay time.Duration
	ViewTTL         time.Duration
	StoreBackend    string // "memory" or "redis"
	StoreTTL        time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Upstream: UpstreamConfig{
			BaseURL:     getEnv("UPSTREAM_BASE_URL", "http://localhost:8080"),
			Timeout:     getEnvAsDuration("UPSTREAM_TIMEOUT", 30*time.Second),
			ResultCount: getEnvAsInt("UPSTREAM_RESULT_COUNT", 10),
		},
		Chat: ChatConfig{
			SettleWindow:    getEnvAsDuration("CHAT_SETTLE_WINDOW", 100*time.Millisecond),
			AIResponseDelay: getEnvAsDuration("CHAT_AI_RESPONSE_DELAY", time.Second),
			ViewTTL:         getEnvAsDuration("CHAT_VIEW_TTL", 2*time.Hour),
			StoreBackend:    getEnv("CHAT_STORE_BACKEND", "memory"),
			StoreTTL:        getEnvAsDuration("CHAT_STORE_TTL", 30*24*time.Hour),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("1s", "250ms") or a bare number of milliseconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if ms, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
