package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the driver agent.
type Config struct {
	Server   ServerConfig
	API      APIConfig
	Tracking TrackingConfig
	Chat     ChatConfig
	Loads    LoadsConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
}

// ServerConfig holds the local control API configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// APIConfig holds the remote backend endpoints.
type APIConfig struct {
	BaseURL     string
	RealtimeURL string
	// Timeout of zero leaves the transport default in place.
	Timeout time.Duration

	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

// TrackingConfig holds the journey sampler configuration.
type TrackingConfig struct {
	Interval  time.Duration
	FixMaxAge time.Duration
}

// ChatConfig holds the messaging fallback poll configuration.
type ChatConfig struct {
	PollInterval time.Duration
}

// LoadsConfig holds load directory configuration.
type LoadsConfig struct {
	PageSize     int
	CacheTTL     time.Duration
	CacheBackend string // memory | redis
}

// StorageConfig selects where persisted local state lives.
type StorageConfig struct {
	Backend string // file | memory | redis | postgres
	Path    string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// Load loads configuration from environment variables.
// A .env file in the working directory, when present, is read first.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("AGENT_PORT", "8090"),
			ReadTimeout:  getDurationEnv("AGENT_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("AGENT_WRITE_TIMEOUT", 30*time.Second),
		},
		API: APIConfig{
			BaseURL:     getEnv("API_BASE_URL", "http://localhost:3000"),
			RealtimeURL: getEnv("REALTIME_URL", "ws://localhost:3000/ws"),
			Timeout:     getDurationEnv("API_TIMEOUT", 0),

			ReconnectAttempts: getIntEnv("REALTIME_RECONNECT_ATTEMPTS", 5),
			ReconnectDelay:    getDurationEnv("REALTIME_RECONNECT_DELAY", time.Second),
		},
		Tracking: TrackingConfig{
			Interval:  getDurationEnv("TRACKING_INTERVAL", 10*time.Second),
			FixMaxAge: getDurationEnv("FIX_MAX_AGE", 30*time.Second),
		},
		Chat: ChatConfig{
			PollInterval: getDurationEnv("CHAT_POLL_INTERVAL", 10*time.Second),
		},
		Loads: LoadsConfig{
			PageSize: getIntEnv("LOADS_PAGE_SIZE", 20),
			CacheTTL: getDurationEnv("LOADS_CACHE_TTL", 60*time.Second),

			CacheBackend: getEnv("LOADS_CACHE_BACKEND", "memory"),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "file"),
			Path:    getEnv("STORAGE_PATH", "haul-state.json"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "haul_agent"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "haul-driver-agent"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
