package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Stream  StreamConfig
	Redis   RedisConfig
	JWT     JWTConfig
}

type ServerConfig struct {
	Port string
}

type BackendConfig struct {
	// URL is the base URL of the upstream broker backend
	URL string
	// HealthTimeout bounds the health probe performed before any broker
	// operation that goes over the network
	HealthTimeout time.Duration
}

type StreamConfig struct {
	// LiveDataURL is the base WebSocket URL for live quote streams
	LiveDataURL string
	// ReconnectAttempts is how many times a dropped stream is redialed
	// before it is reported failed. Zero disables reconnection.
	ReconnectAttempts int
}

type RedisConfig struct {
	URL string
}

type JWTConfig struct {
	SecretKey []byte
}

// Load returns application configuration loaded from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnvWithDefault("PORT", "8000"),
		},
		Backend: BackendConfig{
			URL:           getEnvWithDefault("BACKEND_URL", "http://localhost:9000"),
			HealthTimeout: time.Duration(getEnvInt("HEALTH_TIMEOUT_SECONDS", 3)) * time.Second,
		},
		Stream: StreamConfig{
			LiveDataURL:       getEnvWithDefault("LIVE_DATA_URL", "ws://localhost:9000"),
			ReconnectAttempts: getEnvInt("STREAM_RECONNECT_ATTEMPTS", 0),
		},
		Redis: RedisConfig{
			URL: getEnvWithDefault("REDIS_URL", "redis://localhost:6379/0"),
		},
		JWT: JWTConfig{
			SecretKey: []byte(getEnvWithDefault("SECRET_KEY", "default_secret_key")),
		},
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
