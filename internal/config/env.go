package config

import (
	"os"
	"strconv"
	"time"
)

func Load() *Config {
	return &Config{
		Service: &ServiceConfig{
			Name: getEnv("SERVICE_NAME", "huddle-client"),
			Env:  getEnv("SERVICE_ENV", "development"),
			Addr: getEnv("SERVICE_ADDR", ":9090"),
		},
		API: &APIConfig{
			BaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
			Token:   getEnv("API_TOKEN", ""),
			Timeout: getEnvDuration("API_TIMEOUT", 15*time.Second),
		},
		Push: &PushConfig{
			URL:          getEnv("PUSH_URL", "ws://localhost:6001/app/local"),
			AuthURL:      getEnv("PUSH_AUTH_URL", "http://localhost:8080/broadcasting/auth"),
			AuthTimeout:  getEnvDuration("PUSH_AUTH_TIMEOUT", 10*time.Second),
			Reconnect:    getEnvBool("PUSH_RECONNECT", false),
			ReconnectMin: getEnvDuration("PUSH_RECONNECT_MIN", time.Second),
			ReconnectMax: getEnvDuration("PUSH_RECONNECT_MAX", time.Minute),
		},
		Logger: &LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "JSON"),
		},
		Tracer: &TracerConfig{
			Address: getEnv("OTLP_ADDR", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
