package config

import (
	"os"
)

type Config struct {
	ServerPort    string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	RedisURL      string
	JWTSecret     string
	BrokerBackend string // "memory" | "redis"
	LogLevel      string
}

func Load() *Config {
	return &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "mpoint"),
		DBPassword:    getEnv("DB_PASSWORD", "mpoint_dev_password"),
		DBName:        getEnv("DB_NAME", "mpoint"),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		BrokerBackend: getEnv("BROKER_BACKEND", "memory"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}
