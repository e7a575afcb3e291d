package config

import (
	"os"
	"time"
)

type Config struct {
	// Database (service-role connection, not subject to row-level security)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Hosted auth store (auth + REST front of the same database)
	AuthStoreURL     string
	AuthStoreAnonKey string

	// JWT secret shared with the auth store (HS256 access tokens)
	JWTSecret string

	// Session core
	BootstrapTimeout time.Duration
	ControllerTTL    time.Duration
	SnapshotMaxAge   time.Duration

	// Redis (durable client-state cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Admin
	AdminEmails    string
	AdminTokenHash string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "metalfly"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AuthStoreURL:     getEnv("AUTH_STORE_URL", "http://localhost:54321"),
		AuthStoreAnonKey: getEnv("AUTH_STORE_ANON_KEY", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		BootstrapTimeout: parseDuration(getEnv("SESSION_BOOTSTRAP_TIMEOUT", "5s")),
		ControllerTTL:    parseDuration(getEnv("SESSION_CONTROLLER_TTL", "30m")),
		SnapshotMaxAge:   parseDuration(getEnv("SESSION_SNAPSHOT_MAX_AGE", "24h")),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		AdminEmails:    getEnv("ADMIN_EMAILS", ""),
		AdminTokenHash: getEnv("ADMIN_TOKEN_HASH", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 5 * time.Second
	}
	return d
}
