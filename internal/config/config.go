package config

import (
	"os"
	"strconv"
	"time"

	"github.com/ashendes/storefront/internal/patterns"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds the storefront settings
type Config struct {
	Port            string
	InventoryURL    string
	OrderURL        string
	ChatURL         string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	StorageTTL      time.Duration
	HTTPTimeout     time.Duration
	BreakerEnabled  bool
	IdempotencyKeys bool
	ChatRatePerMin  int
	ChatBurst       int
	LogLevel        string
}

// Load reads .env when present and then the process environment.
// An empty REDIS_ADDR selects the in-memory store.
func Load() *Config {
	LoadDotEnv()

	return &Config{
		Port:            GetEnv("PORT", "8090"),
		InventoryURL:    GetEnv("INVENTORY_SERVICE_URL", "http://localhost:8081"),
		OrderURL:        GetEnv("ORDER_SERVICE_URL", "http://localhost:8080"),
		ChatURL:         GetEnv("CHAT_SERVICE_URL", "http://localhost:8081"),
		RedisAddr:       GetEnv("REDIS_ADDR", ""),
		RedisPassword:   GetEnv("REDIS_PASSWORD", ""),
		RedisDB:         GetEnvInt("REDIS_DB", 0),
		StorageTTL:      GetEnvDuration("STORAGE_TTL", 0),
		HTTPTimeout:     GetEnvDuration("HTTP_TIMEOUT", patterns.DefaultTimeout),
		BreakerEnabled:  GetEnvBool("BREAKER_ENABLED", false),
		IdempotencyKeys: GetEnvBool("ORDER_IDEMPOTENCY_KEYS", true),
		ChatRatePerMin:  GetEnvInt("CHAT_RATE_PER_MIN", 20),
		ChatBurst:       GetEnvInt("CHAT_BURST", 3),
		LogLevel:        GetEnv("LOG_LEVEL", "info"),
	}
}

// LoadDotEnv loads a .env file from the working directory if one exists
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to read .env file")
	}
}

// GetEnv gets environment variable with fallback
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// GetEnvInt parses an integer variable, falling back on absence or parse error
func GetEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.WithFields(log.Fields{"key": key, "value": value}).Warn("Invalid integer, using default")
		return fallback
	}
	return n
}

// GetEnvBool parses a boolean variable
func GetEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.WithFields(log.Fields{"key": key, "value": value}).Warn("Invalid boolean, using default")
		return fallback
	}
	return b
}

// GetEnvDuration parses a time.Duration variable such as "5s"
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.WithFields(log.Fields{"key": key, "value": value}).Warn("Invalid duration, using default")
		return fallback
	}
	return d
}
