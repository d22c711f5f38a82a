// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds everything the server and historian read from the environment.
type Config struct {
	Port                 string
	SessionGracePeriod   time.Duration
	SessionSweepInterval time.Duration
	MaxPlayers           int
	LogLevel             string
	LogFormat            string
	AllowedOrigins       []string
	SessionKeyPath       string

	RedisAddr      string
	RedisDB        int
	HistorianQueue string

	DatabaseURL        string
	HistorianBatchSize int
	HistorianFlush     time.Duration
	RoomInactivity     time.Duration
}

// Load reads the configuration. Unset or malformed values fall back to defaults.
func Load() Config {
	return Config{
		Port:                 getEnv("PORT", "8080"),
		SessionGracePeriod:   getEnvDuration("SESSION_GRACE_PERIOD", 2*time.Minute),
		SessionSweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 10*time.Second),
		MaxPlayers:           getEnvInt("MAX_PLAYERS", 10),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
		AllowedOrigins:       strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		SessionKeyPath:       os.Getenv("SESSION_KEY_PATH"),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		HistorianQueue: getEnv("HISTORIAN_QUEUE_NAME", "pyramid_actions"),

		DatabaseURL:        os.Getenv("DATABASE_URL"),
		HistorianBatchSize: getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:     time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		RoomInactivity:     getEnvDuration("ROOM_INACTIVITY_TIMEOUT", 30*time.Minute),
	}
}

// NewLogger builds the root logger from LogLevel and LogFormat.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.Warnf("invalid LOG_LEVEL %q, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration parses a Go duration such as "90s" or "2m".
func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
