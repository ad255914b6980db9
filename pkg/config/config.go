package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	SMTP          SMTPConfig
	CORS          CORSConfig
	Log           LogConfig
	Notifications NotificationsConfig
	Matching      MatchingConfig
	Board         BoardConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SMTPConfig configures the outbound mail channel.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// NotificationsConfig tunes the dispatcher and queue processor.
type NotificationsConfig struct {
	DebounceWindow  time.Duration
	BatchSize       int
	ProcessInterval time.Duration
	SendTimeout     time.Duration
}

// MatchingConfig tunes the match-finder fan-out path.
type MatchingConfig struct {
	ResultCap          int
	AdmissionThreshold int
	SynthesizedScore   int
	FanOutTimeout      time.Duration
	WorkerConcurrency  int
}

// BoardConfig governs candidate-board caching.
type BoardConfig struct {
	CacheTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.SMTP = SMTPConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetString("SMTP_PORT"),
		Username: v.GetString("SMTP_USERNAME"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("SMTP_FROM"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Notifications = NotificationsConfig{
		DebounceWindow:  parseDuration(v.GetString("NOTIFY_DEBOUNCE_WINDOW"), time.Minute),
		BatchSize:       v.GetInt("NOTIFY_BATCH_SIZE"),
		ProcessInterval: parseDuration(v.GetString("NOTIFY_PROCESS_INTERVAL"), time.Minute),
		SendTimeout:     parseDuration(v.GetString("NOTIFY_SEND_TIMEOUT"), 10*time.Second),
	}

	cfg.Matching = MatchingConfig{
		ResultCap:          v.GetInt("MATCH_RESULT_CAP"),
		AdmissionThreshold: v.GetInt("MATCH_ADMISSION_THRESHOLD"),
		SynthesizedScore:   v.GetInt("MATCH_SYNTHESIZED_SCORE"),
		FanOutTimeout:      parseDuration(v.GetString("MATCH_FANOUT_TIMEOUT"), 15*time.Second),
		WorkerConcurrency:  v.GetInt("MATCH_WORKER_CONCURRENCY"),
	}

	cfg.Board = BoardConfig{
		CacheTTL: parseDuration(v.GetString("BOARD_CACHE_TTL"), 5*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "schoolhire_match")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "no-reply@schoolhire.io")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("NOTIFY_DEBOUNCE_WINDOW", "60s")
	v.SetDefault("NOTIFY_BATCH_SIZE", 50)
	v.SetDefault("NOTIFY_PROCESS_INTERVAL", "1m")
	v.SetDefault("NOTIFY_SEND_TIMEOUT", "10s")

	v.SetDefault("MATCH_RESULT_CAP", 50)
	v.SetDefault("MATCH_ADMISSION_THRESHOLD", 40)
	v.SetDefault("MATCH_SYNTHESIZED_SCORE", 5)
	v.SetDefault("MATCH_FANOUT_TIMEOUT", "15s")
	v.SetDefault("MATCH_WORKER_CONCURRENCY", 2)

	v.SetDefault("BOARD_CACHE_TTL", "5m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
