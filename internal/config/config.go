package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Call durations used when CALL_DURATION_SECONDS is not set.
const (
	ShortCallSeconds = 30
	LongCallSeconds  = 900
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver     string // mysql | sqlite
		DSN        string
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		SQLitePath string
	}

	Store struct {
		Backend      string // gorm | memory
		SnapshotPath string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	Auth struct {
		JWTSecret  string
		SessionTTL time.Duration
		OTPTTL     time.Duration
		DemoLogin  bool
	}

	Call struct {
		DurationSeconds int
		MissedGrace     time.Duration
		SweepInterval   time.Duration
	}

	Match struct {
		AutoMatch bool
	}

	Feedback struct {
		ArchiveOnMutualPass bool
	}

	Sentry struct {
		DSN string
	}
}

// New builds the configuration from the environment. A .env file in the
// working directory is loaded first when present; real env vars win.
func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = strings.ToLower(getEnvDefault("APP_ENV", EnvDevelopment))

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "grpc_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.SQLitePath = getEnvDefault("SQLITE_PATH", "callfirst.db")
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "callfirst")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Storage backend
	cfg.Store.Backend = strings.ToLower(getEnvDefault("STORE_BACKEND", "gorm"))
	cfg.Store.SnapshotPath = getEnvDefault("STORE_SNAPSHOT_PATH", "")

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", "dev-secret-change-me")
	cfg.Auth.SessionTTL = getEnvDuration("SESSION_TTL", 30*24*time.Hour)
	cfg.Auth.OTPTTL = getEnvDuration("OTP_TTL", 5*time.Minute)
	cfg.Auth.DemoLogin = getEnvBool("AUTH_DEMO_LOGIN", !cfg.IsProduction())

	// Calls: short in dev/test builds, long in production
	defaultDuration := ShortCallSeconds
	if cfg.IsProduction() {
		defaultDuration = LongCallSeconds
	}
	cfg.Call.DurationSeconds = getEnvPositiveInt("CALL_DURATION_SECONDS", defaultDuration)
	cfg.Call.MissedGrace = getEnvDuration("CALL_MISSED_GRACE", 10*time.Minute)
	cfg.Call.SweepInterval = getEnvDuration("CALL_SWEEP_INTERVAL", time.Minute)

	// Auto-match is a dev/test override and is never honoured in production.
	cfg.Match.AutoMatch = isTruthy(os.Getenv("MATCH_AUTO_MATCH")) && !cfg.IsProduction()

	cfg.Feedback.ArchiveOnMutualPass = isTruthy(os.Getenv("FEEDBACK_ARCHIVE_ON_MUTUAL_PASS"))

	// Error tracking stays off without a DSN
	cfg.Sentry.DSN = os.Getenv("SENTRY_DSN")

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.App.ENV == EnvProduction || c.App.ENV == "prod"
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return v
	}
	return def
}

// getEnvPositiveInt is getEnvInt that also falls back for values <= 0.
func getEnvPositiveInt(k string, def int) int {
	if v := getEnvInt(k, def); v > 0 {
		return v
	}
	return def
}

func getEnvBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return isTruthy(v)
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvDefault(k, "")); err == nil && d > 0 {
		return d
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
