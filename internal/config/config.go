package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string `validate:"required,oneof=dev test prod"`
	Port       int    `validate:"min=0,max=65535"`
	DBURL      string `validate:"required_if=StoreDriver postgres"`
	DBMaxConns int32  `validate:"min=1"`

	StoreDriver  string `validate:"oneof=postgres memory"`
	SessionStore string `validate:"oneof=postgres redis memory"`

	JWTSecret         string `validate:"required,min=8"`
	SessionTTLMinutes int    `validate:"min=1"`

	PlacesAPIKey  string
	PlacesBaseURL string `validate:"required,url"`

	RedisAddr     string `validate:"required_if=SessionStore redis"`
	RedisPassword string
	RedisDB       int `validate:"min=0"`

	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64 `validate:"min=0,max=1"`

	RequestTimeoutMS   int      `validate:"min=1"`
	MaxBodyBytes       int64    `validate:"min=1"`
	CORSAllowedOrigins []string `validate:"dive,url"`
}

func Load() Config {
	// a missing .env is fine, real deployments inject the environment
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)
	dbURL := buildDBURL()

	storeDriver := getEnv("STORE_DRIVER", "postgres")

	return Config{
		Env:        env,
		Port:       port,
		DBURL:      dbURL,
		DBMaxConns: int32(getEnvInt("DB_MAX_CONNS", 5)),

		StoreDriver:  storeDriver,
		SessionStore: getEnv("SESSION_STORE", storeDriver),

		JWTSecret:         getEnv("JWT_SECRET", getEnv("KEY_JWT", "")),
		SessionTTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 60),

		PlacesAPIKey:  getEnv("PLACES_API_KEY", getEnv("API_KEY", "")),
		PlacesBaseURL: getEnv("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1),

		RequestTimeoutMS:   getEnvInt("REQUEST_TIMEOUT_MS", 3000),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
	}
}

// Validate reports the first misconfigured field.
func (c Config) Validate() error {
	err := validator.New().Struct(c)

	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "placeshub")
	pass := getEnv("DB_PASSWORD", "placeshub")
	name := getEnv("DB_NAME", "placeshub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env value, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)

		if err != nil {
			slog.Warn("invalid float env value, using default", "key", key, "value", v)
			return fallback
		}

		return f
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			slog.Warn("invalid boolean env value, using default", "key", key, "value", v)
			return fallback
		}

		return b
	}
	return fallback
}

// getEnvList reads a comma separated list, dropping blanks.
func getEnvList(key string) []string {
	var out []string

	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
