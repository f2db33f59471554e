package app

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/cliq-relay-backend/internal/clients/mlservice"
	"github.com/yungbote/cliq-relay-backend/internal/clients/redis"
	"github.com/yungbote/cliq-relay-backend/internal/data/db"
	"github.com/yungbote/cliq-relay-backend/internal/observability"
	"github.com/yungbote/cliq-relay-backend/internal/platform/envutil"
)

const (
	ServiceName = "cliq-relay"
	Version     = "0.1.0"

	defaultPort = "5000"
)

type Config struct {
	Env        string
	Production bool
	Port       string

	DB db.Config

	MLServiceURL string
	MLTimeout    time.Duration
	MLMaxRetries int

	CORSOrigins []string

	RedisAddr    string
	RedisChannel string

	MetricsEnabled bool
	Otel           observability.OtelConfig
}

func LoadConfig(env *envutil.Env) Config {
	appEnv := strings.ToLower(env.First("development", "APP_ENV", "NODE_ENV"))
	production := appEnv == "production" || appEnv == "prod"

	return Config{
		Env:        appEnv,
		Production: production,
		Port:       env.String("PORT", defaultPort),
		DB: db.Config{
			Driver:          env.String("DB_DRIVER", db.DriverPostgres),
			DSN:             databaseDSN(env),
			MaxOpenConns:    env.Int("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    env.Int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.Seconds("DB_CONN_MAX_LIFETIME_SECONDS", 5*time.Minute),
			SlowThreshold:   time.Duration(env.Int("DB_SLOW_QUERY_MS", 1000)) * time.Millisecond,
		},
		MLServiceURL: env.String("ML_SERVICE_URL", mlservice.DefaultBaseURL),
		MLTimeout:    env.Seconds("ML_SERVICE_TIMEOUT_SECONDS", mlservice.DefaultTimeout),
		MLMaxRetries: env.Int("ML_SERVICE_MAX_RETRIES", 0),
		CORSOrigins:  env.List("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RedisAddr:    env.String("REDIS_ADDR", ""),
		RedisChannel: env.String("REDIS_CHANNEL", redis.DefaultChannel),

		MetricsEnabled: env.Bool("METRICS_ENABLED", true),
		Otel: observability.OtelConfig{
			Enabled:     env.Bool("OTEL_ENABLED", false),
			ServiceName: env.String("OTEL_SERVICE_NAME", ServiceName),
			Environment: appEnv,
			Version:     Version,
			Endpoint:    env.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(env.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    env.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: env.Float("OTEL_SAMPLER_RATIO", 0.1),
		},
	}
}

// databaseDSN prefers DATABASE_URL, then a sqlite path when that driver is
// selected, then discrete postgres settings.
func databaseDSN(env *envutil.Env) string {
	if dsn := env.String("DATABASE_URL", ""); dsn != "" {
		return dsn
	}
	if strings.EqualFold(env.String("DB_DRIVER", ""), db.DriverSQLite) {
		return env.String("SQLITE_PATH", "file:cliq-relay.db?cache=shared")
	}
	u := url.URL{
		Scheme: "postgres",
		User: url.UserPassword(
			env.First("postgres", "POSTGRES_USER", "DB_USER"),
			env.First("postgres", "POSTGRES_PASSWORD", "DB_PASS"),
		),
		Host: fmt.Sprintf("%s:%s",
			env.First("localhost", "POSTGRES_HOST", "DB_HOST"),
			env.First("5432", "POSTGRES_PORT", "DB_PORT"),
		),
		Path: "/" + env.First("cliq_extension_db", "POSTGRES_NAME", "POSTGRES_DB", "DB_NAME"),
	}
	q := url.Values{}
	q.Set("sslmode", env.First("disable", "POSTGRES_SSLMODE"))
	q.Set("TimeZone", "UTC")
	u.RawQuery = q.Encode()
	return u.String()
}

func (c Config) Addr() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	if port == "" {
		port = defaultPort
	}
	return "0.0.0.0:" + port
}
