package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32
	KVTimeout   time.Duration

	// If true:
	// - /readyz returns 503 unless the database is configured and reachable.
	ReadinessRequireDB bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("ARBGATE_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("ARBGATE_LOG_LEVEL", "info"),
		LogFormat: EnvString("ARBGATE_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("ARBGATE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("ARBGATE_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("ARBGATE_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("ARBGATE_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("ARBGATE_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("ARBGATE_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("ARBGATE_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("ARBGATE_DB_MIN_CONNS", 0),
		KVTimeout:   EnvDuration("ARBGATE_KV_TIMEOUT", 3*time.Second),

		ReadinessRequireDB: EnvBool("ARBGATE_READINESS_REQUIRE_DB", false),
	}
}
