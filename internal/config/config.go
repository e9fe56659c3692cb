package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPTimeoutsConfig struct {
	Read     time.Duration
	Idle     time.Duration
	Write    time.Duration
	Shutdown time.Duration // how long we give the shutdown process to gracefully terminate
}

type HTTPConfig struct {
	Port     int
	Timeouts HTTPTimeoutsConfig
}

type RateLimiterConfig struct {
	RPS   int
	Burst int
}

type LoggerConfig struct {
	Level slog.Level
}

type AppConfig struct {
	Name        string
	Environment string // 'dev' | 'prod'
}

type DBConfig struct {
	Path           string
	MigrationsPath string
}

// StorageConfig selects and parameterizes the asset backend.
type StorageConfig struct {
	Backend       string // 'local' | 's3'
	UploadsDir    string // base directory for the local backend
	PublicBaseURL string // URL prefix under which stored assets are reachable
}

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

type UploadConfig struct {
	MaxFormMemory  int64 // bytes held in RAM while parsing multipart bodies
	MaxRequestSize int64 // hard cap on a submission body
}

type ProxyConfig struct {
	Trusted bool
}

type TelemetryConfig struct {
	EnableTelemetry bool
	OtelEndpoint    string
}

type Config struct {
	App       AppConfig
	DB        DBConfig
	Storage   StorageConfig
	S3        S3Config
	Upload    UploadConfig
	Proxy     ProxyConfig
	HTTP      HTTPConfig
	Limiter   RateLimiterConfig
	Logger    LoggerConfig
	Telemetry TelemetryConfig
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "blogapi",
			Environment: "prod",
		},
		DB: DBConfig{
			Path:           "blogapi.db",
			MigrationsPath: "./migrations",
		},
		Storage: StorageConfig{
			Backend:       "local",
			UploadsDir:    "./uploads",
			PublicBaseURL: "/uploads",
		},
		S3: S3Config{
			Region: "garage",
		},
		Upload: UploadConfig{
			MaxFormMemory:  10 << 20, // matches the 10mb body limit the editor frontend expects
			MaxRequestSize: 32 << 20,
		},
		Proxy: ProxyConfig{
			Trusted: false,
		},
		HTTP: HTTPConfig{
			Port: 8000,
			Timeouts: HTTPTimeoutsConfig{
				Read:     10 * time.Second,
				Write:    30 * time.Second,
				Idle:     10 * time.Minute,
				Shutdown: 10 * time.Second,
			},
		},
		Limiter: RateLimiterConfig{
			RPS:   20,
			Burst: 50,
		},
		Logger: LoggerConfig{
			Level: slog.LevelInfo,
		},
		Telemetry: TelemetryConfig{
			OtelEndpoint: "localhost:4318",
		},
	}
}

func LoadWithDefaults() *Config {
	defaults := DefaultConfig()
	return &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", defaults.App.Name),
			Environment: getEnv("APP_ENV", defaults.App.Environment),
		},
		DB: DBConfig{
			Path:           getEnv("DB_PATH", defaults.DB.Path),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", defaults.DB.MigrationsPath),
		},
		Storage: StorageConfig{
			Backend:       getEnv("STORAGE_BACKEND", defaults.Storage.Backend),
			UploadsDir:    getEnv("STORAGE_UPLOADS_DIR", defaults.Storage.UploadsDir),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", defaults.Storage.PublicBaseURL),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", defaults.S3.Endpoint),
			Region:    getEnv("S3_REGION", defaults.S3.Region),
			Bucket:    getEnv("S3_BUCKET", defaults.S3.Bucket),
			AccessKey: getEnv("S3_ACCESS_KEY", defaults.S3.AccessKey),
			SecretKey: getEnv("S3_SECRET_KEY", defaults.S3.SecretKey),
		},
		Upload: UploadConfig{
			MaxFormMemory:  getEnvAsInt64("UPLOAD_MAX_FORM_MEMORY", defaults.Upload.MaxFormMemory),
			MaxRequestSize: getEnvAsInt64("UPLOAD_MAX_REQUEST_SIZE", defaults.Upload.MaxRequestSize),
		},
		Proxy: ProxyConfig{
			Trusted: getEnvAsBool("PROXY_TRUSTED", defaults.Proxy.Trusted),
		},
		HTTP: HTTPConfig{
			Port: getEnvAsInt("PORT", defaults.HTTP.Port),
			Timeouts: HTTPTimeoutsConfig{
				Read:     getEnvAsDuration("HTTP_READ_TIMEOUT", defaults.HTTP.Timeouts.Read),
				Write:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", defaults.HTTP.Timeouts.Write),
				Idle:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", defaults.HTTP.Timeouts.Idle),
				Shutdown: getEnvAsDuration("HTTP_SHUTDOWN_DELAY", defaults.HTTP.Timeouts.Shutdown),
			},
		},
		Limiter: RateLimiterConfig{
			RPS:   getEnvAsInt("LIMITER_RPS", defaults.Limiter.RPS),
			Burst: getEnvAsInt("LIMITER_BURST", defaults.Limiter.Burst),
		},
		Logger: LoggerConfig{
			Level: getEnvAsLogLevel("LOGGER_LEVEL", defaults.Logger.Level),
		},
		Telemetry: TelemetryConfig{
			EnableTelemetry: getEnvAsBool("ENABLE_TELEMETRY", false),
			OtelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", defaults.Telemetry.OtelEndpoint),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsLogLevel(key string, fallback slog.Level) slog.Level {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	switch strings.ToLower(valueStr) {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("APP_NAME must not be empty")
	}
	if s := strings.ToLower(c.App.Environment); s != "dev" && s != "prod" {
		return fmt.Errorf(`APP_ENV must be "dev" or "prod"`)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.DB.MigrationsPath == "" {
		return fmt.Errorf("DB_MIGRATIONS_PATH must not be empty")
	}
	// stay away from well-known ports
	if p := c.HTTP.Port; p < 1024 || p > 65535 {
		return fmt.Errorf("PORT must be a positive int between 1024 and 65535, got %d", p)
	}
	if c.HTTP.Timeouts.Read <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT must be positive (e.g., 5s), got %s", c.HTTP.Timeouts.Read)
	}
	if c.HTTP.Timeouts.Write <= 0 {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Write)
	}
	if c.HTTP.Timeouts.Idle <= 0 {
		return fmt.Errorf("HTTP_IDLE_TIMEOUT must be positive (e.g., 2m), got %s", c.HTTP.Timeouts.Idle)
	}
	if c.HTTP.Timeouts.Shutdown <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_DELAY must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Shutdown)
	}
	if c.Limiter.RPS <= 0 {
		return fmt.Errorf("LIMITER_RPS must be positive, got %d", c.Limiter.RPS)
	}
	if c.Limiter.Burst <= 0 {
		return fmt.Errorf("LIMITER_BURST must be positive, got %d", c.Limiter.Burst)
	}
	if c.Upload.MaxFormMemory <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FORM_MEMORY must be positive, got %d", c.Upload.MaxFormMemory)
	}
	if c.Upload.MaxRequestSize < c.Upload.MaxFormMemory {
		return fmt.Errorf("UPLOAD_MAX_REQUEST_SIZE must not be smaller than UPLOAD_MAX_FORM_MEMORY")
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.UploadsDir == "" {
			return fmt.Errorf("STORAGE_UPLOADS_DIR must not be empty for the local backend")
		}
	case "s3":
		if c.S3.Endpoint == "" {
			return fmt.Errorf("S3_ENDPOINT must not be empty for the s3 backend")
		}
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET must not be empty for the s3 backend")
		}
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY must be set for the s3 backend")
		}
	default:
		return fmt.Errorf(`STORAGE_BACKEND must be "local" or "s3", got %q`, c.Storage.Backend)
	}

	if c.Storage.PublicBaseURL == "" {
		return fmt.Errorf("STORAGE_PUBLIC_BASE_URL must not be empty")
	}

	return nil
}
