package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	JWT      JWTConfig
	S3       S3Config
	Log      LogConfig
	CORS     CORSConfig
	Queue    QueueConfig
	Upload   UploadConfig
	Analysis AnalysisConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_expiry"`
	Issuer             string        `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// QueueConfig holds processing queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// UploadConfig holds document upload limits.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

// AnalysisConfig holds tunables for the financial analysis engine's
// estimation heuristics.
type AnalysisConfig struct {
	AnnualIncomeThreshold float64 `mapstructure:"annual_income_threshold"`
	ValueMultiplier       float64 `mapstructure:"value_multiplier"`
	DefaultLTV            float64 `mapstructure:"default_ltv"`
	DebtServiceRate       float64 `mapstructure:"debt_service_rate"`
}

// Load reads configuration from environment variables with the UW_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("UW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "underwriter")
	v.SetDefault("db.password", "underwriter_secret")
	v.SetDefault("db.name", "underwriter_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "30m")
	v.SetDefault("jwt.refresh_expiry", "168h")
	v.SetDefault("jwt.issuer", "underwriter")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "underwriter-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.concurrency", 5)

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 50)

	// Analysis defaults
	v.SetDefault("analysis.annual_income_threshold", 100000.0)
	v.SetDefault("analysis.value_multiplier", 2.0)
	v.SetDefault("analysis.default_ltv", 0.7)
	v.SetDefault("analysis.debt_service_rate", 0.08)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                      "UW_SERVER_PORT",
		"server.read_timeout":              "UW_SERVER_READ_TIMEOUT",
		"server.write_timeout":             "UW_SERVER_WRITE_TIMEOUT",
		"server.environment":               "UW_SERVER_ENVIRONMENT",
		"db.host":                          "UW_DB_HOST",
		"db.port":                          "UW_DB_PORT",
		"db.user":                          "UW_DB_USER",
		"db.password":                      "UW_DB_PASSWORD",
		"db.name":                          "UW_DB_NAME",
		"db.sslmode":                       "UW_DB_SSLMODE",
		"db.max_open":                      "UW_DB_MAX_OPEN",
		"db.max_idle":                      "UW_DB_MAX_IDLE",
		"jwt.secret":                       "UW_JWT_SECRET",
		"jwt.access_expiry":                "UW_JWT_ACCESS_EXPIRY",
		"jwt.refresh_expiry":               "UW_JWT_REFRESH_EXPIRY",
		"jwt.issuer":                       "UW_JWT_ISSUER",
		"s3.region":                        "UW_S3_REGION",
		"s3.bucket":                        "UW_S3_BUCKET",
		"s3.endpoint":                      "UW_S3_ENDPOINT",
		"s3.access_key":                    "UW_S3_ACCESS_KEY",
		"s3.secret_key":                    "UW_S3_SECRET_KEY",
		"s3.presign_expiry":                "UW_S3_PRESIGN_EXPIRY",
		"log.level":                        "UW_LOG_LEVEL",
		"log.format":                       "UW_LOG_FORMAT",
		"cors.allowed_origins":             "UW_CORS_ALLOWED_ORIGINS",
		"queue.poll_interval_secs":         "UW_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":                "UW_QUEUE_MAX_RETRIES",
		"queue.concurrency":                "UW_QUEUE_CONCURRENCY",
		"upload.max_file_size_mb":          "UW_UPLOAD_MAX_FILE_SIZE_MB",
		"analysis.annual_income_threshold": "UW_ANALYSIS_ANNUAL_INCOME_THRESHOLD",
		"analysis.value_multiplier":        "UW_ANALYSIS_VALUE_MULTIPLIER",
		"analysis.default_ltv":             "UW_ANALYSIS_DEFAULT_LTV",
		"analysis.debt_service_rate":       "UW_ANALYSIS_DEBT_SERVICE_RATE",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if UW_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("UW_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:             v.GetString("jwt.secret"),
		AccessTokenExpiry:  v.GetDuration("jwt.access_expiry"),
		RefreshTokenExpiry: v.GetDuration("jwt.refresh_expiry"),
		Issuer:             v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxRetries:       v.GetInt("queue.max_retries"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}

	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
	}

	cfg.Analysis = AnalysisConfig{
		AnnualIncomeThreshold: v.GetFloat64("analysis.annual_income_threshold"),
		ValueMultiplier:       v.GetFloat64("analysis.value_multiplier"),
		DefaultLTV:            v.GetFloat64("analysis.default_ltv"),
		DebtServiceRate:       v.GetFloat64("analysis.debt_service_rate"),
	}

	return cfg, nil
}
