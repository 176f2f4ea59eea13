package config

import (
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	App       AppConfig
	Ledger    LedgerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Alert     AlertConfig
	Report    ReportConfig
	Scheduler SchedulerConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	Name    string
	DevMode bool
}

// LedgerConfig selects and tunes the ledger record source.
type LedgerConfig struct {
	Source         string
	BaseURL        string
	TimeoutSeconds int
	MaxRetries     int
	BackoffMS      int
	MaxBackoffMS   int
	SystemToken    string
}

func (c LedgerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c LedgerConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffMS) * time.Millisecond
}

func (c LedgerConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffMS) * time.Millisecond
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

type CacheConfig struct {
	Driver              string
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	MemoryMaxEntries    int
	AnalyticsTTLSeconds int
}

func (c CacheConfig) AnalyticsTTL() time.Duration {
	return time.Duration(c.AnalyticsTTLSeconds) * time.Second
}

type AlertConfig struct {
	Sinks        []string
	KafkaBrokers []string
	KafkaTopic   string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string
	EmailTo      []string
}

type ReportConfig struct {
	Storage     string
	Dir         string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool
}

type SchedulerConfig struct {
	Enabled        bool
	Timezone       string
	AnomalyCheckAt string
	ReportAt       string
	ReportType     string
}

// Location resolves Timezone, falling back to UTC.
func (c SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || c.Timezone == "" {
		return time.UTC
	}
	return loc
}

type MetricsConfig struct {
	Enabled bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		instance = fromViper()

		if instance.Report.Storage == "local" {
			ensureDir(instance.Report.Dir)
		}
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8000")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")

	viper.SetDefault("APP_NAME", "salesflow-analytics")
	viper.SetDefault("DEV_MODE", false)

	viper.SetDefault("LEDGER_SOURCE", "http")
	viper.SetDefault("JAVA_API_URL", "http://localhost:8080/api/v1")
	viper.SetDefault("LEDGER_TIMEOUT_SECONDS", 10)
	viper.SetDefault("LEDGER_MAX_RETRIES", 3)
	viper.SetDefault("LEDGER_BACKOFF_MS", 500)
	viper.SetDefault("LEDGER_MAX_BACKOFF_MS", 4000)
	viper.SetDefault("SYSTEM_JWT_TOKEN", "")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "salesflow")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)

	viper.SetDefault("CACHE_DRIVER", "memory")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_MEMORY_MAX_ENTRIES", 1024)
	viper.SetDefault("CACHE_TTL_ANALYTICS_SECONDS", 300)

	viper.SetDefault("ALERT_SINKS", "log")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_ALERT_TOPIC", "salesflow.anomalies")
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USER", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("ALERT_EMAIL_FROM", "")
	viper.SetDefault("ALERT_EMAIL_TO", "")

	viper.SetDefault("REPORT_STORAGE", "local")
	viper.SetDefault("REPORT_DIR", "./reports/generated")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_ACCESS_KEY", "")
	viper.SetDefault("S3_SECRET_KEY", "")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_USE_SSL", true)

	viper.SetDefault("SCHEDULER_ENABLED", false)
	viper.SetDefault("SCHEDULER_TIMEZONE", "UTC")
	viper.SetDefault("ANOMALY_CHECK_AT", "06:00")
	viper.SetDefault("REPORT_AT", "00:00")
	viper.SetDefault("REPORT_TYPE", "sales")

	viper.SetDefault("METRICS_ENABLED", true)
}

func fromViper() *Config {
	devMode := viper.GetBool("DEV_MODE")
	source := strings.ToLower(viper.GetString("LEDGER_SOURCE"))
	if devMode {
		source = "mock"
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			DevMode: devMode,
		},
		Ledger: LedgerConfig{
			Source:         source,
			BaseURL:        strings.TrimRight(viper.GetString("JAVA_API_URL"), "/"),
			TimeoutSeconds: viper.GetInt("LEDGER_TIMEOUT_SECONDS"),
			MaxRetries:     viper.GetInt("LEDGER_MAX_RETRIES"),
			BackoffMS:      viper.GetInt("LEDGER_BACKOFF_MS"),
			MaxBackoffMS:   viper.GetInt("LEDGER_MAX_BACKOFF_MS"),
			SystemToken:    viper.GetString("SYSTEM_JWT_TOKEN"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			MaxConns: viper.GetInt("DB_MAX_CONNS"),
		},
		Cache: CacheConfig{
			Driver:              strings.ToLower(viper.GetString("CACHE_DRIVER")),
			RedisURL:            viper.GetString("REDIS_URL"),
			RedisHost:           viper.GetString("REDIS_HOST"),
			RedisPort:           viper.GetString("REDIS_PORT"),
			RedisPassword:       viper.GetString("REDIS_PASSWORD"),
			RedisDB:             viper.GetInt("REDIS_DB"),
			MemoryMaxEntries:    viper.GetInt("CACHE_MEMORY_MAX_ENTRIES"),
			AnalyticsTTLSeconds: viper.GetInt("CACHE_TTL_ANALYTICS_SECONDS"),
		},
		Alert: AlertConfig{
			Sinks:        SplitList(viper.GetString("ALERT_SINKS")),
			KafkaBrokers: SplitList(viper.GetString("KAFKA_BROKERS")),
			KafkaTopic:   viper.GetString("KAFKA_ALERT_TOPIC"),
			SMTPHost:     viper.GetString("SMTP_HOST"),
			SMTPPort:     viper.GetInt("SMTP_PORT"),
			SMTPUser:     viper.GetString("SMTP_USER"),
			SMTPPassword: viper.GetString("SMTP_PASSWORD"),
			EmailFrom:    viper.GetString("ALERT_EMAIL_FROM"),
			EmailTo:      SplitList(viper.GetString("ALERT_EMAIL_TO")),
		},
		Report: ReportConfig{
			Storage:     strings.ToLower(viper.GetString("REPORT_STORAGE")),
			Dir:         viper.GetString("REPORT_DIR"),
			S3Endpoint:  viper.GetString("S3_ENDPOINT"),
			S3AccessKey: viper.GetString("S3_ACCESS_KEY"),
			S3SecretKey: viper.GetString("S3_SECRET_KEY"),
			S3Bucket:    viper.GetString("S3_BUCKET"),
			S3Region:    viper.GetString("S3_REGION"),
			S3UseSSL:    viper.GetBool("S3_USE_SSL"),
		},
		Scheduler: SchedulerConfig{
			Enabled:        viper.GetBool("SCHEDULER_ENABLED"),
			Timezone:       viper.GetString("SCHEDULER_TIMEZONE"),
			AnomalyCheckAt: viper.GetString("ANOMALY_CHECK_AT"),
			ReportAt:       viper.GetString("REPORT_AT"),
			ReportType:     strings.ToLower(viper.GetString("REPORT_TYPE")),
		},
		Metrics: MetricsConfig{
			Enabled: viper.GetBool("METRICS_ENABLED"),
		},
	}
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
