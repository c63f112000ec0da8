package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"fulfillment/internal/pkg/errs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	HTTPPort        string        `envconfig:"HTTP_PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`

	Storage    string `envconfig:"STORAGE" default:"postgres"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"fulfillment"`
	DBSslMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	KafkaHost              string `envconfig:"KAFKA_HOST"`
	KafkaOrderChangedTopic string `envconfig:"KAFKA_ORDER_CHANGED_TOPIC" default:"order.changed"`
	KafkaQueueSize         int    `envconfig:"KAFKA_QUEUE_SIZE" default:"1024"`

	SeedFile string `envconfig:"SEED_FILE"`

	GeocoderURL       string `envconfig:"GEOCODER_URL"`
	GeocoderCacheSize int    `envconfig:"GEOCODER_CACHE_SIZE" default:"1024"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	FeeBase   int64   `envconfig:"FEE_BASE" default:"15000"`
	FeePerKm  int64   `envconfig:"FEE_PER_KM" default:"5000"`
	FeeFreeKm float64 `envconfig:"FEE_FREE_KM" default:"3"`

	OtpLength      int     `envconfig:"OTP_LENGTH" default:"6"`
	OtpVerifyRPS   float64 `envconfig:"OTP_VERIFY_RPS" default:"0.2"`
	OtpVerifyBurst int     `envconfig:"OTP_VERIFY_BURST" default:"5"`

	Timezone               string        `envconfig:"TIMEZONE" default:"Asia/Ho_Chi_Minh"`
	EventQueueSize         int           `envconfig:"EVENT_QUEUE_SIZE" default:"64"`
	StreamHeartbeat        time.Duration `envconfig:"STREAM_HEARTBEAT" default:"25s"`
	RevenueRebuildCron     string        `envconfig:"REVENUE_REBUILD_CRON" default:"0 0 * * * *"`
	AvailabilityResyncCron string        `envconfig:"AVAILABILITY_RESYNC_CRON" default:"@every 30s"`
}

// LoadConfig reads envFile into the environment, when it exists, and then the
// environment into a Config. Variables already set win over the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var problems []error
	switch c.Storage {
	case StoragePostgres, StorageMemory:
	default:
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("STORAGE",
			fmt.Errorf("%q is neither %q nor %q", c.Storage, StoragePostgres, StorageMemory)))
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		problems = append(problems, errs.NewValueIsRequiredError("JWT_SECRET"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("TIMEZONE", err))
	}
	if _, err := c.Level(); err != nil {
		problems = append(problems, err)
	}
	return errors.Join(problems...)
}

// DSN is the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, errs.NewValueIsInvalidErrorWithCause("LOG_LEVEL", err)
	}
	return level, nil
}
