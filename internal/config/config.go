package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix префикс переменных окружения, переопределяющих значения из файла
// Например: SLOTS_DATABASE_HOST, SLOTS_LEDGER_BACKEND
const EnvPrefix = "SLOTS"

// Бэкенды ledger
const (
	LedgerBackendPostgres = "postgres"
	LedgerBackendRedis    = "redis"
	LedgerBackendMemory   = "memory"
)

var (
	// ErrInvalidConfig возвращается при некорректных значениях конфигурации
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config конфигурация сервиса
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Redis      RedisConfig      `toml:"redis"`
	Logs       LogsConfig       `toml:"logs"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Ledger     LedgerConfig     `toml:"ledger"`
	Scheduler  SchedulerConfig  `toml:"scheduler"`
	Reconciler ReconcilerConfig `toml:"reconciler"`
	RateLimit  RateLimitConfig  `toml:"ratelimit"`
	Cache      CacheConfig      `toml:"cache"`
}

// ServerConfig HTTP сервер (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port" split_words:"true"`
	ReadTimeout     int `toml:"read_timeout" split_words:"true"`
	WriteTimeout    int `toml:"write_timeout" split_words:"true"`
	IdleTimeout     int `toml:"idle_timeout" split_words:"true"`
	ShutdownTimeout int `toml:"shutdown_timeout" split_words:"true"`
}

// DatabaseConfig PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns" split_words:"true"`
	MaxIdleConns    int    `toml:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime" split_words:"true"`
	MigrationsPath  string `toml:"migrations_path" split_words:"true"`
	AutoMigrate     bool   `toml:"auto_migrate" split_words:"true"`
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig Redis (ledger и кэш доступности)
type RedisConfig struct {
	Addr        string `toml:"addr"`
	Password    string `toml:"password"`
	DB          int    `toml:"db"`
	DialTimeout int    `toml:"dial_timeout" split_words:"true"`
}

// LogsConfig логирование
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name" split_words:"true"`
}

// LedgerConfig хранилище счетчиков занятости слотов
type LedgerConfig struct {
	Backend            string `toml:"backend"`
	OperationTimeoutMs int    `toml:"operation_timeout_ms" split_words:"true"`
}

// OperationTimeout ограничение по времени одной операции ledger
func (c LedgerConfig) OperationTimeout() time.Duration {
	return time.Duration(c.OperationTimeoutMs) * time.Millisecond
}

// SchedulerConfig правила бронирования
type SchedulerConfig struct {
	Timezone        string `toml:"timezone"`
	ShowFullSlots   bool   `toml:"show_full_slots" split_words:"true"`
	InitialStatus   string `toml:"initial_status" split_words:"true"`
	ReserveRetries  int    `toml:"reserve_retries" split_words:"true"`
	RetryIntervalMs int    `toml:"retry_interval_ms" split_words:"true"`
}

// Location часовой пояс, в котором считаются даты и время слотов
func (c SchedulerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// ReconcilerConfig фоновая сверка ledger с бронированиями (в секундах)
type ReconcilerConfig struct {
	Enabled     bool `toml:"enabled"`
	Interval    int  `toml:"interval"`
	GracePeriod int  `toml:"grace_period" split_words:"true"`
	BatchSize   int  `toml:"batch_size" split_words:"true"`
}

// RateLimitConfig ограничение частоты изменяющих запросов на клиента
type RateLimitConfig struct {
	Enabled bool    `toml:"enabled"`
	RPS     float64 `toml:"rps"`
	Burst   int     `toml:"burst"`
}

// CacheConfig кэши (в секундах)
type CacheConfig struct {
	ScheduleTTL         int    `toml:"schedule_ttl" split_words:"true"`
	ScheduleCleanup     int    `toml:"schedule_cleanup" split_words:"true"`
	AvailabilityEnabled bool   `toml:"availability_enabled" split_words:"true"`
	AvailabilityPrefix  string `toml:"availability_prefix" split_words:"true"`
}

// Load читает конфигурацию из TOML файла, затем применяет переменные окружения
// (и файл .env, если он есть)
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default значения по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			DBName:          "petcare_slots",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			MigrationsPath:  "migrations",
			AutoMigrate:     true,
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			DialTimeout: 5,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "petcare-slot-service",
		},
		Ledger: LedgerConfig{
			Backend:            LedgerBackendPostgres,
			OperationTimeoutMs: 2000,
		},
		Scheduler: SchedulerConfig{
			Timezone:        "UTC",
			ShowFullSlots:   true,
			InitialStatus:   "confirmed",
			ReserveRetries:  3,
			RetryIntervalMs: 50,
		},
		Reconciler: ReconcilerConfig{
			Enabled:     true,
			Interval:    60,
			GracePeriod: 300,
			BatchSize:   100,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     5,
			Burst:   10,
		},
		Cache: CacheConfig{
			ScheduleTTL:         60,
			ScheduleCleanup:     300,
			AvailabilityEnabled: true,
			AvailabilityPrefix:  "availability",
		},
	}
}

// Validate проверяет значения, без которых сервис не может стартовать
func (c *Config) Validate() error {
	switch c.Ledger.Backend {
	case LedgerBackendPostgres, LedgerBackendRedis, LedgerBackendMemory:
	default:
		return fmt.Errorf("%w: unknown ledger backend %q", ErrInvalidConfig, c.Ledger.Backend)
	}

	if c.Ledger.OperationTimeoutMs <= 0 {
		return fmt.Errorf("%w: ledger.operation_timeout_ms must be positive", ErrInvalidConfig)
	}

	switch c.Scheduler.InitialStatus {
	case "pending", "confirmed":
	default:
		return fmt.Errorf("%w: scheduler.initial_status must be pending or confirmed, got %q",
			ErrInvalidConfig, c.Scheduler.InitialStatus)
	}

	if c.Scheduler.ReserveRetries < 0 {
		return fmt.Errorf("%w: scheduler.reserve_retries must not be negative", ErrInvalidConfig)
	}

	if _, err := c.Scheduler.Location(); err != nil {
		return fmt.Errorf("%w: scheduler.timezone: %v", ErrInvalidConfig, err)
	}

	if c.Reconciler.Enabled && (c.Reconciler.Interval <= 0 || c.Reconciler.GracePeriod <= 0) {
		return fmt.Errorf("%w: reconciler interval and grace_period must be positive", ErrInvalidConfig)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("%w: ratelimit rps and burst must be positive", ErrInvalidConfig)
	}

	return nil
}
