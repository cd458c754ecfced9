package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is empty because every field tag carries the full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Orders       OrdersConfig
	Cron         CronConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GREENTRADE_APP_ENV" required:"true"`
	Port         string `envconfig:"GREENTRADE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GREENTRADE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GREENTRADE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GREENTRADE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GREENTRADE_DB_DSN"`
	Driver string `envconfig:"GREENTRADE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"GREENTRADE_DB_HOST"`
	Port     int    `envconfig:"GREENTRADE_DB_PORT" default:"5432"`
	User     string `envconfig:"GREENTRADE_DB_USER"`
	Password string `envconfig:"GREENTRADE_DB_PASSWORD"`
	Name     string `envconfig:"GREENTRADE_DB_NAME"`
	SSLMode  string `envconfig:"GREENTRADE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GREENTRADE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GREENTRADE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GREENTRADE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GREENTRADE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either GREENTRADE_DB_DSN or host/user/name settings are required")
	}
	userInfo := url.User(d.User)
	if d.Password != "" {
		userInfo = url.UserPassword(d.User, d.Password)
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	d.DSN = dsn.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"GREENTRADE_REDIS_URL"`
	Address      string        `envconfig:"GREENTRADE_REDIS_ADDR"`
	Password     string        `envconfig:"GREENTRADE_REDIS_PASSWORD"`
	DB           int           `envconfig:"GREENTRADE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GREENTRADE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GREENTRADE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GREENTRADE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GREENTRADE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GREENTRADE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"GREENTRADE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"GREENTRADE_JWT_ISSUER" default:"greentrade"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GREENTRADE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GREENTRADE_AUTO_MIGRATE" default:"false"`
}

// OrdersConfig carries the time-windowed business policy parameters.
type OrdersConfig struct {
	PendingTimeout time.Duration `envconfig:"GREENTRADE_ORDERS_PENDING_TIMEOUT" default:"30m"`
	ReturnWindow   time.Duration `envconfig:"GREENTRADE_ORDERS_RETURN_WINDOW" default:"168h"`
	TaxRate        string        `envconfig:"GREENTRADE_ORDERS_TAX_RATE" default:"0"`
	NumberAttempts int           `envconfig:"GREENTRADE_ORDERS_NUMBER_ATTEMPTS" default:"5"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"GREENTRADE_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"GREENTRADE_CRON_LOCK_TTL" default:"4m"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"GREENTRADE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrderEventsTopic string `envconfig:"GREENTRADE_PUBSUB_ORDER_EVENTS_TOPIC" default:"order-events"`
}

type OutboxConfig struct {
	BatchSize    int           `envconfig:"GREENTRADE_OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval time.Duration `envconfig:"GREENTRADE_OUTBOX_POLL_INTERVAL" default:"5s"`
	MaxAttempts  int           `envconfig:"GREENTRADE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}
