package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Pricing      PricingConfig
	Approval     ApprovalConfig
	FeatureFlags FeatureFlagsConfig
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
	if err := cfg.Approval.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"FENCEOPS_APP_ENV" required:"true"`
	Port           string   `envconfig:"FENCEOPS_APP_PORT" default:"8080"`
	LogLevel       string   `envconfig:"FENCEOPS_LOG_LEVEL" default:"info"`
	LogFormat      string   `envconfig:"FENCEOPS_LOG_FORMAT" default:"json"`
	LogWarnStack   bool     `envconfig:"FENCEOPS_LOG_WARN_STACK" default:"false"`
	AllowedOrigins []string `envconfig:"FENCEOPS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FENCEOPS_DB_DSN"`
	Driver string `envconfig:"FENCEOPS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FENCEOPS_DB_HOST"`
	LegacyPort     int    `envconfig:"FENCEOPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FENCEOPS_DB_USER"`
	LegacyPassword string `envconfig:"FENCEOPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"FENCEOPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"FENCEOPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FENCEOPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FENCEOPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FENCEOPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FENCEOPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold logs statements at or above this duration; zero disables it.
	SlowQueryThreshold time.Duration `envconfig:"FENCEOPS_DB_SLOW_QUERY_THRESHOLD" default:"250ms"`
}

// IsSQLite reports whether the local sqlite driver was requested.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"FENCEOPS_REDIS_URL"`
	Address      string        `envconfig:"FENCEOPS_REDIS_ADDR"`
	Password     string        `envconfig:"FENCEOPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"FENCEOPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FENCEOPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FENCEOPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FENCEOPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FENCEOPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FENCEOPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// PricingConfig controls how prices are resolved.
type PricingConfig struct {
	// UseRPC routes resolution through get_resolved_price; the in-process engine is the fallback.
	UseRPC             bool          `envconfig:"FENCEOPS_PRICING_USE_RPC" default:"true"`
	ResolutionCacheTTL time.Duration `envconfig:"FENCEOPS_PRICING_RESOLUTION_CACHE_TTL" default:"5m"`
}

// ApprovalConfig holds the business thresholds that force manager sign-off.
// A zero ceiling disables that rule.
type ApprovalConfig struct {
	MinMarginPercent   float64 `envconfig:"FENCEOPS_APPROVAL_MIN_MARGIN_PERCENT" default:"25"`
	MaxTotal           float64 `envconfig:"FENCEOPS_APPROVAL_MAX_TOTAL" default:"50000"`
	MaxDiscountPercent float64 `envconfig:"FENCEOPS_APPROVAL_MAX_DISCOUNT_PERCENT" default:"15"`
	MinDepositPercent  float64 `envconfig:"FENCEOPS_APPROVAL_MIN_DEPOSIT_PERCENT" default:"0"`
	MaxDepositPercent  float64 `envconfig:"FENCEOPS_APPROVAL_MAX_DEPOSIT_PERCENT" default:"50"`
}

func (a ApprovalConfig) validate() error {
	if a.MinDepositPercent < 0 || a.MaxDepositPercent < 0 {
		return fmt.Errorf("approval deposit bounds must not be negative")
	}
	if a.MaxDepositPercent > 0 && a.MinDepositPercent > a.MaxDepositPercent {
		return fmt.Errorf("approval min deposit %.2f exceeds max deposit %.2f", a.MinDepositPercent, a.MaxDepositPercent)
	}
	if a.MaxDiscountPercent < 0 || a.MaxTotal < 0 {
		return fmt.Errorf("approval ceilings must not be negative")
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FENCEOPS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"FENCEOPS_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	QuoteEventsTopic string `envconfig:"FENCEOPS_PUBSUB_QUOTE_EVENTS_TOPIC" default:"fenceops-quote-events"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"FENCEOPS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"FENCEOPS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"FENCEOPS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	MetricsPort    string `envconfig:"FENCEOPS_OUTBOX_METRICS_PORT" default:"9091"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file::memory:?cache=shared"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
