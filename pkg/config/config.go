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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Queue        QueueConfig
	Stripe       StripeConfig
	SSLCommerz   SSLCommerzConfig
	Couriers     CourierConfig
	Inventory    InventoryConfig
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
	Env          string `envconfig:"BONIK_APP_ENV" required:"true"`
	Port         string `envconfig:"BONIK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BONIK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BONIK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BONIK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BONIK_DB_DSN"`
	Driver string `envconfig:"BONIK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"BONIK_DB_HOST"`
	Port     int    `envconfig:"BONIK_DB_PORT" default:"5432"`
	User     string `envconfig:"BONIK_DB_USER"`
	Password string `envconfig:"BONIK_DB_PASSWORD"`
	Name     string `envconfig:"BONIK_DB_NAME"`
	SSLMode  string `envconfig:"BONIK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BONIK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BONIK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BONIK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BONIK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BONIK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BONIK_REDIS_ADDR"`
	Password     string        `envconfig:"BONIK_REDIS_PASSWORD"`
	DB           int           `envconfig:"BONIK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BONIK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BONIK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BONIK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BONIK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BONIK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BONIK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BONIK_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	// Fast-cache idempotency keys only short-circuit duplicates; the webhook
	// event log is the durable tier, so a bounded TTL is safe.
	IdempotencyTTL time.Duration `envconfig:"BONIK_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BONIK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"BONIK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BONIK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PaymentsTopic             string `envconfig:"BONIK_PUBSUB_PAYMENTS_TOPIC" required:"true"`
	PaymentsSubscription      string `envconfig:"BONIK_PUBSUB_PAYMENTS_SUBSCRIPTION" required:"true"`
	NotificationsTopic        string `envconfig:"BONIK_PUBSUB_NOTIFICATIONS_TOPIC" required:"true"`
	NotificationsSubscription string `envconfig:"BONIK_PUBSUB_NOTIFICATIONS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BONIK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BONIK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BONIK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type QueueConfig struct {
	MaxProcessAttempts int           `envconfig:"BONIK_QUEUE_MAX_PROCESS_ATTEMPTS" default:"3"`
	RetryDelay         time.Duration `envconfig:"BONIK_QUEUE_RETRY_DELAY" default:"30s"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"BONIK_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"BONIK_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"BONIK_STRIPE_ENV" default:"test"`
}

// Configured reports whether the Stripe webhook can verify signatures.
func (s StripeConfig) Configured() bool {
	return strings.TrimSpace(s.WebhookSecret) != ""
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SSLCommerzConfig struct {
	StoreID           string        `envconfig:"BONIK_SSLCOMMERZ_STORE_ID"`
	StorePassword     string        `envconfig:"BONIK_SSLCOMMERZ_STORE_PASSWORD"`
	ValidationBaseURL string        `envconfig:"BONIK_SSLCOMMERZ_VALIDATION_URL" default:"https://sandbox.sslcommerz.com"`
	ValidationTimeout time.Duration `envconfig:"BONIK_SSLCOMMERZ_VALIDATION_TIMEOUT" default:"5s"`
}

// Configured reports whether IPN validation calls can be made.
func (s SSLCommerzConfig) Configured() bool {
	return strings.TrimSpace(s.StoreID) != "" && strings.TrimSpace(s.StorePassword) != ""
}

type CourierConfig struct {
	PathaoEnabled    bool `envconfig:"BONIK_COURIER_PATHAO_ENABLED" default:"true"`
	SteadfastEnabled bool `envconfig:"BONIK_COURIER_STEADFAST_ENABLED" default:"true"`
}

type InventoryConfig struct {
	LowStockThreshold int `envconfig:"BONIK_INVENTORY_LOW_STOCK_THRESHOLD" default:"5"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	hostValues := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if hostValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
