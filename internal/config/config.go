package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	// Server
	Port           string   `envconfig:"PORT" default:"5001"`
	Environment    string   `envconfig:"ENV" default:"development"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:8080"`
	FrontendURL    string   `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	BackendURL     string   `envconfig:"BACKEND_URL" default:"http://localhost:5001"`

	// Storage
	StoreDriver        string `envconfig:"STORE_DRIVER" default:"postgres"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING"`

	// Tokens. JWTSecretResource, when set, is a Secret Manager version name
	// (projects/<p>/secrets/<s>/versions/<v>) that replaces JWTSecret at startup.
	JWTSecret         string        `envconfig:"JWT_SECRET"`
	JWTSecretResource string        `envconfig:"JWT_SECRET_RESOURCE"`
	JWTIssuer         string        `envconfig:"JWT_ISSUER" default:"fluentphrases"`
	SessionTokenTTL   time.Duration `envconfig:"SESSION_TOKEN_TTL" default:"24h"`
	ResetTokenTTL     time.Duration `envconfig:"RESET_TOKEN_TTL" default:"30m"`

	// Quota
	QuotaTimezone        string   `envconfig:"QUOTA_TIMEZONE" default:"UTC"`
	FreeCategories       []string `envconfig:"FREE_CATEGORIES" default:"Greeting and Introducing,Health and Wellness"`
	FreeDailyPhraseLimit int      `envconfig:"FREE_DAILY_PHRASE_LIMIT" default:"0"`

	// Mercado Pago
	MPAccessToken   string `envconfig:"MP_ACCESS_TOKEN"`
	MPAPIBaseURL    string `envconfig:"MP_API_BASE_URL" default:"https://api.mercadopago.com"`
	MPWebhookSecret string `envconfig:"MP_WEBHOOK_SECRET"`

	// Notifications (Pub/Sub). Without a project ID reset emails are only logged.
	GCPProjectID          string        `envconfig:"GCP_PROJECT_ID"`
	PubSubEmulatorHost    string        `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubResetEmailTopic string        `envconfig:"PUBSUB_RESET_EMAIL_TOPIC" default:"password-reset-email"`
	NotifyTimeout         time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"5s"`

	// Push endpoint for the reset-email dead-letter subscription. Push
	// requests carry a Google-signed OIDC token for this audience and account.
	DLQEndpointURL                string `envconfig:"DLQ_ENDPOINT_URL"`
	PubSubPushServiceAccountEmail string `envconfig:"PUBSUB_PUSH_SERVICE_ACCOUNT_EMAIL"`

	// Rate limiting of credential endpoints. Counters live in process memory
	// unless REDIS_ADDR is set; AUTH_RATE_LIMIT=0 disables it.
	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	AuthRateLimit  int           `envconfig:"AUTH_RATE_LIMIT" default:"20"`
	AuthRateWindow time.Duration `envconfig:"AUTH_RATE_WINDOW" default:"1m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements envconfig tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DBConnectionString == "" {
			return fmt.Errorf("DB_CONNECTION_STRING is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" && c.JWTSecretResource == "" {
		return fmt.Errorf("one of JWT_SECRET or JWT_SECRET_RESOURCE is required")
	}
	if _, err := time.LoadLocation(c.QuotaTimezone); err != nil {
		return fmt.Errorf("invalid QUOTA_TIMEZONE %q: %w", c.QuotaTimezone, err)
	}
	return nil
}

// IsDevelopment reports whether error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// QuotaLocation returns the location whose midnight resets daily usage.
func (c *Config) QuotaLocation() *time.Location {
	loc, err := time.LoadLocation(c.QuotaTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
