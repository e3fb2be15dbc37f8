package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/retailhub/portal-gateway/pkg/enums"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names shared with tests and deploy tooling.
const (
	EnvAppEnv           = "RETAILHUB_APP_ENV"
	EnvAppPort          = "RETAILHUB_APP_PORT"
	EnvSessionJWTSecret = "RETAILHUB_SESSION_JWT_SECRET"
	EnvRedisURL         = "RETAILHUB_REDIS_URL"
	EnvAuthBaseURL      = "RETAILHUB_AUTH_BASE_URL"
	EnvOMSBaseURL       = "RETAILHUB_OMS_BASE_URL"
	EnvInventoryBaseURL = "RETAILHUB_INVENTORY_BASE_URL"
	EnvPaymentBaseURL   = "RETAILHUB_PAYMENT_BASE_URL"
)

type Config struct {
	App     AppConfig
	Session SessionConfig
	Redis   RedisConfig
	Poll    PollConfig
	Cart    CartConfig

	// Backend profiles carry their own env prefixes, one per collaborator
	// service, so the profile struct can be shared.
	Backends BackendsConfig `ignored:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backends.load(); err != nil {
		return nil, err
	}
	if err := cfg.Cart.ensure(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RETAILHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"RETAILHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RETAILHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RETAILHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type SessionConfig struct {
	JWTSecret         string `envconfig:"RETAILHUB_SESSION_JWT_SECRET" required:"true"`
	JWTIssuer         string `envconfig:"RETAILHUB_SESSION_JWT_ISSUER" default:"retailhub-portal"`
	ExpirationMinutes int    `envconfig:"RETAILHUB_SESSION_EXPIRATION_MINUTES" default:"480"`
	TokenKeyPrefix    string `envconfig:"RETAILHUB_SESSION_TOKEN_KEY_PREFIX" default:"portal:token"`
}

// TTL returns the session lifetime.
func (s SessionConfig) TTL() time.Duration {
	if s.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(s.ExpirationMinutes) * time.Minute
}

type RedisConfig struct {
	URL          string        `envconfig:"RETAILHUB_REDIS_URL"`
	Address      string        `envconfig:"RETAILHUB_REDIS_ADDR"`
	Password     string        `envconfig:"RETAILHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"RETAILHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RETAILHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RETAILHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RETAILHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RETAILHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RETAILHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a durable token store was configured. Without one
// the gateway runs the pure in-memory session variant and sessions do not
// survive a restart.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// BackendProfile describes one collaborator service: where it lives and how
// requests to it authenticate.
type BackendProfile struct {
	BaseURL       string           `split_words:"true" required:"true"`
	Scheme        enums.AuthScheme `default:"bearer"`
	BasicUser     string           `split_words:"true"`
	BasicPassword string           `split_words:"true"`
}

func (b BackendProfile) ensure(name string) error {
	if !b.Scheme.IsValid() {
		return fmt.Errorf("backend %s: invalid auth scheme %q", name, b.Scheme)
	}
	if b.Scheme == enums.AuthSchemeBasic && (b.BasicUser == "" || b.BasicPassword == "") {
		return fmt.Errorf("backend %s: basic auth scheme requires user and password", name)
	}
	return nil
}

type BackendsConfig struct {
	Auth      BackendProfile
	OMS       BackendProfile
	Inventory BackendProfile
	Payment   BackendProfile
}

func (b *BackendsConfig) load() error {
	for name, profile := range map[string]*BackendProfile{
		"auth":      &b.Auth,
		"oms":       &b.OMS,
		"inventory": &b.Inventory,
		"payment":   &b.Payment,
	} {
		prefix := "RETAILHUB_" + strings.ToUpper(name)
		if err := envconfig.Process(prefix, profile); err != nil {
			return fmt.Errorf("parsing backend %s config: %w", name, err)
		}
		if err := profile.ensure(name); err != nil {
			return err
		}
	}
	return nil
}

type PollConfig struct {
	StorefrontInterval time.Duration `envconfig:"RETAILHUB_POLL_STOREFRONT_INTERVAL" default:"2s"`
	DashboardInterval  time.Duration `envconfig:"RETAILHUB_POLL_DASHBOARD_INTERVAL" default:"5s"`
}

type CartConfig struct {
	// UnitPriceRaw is the fixed per-item price of the simplified pricing
	// model. Every cart item costs the same amount.
	UnitPriceRaw string `envconfig:"RETAILHUB_CART_UNIT_PRICE" default:"999.00"`
	AddFundsRaw  string `envconfig:"RETAILHUB_WALLET_ADD_FUNDS_AMOUNT" default:"500"`

	unitPrice       decimal.Decimal
	addFundsDefault decimal.Decimal
}

func (c *CartConfig) ensure() error {
	price, err := decimal.NewFromString(c.UnitPriceRaw)
	if err != nil {
		return fmt.Errorf("parsing cart unit price %q: %w", c.UnitPriceRaw, err)
	}
	if price.IsNegative() {
		return fmt.Errorf("cart unit price must not be negative")
	}
	funds, err := decimal.NewFromString(c.AddFundsRaw)
	if err != nil {
		return fmt.Errorf("parsing add-funds amount %q: %w", c.AddFundsRaw, err)
	}
	c.unitPrice = price
	c.addFundsDefault = funds
	return nil
}

// UnitPrice returns the fixed per-item price.
func (c CartConfig) UnitPrice() decimal.Decimal {
	return c.unitPrice
}

// AddFundsDefault returns the amount credited by the one-click add-funds
// action.
func (c CartConfig) AddFundsDefault() decimal.Decimal {
	return c.addFundsDefault
}
