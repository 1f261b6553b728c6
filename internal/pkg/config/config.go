package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is built once at process start and handed to every component that
// needs it. Nothing reads the environment after Load returns.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"prod"`
	Host     string `env:"APP_HOST" envDefault:"localhost"`
	Port     string `env:"APP_PORT" envDefault:"4000"`
	SiteURL  string `env:"SITE_URL"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// AssetDir holds the bundled track files used when S3 is disabled.
	AssetDir string `env:"ASSET_DIR" envDefault:"public/audio"`
	DocsFile string `env:"OPENAPI_FILE" envDefault:"public/docs/v1/openapi.yml"`

	// ProxyHeader names the header carrying the client address, such as
	// CF-Connecting-IP. It is read only on requests from TrustedProxies.
	ProxyHeader    string   `env:"PROXY_HEADER"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	Mail        Mail
	Stripe      Stripe      `envPrefix:"STRIPE_"`
	Download    Download    `envPrefix:"DOWNLOAD_TOKEN_"`
	S3          S3          `envPrefix:"S3_"`
	Cache       Cache       `envPrefix:"CACHE_"`
	Webhook     Webhook     `envPrefix:"WEBHOOK_"`
	RateLimit   RateLimit   `envPrefix:"RATE_LIMIT_"`
	Metrics     Metrics     `envPrefix:"METRICS_"`
	Fulfillment Fulfillment `envPrefix:"FULFILLMENT_"`
}

type Stripe struct {
	SecretKey     string        `env:"SECRET_KEY"`
	APIKey        string        `env:"API_KEY"`
	WebhookSecret string        `env:"WEBHOOK_SECRET"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

type Mail struct {
	From          string        `env:"MAIL_FROM" envDefault:"Swiden <onboarding@resend.dev>"`
	ResendAPIKey  string        `env:"RESEND_API_KEY"`
	ResendBaseURL string        `env:"RESEND_BASE_URL" envDefault:"https://api.resend.com"`
	SMTPHost      string        `env:"SMTP_HOST"`
	SMTPPort      string        `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername  string        `env:"SMTP_USERNAME"`
	SMTPPassword  string        `env:"SMTP_PASSWORD"`
	Timeout       time.Duration `env:"MAIL_TIMEOUT" envDefault:"15s"`
}

type Download struct {
	Secret string        `env:"SECRET"`
	TTL    time.Duration `env:"TTL" envDefault:"168h"`
}

type S3 struct {
	Enabled         bool   `env:"ENABLED" envDefault:"false"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	Region          string `env:"REGION" envDefault:"us-west-001"`
	BucketName      string `env:"BUCKET_NAME"`
	EndpointURL     string `env:"ENDPOINT_URL"` // Optional for S3-compatible services
	Prefix          string `env:"PREFIX" envDefault:"tracks/"`
}

type Cache struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type Webhook struct {
	DedupEnabled bool          `env:"DEDUP_ENABLED" envDefault:"false"`
	DedupTTL     time.Duration `env:"DEDUP_TTL" envDefault:"72h"`
}

type RateLimit struct {
	Max    int           `env:"MAX" envDefault:"30"`
	Window time.Duration `env:"WINDOW" envDefault:"1m"`
}

type Metrics struct {
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
}

type Fulfillment struct {
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	// STRIPE_API_KEY is accepted as a secondary alias.
	if strings.TrimSpace(c.Stripe.SecretKey) == "" {
		c.Stripe.SecretKey = strings.TrimSpace(c.Stripe.APIKey)
	}
	c.SiteURL = strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	c.ProxyHeader = strings.TrimSpace(c.ProxyHeader)
	proxies := c.TrustedProxies[:0]
	for _, p := range c.TrustedProxies {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	c.TrustedProxies = proxies
	if c.S3.Prefix != "" && !strings.HasSuffix(c.S3.Prefix, "/") {
		c.S3.Prefix += "/"
	}
}

func (c *Config) validate() error {
	if c.S3.Enabled {
		if c.S3.AccessKeyID == "" {
			return fmt.Errorf("S3_ACCESS_KEY_ID is required when S3 is enabled")
		}
		if c.S3.SecretAccessKey == "" {
			return fmt.Errorf("S3_SECRET_ACCESS_KEY is required when S3 is enabled")
		}
		if c.S3.BucketName == "" {
			return fmt.Errorf("S3_BUCKET_NAME is required when S3 is enabled")
		}
	}
	if c.Webhook.DedupEnabled && !c.CacheEnabled() {
		return fmt.Errorf("WEBHOOK_DEDUP_ENABLED requires CACHE_HOST")
	}
	return nil
}

// IsDev reports whether the service runs in development mode.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

// CacheEnabled reports whether a redis endpoint is configured.
func (c *Config) CacheEnabled() bool {
	return strings.TrimSpace(c.Cache.Host) != ""
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
