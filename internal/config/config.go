package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	duitkuSandboxURL    = "https://sandbox.duitku.com"
	duitkuProductionURL = "https://passport.duitku.com"
)

// Config is built once at process start and passed by value into every component.
type Config struct {
	Env        string
	HTTPAddr   string
	AppBaseURL string

	DBDSN     string
	DBTimeout time.Duration

	Gateway   GatewayConfig
	SMTP      SMTPConfig
	Email     EmailConfig
	WhatsApp  WhatsAppConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Donation  DonationConfig
	Reconcile ReconcileConfig
}

type GatewayConfig struct {
	MerchantCode  string
	APIKey        string
	Sandbox       bool
	CallbackURL   string // empty => APP_BASE_URL + /api/payments/callback
	ReturnURL     string // empty => APP_BASE_URL + /invoice/{merchantOrderId}
	ExpiryMinutes int
	Timeout       time.Duration
}

// BaseURL picks the gateway host for the configured environment.
func (g GatewayConfig) BaseURL() string {
	if g.Sandbox {
		return duitkuSandboxURL
	}
	return duitkuProductionURL
}

type SMTPConfig struct {
	Host          string
	Port          string
	User          string
	Pass          string
	TLSMode       string // none|starttls|tls
	SkipVerifyTLS bool
}

type EmailConfig struct {
	Driver        string // smtp|mailtrap|none
	From          string
	FromName      string
	MailtrapURL   string
	MailtrapToken string
}

type WhatsAppConfig struct {
	APIURL string
	Token  string
}

func (w WhatsAppConfig) Enabled() bool { return w.APIURL != "" && w.Token != "" }

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type DonationConfig struct {
	MinAmount       int64
	RequireCampaign bool
	PollThrottle    time.Duration
}

type ReconcileConfig struct {
	Interval        time.Duration // 0 disables the background sweep
	InitiatingGrace time.Duration
	PendingGrace    time.Duration
	BatchSize       int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")
	v.SetDefault("DB_TIMEOUT", "15s")

	v.SetDefault("DUITKU_SANDBOX", true)
	v.SetDefault("DUITKU_EXPIRY_MINUTES", 60)
	v.SetDefault("GATEWAY_TIMEOUT", "30s")

	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("SMTP_TLS_MODE", "starttls")
	v.SetDefault("EMAIL_DRIVER", "smtp")
	v.SetDefault("EMAIL_FROM_NAME", "Donasiku")

	v.SetDefault("KAFKA_TOPIC", "donation.transactions")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("DONATION_MIN_AMOUNT", 10000)
	v.SetDefault("DONATION_REQUIRE_CAMPAIGN", false)
	v.SetDefault("POLL_THROTTLE", "5s")

	v.SetDefault("RECONCILE_INTERVAL", "2m")
	v.SetDefault("RECONCILE_INITIATING_GRACE", "5m")
	v.SetDefault("RECONCILE_PENDING_GRACE", "10m")
	v.SetDefault("RECONCILE_BATCH_SIZE", 50)
}

// Load reads the process environment (a .env file should already be loaded by the caller).
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Env:        v.GetString("APP_ENV"),
		HTTPAddr:   v.GetString("HTTP_ADDR"),
		AppBaseURL: strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
		DBDSN:      v.GetString("DB_DSN"),
		DBTimeout:  v.GetDuration("DB_TIMEOUT"),
		Gateway: GatewayConfig{
			MerchantCode:  v.GetString("DUITKU_MERCHANT_CODE"),
			APIKey:        v.GetString("DUITKU_API_KEY"),
			Sandbox:       v.GetBool("DUITKU_SANDBOX"),
			CallbackURL:   v.GetString("DUITKU_CALLBACK_URL"),
			ReturnURL:     v.GetString("DUITKU_RETURN_URL"),
			ExpiryMinutes: v.GetInt("DUITKU_EXPIRY_MINUTES"),
			Timeout:       v.GetDuration("GATEWAY_TIMEOUT"),
		},
		SMTP: SMTPConfig{
			Host:          v.GetString("SMTP_HOST"),
			Port:          v.GetString("SMTP_PORT"),
			User:          v.GetString("SMTP_USER"),
			Pass:          v.GetString("SMTP_PASS"),
			TLSMode:       v.GetString("SMTP_TLS_MODE"),
			SkipVerifyTLS: v.GetBool("SMTP_SKIP_VERIFY"),
		},
		Email: EmailConfig{
			Driver:        strings.ToLower(v.GetString("EMAIL_DRIVER")),
			From:          v.GetString("EMAIL_FROM"),
			FromName:      v.GetString("EMAIL_FROM_NAME"),
			MailtrapURL:   v.GetString("MAILTRAP_API_URL"),
			MailtrapToken: v.GetString("MAILTRAP_API_TOKEN"),
		},
		WhatsApp: WhatsAppConfig{
			APIURL: v.GetString("WHATSAPP_API_URL"),
			Token:  v.GetString("WHATSAPP_TOKEN"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("AUTH_JWT_SECRET"),
		},
		Donation: DonationConfig{
			MinAmount:       v.GetInt64("DONATION_MIN_AMOUNT"),
			RequireCampaign: v.GetBool("DONATION_REQUIRE_CAMPAIGN"),
			PollThrottle:    v.GetDuration("POLL_THROTTLE"),
		},
		Reconcile: ReconcileConfig{
			Interval:        v.GetDuration("RECONCILE_INTERVAL"),
			InitiatingGrace: v.GetDuration("RECONCILE_INITIATING_GRACE"),
			PendingGrace:    v.GetDuration("RECONCILE_PENDING_GRACE"),
			BatchSize:       v.GetInt("RECONCILE_BATCH_SIZE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN is required"))
	}
	if c.Gateway.MerchantCode == "" {
		errs = append(errs, errors.New("DUITKU_MERCHANT_CODE is required"))
	}
	if c.Gateway.APIKey == "" {
		errs = append(errs, errors.New("DUITKU_API_KEY is required"))
	}
	if c.Gateway.ExpiryMinutes <= 0 {
		errs = append(errs, fmt.Errorf("DUITKU_EXPIRY_MINUTES must be positive, got %d", c.Gateway.ExpiryMinutes))
	}
	switch c.Email.Driver {
	case "smtp", "mailtrap", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown EMAIL_DRIVER: %s", c.Email.Driver))
	}
	if c.Donation.MinAmount <= 0 {
		errs = append(errs, errors.New("DONATION_MIN_AMOUNT must be positive"))
	}
	return errors.Join(errs...)
}

// CallbackURL is where the gateway posts payment notifications.
func (c Config) CallbackURL() string {
	if c.Gateway.CallbackURL != "" {
		return c.Gateway.CallbackURL
	}
	return c.AppBaseURL + "/api/payments/callback"
}

// InvoiceURL is the donor-facing invoice page for one order.
func (c Config) InvoiceURL(merchantOrderID string) string {
	return c.AppBaseURL + "/invoice/" + merchantOrderID
}

// ReturnURL is the page the gateway redirects the donor to after paying.
func (c Config) ReturnURL(merchantOrderID string) string {
	if c.Gateway.ReturnURL != "" {
		return c.Gateway.ReturnURL
	}
	return c.InvoiceURL(merchantOrderID)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
