package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds everything outside the database DSN (which keeps its own
// env resolution in db.go).
type AppConfig struct {
	Debug bool
	Port  string

	HoldWindow    time.Duration
	SweepInterval time.Duration

	Gateway GatewayConfig
	Redis   RedisConfig
	SMTP    SMTPConfig
}

// GatewayConfig holds the payment gateway integration settings. Encryption
// and signing use separate secrets on purpose.
type GatewayConfig struct {
	MerchantID    string
	AccessCode    string // client/key identifier sent alongside the envelope
	WorkingKey    string // encryption secret
	SigningKey    string // signature secret
	OrderURL      string // server-to-server order creation endpoint
	SubmitURL     string // client-side form submission target
	RedirectURL   string // our callback URL registered with the gateway
	StatusPageURL string // guest-facing status page
	Timeout       time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	FromName string
}

// LoadAppConfig reads settings via viper (env + optional .env already loaded
// by godotenv in main).
func LoadAppConfig() (*AppConfig, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &AppConfig{
		Debug: v.GetBool("APP_DEBUG"),
		Port:  v.GetString("PORT"),

		HoldWindow:    v.GetDuration("HOLD_WINDOW"),
		SweepInterval: v.GetDuration("SWEEP_INTERVAL"),

		Gateway: GatewayConfig{
			MerchantID:    v.GetString("GATEWAY_MERCHANT_ID"),
			AccessCode:    v.GetString("GATEWAY_ACCESS_CODE"),
			WorkingKey:    v.GetString("GATEWAY_WORKING_KEY"),
			SigningKey:    v.GetString("GATEWAY_SIGNING_KEY"),
			OrderURL:      v.GetString("GATEWAY_ORDER_URL"),
			SubmitURL:     v.GetString("GATEWAY_SUBMIT_URL"),
			RedirectURL:   v.GetString("GATEWAY_REDIRECT_URL"),
			StatusPageURL: v.GetString("GATEWAY_STATUS_PAGE_URL"),
			Timeout:       v.GetDuration("GATEWAY_TIMEOUT"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetString("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			FromName: v.GetString("SMTP_FROM_NAME"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_DEBUG", false)
	v.SetDefault("PORT", "8080")

	v.SetDefault("HOLD_WINDOW", "15m")
	v.SetDefault("SWEEP_INTERVAL", "1m")

	v.SetDefault("GATEWAY_MERCHANT_ID", "")
	v.SetDefault("GATEWAY_ACCESS_CODE", "")
	v.SetDefault("GATEWAY_WORKING_KEY", "")
	v.SetDefault("GATEWAY_SIGNING_KEY", "")
	v.SetDefault("GATEWAY_ORDER_URL", "")
	v.SetDefault("GATEWAY_SUBMIT_URL", "")
	v.SetDefault("GATEWAY_REDIRECT_URL", "http://localhost:8080/api/payments/callback")
	v.SetDefault("GATEWAY_STATUS_PAGE_URL", "http://localhost:3000/booking-status")
	v.SetDefault("GATEWAY_TIMEOUT", "20s")

	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM_NAME", "Vanavihari Resorts")
}

// Validate rejects configurations that would strand reservations mid-flow.
func (c *AppConfig) Validate() error {
	if c.HoldWindow <= 0 {
		return fmt.Errorf("HOLD_WINDOW must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	return nil
}
