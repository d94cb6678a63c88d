package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL    string        `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience   string        `mapstructure:"AUTH_AUDIENCE"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	AIProvider     string        `mapstructure:"AI_PROVIDER"`
	AIWebhookURL   string        `mapstructure:"AI_WEBHOOK_URL"`
	AITimeout      time.Duration `mapstructure:"AI_TIMEOUT"`
	OpenAIKey      string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel    string        `mapstructure:"OPENAI_MODEL"`
	QueuePoll      time.Duration `mapstructure:"QUEUE_POLL_INTERVAL"`
	RevealInterval time.Duration `mapstructure:"REVEAL_INTERVAL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("AI_PROVIDER", "webhook")
	v.SetDefault("AI_TIMEOUT", "60s")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("QUEUE_POLL_INTERVAL", "5s")
	v.SetDefault("REVEAL_INTERVAL", "30ms")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("AI_PROVIDER")
	v.BindEnv("AI_WEBHOOK_URL")
	v.BindEnv("AI_TIMEOUT")
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("OPENAI_MODEL")
	v.BindEnv("QUEUE_POLL_INTERVAL")
	v.BindEnv("REVEAL_INTERVAL")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	switch cfg.AIProvider {
	case "webhook":
		if cfg.AIWebhookURL == "" {
			return nil, fmt.Errorf("AI_WEBHOOK_URL is required when AI_PROVIDER=webhook")
		}
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER=openai")
		}
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER: %s", cfg.AIProvider)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}
