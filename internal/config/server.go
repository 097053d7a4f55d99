package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	JoinMaxAttempts   int           `env:"JOIN_MAX_ATTEMPTS" envDefault:"3"`
	JoinCommitTimeout time.Duration `env:"JOIN_COMMIT_TIMEOUT" envDefault:"5s"`

	MailWebhookURL string `env:"MAIL_WEBHOOK_URL"`
	MailRetryMax   int    `env:"MAIL_RETRY_MAX" envDefault:"3"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"contest-events"`

	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"10m"`
	MCPEnabled      bool          `env:"MCP_ENABLED" envDefault:"true"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c ServerConfig) validate() error {
	switch c.StoreDriver {
	case "postgres":
		if c.PostgresDSN == "" {
			return ErrPostgresDSNRequired
		}
	case "memory":
	default:
		return ErrUnknownStoreDriver
	}
	if c.JoinMaxAttempts < 1 {
		return ErrInvalidJoinAttempts
	}
	return nil
}
