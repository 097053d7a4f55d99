package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// LoadgenConfig drives cmd/join-loadgen.
type LoadgenConfig struct {
	BaseURL     string        `env:"LOADGEN_BASE_URL" envDefault:"http://localhost:8080"`
	ContestID   string        `env:"LOADGEN_CONTEST_ID"`
	Tokens      []string      `env:"LOADGEN_TOKENS" envSeparator:","`
	Concurrency int           `env:"LOADGEN_CONCURRENCY" envDefault:"16"`
	Requests    int           `env:"LOADGEN_REQUESTS" envDefault:"64"`
	Timeout     time.Duration `env:"LOADGEN_TIMEOUT" envDefault:"10s"`
	IDBase      int64         `env:"LOADGEN_ID_BASE" envDefault:"5100000000"`
}

func LoadLoadgen() (LoadgenConfig, error) {
	var cfg LoadgenConfig
	err := env.Parse(&cfg)
	return cfg, err
}
