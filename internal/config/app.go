package config

import (
	"fmt"
	"strings"
)

// Runtime is everything the contest server reads from its environment.
type Runtime struct {
	Server ServerConfig
	Log    LogConfig
}

// LoadRuntime parses log and server settings, then checks the settings that
// are only valid in combination.
func LoadRuntime() (Runtime, error) {
	var (
		rt  Runtime
		err error
	)
	if rt.Log, err = LoadLog(); err != nil {
		return Runtime{}, fmt.Errorf("log config: %w", err)
	}
	if rt.Server, err = LoadServer(); err != nil {
		return Runtime{}, fmt.Errorf("server config: %w", err)
	}
	if err := rt.check(); err != nil {
		return Runtime{}, err
	}
	return rt, nil
}

func (r Runtime) check() error {
	if r.Server.JoinCommitTimeout <= 0 {
		return ErrInvalidCommitTimeout
	}
	if len(r.Server.KafkaBrokers) > 0 && strings.TrimSpace(r.Server.KafkaTopic) == "" {
		return ErrKafkaTopicRequired
	}
	if r.Log.File != "" && r.Log.MaxMB <= 0 {
		return ErrInvalidLogRotation
	}
	return nil
}
