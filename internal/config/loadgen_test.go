package config

import (
	"testing"
	"time"
)

func TestLoadLoadgenDefaults(t *testing.T) {
	cfg, err := LoadLoadgen()
	if err != nil {
		t.Fatalf("LoadLoadgen() error = %v", err)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Fatalf("BaseURL = %q, want http://localhost:8080", cfg.BaseURL)
	}
	if cfg.Concurrency != 16 || cfg.Requests != 64 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("Timeout = %v, want 10s", cfg.Timeout)
	}
}

func TestLoadLoadgenOverrides(t *testing.T) {
	t.Setenv("LOADGEN_BASE_URL", "http://127.0.0.1:9000")
	t.Setenv("LOADGEN_CONTEST_ID", "c1")
	t.Setenv("LOADGEN_TOKENS", "tok-a,tok-b")

	cfg, err := LoadLoadgen()
	if err != nil {
		t.Fatalf("LoadLoadgen() error = %v", err)
	}
	if cfg.BaseURL != "http://127.0.0.1:9000" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.ContestID != "c1" || len(cfg.Tokens) != 2 || cfg.Tokens[1] != "tok-b" {
		t.Fatalf("unexpected loadgen config: %+v", cfg)
	}
}
