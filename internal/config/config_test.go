package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/football")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("FETCH_TIMEOUT", "750ms")
	t.Setenv("DISAGREEMENT_PENALTY", "0.5")
	t.Setenv("WORKER_COUNT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MatchDBDriver != DriverPgx {
		t.Errorf("driver = %s", cfg.MatchDBDriver)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
	if cfg.FetchTimeout != 750*time.Millisecond {
		t.Errorf("fetch timeout = %v", cfg.FetchTimeout)
	}
	if cfg.DisagreementPenalty != 0.5 || cfg.DisagreementThreshold != 0.25 {
		t.Errorf("disagreement = %v/%v", cfg.DisagreementThreshold, cfg.DisagreementPenalty)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("worker count should fall back to 4, got %d", cfg.WorkerCount)
	}
	if !cfg.IsDevelopment() {
		t.Error("default env should be development")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"Missing database url", map[string]string{}},
		{"Unknown driver", map[string]string{"DATABASE_URL": "x", "MATCH_DB_DRIVER": "oracle"}},
		{"Penalty out of range", map[string]string{"DATABASE_URL": "x", "DISAGREEMENT_PENALTY": "1.5"}},
		{"Threshold zero", map[string]string{"DATABASE_URL": "x", "DISAGREEMENT_THRESHOLD": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
