package config

import (
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SPOTIFY_CLIENT_ID", "cid")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "csecret")
	t.Setenv("SESSION_SECRET", "ssecret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("ADDR", "")
	t.Setenv("BASE_URL", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("DATABASE_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.Env != "development" {
		t.Errorf("env = %q", cfg.Env)
	}
	if cfg.DatabasePath != "neurotunes.db" {
		t.Errorf("database path = %q", cfg.DatabasePath)
	}
	if got := cfg.RedirectURL(); got != "http://localhost:8080/auth/callback" {
		t.Errorf("redirect url = %q", got)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []string{"SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "SESSION_SECRET"}

	for _, missing := range tests {
		t.Run(missing, func(t *testing.T) {
			setRequired(t)
			t.Setenv(missing, "")

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), missing) {
				t.Errorf("err %v does not name %s", err, missing)
			}
		})
	}
}
