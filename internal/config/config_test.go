package config

import (
	"strings"
	"testing"
	"time"
)

func TestNewDaemonConfig_Defaults(t *testing.T) {
	t.Setenv("PSETD_STORE_DIR", t.TempDir())

	cfg, err := NewDaemonConfig()
	if err != nil {
		t.Fatalf("NewDaemonConfig: %v", err)
	}
	if cfg.Listen != "127.0.0.1:7777" {
		t.Fatalf("unexpected listen default %q", cfg.Listen)
	}
	if cfg.MaxMsgBytes != 4<<20 {
		t.Fatalf("unexpected max message default %d", cfg.MaxMsgBytes)
	}
	if cfg.LogLevel != "info" || cfg.Environment != "dev" {
		t.Fatalf("unexpected defaults: level=%q env=%q", cfg.LogLevel, cfg.Environment)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected shutdown timeout %s", cfg.ShutdownTimeout)
	}
}

func TestNewDaemonConfig_RequiresStoreDir(t *testing.T) {
	t.Setenv("PSETD_STORE_DIR", "")
	if _, err := NewDaemonConfig(); err == nil {
		t.Fatalf("expected error without PSETD_STORE_DIR")
	}
}

func TestValidateConfig(t *testing.T) {
	base := func() DaemonEnvironment {
		return DaemonEnvironment{
			Environment: "prod",
			LogLevel:    "info",
			Listen:      "0.0.0.0:7777",
			MaxMsgBytes: 4 << 20,
			StoreDir:    "/var/lib/psetd",
		}
	}

	cases := []struct {
		name   string
		mutate func(*DaemonEnvironment)
		want   string
	}{
		{name: "valid", mutate: func(*DaemonEnvironment) {}},
		{name: "bad environment", mutate: func(c *DaemonEnvironment) { c.Environment = "qa" }, want: "ENVIRONMENT"},
		{name: "bad listen", mutate: func(c *DaemonEnvironment) { c.Listen = "7777" }, want: "PSETD_LISTEN"},
		{name: "tiny messages", mutate: func(c *DaemonEnvironment) { c.MaxMsgBytes = 10 }, want: "PSETD_MAX_MSG_BYTES"},
		{name: "negative timeout", mutate: func(c *DaemonEnvironment) { c.ShutdownTimeout = -time.Second }, want: "PSETD_SHUTDOWN_TIMEOUT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := validateConfig(&cfg)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}
