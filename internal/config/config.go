// Package config loads psetd settings from the environment.
package config

import (
	"fmt"
	"net"
	"time"

	"github.com/Netflix/go-env"
)

// Environment variables with defaults
type DaemonEnvironment struct {
	Environment string `env:"ENVIRONMENT,default=dev"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	// gRPC server settings
	Listen          string        `env:"PSETD_LISTEN,default=127.0.0.1:7777"`
	MaxMsgBytes     int           `env:"PSETD_MAX_MSG_BYTES,default=4194304"`
	ShutdownTimeout time.Duration `env:"PSETD_SHUTDOWN_TIMEOUT,default=10s"`

	// Required - must be set by environment variables
	StoreDir string `env:"PSETD_STORE_DIR,required=true"`
}

var validEnvs = map[string]bool{
	"dev":  true,
	"test": true,
	"prod": true,
}

// NewDaemonConfig loads environment variables and returns a validated DaemonEnvironment.
func NewDaemonConfig() (*DaemonEnvironment, error) {
	var cfg DaemonEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateConfig checks values the env tags cannot express
func validateConfig(cfg *DaemonEnvironment) error {
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}
	if _, _, err := net.SplitHostPort(cfg.Listen); err != nil {
		return fmt.Errorf("invalid PSETD_LISTEN %q: %w", cfg.Listen, err)
	}
	if cfg.MaxMsgBytes < 1024 {
		return fmt.Errorf("PSETD_MAX_MSG_BYTES must be at least 1024, got %d", cfg.MaxMsgBytes)
	}
	if cfg.ShutdownTimeout < 0 {
		return fmt.Errorf("PSETD_SHUTDOWN_TIMEOUT must not be negative")
	}
	if cfg.StoreDir == "" {
		return fmt.Errorf("PSETD_STORE_DIR must not be empty")
	}
	return nil
}
