package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// LoadEnv overlays variables such as CERT_SECRET, DATABASE_DSN or
// S3_BUCKET onto cfg. Unset variables leave the current value untouched.
func LoadEnv(cfg *Config) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}
