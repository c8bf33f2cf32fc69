// Package config loads process configuration and provides CLI exit helpers.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv fills target from the TUMORBOARD_* environment variables declared
// in its `env` struct tags. Commands layer flag overrides on top of the
// parsed values.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
