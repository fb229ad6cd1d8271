package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrNilPointer is returned when Load is called with a nil target.
var ErrNilPointer = errors.New("config: nil pointer provided")

var dotenvOnce sync.Once

// Load parses environment variables into the provided struct based on `env`
// field tags. The default .env file is loaded once per process before the
// first parse; a missing .env file is not an error.
//
// Example:
//
//	type BillingConfig struct {
//		FeePercent      uint8  `env:"BILLING_FEE_PERCENT" envDefault:"2"`
//		PlatformAccount string `env:"BILLING_PLATFORM_ACCOUNT,required"`
//	}
//
//	var cfg BillingConfig
//	if err := config.Load(&cfg); err != nil {
//		// Handle error
//	}
func Load[T any](v *T) error {
	dotenvOnce.Do(func() {
		// The .env file is optional; real environments set variables directly.
		_ = godotenv.Load()
	})

	if v == nil {
		return ErrNilPointer
	}

	if err := env.Parse(v); err != nil {
		return fmt.Errorf("config: failed to parse environment: %w", err)
	}

	return nil
}

// MustLoad is like Load but panics on error, following the fail-fast pattern
// for startup configuration.
func MustLoad[T any]() T {
	var v T
	if err := Load(&v); err != nil {
		panic(err)
	}
	return v
}
