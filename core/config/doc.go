// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
//	type StoreConfig struct {
//		ACMEDir   string `env:"CERTWARD_ACME_DIR" envDefault:"/etc/certward/acme"`
//		CustomDir string `env:"CERTWARD_CUSTOM_DIR" envDefault:"/etc/certward/custom"`
//	}
//
//	var cfg StoreConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// MustLoad panics on failure and is intended for startup wiring.
package config
