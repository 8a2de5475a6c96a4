// Package config loads typed configuration from environment variables.
//
// It combines github.com/joho/godotenv (an optional .env file, read once) with
// github.com/caarlos0/env/v11 (struct tags). Load caches the parsed value per
// type, so every package can ask for its own config struct without reparsing.
// Parse skips the cache, which is what tests want when they use t.Setenv.
//
// Structs implementing Validator are checked right after parsing; a failed
// check is reported as ErrInvalidConfig joined with the validator's error.
//
//	type Config struct {
//		MaxEntries int           `env:"CACHE_MAX_ENTRIES" envDefault:"100"`
//		TTL        time.Duration `env:"CACHE_TTL" envDefault:"10m"`
//	}
//
//	func (c Config) Validate() error {
//		if c.MaxEntries <= 0 {
//			return errors.New("CACHE_MAX_ENTRIES must be positive")
//		}
//		return nil
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
package config
