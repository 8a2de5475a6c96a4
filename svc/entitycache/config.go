package entitycache

import (
	"errors"
	"time"
)

// Config holds the cache tuning knobs, loaded from the environment.
type Config struct {
	MaxEntries       int           `env:"CACHE_MAX_ENTRIES" envDefault:"100"`
	TTL              time.Duration `env:"CACHE_TTL" envDefault:"10m"`
	Shards           int           `env:"CACHE_SHARDS" envDefault:"0"`
	SweepInterval    time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"1m"`
	StoreTimeout     time.Duration `env:"CACHE_STORE_TIMEOUT" envDefault:"5s"`
	RefreshInterval  time.Duration `env:"CACHE_REFRESH_INTERVAL" envDefault:"0"`
	WriteBackWorkers int           `env:"CACHE_WRITEBACK_WORKERS" envDefault:"4"`
	LockShards       int           `env:"CACHE_LOCK_SHARDS" envDefault:"32"`
}

// DefaultConfig returns the same values the env defaults produce.
func DefaultConfig() Config {
	return Config{
		MaxEntries:       100,
		TTL:              10 * time.Minute,
		SweepInterval:    time.Minute,
		StoreTimeout:     5 * time.Second,
		WriteBackWorkers: 4,
		LockShards:       32,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.MaxEntries <= 0 {
		errs = append(errs, errors.New("CACHE_MAX_ENTRIES must be positive"))
	}
	if c.TTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	if c.Shards < 0 {
		errs = append(errs, errors.New("CACHE_SHARDS must not be negative"))
	}
	if c.SweepInterval < 0 {
		errs = append(errs, errors.New("CACHE_SWEEP_INTERVAL must not be negative"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("CACHE_STORE_TIMEOUT must be positive"))
	}
	if c.RefreshInterval < 0 || (c.TTL > 0 && c.RefreshInterval >= c.TTL) {
		errs = append(errs, errors.New("CACHE_REFRESH_INTERVAL must be between zero and CACHE_TTL"))
	}
	if c.WriteBackWorkers <= 0 {
		errs = append(errs, errors.New("CACHE_WRITEBACK_WORKERS must be positive"))
	}
	return errors.Join(errs...)
}
