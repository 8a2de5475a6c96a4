package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Validator is implemented by config structs that check their own values
// after parsing, e.g. that a capacity is positive.
type Validator interface {
	Validate() error
}

var (
	dotenvOnce sync.Once

	loadedMu sync.Mutex
	loaded   = map[reflect.Type]any{}
)

// Load fills v from the environment once per type and returns the cached copy
// on later calls. A .env file in the working directory is read on first use.
//
//	type StoreConfig struct {
//		Driver  string        `env:"STORE_DRIVER" envDefault:"memory"`
//		Timeout time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
//	}
//
//	var cfg StoreConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// A missing .env file is fine.
		_ = godotenv.Load()
	})

	typ := reflect.TypeFor[T]()

	loadedMu.Lock()
	defer loadedMu.Unlock()

	if cached, ok := loaded[typ]; ok {
		*v = cached.(T)
		return nil
	}

	if err := Parse(v); err != nil {
		return err
	}
	loaded[typ] = *v

	return nil
}

// Parse fills v from the current environment without caching and runs
// Validate when v implements Validator.
func Parse[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	if val, ok := any(v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
	}
	return nil
}

// MustLoad works like Load but panics on failure. Use it for configuration
// the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
