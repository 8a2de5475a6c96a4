package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachekeeper/pkg/config"
)

type parseConfig struct {
	Name    string        `env:"CFG_TEST_NAME" envDefault:"default"`
	Size    int           `env:"CFG_TEST_SIZE" envDefault:"42"`
	Timeout time.Duration `env:"CFG_TEST_TIMEOUT" envDefault:"5s"`
}

type validatedConfig struct {
	Size int `env:"CFG_TEST_VALIDATED_SIZE" envDefault:"1"`
}

func (c validatedConfig) Validate() error {
	if c.Size <= 0 {
		return errors.New("size must be positive")
	}
	return nil
}

type requiredConfig struct {
	Value string `env:"CFG_TEST_REQUIRED,required"`
}

type cachedConfig struct {
	Value string `env:"CFG_TEST_CACHED" envDefault:"first"`
}

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg parseConfig
		require.NoError(t, config.Parse(&cfg))
		assert.Equal(t, "default", cfg.Name)
		assert.Equal(t, 42, cfg.Size)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("CFG_TEST_NAME", "custom")
		t.Setenv("CFG_TEST_SIZE", "7")
		t.Setenv("CFG_TEST_TIMEOUT", "250ms")

		var cfg parseConfig
		require.NoError(t, config.Parse(&cfg))
		assert.Equal(t, "custom", cfg.Name)
		assert.Equal(t, 7, cfg.Size)
		assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	})

	t.Run("parse error", func(t *testing.T) {
		t.Setenv("CFG_TEST_SIZE", "many")

		var cfg parseConfig
		err := config.Parse(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("missing required", func(t *testing.T) {
		var cfg requiredConfig
		assert.ErrorIs(t, config.Parse(&cfg), config.ErrParsingConfig)
	})

	t.Run("validation hook", func(t *testing.T) {
		t.Setenv("CFG_TEST_VALIDATED_SIZE", "0")

		var cfg validatedConfig
		err := config.Parse(&cfg)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "size must be positive")
	})

	t.Run("nil pointer", func(t *testing.T) {
		assert.ErrorIs(t, config.Parse[parseConfig](nil), config.ErrNilPointer)
	})
}

func TestLoad(t *testing.T) {
	t.Run("caches per type", func(t *testing.T) {
		t.Setenv("CFG_TEST_CACHED", "first")

		var first cachedConfig
		require.NoError(t, config.Load(&first))
		assert.Equal(t, "first", first.Value)

		t.Setenv("CFG_TEST_CACHED", "second")

		var second cachedConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "first", second.Value)
	})

	t.Run("nil pointer", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[cachedConfig](nil), config.ErrNilPointer)
	})

	t.Run("must load panics on invalid config", func(t *testing.T) {
		t.Setenv("CFG_TEST_VALIDATED_SIZE", "-1")

		assert.Panics(t, func() {
			var cfg validatedConfig
			config.MustLoad(&cfg)
		})
	})
}
