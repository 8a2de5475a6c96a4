package sqlite

import "time"

// Config holds the database location and connection settings.
type Config struct {
	Path         string        `env:"SQLITE_PATH" envDefault:"cachekeeper.db"`
	BusyTimeout  time.Duration `env:"SQLITE_BUSY_TIMEOUT" envDefault:"5s"`
	MaxOpenConns int           `env:"SQLITE_MAX_OPEN_CONNS" envDefault:"1"`
}
