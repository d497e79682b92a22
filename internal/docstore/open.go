package docstore

import (
	"fmt"
	"log/slog"

	"github.com/dukerupert/chorequest/internal/database"
)

// Drivers accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverMemory = "memory"
)

// Config selects and locates a backend.
type Config struct {
	Driver string
	// Path is the SQLite file or Badger directory. Ignored by the memory driver.
	Path string
}

// Open opens the configured backend.
func Open(cfg Config, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		db, err := database.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewSQLite(db), nil
	case DriverBadger:
		return OpenBadger(cfg.Path, logger)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown document store driver %q", cfg.Driver)
	}
}
